package batch_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/astei/anvil2bedrock/batch"
	"github.com/astei/anvil2bedrock/chunk"
	"github.com/astei/anvil2bedrock/dbkey"
	"github.com/astei/anvil2bedrock/encoder"
	"github.com/astei/anvil2bedrock/remap"
	"github.com/astei/anvil2bedrock/section"
	"github.com/astei/anvil2bedrock/transform"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "batch")
	if err != nil {
		panic(err)
	}
	logging := logger.Configuration{
		Directory: dir,
		File:      "testing.log",
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	}
	if err := logger.Initialise(logging); err != nil {
		panic(err)
	}

	rc := m.Run()
	logger.Finalise()
	_ = os.RemoveAll(dir)
	os.Exit(rc)
}

// countingEncoder puts a single version record per chunk.
type countingEncoder struct {
	encoded uint64
	block   chan struct{}
	panicX  int32
}

func (e *countingEncoder) Encode(c *chunk.Chunk, dimension int32, repack bool, out encoder.Putter) error {
	if e.block != nil {
		<-e.block
	}
	if e.panicX != 0 && c.X == e.panicX {
		panic("bad chunk")
	}
	atomic.AddUint64(&e.encoded, 1)
	out.Put(dbkey.Chunk(c.X, c.Z, dimension, dbkey.Version), []byte{4})
	return nil
}

func newCoordinator(t *testing.T, enc batch.ChunkEncoder, options batch.Options) (*batch.Coordinator, storage.Storage) {
	options.Store = batch.StoreOptions{
		MinWriteBuffer:        4 * batch.MiB,
		MaxWriteBuffer:        4 * batch.MiB,
		CompactionWriteBuffer: 4 * batch.MiB,
	}
	stor := storage.NewMemStorage()
	c, err := batch.New(batch.StorageOpener(stor), enc, options, logger.New("batch"))
	require.NoError(t, err)
	return c, stor
}

func submitChunks(t *testing.T, c *batch.Coordinator, n int) {
	ctx := context.Background()
	for i := 0; i < n; i++ {
		require.NoError(t, c.Submit(ctx, &chunk.Chunk{X: int32(i), Z: int32(i >> 8)}, 0, true))
	}
}

func TestFlushEvery8192(t *testing.T) {
	enc := &countingEncoder{}
	c, _ := newCoordinator(t, enc, batch.Options{Workers: 4})
	defer c.Close()

	submitChunks(t, c, 8192)

	stats := c.Stats()
	assert.Equal(t, uint64(8192), stats.Submitted)
	assert.Equal(t, uint64(8), stats.BacklogChecks)
	assert.Equal(t, uint64(1), stats.Flushes)
	assert.Equal(t, uint64(0), stats.Reopens)
}

func TestReopenEvery65536(t *testing.T) {
	enc := &countingEncoder{}
	c, _ := newCoordinator(t, enc, batch.Options{Workers: 4})
	defer c.Close()

	submitChunks(t, c, 65536)

	stats := c.Stats()
	assert.Equal(t, uint64(8), stats.Flushes)
	assert.Equal(t, uint64(1), stats.Reopens)
}

func TestNoBacklogCheckBelowInterval(t *testing.T) {
	enc := &countingEncoder{}
	c, _ := newCoordinator(t, enc, batch.Options{})
	defer c.Close()

	submitChunks(t, c, 1023)

	stats := c.Stats()
	assert.Equal(t, uint64(0), stats.BacklogChecks)
	assert.Equal(t, uint64(0), stats.Flushes)
}

func TestFlushWritesEveryChunk(t *testing.T) {
	enc := encoder.New(transform.New(remap.Default()), 0, logger.New("encoder"))
	c, stor := newCoordinator(t, enc, batch.Options{Workers: 3})

	ctx := context.Background()
	for x := int32(0); x < 50; x++ {
		ch := &chunk.Chunk{X: x, Z: -x}
		ch.Sections[1] = chunk.NewSection()
		require.NoError(t, c.Submit(ctx, ch, 1, true))
	}
	require.NoError(t, c.Flush(false))
	require.NoError(t, c.Close())

	db, err := leveldb.Open(stor, nil)
	require.NoError(t, err)
	defer db.Close()

	for x := int32(0); x < 50; x++ {
		value, err := db.Get(dbkey.Chunk(x, -x, 1, dbkey.Version), nil)
		require.NoError(t, err, "chunk %d", x)
		assert.Equal(t, []byte{4}, value)

		value, err = db.Get(dbkey.SubChunk(x, -x, 1, 0), nil)
		require.NoError(t, err, "chunk %d", x)
		assert.Len(t, value, section.ValueSize)
	}
}

func TestSubmittedChunksAreCleared(t *testing.T) {
	c, _ := newCoordinator(t, &countingEncoder{}, batch.Options{})
	defer c.Close()

	ch := &chunk.Chunk{HeightMap: make([]int32, 256)}
	ch.Sections[0] = chunk.NewSection()
	require.NoError(t, c.Submit(context.Background(), ch, 0, true))
	require.NoError(t, c.Flush(false))

	assert.Nil(t, ch.HeightMap)
	assert.Equal(t, -1, ch.HighestLayer())
}

func TestTaskPanicIsContained(t *testing.T) {
	enc := &countingEncoder{panicX: 3}
	c, stor := newCoordinator(t, enc, batch.Options{Workers: 2})

	submitChunks(t, c, 10)
	require.NoError(t, c.Flush(false))
	require.NoError(t, c.Close())
	assert.Equal(t, uint64(9), atomic.LoadUint64(&enc.encoded))

	db, err := leveldb.Open(stor, nil)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Get(dbkey.Chunk(3, 0, 0, dbkey.Version), nil)
	assert.Equal(t, leveldb.ErrNotFound, err)
	_, err = db.Get(dbkey.Chunk(4, 0, 0, dbkey.Version), nil)
	assert.NoError(t, err)
}

func TestThrottleHonoursContext(t *testing.T) {
	enc := &countingEncoder{block: make(chan struct{})}
	c, _ := newCoordinator(t, enc, batch.Options{
		Workers:         1,
		BacklogInterval: 100,
		HighWatermark:   10,
		LowWatermark:    5,
	})

	submitChunks(t, c, 99)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.Submit(ctx, &chunk.Chunk{}, 0, true)
	assert.ErrorIs(t, err, context.Canceled)

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.BacklogChecks)
	assert.Equal(t, uint64(1), stats.Throttled)

	close(enc.block)
	require.NoError(t, c.Close())
}

func TestThrottleReleasesWhenDrained(t *testing.T) {
	enc := &countingEncoder{block: make(chan struct{})}
	c, _ := newCoordinator(t, enc, batch.Options{
		Workers:         1,
		BacklogInterval: 50,
		HighWatermark:   10,
		LowWatermark:    5,
	})
	defer c.Close()

	submitChunks(t, c, 49)
	close(enc.block)

	require.NoError(t, c.Submit(context.Background(), &chunk.Chunk{}, 0, true))
	assert.Equal(t, uint64(1), c.Stats().BacklogChecks)
}

func TestFlushWhileSubmitting(t *testing.T) {
	enc := &countingEncoder{}
	c, _ := newCoordinator(t, enc, batch.Options{Workers: 4})
	defer c.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 2000; i++ {
			assert.NoError(t, c.Submit(context.Background(), &chunk.Chunk{X: int32(i)}, 0, true))
		}
	}()
	for i := 0; i < 20; i++ {
		assert.NoError(t, c.Flush(false))
	}
	wg.Wait()
	require.NoError(t, c.Flush(false))

	assert.Equal(t, uint64(2000), atomic.LoadUint64(&enc.encoded))
	assert.Equal(t, uint64(21), c.Stats().Flushes)
}

func TestReopenFailureStopsSubmissions(t *testing.T) {
	errDiskGone := errors.New("disk gone")
	stor := storage.NewMemStorage()
	opened := 0
	open := func(o *opt.Options) (*leveldb.DB, error) {
		opened++
		if opened > 1 {
			return nil, errDiskGone
		}
		return leveldb.Open(stor, o)
	}

	options := batch.Options{
		Workers: 2,
		Store: batch.StoreOptions{
			MinWriteBuffer: 4 * batch.MiB,
			MaxWriteBuffer: 4 * batch.MiB,
		},
	}
	c, err := batch.New(open, &countingEncoder{}, options, logger.New("batch"))
	require.NoError(t, err)

	submitChunks(t, c, 10)
	assert.ErrorIs(t, c.Flush(true), errDiskGone)

	err = c.Submit(context.Background(), &chunk.Chunk{}, 0, true)
	assert.ErrorIs(t, err, batch.ErrStoreLost)
	assert.ErrorIs(t, c.Flush(false), batch.ErrStoreLost)

	require.NoError(t, c.Close())
	err = c.Submit(context.Background(), &chunk.Chunk{}, 0, true)
	assert.ErrorIs(t, err, batch.ErrPoolClosed)
	assert.ErrorIs(t, c.Flush(false), batch.ErrClosed)
}

func TestSubmitAfterClose(t *testing.T) {
	c, _ := newCoordinator(t, &countingEncoder{}, batch.Options{})
	require.NoError(t, c.Close())

	err := c.Submit(context.Background(), &chunk.Chunk{}, 0, true)
	assert.ErrorIs(t, err, batch.ErrPoolClosed)
}

func TestPrepareRunsBeforeEncode(t *testing.T) {
	var prepared uint64
	enc := &countingEncoder{}
	c, stor := newCoordinator(t, enc, batch.Options{
		Workers: 2,
		Prepare: func(ch *chunk.Chunk) {
			atomic.AddUint64(&prepared, 1)
			ch.X += 1000
		},
	})

	submitChunks(t, c, 5)
	require.NoError(t, c.Flush(false))
	require.NoError(t, c.Close())
	assert.Equal(t, uint64(5), atomic.LoadUint64(&prepared))

	db, err := leveldb.Open(stor, nil)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Get(dbkey.Chunk(1004, 0, 0, dbkey.Version), nil)
	assert.NoError(t, err)
}

func TestCloseIsIdempotent(t *testing.T) {
	c, _ := newCoordinator(t, &countingEncoder{}, batch.Options{})

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	assert.ErrorIs(t, c.Flush(false), batch.ErrClosed)
	assert.ErrorIs(t, c.Submit(context.Background(), &chunk.Chunk{}, 0, true), batch.ErrPoolClosed)
}

func TestCompactAfterClose(t *testing.T) {
	c, stor := newCoordinator(t, &countingEncoder{}, batch.Options{})

	submitChunks(t, c, 100)
	require.NoError(t, c.Flush(false))
	require.NoError(t, c.Close())

	c.Compact()

	db, err := leveldb.Open(stor, nil)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Get(dbkey.Chunk(42, 0, 0, dbkey.Version), nil)
	assert.NoError(t, err)
}
