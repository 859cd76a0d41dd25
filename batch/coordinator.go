// Package batch persists encoded chunks. Each pool worker collects records in its
// own LevelDB write batch; batches are written to the database in periodic flushes,
// and the database handle is periodically reopened to release memory.
package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/astei/anvil2bedrock/chunk"
	"github.com/astei/anvil2bedrock/encoder"
)

var (
	ErrClosed    = errors.New("batch: coordinator is closed")
	ErrStoreLost = errors.New("batch: database could not be reopened")
)

const (
	defaultBacklogInterval = 1024
	defaultFlushInterval   = 8192
	defaultReopenInterval  = 65536
	defaultHighWatermark   = 127
	defaultLowWatermark    = 64
	defaultBacklogPoll     = 5 * time.Millisecond
)

// ChunkEncoder writes the records of one chunk. *encoder.Encoder satisfies it.
type ChunkEncoder interface {
	Encode(c *chunk.Chunk, dimension int32, repack bool, out encoder.Putter) error
}

// Options control the pipeline. Zero values select the defaults.
type Options struct {
	Workers int

	// submission counts at which the backlog is checked, batches are flushed and
	// the database is reopened
	BacklogInterval uint64
	FlushInterval   uint64
	ReopenInterval  uint64

	// queued task counts that start and end producer throttling
	HighWatermark int
	LowWatermark  int
	BacklogPoll   time.Duration

	// run on the worker before a chunk is encoded
	Prepare func(c *chunk.Chunk)

	Store StoreOptions
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.BacklogInterval == 0 {
		o.BacklogInterval = defaultBacklogInterval
	}
	if o.FlushInterval == 0 {
		o.FlushInterval = defaultFlushInterval
	}
	if o.ReopenInterval == 0 {
		o.ReopenInterval = defaultReopenInterval
	}
	if o.HighWatermark <= 0 {
		o.HighWatermark = defaultHighWatermark
	}
	if o.LowWatermark <= 0 || o.LowWatermark > o.HighWatermark {
		o.LowWatermark = defaultLowWatermark
	}
	if o.BacklogPoll <= 0 {
		o.BacklogPoll = defaultBacklogPoll
	}
	o.Store = o.Store.withDefaults()
	return o
}

// Stats counts lifecycle events since the coordinator was created.
type Stats struct {
	Submitted     uint64
	BacklogChecks uint64
	Throttled     uint64
	Flushes       uint64
	Reopens       uint64
}

type Coordinator struct {
	log     *logger.L
	open    Opener
	encoder ChunkEncoder
	options Options
	pool    *pool

	submitted     uint64
	backlogChecks uint64
	throttled     uint64

	// guards everything below, and is held for the whole of a flush
	mu      sync.Mutex
	db      *leveldb.DB
	batches map[int]*leveldb.Batch
	flushes uint64
	reopens uint64
	lost    error // set when a reopen failed; db is nil from then on
	closed  bool
}

// New opens the database and starts the worker pool.
func New(open Opener, enc ChunkEncoder, options Options, log *logger.L) (*Coordinator, error) {
	options = options.withDefaults()

	c := &Coordinator{
		log:     log,
		open:    open,
		encoder: enc,
		options: options,
		batches: make(map[int]*leveldb.Batch),
	}

	writeBuffer := options.Store.writeBuffer()
	db, err := open(options.Store.tuning(writeBuffer))
	if err != nil {
		return nil, err
	}
	c.db = db
	c.pool = newPool(options.Workers, log)

	log.Infof("opened database: workers: %d  write buffer: %d MiB", options.Workers, writeBuffer/MiB)
	return c, nil
}

// Submit schedules c to be encoded and written. Every BacklogInterval submissions
// it throttles the caller while the queue is long, and every FlushInterval
// submissions it flushes before queueing. The chunk is cleared once written.
//
// Submit returns ctx.Err() if ctx ends while the caller is throttled, and an error
// wrapping ErrStoreLost once the database could not be reopened.
func (c *Coordinator) Submit(ctx context.Context, ch *chunk.Chunk, dimension int32, repack bool) error {
	n := atomic.AddUint64(&c.submitted, 1)

	if n%c.options.BacklogInterval == 0 {
		if err := c.throttle(ctx); err != nil {
			return err
		}
	}
	if n%c.options.FlushInterval == 0 {
		reopen := n%c.options.ReopenInterval == 0
		if err := c.Flush(reopen); err != nil {
			c.log.Errorf("flush after %d chunks: %s", n, err)
		}
	}
	if err := c.storeError(); err != nil {
		return err
	}

	return c.pool.submit(func(w *worker) {
		defer ch.Clear()
		if c.options.Prepare != nil {
			c.options.Prepare(ch)
		}
		b := c.batchFor(w)
		if err := c.encoder.Encode(ch, dimension, repack, b); err != nil {
			c.log.Errorf("chunk %d,%d in dimension %d: %s", ch.X, ch.Z, dimension, err)
		}
	})
}

// throttle waits for the queue to drain below the low watermark once it has grown
// past the high one.
func (c *Coordinator) throttle(ctx context.Context) error {
	atomic.AddUint64(&c.backlogChecks, 1)

	queued := c.pool.queued()
	if queued <= c.options.HighWatermark {
		return nil
	}
	atomic.AddUint64(&c.throttled, 1)
	c.log.Debugf("throttling: %d chunks queued", queued)
	runtime.GC()

	ticker := time.NewTicker(c.options.BacklogPoll)
	defer ticker.Stop()
	for queued > c.options.LowWatermark {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		queued = c.pool.queued()
	}
	return nil
}

func (c *Coordinator) storeError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lost != nil {
		return fmt.Errorf("%w: %s", ErrStoreLost, c.lost)
	}
	return nil
}

// batchFor returns the batch of w, creating it on first use.
func (c *Coordinator) batchFor(w *worker) *leveldb.Batch {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.batches[w.id]
	if !ok {
		b = new(leveldb.Batch)
		c.batches[w.id] = b
	}
	return b
}

// Flush waits for all submitted chunks, then writes and discards every worker's
// batch. With reopen set the database is closed and opened again with a write
// buffer sized to the memory free at that point.
func (c *Coordinator) Flush(reopen bool) error {
	c.pool.quiesce()

	// worker locks come before mu, the order a running task takes them in
	for _, w := range c.pool.workers {
		w.Lock()
		defer w.Unlock()
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.lost != nil {
		// nothing can be written any more
		c.batches = make(map[int]*leveldb.Batch)
		return fmt.Errorf("%w: %s", ErrStoreLost, c.lost)
	}

	var firstErr error
	for _, w := range c.pool.workers {
		b, ok := c.batches[w.id]
		if !ok {
			continue
		}
		if err := c.db.Write(b, nil); err != nil {
			c.log.Errorf("write batch of worker %d: %s", w.id, err)
			if firstErr == nil {
				firstErr = err
			}
		}
		delete(c.batches, w.id)
	}
	c.flushes++

	if reopen {
		if err := c.reopen(); err != nil {
			return err
		}
	}
	return firstErr
}

// reopen must be called with mu held.
func (c *Coordinator) reopen() error {
	if err := c.db.Close(); err != nil {
		c.log.Errorf("close before reopen: %s", err)
	}
	c.db = nil
	runtime.GC()

	writeBuffer := c.options.Store.writeBuffer()
	db, err := c.open(c.options.Store.tuning(writeBuffer))
	if err != nil {
		c.log.Criticalf("reopen database: %s", err)
		c.lost = err
		c.batches = make(map[int]*leveldb.Batch)
		return err
	}
	c.db = db
	c.reopens++
	c.log.Infof("reopened database: write buffer: %d MiB", writeBuffer/MiB)
	return nil
}

// Close stops the pool, waiting for running tasks, and closes the database.
// Batches not yet flushed are discarded. Closing twice is a no-op.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.pool.shutdown()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches = make(map[int]*leveldb.Batch)
	db := c.db
	c.db = nil
	if db == nil {
		return nil
	}
	return db.Close()
}

// Compact reopens the closed database with compaction tuning, compacts all of it and
// closes it again. Failures are logged only.
func (c *Coordinator) Compact() {
	c.log.Info("compacting database")
	db, err := c.open(c.options.Store.tuning(c.options.Store.CompactionWriteBuffer))
	if err != nil {
		c.log.Errorf("open for compaction: %s", err)
		return
	}
	if err := db.CompactRange(util.Range{}); err != nil {
		c.log.Errorf("compaction: %s", err)
	}
	if err := db.Close(); err != nil {
		c.log.Errorf("close after compaction: %s", err)
		return
	}
	c.log.Info("compaction finished")
}

func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Submitted:     atomic.LoadUint64(&c.submitted),
		BacklogChecks: atomic.LoadUint64(&c.backlogChecks),
		Throttled:     atomic.LoadUint64(&c.throttled),
		Flushes:       c.flushes,
		Reopens:       c.reopens,
	}
}
