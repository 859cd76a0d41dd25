package batch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

func TestBoundWriteBuffer(t *testing.T) {
	floor := 128 * MiB
	assert.Equal(t, floor, boundWriteBuffer(0, floor, math.MaxInt32))
	assert.Equal(t, floor, boundWriteBuffer(uint64(floor-1), floor, math.MaxInt32))
	assert.Equal(t, 300*MiB, boundWriteBuffer(300*MiB, floor, math.MaxInt32))
	assert.Equal(t, math.MaxInt32, boundWriteBuffer(1<<40, floor, math.MaxInt32))
}

func TestStoreDefaults(t *testing.T) {
	s := StoreOptions{}.withDefaults()
	assert.Equal(t, 8*MiB, s.BlockCache)
	assert.Equal(t, 256*1024, s.BlockSize)
	assert.Equal(t, 128*MiB, s.MinWriteBuffer)
	assert.Equal(t, math.MaxInt32, s.MaxWriteBuffer)
	assert.Equal(t, 128*MiB, s.CompactionWriteBuffer)

	w := s.writeBuffer()
	assert.GreaterOrEqual(t, w, s.MinWriteBuffer)
	assert.LessOrEqual(t, w, s.MaxWriteBuffer)
}

func TestTuning(t *testing.T) {
	o := StoreOptions{}.withDefaults().tuning(200 * MiB)
	assert.Equal(t, 8*MiB, o.BlockCacheCapacity)
	assert.Equal(t, 256*1024, o.BlockSize)
	assert.Equal(t, 200*MiB, o.WriteBuffer)
	assert.Equal(t, opt.NoCompression, o.Compression)
	assert.False(t, o.GetStrict(opt.StrictBlockChecksum))
}

func TestOptionDefaults(t *testing.T) {
	o := Options{LowWatermark: 500}.withDefaults()
	assert.Greater(t, o.Workers, 0)
	assert.Equal(t, uint64(1024), o.BacklogInterval)
	assert.Equal(t, uint64(8192), o.FlushInterval)
	assert.Equal(t, uint64(65536), o.ReopenInterval)
	assert.Equal(t, 127, o.HighWatermark)
	assert.Equal(t, 64, o.LowWatermark, "low above high falls back")
}
