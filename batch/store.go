package batch

import (
	"math"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

const (
	MiB = 1 << 20

	defaultBlockCache            = 8 * MiB
	defaultBlockSize             = 256 * 1024
	defaultMinWriteBuffer        = 128 * MiB
	defaultCompactionWriteBuffer = 128 * MiB

	// share of free memory given to the write buffer, in percent
	writeBufferShare = 80
)

// Opener opens the destination database with the given tuning.
type Opener func(o *opt.Options) (*leveldb.DB, error)

// FileOpener opens (creating if needed) the database in directory.
func FileOpener(directory string) Opener {
	return func(o *opt.Options) (*leveldb.DB, error) {
		return leveldb.OpenFile(directory, o)
	}
}

// StorageOpener opens the database on an existing storage, which stays open when
// the database is closed and so can be reopened.
func StorageOpener(s storage.Storage) Opener {
	return func(o *opt.Options) (*leveldb.DB, error) {
		return leveldb.Open(s, o)
	}
}

type StoreOptions struct {
	BlockCache            int // bytes
	BlockSize             int // bytes
	MinWriteBuffer        int // bytes, floor of the free memory based size
	MaxWriteBuffer        int // bytes, ceiling of the free memory based size
	CompactionWriteBuffer int // bytes
}

func (s StoreOptions) withDefaults() StoreOptions {
	if s.BlockCache <= 0 {
		s.BlockCache = defaultBlockCache
	}
	if s.BlockSize <= 0 {
		s.BlockSize = defaultBlockSize
	}
	if s.MinWriteBuffer <= 0 {
		s.MinWriteBuffer = defaultMinWriteBuffer
	}
	if s.MaxWriteBuffer <= 0 || s.MaxWriteBuffer > math.MaxInt32 {
		s.MaxWriteBuffer = math.MaxInt32
	}
	if s.MaxWriteBuffer < s.MinWriteBuffer {
		s.MaxWriteBuffer = s.MinWriteBuffer
	}
	if s.CompactionWriteBuffer <= 0 {
		s.CompactionWriteBuffer = defaultCompactionWriteBuffer
	}
	return s
}

// tuning returns the options for a bulk load with the given write buffer.
func (s StoreOptions) tuning(writeBuffer int) *opt.Options {
	return &opt.Options{
		BlockCacheCapacity: s.BlockCache,
		BlockSize:          s.BlockSize,
		WriteBuffer:        writeBuffer,
		Compression:        opt.NoCompression,
		Strict:             opt.NoStrict,
	}
}

// writeBuffer sizes the write buffer from the memory currently free.
func (s StoreOptions) writeBuffer() int {
	return boundWriteBuffer(freeMemory()/100*writeBufferShare, s.MinWriteBuffer, s.MaxWriteBuffer)
}

func boundWriteBuffer(size uint64, floor, ceiling int) int {
	if size < uint64(floor) {
		return floor
	}
	if size > uint64(ceiling) {
		return ceiling
	}
	return int(size)
}
