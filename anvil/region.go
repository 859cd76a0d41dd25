package anvil

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/willf/bitset"
)

const (
	regionChunks = 1024
	regionWidth  = 32
	sectorSize   = 4096
)

var ErrNoChunk = errors.New("anvil: chunk not found")
var ErrInvalidChunkLength = errors.New("anvil: invalid chunk length")
var ErrInvalidCompression = errors.New("anvil: invalid compression format")
var ErrOutOfRegion = errors.New("anvil: coordinates outside of region")

type Compression byte

const (
	CompressionGzip    Compression = 1
	CompressionDeflate Compression = 2
	CompressionNone    Compression = 3
)

// Region reads the chunks of one region file. It is not safe for concurrent use.
type Region struct {
	source      io.ReadSeeker
	sectorTable []int32
	Name        string
}

// OpenRegion opens the region file at path.
func OpenRegion(path string) (*Region, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	region, err := NewRegion(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	return region, nil
}

// NewRegion reads the sector table of source. The region takes ownership of source.
func NewRegion(source io.ReadSeeker) (region *Region, err error) {
	region = &Region{
		source:      source,
		sectorTable: make([]int32, regionChunks),
	}

	if file, ok := source.(*os.File); ok {
		region.Name = file.Name()
	}
	err = region.readSectorTable()
	return
}

func (r *Region) readSectorTable() (err error) {
	if _, err = r.source.Seek(0, io.SeekStart); err != nil {
		return
	}

	raw := make([]byte, sectorSize)
	if _, err = io.ReadFull(r.source, raw); err != nil {
		return
	}
	return binary.Read(bytes.NewReader(raw), binary.BigEndian, r.sectorTable)
}

// Chunks returns the set of occupied slots, indexed x + z*32.
func (r *Region) Chunks() *bitset.BitSet {
	present := bitset.New(regionChunks)
	for i, offset := range r.sectorTable {
		if offset != 0 {
			present.Set(uint(i))
		}
	}
	return present
}

func (r *Region) ChunkExists(x, z int) bool {
	if x < 0 || x >= regionWidth || z < 0 || z >= regionWidth {
		return false
	}
	return r.sectorTable[x+z*regionWidth] != 0
}

// ReadChunk returns the decompressed NBT stream of the chunk in slot x, z of this
// region. x and z are relative to the region, not chunk coordinates.
func (r *Region) ReadChunk(x, z int) (chunk io.Reader, err error) {
	if x < 0 || x >= regionWidth || z < 0 || z >= regionWidth {
		return nil, ErrOutOfRegion
	}
	offset := r.sectorTable[x+z*regionWidth]

	sectorNumber := offset >> 8
	occupiedSectors := offset & 0xff
	if sectorNumber == 0 {
		return nil, ErrNoChunk
	}

	if _, err = r.source.Seek(int64(sectorNumber)*sectorSize, io.SeekStart); err != nil {
		return
	}

	sectorData := make([]byte, int(occupiedSectors)*sectorSize)
	if _, err = io.ReadFull(r.source, sectorData); err != nil {
		return
	}

	sectorReader := bytes.NewReader(sectorData)
	var header struct {
		Length      int32
		Compression Compression
	}
	if err = binary.Read(sectorReader, binary.BigEndian, &header); err != nil {
		return
	}

	// the length counts the compression byte
	if header.Length < 1 || header.Length > int32(len(sectorData)-4) {
		return nil, ErrInvalidChunkLength
	}

	stream := io.LimitReader(sectorReader, int64(header.Length-1))
	switch header.Compression {
	case CompressionGzip:
		return gzip.NewReader(stream)
	case CompressionDeflate:
		return zlib.NewReader(stream)
	case CompressionNone:
		return stream, nil
	default:
		return nil, ErrInvalidCompression
	}
}

func (r *Region) Close() error {
	if closer, ok := r.source.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
