// Package dbkey builds the LevelDB keys of a Bedrock world.
//
// Every per-chunk key starts with the chunk X and Z as little endian int32. Chunks
// outside the overworld add the dimension as a little endian int32. A one byte
// record kind follows, and sub-chunk records end with their vertical index.
package dbkey

import (
	"encoding/binary"
)

// Kind is the record tag byte of a per-chunk key.
type Kind byte

const (
	Data2D         Kind = 45  // '-' height map and biomes
	SubChunkPrefix Kind = 47  // '/' terrain of one 16 block tall section
	BlockEntity    Kind = 49  // '1'
	Entity         Kind = 50  // '2'
	PendingTicks   Kind = 51  // '3'
	FinalizedState Kind = 54  // '6'
	Version        Kind = 118 // 'v'
)

const (
	overworldKeySize = 9
	dimensionKeySize = 13
)

// Chunk returns the key of a per-chunk record: 9 bytes for dimension 0, 13 otherwise.
func Chunk(x, z, dimension int32, kind Kind) []byte {
	key := index(x, z, dimension, 0)
	return append(key, byte(kind))
}

// SubChunk returns the key of a terrain section: 10 bytes for dimension 0, 14
// otherwise.
func SubChunk(x, z, dimension int32, layer byte) []byte {
	key := index(x, z, dimension, 1)
	return append(key, byte(SubChunkPrefix), layer)
}

// index writes the coordinate prefix, leaving room for the record kind and extra
// trailing bytes.
func index(x, z, dimension int32, extra int) []byte {
	size := overworldKeySize
	if dimension != 0 {
		size = dimensionKeySize
	}
	b := make([]byte, size-1, size+extra)
	binary.LittleEndian.PutUint32(b, uint32(x))
	binary.LittleEndian.PutUint32(b[4:], uint32(z))
	if dimension != 0 {
		binary.LittleEndian.PutUint32(b[8:], uint32(dimension))
	}
	return b
}
