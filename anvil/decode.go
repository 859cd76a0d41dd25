package anvil

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	mcnbt "github.com/Tnze/go-mc/nbt"
	"github.com/willf/bitset"

	"github.com/astei/anvil2bedrock/chunk"
	"github.com/astei/anvil2bedrock/nbt"
)

var ErrUnsupportedFormat = errors.New("anvil: chunk is not in the numeric block id format")

const (
	blocksSize = 4096
	nibbleSize = 2048
	columns    = 256
)

type chunkRoot struct {
	Level chunkLevel `nbt:"Level"`
}

type chunkLevel struct {
	X int32 `nbt:"xPos"`
	Z int32 `nbt:"zPos"`

	HeightMap []int32 `nbt:"HeightMap"`
	Biomes    []byte  `nbt:"Biomes"`

	Sections []chunkSection `nbt:"Sections"`

	// kept undecoded until converted into the local tree model
	TileEntities []mcnbt.RawMessage `nbt:"TileEntities"`
	Entities     []mcnbt.RawMessage `nbt:"Entities"`
}

type chunkSection struct {
	Y          int8   `nbt:"Y"`
	Blocks     []byte `nbt:"Blocks"`
	Data       []byte `nbt:"Data"`
	SkyLight   []byte `nbt:"SkyLight"`
	BlockLight []byte `nbt:"BlockLight"`
}

// Decode reads one uncompressed chunk NBT stream.
func Decode(r io.Reader) (*chunk.Chunk, error) {
	var root chunkRoot
	if _, err := mcnbt.NewDecoder(r).Decode(&root); err != nil {
		return nil, err
	}
	level := root.Level

	c := &chunk.Chunk{
		X: level.X,
		Z: level.Z,
	}

	if len(level.HeightMap) == columns {
		c.HeightMap = level.HeightMap
	}
	if len(level.Biomes) == columns {
		c.Biomes = level.Biomes
	}

	seen := bitset.New(chunk.Sections)
	for _, s := range level.Sections {
		if s.Y < 0 || int(s.Y) >= chunk.Sections {
			continue
		}
		if s.Blocks == nil {
			return nil, ErrUnsupportedFormat
		}
		if seen.Test(uint(s.Y)) {
			return nil, fmt.Errorf("anvil: chunk %d,%d: section %d repeated", c.X, c.Z, s.Y)
		}
		seen.Set(uint(s.Y))

		section, err := convertSection(s)
		if err != nil {
			return nil, fmt.Errorf("anvil: chunk %d,%d: %w", c.X, c.Z, err)
		}
		c.Sections[s.Y] = section
	}

	var err error
	if c.Tiles, err = convertTrees(level.TileEntities); err != nil {
		return nil, fmt.Errorf("anvil: chunk %d,%d tile entities: %w", c.X, c.Z, err)
	}
	if c.Entities, err = convertTrees(level.Entities); err != nil {
		return nil, fmt.Errorf("anvil: chunk %d,%d entities: %w", c.X, c.Z, err)
	}
	return c, nil
}

func convertSection(s chunkSection) (*chunk.Section, error) {
	if len(s.Blocks) != blocksSize {
		return nil, fmt.Errorf("section %d: %d block ids", s.Y, len(s.Blocks))
	}
	section := &chunk.Section{
		Blocks:     s.Blocks,
		Data:       nibbles(s.Data),
		SkyLight:   nibbles(s.SkyLight),
		BlockLight: nibbles(s.BlockLight),
	}
	return section, nil
}

// nibbles returns a, or a zeroed array when a has the wrong size.
func nibbles(a []byte) []byte {
	if len(a) != nibbleSize {
		return make([]byte, nibbleSize)
	}
	return a
}

func convertTrees(raw []mcnbt.RawMessage) ([]*nbt.Compound, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	trees := make([]*nbt.Compound, 0, len(raw))
	for i, message := range raw {
		v, err := nbt.UnmarshalPayload(message.Data, message.Type, binary.BigEndian)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		tree, ok := v.(*nbt.Compound)
		if !ok {
			return nil, fmt.Errorf("element %d is %T", i, v)
		}
		trees = append(trees, tree)
	}
	return trees, nil
}
