// Package chunk holds a decoded Anvil chunk in memory, still in Anvil voxel order.
package chunk

import (
	"sort"

	"github.com/astei/anvil2bedrock/nbt"
)

// Sections is the number of 16 block tall sections in a chunk column.
const Sections = 16

// Section holds the four parallel payloads of one 16x16x16 cube. Blocks has one byte
// per voxel; the other arrays pack two voxels per byte.
type Section struct {
	Blocks     []byte
	Data       []byte
	SkyLight   []byte
	BlockLight []byte
}

func NewSection() *Section {
	return &Section{
		Blocks:     make([]byte, 4096),
		Data:       make([]byte, 2048),
		SkyLight:   make([]byte, 2048),
		BlockLight: make([]byte, 2048),
	}
}

type Chunk struct {
	X int32
	Z int32

	// indexed by vertical layer, nil when the layer is empty
	Sections [Sections]*Section

	HeightMap []int32
	Biomes    []byte

	Tiles    []*nbt.Compound
	Entities []*nbt.Compound
}

// BlockRemapper rewrites a terrain block id and data value.
type BlockRemapper interface {
	Block(id, data byte) (byte, byte)
}

// Block returns the id and data value at chunk-local x, z and absolute y.
func (c *Chunk) Block(x, y, z int) (id, data byte) {
	if y < 0 || y >= Sections*16 {
		return 0, 0
	}
	s := c.Sections[y>>4]
	if s == nil {
		return 0, 0
	}
	index := x&15 + (z&15)<<4 + (y&15)<<8
	return s.Blocks[index], nibble(s.Data, index)
}

// HighestLayer returns the topmost non-empty section index, or -1.
func (c *Chunk) HighestLayer() int {
	layer := Sections - 1
	for layer >= 0 && c.Sections[layer] == nil {
		layer--
	}
	return layer
}

// Remap rewrites every voxel of every present section in place.
func (c *Chunk) Remap(r BlockRemapper) {
	for _, s := range c.Sections {
		if s == nil {
			continue
		}
		for index, id := range s.Blocks {
			newID, newData := r.Block(id, nibble(s.Data, index))
			s.Blocks[index] = newID
			setNibble(s.Data, index, newData)
		}
	}
}

// SortTiles orders tile entities by their chunk-local position and drops duplicates,
// keeping the last one seen for a position.
func (c *Chunk) SortTiles() {
	byPosition := make(map[int]*nbt.Compound, len(c.Tiles))
	for _, tile := range c.Tiles {
		byPosition[tilePosition(tile)] = tile
	}
	positions := make([]int, 0, len(byPosition))
	for position := range byPosition {
		positions = append(positions, position)
	}
	sort.Ints(positions)

	tiles := make([]*nbt.Compound, 0, len(positions))
	for _, position := range positions {
		tiles = append(tiles, byPosition[position])
	}
	c.Tiles = tiles
}

// Clear drops all payloads so that the chunk can be garbage collected even while a
// reference to it is still held.
func (c *Chunk) Clear() {
	c.Sections = [Sections]*Section{}
	c.HeightMap = nil
	c.Biomes = nil
	c.Tiles = nil
	c.Entities = nil
}

func tilePosition(tile *nbt.Compound) int {
	x := int(tile.GetInt("x"))
	y := int(tile.GetInt("y"))
	z := int(tile.GetInt("z"))
	return y<<8 | (z&15)<<4 | x&15
}

func nibble(data []byte, index int) byte {
	if len(data) <= index>>1 {
		return 0
	}
	b := data[index>>1]
	if index&1 == 0 {
		return b & 0x0f
	}
	return b >> 4
}

func setNibble(data []byte, index int, value byte) {
	if len(data) <= index>>1 {
		return
	}
	i := index >> 1
	if index&1 == 0 {
		data[i] = data[i]&0xf0 | value&0x0f
	} else {
		data[i] = data[i]&0x0f | value<<4
	}
}
