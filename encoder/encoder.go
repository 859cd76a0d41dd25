// Package encoder turns one decoded chunk into the LevelDB records of a Bedrock
// world.
package encoder

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/bitmark-inc/logger"

	"github.com/astei/anvil2bedrock/chunk"
	"github.com/astei/anvil2bedrock/dbkey"
	"github.com/astei/anvil2bedrock/nbt"
	"github.com/astei/anvil2bedrock/section"
	"github.com/astei/anvil2bedrock/transform"
)

// fixed record values
var (
	versionValue   = []byte{4}
	finalizedValue = []byte{2, 0, 0, 0}
)

const (
	heightsSize = 512
	biomesSize  = 256
	data2DSize  = heightsSize + biomesSize
)

// tickDelay is the number of ticks before a restored command block runs.
const tickDelay = 1

type Encoder struct {
	transformer *transform.Transformer
	worldTime   int64
	log         *logger.L
}

// New returns an encoder. worldTime is the Time field of the source level.dat;
// pending ticks are only written when it is nonzero.
func New(transformer *transform.Transformer, worldTime int64, log *logger.L) *Encoder {
	return &Encoder{
		transformer: transformer,
		worldTime:   worldTime,
		log:         log,
	}
}

// Encode puts every record of c into out. Tiles and entities are rewritten in place.
// A tile or entity that fails to convert is logged and left out; an error is only
// returned when a list cannot be serialised.
func (e *Encoder) Encode(c *chunk.Chunk, dimension int32, repack bool, out Putter) error {
	out.Put(dbkey.Chunk(c.X, c.Z, dimension, dbkey.Version), append([]byte(nil), versionValue...))
	out.Put(dbkey.Chunk(c.X, c.Z, dimension, dbkey.FinalizedState), append([]byte(nil), finalizedValue...))
	out.Put(dbkey.Chunk(c.X, c.Z, dimension, dbkey.Data2D), data2D(c))

	if len(c.Tiles) > 0 {
		tiles, ticks := e.convertTiles(c)
		if len(tiles) > 0 {
			value, err := encodeList(tiles)
			if err != nil {
				return fmt.Errorf("chunk %d,%d tiles: %w", c.X, c.Z, err)
			}
			out.Put(dbkey.Chunk(c.X, c.Z, dimension, dbkey.BlockEntity), value)
		}
		if len(ticks) > 0 {
			root := nbt.NewCompound()
			root.Set("tickList", nbt.NewList(nbt.TagCompound, ticks...))
			value, err := encodeList([]*nbt.Compound{root})
			if err != nil {
				return fmt.Errorf("chunk %d,%d ticks: %w", c.X, c.Z, err)
			}
			out.Put(dbkey.Chunk(c.X, c.Z, dimension, dbkey.PendingTicks), value)
		}
	}

	if len(c.Entities) > 0 {
		entities := e.convertEntities(c)
		if len(entities) > 0 {
			value, err := encodeList(entities)
			if err != nil {
				return fmt.Errorf("chunk %d,%d entities: %w", c.X, c.Z, err)
			}
			out.Put(dbkey.Chunk(c.X, c.Z, dimension, dbkey.Entity), value)
		}
	}

	for layer := c.HighestLayer(); layer >= 0; layer-- {
		out.Put(dbkey.SubChunk(c.X, c.Z, dimension, byte(layer)), section.Encode(c.Sections[layer], repack))
	}
	return nil
}

func (e *Encoder) convertTiles(c *chunk.Chunk) (tiles []*nbt.Compound, ticks []interface{}) {
	tiles = make([]*nbt.Compound, 0, len(c.Tiles))
	for _, tile := range c.Tiles {
		tick, err := e.transformer.Transform(c, tile)
		if err != nil {
			e.log.Warnf("chunk %d,%d: dropping tile entity %s: %s", c.X, c.Z, tile, err)
			continue
		}
		tiles = append(tiles, tile)

		if tick && e.worldTime != 0 {
			ticks = append(ticks, pendingTick(c, tile))
		}
	}
	return tiles, ticks
}

func (e *Encoder) convertEntities(c *chunk.Chunk) []*nbt.Compound {
	entities := make([]*nbt.Compound, 0, len(c.Entities))
	for _, entity := range c.Entities {
		if _, err := e.transformer.Transform(c, entity); err != nil {
			e.log.Warnf("chunk %d,%d: dropping entity %s: %s", c.X, c.Z, entity, err)
			continue
		}
		entities = append(entities, entity)
	}
	return entities
}

// pendingTick schedules the block under a tile entity to be ticked right after load.
func pendingTick(c *chunk.Chunk, tile *nbt.Compound) *nbt.Compound {
	x := tile.GetInt("x")
	y := tile.GetInt("y")
	z := tile.GetInt("z")
	id, _ := c.Block(int(x)&15, int(y), int(z)&15)

	tick := nbt.NewCompound()
	tick.Set("tileID", int8(id))
	tick.Set("x", x)
	tick.Set("y", y)
	tick.Set("z", z)
	tick.Set("time", int64(tickDelay))
	return tick
}

// data2D lays out 256 little endian heights followed by 256 biome ids.
func data2D(c *chunk.Chunk) []byte {
	value := make([]byte, data2DSize)
	for i, height := range c.HeightMap {
		if i >= heightsSize/2 {
			break
		}
		binary.LittleEndian.PutUint16(value[i*2:], uint16(height))
	}
	copy(value[heightsSize:], c.Biomes)
	return value
}

// encodeList writes each tree as an unnamed little endian root tag.
func encodeList(trees []*nbt.Compound) ([]byte, error) {
	var buf bytes.Buffer
	enc := nbt.NewEncoder(&buf, binary.LittleEndian)
	for _, tree := range trees {
		if err := enc.Encode("", tree); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
