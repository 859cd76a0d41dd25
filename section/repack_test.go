package section_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/willf/bitset"

	"github.com/astei/anvil2bedrock/chunk"
	"github.com/astei/anvil2bedrock/section"
)

func anvilIndex(x, y, z int) int {
	return x + 16*z + 256*y
}

func bedrockIndex(x, y, z int) int {
	return y + 16*z + 256*x
}

// nibble reads voxel (x,y,z) from a packed array, pairing along the first coordinate
// of the given index function
func nibble(data []byte, index int) byte {
	b := data[index>>1]
	if index&1 == 0 {
		return b & 0x0f
	}
	return b >> 4
}

func TestRepackFullIsBijection(t *testing.T) {
	src := make([]byte, section.Volume)
	for i := range src {
		src[i] = byte(i * 7)
	}
	dst := make([]byte, section.Volume)
	section.RepackFull(dst, src)

	touched := bitset.New(section.Volume)
	for x := 0; x < 16; x++ {
		for y := 0; y < 16; y++ {
			for z := 0; z < 16; z++ {
				d := bedrockIndex(x, y, z)
				require.False(t, touched.Test(uint(d)), "destination %d written twice", d)
				touched.Set(uint(d))
				assert.Equal(t, src[anvilIndex(x, y, z)], dst[d], "voxel %d,%d,%d", x, y, z)
			}
		}
	}
	assert.Equal(t, uint(section.Volume), touched.Count())
}

func TestRepackNibblePreservesVoxels(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	src := make([]byte, section.NibbleSize)
	rng.Read(src)

	dst := make([]byte, section.NibbleSize)
	section.RepackNibble(dst, src)

	for x := 0; x < 16; x++ {
		for y := 0; y < 16; y++ {
			for z := 0; z < 16; z++ {
				before := nibble(src, anvilIndex(x, y, z))
				after := nibble(dst, bedrockIndex(x, y, z))
				require.Equal(t, before, after, "voxel %d,%d,%d", x, y, z)
			}
		}
	}
}

func TestRepackUnknownWidthPassesThrough(t *testing.T) {
	src := []byte{9, 8, 7, 6}
	dst := make([]byte, len(src))
	section.Repack(dst, src)
	assert.Equal(t, src, dst)
}

func TestRepackWrongWidthPanics(t *testing.T) {
	assert.Panics(t, func() {
		section.RepackFull(make([]byte, section.Volume), make([]byte, 10))
	})
	assert.Panics(t, func() {
		section.RepackNibble(make([]byte, 10), make([]byte, section.NibbleSize))
	})
}

func TestEncodeAbsentSection(t *testing.T) {
	value := section.Encode(nil, true)
	assert.Equal(t, make([]byte, section.ValueSize), value)
}

func TestEncodeLayout(t *testing.T) {
	s := chunk.NewSection()
	for i := range s.Blocks {
		s.Blocks[i] = 1
	}
	// voxel (1,0,0) data = 5: low nibble of the high half of byte 0
	s.Data[0] = 0x50
	for i := range s.SkyLight {
		s.SkyLight[i] = 0xff
	}

	value := section.Encode(s, true)
	require.Len(t, value, section.ValueSize)
	assert.Equal(t, byte(0), value[0])
	for i := 1; i <= section.Volume; i++ {
		require.Equal(t, byte(1), value[i])
	}

	data := value[1+section.Volume : 1+section.Volume+section.NibbleSize]
	assert.Equal(t, byte(5), nibble(data, bedrockIndex(1, 0, 0)))
	assert.Equal(t, byte(0), nibble(data, bedrockIndex(0, 0, 0)))

	sky := value[1+section.Volume+section.NibbleSize : 1+section.Volume+2*section.NibbleSize]
	for _, b := range sky {
		require.Equal(t, byte(0xff), b)
	}
	for _, b := range value[1+section.Volume+2*section.NibbleSize:] {
		require.Equal(t, byte(0), b)
	}
}

func TestEncodeWithoutRepackCopies(t *testing.T) {
	s := chunk.NewSection()
	for i := range s.Blocks {
		s.Blocks[i] = byte(i)
	}
	value := section.Encode(s, false)
	assert.Equal(t, s.Blocks, value[1:1+section.Volume])
}
