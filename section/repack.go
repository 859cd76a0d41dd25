// Package section converts per-voxel section payloads from the Anvil layout to the
// Bedrock layout.
//
// Anvil orders a 16x16x16 section with X varying fastest, then Z, then Y
// (index x + 16z + 256y). Bedrock orders Y fastest, then Z, then X
// (index y + 16z + 256x). Nibble arrays pack two voxels per byte, even coordinate
// in the low nibble; Anvil pairs neighbours along X, Bedrock along Y.
package section

const (
	Volume     = 16 * 16 * 16
	NibbleSize = Volume / 2

	// ValueSize is the length of a stored sub-chunk: format byte, ids, data,
	// sky light and block light.
	ValueSize = 1 + Volume + 3*NibbleSize
)

// Repack writes src into dst converting between orderings. Full byte arrays and
// nibble arrays are reordered; any other width is copied unchanged. dst must be at
// least as long as src.
func Repack(dst, src []byte) {
	switch len(src) {
	case Volume:
		RepackFull(dst, src)
	case NibbleSize:
		RepackNibble(dst, src)
	default:
		copy(dst, src)
	}
}

// RepackFull reorders a one byte per voxel array.
func RepackFull(dst, src []byte) {
	if len(src) != Volume || len(dst) < Volume {
		panic("section: full byte repack needs 4096 bytes")
	}
	index := 0
	for y := 0; y < 16; y++ {
		for z := 0; z < 16; z++ {
			row := y + z<<4
			for x := 0; x < 16; x++ {
				dst[row+x<<8] = src[index]
				index++
			}
		}
	}
}

// RepackNibble reorders a four bits per voxel array. Every destination byte is
// built from two Y-adjacent voxels, read from their X-paired source bytes.
func RepackNibble(dst, src []byte) {
	if len(src) != NibbleSize || len(dst) < NibbleSize {
		panic("section: nibble repack needs 2048 bytes")
	}
	index := 0
	for x := 0; x < 16; x++ {
		shift := uint(x&1) << 2
		for z := 0; z < 16; z++ {
			column := x + z<<4
			for y := 0; y < 16; y += 2 {
				lo := (src[(column+y<<8)>>1] >> shift) & 0x0f
				hi := (src[(column+(y+1)<<8)>>1] >> shift) & 0x0f
				dst[index] = lo | hi<<4
				index++
			}
		}
	}
}
