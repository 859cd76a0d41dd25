package section

import (
	"github.com/astei/anvil2bedrock/chunk"
)

// offsets of each payload inside a stored sub-chunk value
const (
	idsOffset        = 1
	dataOffset       = idsOffset + Volume
	skyLightOffset   = dataOffset + NibbleSize
	blockLightOffset = skyLightOffset + NibbleSize
)

// Encode builds the stored value for one sub-chunk. A nil section produces an all
// zero value. With repack false the payloads are copied as they are, for input that
// is already in Bedrock ordering.
func Encode(s *chunk.Section, repack bool) []byte {
	value := make([]byte, ValueSize)
	if s == nil {
		return value
	}

	place := copyInto
	if repack {
		place = Repack
	}
	place(value[idsOffset:dataOffset], s.Blocks)
	place(value[dataOffset:skyLightOffset], s.Data)
	place(value[skyLightOffset:blockLightOffset], s.SkyLight)
	place(value[blockLightOffset:], s.BlockLight)
	return value
}

func copyInto(dst, src []byte) {
	copy(dst, src)
}
