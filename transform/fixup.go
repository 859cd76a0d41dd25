package transform

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Tnze/go-mc/chat"

	"github.com/astei/anvil2bedrock/nbt"
)

// fixup is the kind-specific step run after the generic conversion.
type fixup int

const (
	fixupNone fixup = iota
	fixupVolatile
	fixupSign
	fixupCommandBlock
)

var fixups = map[string]fixup{
	"EndGateway":   fixupVolatile,
	"MobSpawner":   fixupVolatile,
	"Sign":         fixupSign,
	"CommandBlock": fixupCommandBlock,
}

func fixupFor(id string) fixup {
	return fixups[id]
}

func (f fixup) apply(id string, blocks BlockAccessor, tag *nbt.Compound) (bool, error) {
	switch f {
	case fixupVolatile:
		tag.Clear()
		tag.Set("id", id)
	case fixupSign:
		convertSignText(tag)
	case fixupCommandBlock:
		return convertCommandBlock(blocks, tag), nil
	case fixupNone:
	default:
		return false, fmt.Errorf("transform: unhandled fixup %d for %s", f, id)
	}
	return false, nil
}

// convertSignText reduces JSON text components to their plain text.
func convertSignText(tag *nbt.Compound) {
	for line := 1; line <= 4; line++ {
		name := fmt.Sprintf("Text%d", line)
		text, ok := tag.GetString(name)
		if ok && strings.HasPrefix(text, "{") {
			tag.Set(name, plainText(text))
		}
	}
}

func plainText(text string) string {
	var message chat.Message
	if err := json.Unmarshal([]byte(text), &message); err != nil {
		return text
	}
	return message.ClearString()
}

// Bedrock command block modes
const (
	modeImpulse   int32 = 0
	modeRepeating int32 = 1
	modeChain     int32 = 2
)

// Bedrock block ids of the command block variants
const (
	repeatingCommandBlock = 188
	chainCommandBlock     = 189
)

const commandBlockVersion = 3

// convertCommandBlock derives the Bedrock mode fields from the block carrying the
// tile. It reports whether a repeating block was running when the world was saved.
func convertCommandBlock(blocks BlockAccessor, tag *nbt.Compound) bool {
	x := int(tag.GetInt("x"))
	y := int(tag.GetInt("y"))
	z := int(tag.GetInt("z"))

	tag.Set("Version", int32(commandBlockVersion))
	id, data := blocks.Block(x&15, y, z&15)

	mode := modeImpulse
	switch id {
	case repeatingCommandBlock:
		mode = modeRepeating
	case chainCommandBlock:
		mode = modeChain
	}

	conditional := data > 7
	auto := tag.GetByte("auto")

	tag.SetIfAbsent("isMovable", int8(1))
	tag.Set("LPCommandMode", mode)
	tag.Set("LPCondionalMode", flag(conditional))
	tag.Set("LPRedstoneMode", flag(auto == 0))

	active := auto == 1 || tag.GetByte("powered") == 1
	met := !conditional || tag.GetByte("conditionMet") == 1
	return mode == modeRepeating && active && met
}

func flag(b bool) int8 {
	if b {
		return 1
	}
	return 0
}
