package remap_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astei/anvil2bedrock/remap"
)

func TestDefaultBlocks(t *testing.T) {
	table := remap.Default()

	id, data := table.Block(125, 3)
	assert.Equal(t, byte(157), id, "double wooden slab")
	assert.Equal(t, byte(3), data, "data kept")

	id, data = table.Block(3, 2)
	assert.Equal(t, byte(243), id, "podzol")
	assert.Equal(t, byte(0), data)

	id, data = table.Block(3, 1)
	assert.Equal(t, byte(3), id, "coarse dirt unchanged")
	assert.Equal(t, byte(1), data)

	id, data = table.Block(222, 0)
	assert.Equal(t, byte(218), id, "orange shulker box")
	assert.Equal(t, byte(3), data)

	id, _ = table.Block(1, 0)
	assert.Equal(t, byte(1), id, "unlisted block unchanged")
}

func TestItems(t *testing.T) {
	table := remap.Default()

	id, damage := table.Item("minecraft:diamond_sword", 12)
	assert.Equal(t, int16(276), id)
	assert.Equal(t, int16(12), damage)

	id, damage = table.Item("milk_bucket", 0)
	assert.Equal(t, int16(325), id)
	assert.Equal(t, int16(1), damage)

	id, damage = table.Item("125", 2)
	assert.Equal(t, int16(157), id, "numeric block item goes through the block table")
	assert.Equal(t, int16(2), damage)

	id, damage = table.Item("400", 0)
	assert.Equal(t, int16(400), id, "numeric item kept")
	assert.Equal(t, int16(0), damage)

	id, _ = table.Item("minecraft:no_such_thing", 0)
	assert.Equal(t, int16(0), id, "unknown becomes air")
}

func TestEntities(t *testing.T) {
	table := remap.Default()

	assert.Equal(t, "Chest", table.Entity("minecraft:chest"))
	assert.Equal(t, "CommandBlock", table.Entity("minecraft:command_block"))
	assert.Equal(t, "CommandBlock", table.Entity("Control"))
	assert.Equal(t, "EnchantTable", table.Entity("minecraft:enchanting_table"))
	assert.Equal(t, "MobSpawner", table.Entity("minecraft:mob_spawner"))
	assert.Equal(t, "Sign", table.Entity("Sign"))
}

func TestLoadOverrides(t *testing.T) {
	input := `
blocks:
  "1:1": "1:0"
items:
  stone: "1:5"
entities:
  minecraft:chest: TrappedChest
`
	table, err := remap.Load(strings.NewReader(input))
	require.NoError(t, err)

	id, data := table.Block(1, 1)
	assert.Equal(t, byte(1), id)
	assert.Equal(t, byte(0), data)

	_, damage := table.Item("minecraft:stone", 0)
	assert.Equal(t, int16(5), damage)

	assert.Equal(t, "TrappedChest", table.Entity("minecraft:chest"))

	id, _ = table.Block(125, 0)
	assert.Equal(t, byte(157), id, "defaults still present")
}

func TestLoadRejectsInvalid(t *testing.T) {
	for _, input := range []string{
		"blocks:\n  \"300\": \"1\"\n",
		"blocks:\n  \"1\": \"x\"\n",
		"blocks:\n  \"1:16\": \"1\"\n",
		"items:\n  stone: \"-4\"\n",
		"entities:\n  Chest: \"\"\n",
	} {
		_, err := remap.Load(strings.NewReader(input))
		assert.ErrorIs(t, err, remap.ErrInvalidEntry, "input %q", input)
	}
}

func TestLoadEmpty(t *testing.T) {
	table, err := remap.Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, "Chest", table.Entity("minecraft:chest"))
}
