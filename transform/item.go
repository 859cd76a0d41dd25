package transform

import (
	"fmt"
	"strconv"

	"github.com/astei/anvil2bedrock/nbt"
)

// convertItems rewrites every stack of a container inventory.
func (t *Transformer) convertItems(tag *nbt.Compound) error {
	items := tag.GetList("Items")
	if items == nil {
		return nil
	}
	for i, v := range items.Value {
		item, ok := v.(*nbt.Compound)
		if !ok {
			return fmt.Errorf("%w: Items element %d is %T", ErrMalformed, i, v)
		}
		if err := t.convertItem(item); err != nil {
			return err
		}
	}
	return nil
}

func (t *Transformer) convertItem(item *nbt.Compound) error {
	id, damage := t.remapper.Item(itemID(item, "id"), item.GetShort("Damage"))
	item.Set("id", id)
	item.Set("Damage", damage)

	extra := item.GetCompound("tag")
	if extra == nil {
		return nil
	}

	if enchantments := extra.GetList("ench"); enchantments != nil {
		for i, v := range enchantments.Value {
			ench, ok := v.(*nbt.Compound)
			if !ok {
				return fmt.Errorf("%w: ench element %d is %T", ErrMalformed, i, v)
			}
			if _, present := ench.Get("id"); !present {
				continue
			}
			n, err := strconv.ParseInt(itemID(ench, "id"), 10, 16)
			if err != nil {
				return fmt.Errorf("%w: enchantment id: %v", ErrMalformed, err)
			}
			// lvl is written with the id value as well
			ench.Set("id", int16(n))
			ench.Set("lvl", int16(n))
		}
	}

	if tile := extra.GetCompound("BlockEntityTag"); tile != nil {
		extra.Merge(tile)
	}
	return nil
}

// convertSingleItem handles the displayed item of item frames.
func (t *Transformer) convertSingleItem(tag *nbt.Compound) {
	name, ok := tag.GetString("Item")
	if !ok {
		return
	}
	id, data := t.remapper.Item(name, tag.GetShort("Data"))
	tag.Set("Item", id)
	tag.Set("mData", int32(data))
}

// itemID returns an id field as text, whether it is stored as a name or a number.
func itemID(c *nbt.Compound, name string) string {
	if s, ok := c.GetString(name); ok {
		return s
	}
	return strconv.Itoa(int(c.GetInt(name)))
}
