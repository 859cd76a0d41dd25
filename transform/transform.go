// Package transform rewrites tile entity and entity trees from Java edition form to
// the form Bedrock expects.
package transform

import (
	"errors"
	"fmt"

	"github.com/astei/anvil2bedrock/nbt"
	"github.com/astei/anvil2bedrock/remap"
)

var ErrMalformed = errors.New("transform: malformed tag")

// BlockAccessor looks up terrain by chunk-local x and z and absolute y.
type BlockAccessor interface {
	Block(x, y, z int) (id, data byte)
}

type Transformer struct {
	remapper remap.Remapper
}

func New(remapper remap.Remapper) *Transformer {
	return &Transformer{remapper: remapper}
}

// Transform rewrites tag in place. It reports whether the tile needs a scheduled
// tick to resume running after load. A tree without an "id" field is left alone.
//
// On error the tree may be partially rewritten and should be dropped.
func (t *Transformer) Transform(blocks BlockAccessor, tag *nbt.Compound) (tick bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			tick = false
			err = fmt.Errorf("%w: %v", ErrMalformed, r)
		}
	}()

	kind, ok := tag.GetString("id")
	if !ok {
		return false, nil
	}
	id := t.remapper.Entity(kind)
	tag.Set("id", id)

	if err = t.convertItems(tag); err != nil {
		return false, err
	}
	t.convertSingleItem(tag)

	if health, ok := tag.GetFloat("Health"); ok {
		tag.Set("Health", int16(health))
	}

	for _, name := range []string{"Orientation", "Position"} {
		if err = toFloatList(tag, name); err != nil {
			return false, err
		}
	}

	return fixupFor(id).apply(id, blocks, tag)
}

// toFloatList converts every element of a numeric list to a float.
func toFloatList(tag *nbt.Compound, name string) error {
	list := tag.GetList(name)
	if list == nil {
		return nil
	}
	values := make([]interface{}, len(list.Value))
	for i, v := range list.Value {
		var f float32
		switch n := v.(type) {
		case int8:
			f = float32(n)
		case int16:
			f = float32(n)
		case int32:
			f = float32(n)
		case int64:
			f = float32(n)
		case float32:
			f = n
		case float64:
			f = float32(n)
		default:
			return fmt.Errorf("%w: %s element %d is %T", ErrMalformed, name, i, v)
		}
		values[i] = f
	}
	tag.Set(name, nbt.NewList(nbt.TagFloat, values...))
	return nil
}
