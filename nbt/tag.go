package nbt

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	TagEnd byte = iota
	TagByte
	TagShort
	TagInt
	TagLong
	TagFloat
	TagDouble
	TagByteArray
	TagString
	TagList
	TagCompound
	TagIntArray
	TagLongArray
)

// Compound is a named set of tags. Iteration follows insertion order, so a tree that
// is decoded and encoded again without changes produces the same bytes.
//
// Values held by a Compound or List are one of: int8, int16, int32, int64, float32,
// float64, []byte, string, *List, *Compound, []int32, []int64.
type Compound struct {
	m *orderedmap.OrderedMap[string, interface{}]
}

type List struct {
	Type  byte
	Value []interface{}
}

func NewCompound() *Compound {
	return &Compound{m: orderedmap.New[string, interface{}]()}
}

func NewList(elementType byte, values ...interface{}) *List {
	return &List{Type: elementType, Value: values}
}

func (c *Compound) Len() int {
	return c.m.Len()
}

func (c *Compound) Get(name string) (interface{}, bool) {
	return c.m.Get(name)
}

// Set replaces the value under name, keeping its position if it already exists.
func (c *Compound) Set(name string, v interface{}) {
	c.m.Set(name, v)
}

// SetIfAbsent stores v only when name is not present.
func (c *Compound) SetIfAbsent(name string, v interface{}) {
	if _, ok := c.m.Get(name); !ok {
		c.m.Set(name, v)
	}
}

func (c *Compound) Delete(name string) {
	c.m.Delete(name)
}

func (c *Compound) Clear() {
	c.m = orderedmap.New[string, interface{}]()
}

// Range calls fn for every entry in order until fn returns false.
func (c *Compound) Range(fn func(name string, v interface{}) bool) {
	for pair := c.m.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// Merge copies every entry of other into c.
func (c *Compound) Merge(other *Compound) {
	other.Range(func(name string, v interface{}) bool {
		c.m.Set(name, v)
		return true
	})
}

func (c *Compound) GetString(name string) (string, bool) {
	v, ok := c.m.Get(name)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetByte returns the named value as a byte, or 0 if it is absent or not a Byte tag.
func (c *Compound) GetByte(name string) int8 {
	v, _ := c.m.Get(name)
	b, _ := v.(int8)
	return b
}

// GetShort returns the named value widened from Byte or Short, or 0.
func (c *Compound) GetShort(name string) int16 {
	v, _ := c.m.Get(name)
	switch n := v.(type) {
	case int8:
		return int16(n)
	case int16:
		return n
	}
	return 0
}

// GetInt returns the named value widened from any integral tag up to Int, or 0.
func (c *Compound) GetInt(name string) int32 {
	v, _ := c.m.Get(name)
	switch n := v.(type) {
	case int8:
		return int32(n)
	case int16:
		return int32(n)
	case int32:
		return n
	}
	return 0
}

func (c *Compound) GetLong(name string) (int64, bool) {
	v, ok := c.m.Get(name)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

func (c *Compound) GetFloat(name string) (float32, bool) {
	v, _ := c.m.Get(name)
	f, ok := v.(float32)
	return f, ok
}

func (c *Compound) GetList(name string) *List {
	v, _ := c.m.Get(name)
	l, _ := v.(*List)
	return l
}

func (c *Compound) GetCompound(name string) *Compound {
	v, _ := c.m.Get(name)
	sub, _ := v.(*Compound)
	return sub
}

// typeOf returns the tag type used to encode v, or TagEnd for unsupported values.
func typeOf(v interface{}) byte {
	switch v.(type) {
	case int8:
		return TagByte
	case int16:
		return TagShort
	case int32:
		return TagInt
	case int64:
		return TagLong
	case float32:
		return TagFloat
	case float64:
		return TagDouble
	case []byte:
		return TagByteArray
	case string:
		return TagString
	case *List:
		return TagList
	case *Compound:
		return TagCompound
	case []int32:
		return TagIntArray
	case []int64:
		return TagLongArray
	}
	return TagEnd
}
