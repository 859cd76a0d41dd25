package nbt

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

var ErrUnknownType = errors.New("nbt: unknown value type")

// Marshal writes v as a named root tag.
func Marshal(w io.Writer, order binary.ByteOrder, name string, v interface{}) error {
	return NewEncoder(w, order).Encode(name, v)
}

type Encoder struct {
	w     io.Writer
	order binary.ByteOrder
}

// NewEncoder returns an encoder writing numbers in the given byte order. Java edition
// files are big endian, Bedrock files little endian.
func NewEncoder(w io.Writer, order binary.ByteOrder) *Encoder {
	return &Encoder{w: w, order: order}
}

func (e *Encoder) Encode(name string, v interface{}) error {
	tagType := typeOf(v)
	if tagType == TagEnd {
		return fmt.Errorf("%w: %T whilst serializing %q", ErrUnknownType, v, name)
	}
	if err := e.writeTag(tagType, name); err != nil {
		return err
	}
	return e.marshal(v)
}

func (e *Encoder) marshal(v interface{}) error {
	switch val := v.(type) {
	case int8:
		_, err := e.w.Write([]byte{byte(val)})
		return err

	case int16:
		return e.writeInt16(val)

	case int32:
		return e.writeInt32(val)

	case int64:
		return e.writeInt64(val)

	case float32:
		return e.writeInt32(int32(math.Float32bits(val)))

	case float64:
		return e.writeInt64(int64(math.Float64bits(val)))

	case []byte:
		if err := e.writeInt32(int32(len(val))); err != nil {
			return err
		}
		_, err := e.w.Write(val)
		return err

	case string:
		return e.writeString(val)

	case *List:
		return e.marshalList(val)

	case *Compound:
		return e.marshalCompound(val)

	case []int32:
		if err := e.writeInt32(int32(len(val))); err != nil {
			return err
		}
		for _, n := range val {
			if err := e.writeInt32(n); err != nil {
				return err
			}
		}
		return nil

	case []int64:
		if err := e.writeInt32(int32(len(val))); err != nil {
			return err
		}
		for _, n := range val {
			if err := e.writeInt64(n); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("%w: %T", ErrUnknownType, v)
}

func (e *Encoder) marshalList(list *List) error {
	if _, err := e.w.Write([]byte{list.Type}); err != nil {
		return err
	}
	if err := e.writeInt32(int32(len(list.Value))); err != nil {
		return err
	}
	for i, v := range list.Value {
		if t := typeOf(v); t != list.Type {
			return fmt.Errorf("nbt: mixed types in list: element %d is %T, list holds type %d", i, v, list.Type)
		}
		if err := e.marshal(v); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) marshalCompound(c *Compound) (err error) {
	c.Range(func(name string, v interface{}) bool {
		err = e.Encode(name, v)
		return err == nil
	})
	if err != nil {
		return err
	}
	_, err = e.w.Write([]byte{TagEnd})
	return err
}

func (e *Encoder) writeTag(tagType byte, tagName string) error {
	if _, err := e.w.Write([]byte{tagType}); err != nil {
		return err
	}
	return e.writeString(tagName)
}

func (e *Encoder) writeString(s string) error {
	if err := e.writeInt16(int16(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(e.w, s)
	return err
}

func (e *Encoder) writeInt16(n int16) error {
	var b [2]byte
	e.order.PutUint16(b[:], uint16(n))
	_, err := e.w.Write(b[:])
	return err
}

func (e *Encoder) writeInt32(n int32) error {
	var b [4]byte
	e.order.PutUint32(b[:], uint32(n))
	_, err := e.w.Write(b[:])
	return err
}

func (e *Encoder) writeInt64(n int64) error {
	var b [8]byte
	e.order.PutUint64(b[:], uint64(n))
	_, err := e.w.Write(b[:])
	return err
}
