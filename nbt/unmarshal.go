package nbt

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

var ErrInvalidTag = errors.New("nbt: invalid tag type")
var ErrNegativeLength = errors.New("nbt: negative length")

// maxDepth bounds nesting so that corrupt input cannot exhaust the stack.
const maxDepth = 512

// Unmarshal reads a single named root tag from data.
func Unmarshal(data []byte, order binary.ByteOrder) (name string, v interface{}, err error) {
	return NewDecoder(bytes.NewReader(data), order).Decode()
}

// UnmarshalPayload reads a tag body of a known type, as found inside a list or as
// produced by decoders that strip the tag header.
func UnmarshalPayload(data []byte, tagType byte, order binary.ByteOrder) (interface{}, error) {
	return NewDecoder(bytes.NewReader(data), order).DecodePayload(tagType)
}

type Decoder struct {
	r     io.Reader
	order binary.ByteOrder
	buf   [8]byte
}

func NewDecoder(r io.Reader, order binary.ByteOrder) *Decoder {
	return &Decoder{r: r, order: order}
}

// Decode reads the next named tag. It returns io.EOF when the stream is exhausted
// before a tag starts.
func (d *Decoder) Decode() (name string, v interface{}, err error) {
	var tagType byte
	if tagType, err = d.readByte(); err != nil {
		return
	}
	if tagType == TagEnd {
		return "", nil, fmt.Errorf("%w: root tag is TAG_End", ErrInvalidTag)
	}
	if name, err = d.readString(); err != nil {
		return
	}
	v, err = d.payload(tagType, 0)
	return
}

func (d *Decoder) DecodePayload(tagType byte) (interface{}, error) {
	return d.payload(tagType, 0)
}

func (d *Decoder) payload(tagType byte, depth int) (interface{}, error) {
	if depth > maxDepth {
		return nil, errors.New("nbt: maximum nesting depth exceeded")
	}
	switch tagType {
	case TagByte:
		b, err := d.readByte()
		return int8(b), err

	case TagShort:
		if err := d.fill(2); err != nil {
			return nil, err
		}
		return int16(d.order.Uint16(d.buf[:2])), nil

	case TagInt:
		return d.readInt32()

	case TagLong:
		return d.readInt64()

	case TagFloat:
		n, err := d.readInt32()
		return math.Float32frombits(uint32(n)), err

	case TagDouble:
		n, err := d.readInt64()
		return math.Float64frombits(uint64(n)), err

	case TagByteArray:
		n, err := d.readLength()
		if err != nil {
			return nil, err
		}
		data := make([]byte, n)
		_, err = io.ReadFull(d.r, data)
		return data, err

	case TagString:
		return d.readString()

	case TagList:
		elementType, err := d.readByte()
		if err != nil {
			return nil, err
		}
		n, err := d.readLength()
		if err != nil {
			return nil, err
		}
		list := &List{Type: elementType, Value: make([]interface{}, 0, n)}
		for i := 0; i < n; i++ {
			v, err := d.payload(elementType, depth+1)
			if err != nil {
				return nil, err
			}
			list.Value = append(list.Value, v)
		}
		return list, nil

	case TagCompound:
		c := NewCompound()
		for {
			childType, err := d.readByte()
			if err != nil {
				return nil, err
			}
			if childType == TagEnd {
				return c, nil
			}
			name, err := d.readString()
			if err != nil {
				return nil, err
			}
			v, err := d.payload(childType, depth+1)
			if err != nil {
				return nil, err
			}
			c.Set(name, v)
		}

	case TagIntArray:
		n, err := d.readLength()
		if err != nil {
			return nil, err
		}
		values := make([]int32, n)
		for i := range values {
			if values[i], err = d.readInt32(); err != nil {
				return nil, err
			}
		}
		return values, nil

	case TagLongArray:
		n, err := d.readLength()
		if err != nil {
			return nil, err
		}
		values := make([]int64, n)
		for i := range values {
			if values[i], err = d.readInt64(); err != nil {
				return nil, err
			}
		}
		return values, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrInvalidTag, tagType)
}

func (d *Decoder) fill(n int) error {
	_, err := io.ReadFull(d.r, d.buf[:n])
	return err
}

func (d *Decoder) readByte() (byte, error) {
	err := d.fill(1)
	return d.buf[0], err
}

func (d *Decoder) readInt32() (int32, error) {
	if err := d.fill(4); err != nil {
		return 0, err
	}
	return int32(d.order.Uint32(d.buf[:4])), nil
}

func (d *Decoder) readInt64() (int64, error) {
	if err := d.fill(8); err != nil {
		return 0, err
	}
	return int64(d.order.Uint64(d.buf[:8])), nil
}

func (d *Decoder) readLength() (int, error) {
	n, err := d.readInt32()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, ErrNegativeLength
	}
	return int(n), nil
}

func (d *Decoder) readString() (string, error) {
	if err := d.fill(2); err != nil {
		return "", err
	}
	n := d.order.Uint16(d.buf[:2])
	s := make([]byte, n)
	if _, err := io.ReadFull(d.r, s); err != nil {
		return "", err
	}
	return string(s), nil
}
