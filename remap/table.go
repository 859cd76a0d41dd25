package remap

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"
)

var ErrInvalidEntry = errors.New("remap: invalid table entry")

const namespace = "minecraft:"

// anyData in a source entry matches every data value; in a target entry it keeps
// the source data value.
const anyData = -1

const maxBlockData = 15

//go:embed default.yaml
var defaultTable []byte

type tableFile struct {
	Blocks   map[string]string `yaml:"blocks"`
	Items    map[string]string `yaml:"items"`
	Entities map[string]string `yaml:"entities"`
}

type blockKey struct {
	id   byte
	data int16
}

type target struct {
	id   int16
	data int16
}

// Table is a Remapper driven by lookup tables. Entries are written as "id" or
// "id:data"; a source without data matches every data value and a target without
// data keeps the source value.
type Table struct {
	blocks   map[blockKey]target
	items    map[string]target
	entities map[string]string
}

func newTable() *Table {
	return &Table{
		blocks:   make(map[blockKey]target),
		items:    make(map[string]target),
		entities: make(map[string]string),
	}
}

// Default returns the built-in table.
func Default() *Table {
	t := newTable()
	if err := t.load(bytes.NewReader(defaultTable)); err != nil {
		panic("remap: built-in table is invalid: " + err.Error())
	}
	return t
}

// Load reads a table, starting from the built-in entries, so that a file only
// needs to list additions and overrides.
func Load(r io.Reader) (*Table, error) {
	t := Default()
	if err := t.load(r); err != nil {
		return nil, err
	}
	return t, nil
}

func LoadFile(fileName string) (*Table, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

func (t *Table) load(r io.Reader) error {
	var file tableFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
		return err
	}

	for from, to := range file.Blocks {
		id, data, err := parseEntry(from, maxBlockData)
		if err != nil || id > 255 {
			return fmt.Errorf("%w: block %q", ErrInvalidEntry, from)
		}
		toID, toData, err := parseEntry(to, maxBlockData)
		if err != nil || toID > 255 {
			return fmt.Errorf("%w: block target %q", ErrInvalidEntry, to)
		}
		t.blocks[blockKey{id: byte(id), data: data}] = target{id: toID, data: toData}
	}

	for from, to := range file.Items {
		toID, toData, err := parseEntry(to, math.MaxInt16)
		if err != nil {
			return fmt.Errorf("%w: item target %q", ErrInvalidEntry, to)
		}
		t.items[qualify(from)] = target{id: toID, data: toData}
	}

	for from, to := range file.Entities {
		if to == "" {
			return fmt.Errorf("%w: entity %q has no target", ErrInvalidEntry, from)
		}
		t.entities[from] = to
	}
	return nil
}

func (t *Table) Block(id, data byte) (byte, byte) {
	to, ok := t.blocks[blockKey{id: id, data: int16(data)}]
	if !ok {
		to, ok = t.blocks[blockKey{id: id, data: anyData}]
	}
	if !ok {
		return id, data
	}
	if to.data == anyData {
		return byte(to.id), data
	}
	return byte(to.id), byte(to.data)
}

// Item resolves named items through the item table. Numeric ids below 256 are
// blocks in item form and go through the block table; other numeric ids are kept.
// Unknown names become air.
func (t *Table) Item(id string, damage int16) (int16, int16) {
	if to, ok := t.items[qualify(id)]; ok {
		if to.data == anyData {
			return to.id, damage
		}
		return to.id, to.data
	}

	n, err := strconv.ParseInt(id, 10, 16)
	if err != nil {
		return 0, damage
	}
	if n >= 0 && n < 256 && damage >= 0 && damage < 16 {
		blockID, blockData := t.Block(byte(n), byte(damage))
		return int16(blockID), int16(blockData)
	}
	return int16(n), damage
}

// Entity resolves a kind through the entity table. Unlisted namespaced kinds are
// converted to Bedrock's CamelCase form; other kinds are returned unchanged.
func (t *Table) Entity(kind string) string {
	if to, ok := t.entities[kind]; ok {
		return to
	}
	if !strings.HasPrefix(kind, namespace) {
		return kind
	}
	if to, ok := t.entities[strings.TrimPrefix(kind, namespace)]; ok {
		return to
	}
	return camelCase(strings.TrimPrefix(kind, namespace))
}

// parseEntry reads "id" or "id:data".
func parseEntry(s string, maxData int64) (int16, int16, error) {
	data := int64(anyData)
	idPart := s
	if i := strings.IndexByte(s, ':'); i >= 0 {
		var err error
		idPart = s[:i]
		if data, err = strconv.ParseInt(s[i+1:], 10, 16); err != nil {
			return 0, 0, err
		}
		if data < 0 || data > maxData {
			return 0, 0, ErrInvalidEntry
		}
	}
	id, err := strconv.ParseInt(strings.TrimSpace(idPart), 10, 16)
	if err != nil {
		return 0, 0, err
	}
	if id < 0 {
		return 0, 0, ErrInvalidEntry
	}
	return int16(id), int16(data), nil
}

func qualify(name string) string {
	if strings.HasPrefix(name, namespace) {
		return name
	}
	if _, err := strconv.Atoi(name); err == nil {
		return name
	}
	return namespace + name
}

func camelCase(name string) string {
	var sb strings.Builder
	for _, part := range strings.Split(name, "_") {
		if part == "" {
			continue
		}
		sb.WriteString(strings.ToUpper(part[:1]))
		sb.WriteString(part[1:])
	}
	return sb.String()
}
