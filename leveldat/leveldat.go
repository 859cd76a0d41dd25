// Package leveldat rewrites a Java edition level.dat as a Bedrock one.
package leveldat

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/astei/anvil2bedrock/nbt"
)

var (
	ErrNotCompound = errors.New("leveldat: root is not a compound")
	ErrNoData      = errors.New("leveldat: missing Data compound")
)

// storageVersion is both the header version and the StorageVersion field.
const storageVersion = 5

const (
	defaultDifficulty = 2
	generatorInfinite = 1
	generatorFlat     = 2
)

// fields carried over from the source file
var allowed = map[string]bool{
	"Difficulty":      true,
	"GameType":        true,
	"Generator":       true,
	"LastPlayed":      true,
	"RandomSeed":      true,
	"StorageVersion":  true,
	"Time":            true,
	"commandsEnabled": true,
	"currentTick":     true,
	"rainTime":        true,
	"spawnMobs":       true,
	"GameRules":       true,
	"SpawnX":          true,
	"SpawnY":          true,
	"SpawnZ":          true,
}

type Level struct {
	// Time is the world clock of the source world, zero if it had none.
	Time int64

	data *nbt.Compound
}

// Data returns the converted tree.
func (l *Level) Data() *nbt.Compound {
	return l.data
}

// Transcode reads a gzip compressed big endian level.dat and converts its Data
// compound. levelName becomes the world's display name.
func Transcode(src io.Reader, levelName string) (*Level, error) {
	gz, err := gzip.NewReader(src)
	if err != nil {
		return nil, fmt.Errorf("leveldat: %w", err)
	}
	defer gz.Close()

	_, root, err := nbt.NewDecoder(gz, binary.BigEndian).Decode()
	if err != nil {
		return nil, fmt.Errorf("leveldat: %w", err)
	}
	rootCompound, ok := root.(*nbt.Compound)
	if !ok {
		return nil, ErrNotCompound
	}
	source := rootCompound.GetCompound("Data")
	if source == nil {
		return nil, ErrNoData
	}

	level := &Level{data: nbt.NewCompound()}
	data := level.data
	source.Range(func(name string, v interface{}) bool {
		if allowed[name] && name != "GameRules" {
			data.Set(name, v)
		}
		return true
	})

	if rules := source.GetCompound("GameRules"); rules != nil {
		rules.Range(func(name string, v interface{}) bool {
			if value, ok := v.(string); ok {
				switch {
				case strings.EqualFold(value, "true"):
					data.Set(strings.ToLower(name), int8(1))
				case strings.EqualFold(value, "false"):
					data.Set(strings.ToLower(name), int8(0))
				}
			}
			return true
		})
	}

	data.Set("LevelName", levelName)
	data.Set("StorageVersion", int32(storageVersion))

	difficulty := int32(defaultDifficulty)
	if _, ok := source.Get("Difficulty"); ok {
		difficulty = int32(source.GetByte("Difficulty"))
	}
	data.Set("Difficulty", difficulty)

	generator := int32(generatorInfinite)
	if name, _ := source.GetString("generatorName"); strings.EqualFold(name, "flat") {
		generator = generatorFlat
	}
	data.Set("Generator", generator)

	data.Set("commandsEnabled", int8(1))
	level.Time, _ = source.GetLong("Time")
	data.Set("CurrentTick", level.Time)
	data.Set("spawnMobs", int8(1))

	// Java stores milliseconds
	if lastPlayed, ok := source.GetLong("LastPlayed"); ok && lastPlayed > math.MaxInt32 {
		data.Set("LastPlayed", lastPlayed/1000)
	}

	return level, nil
}

// WriteTo writes the Bedrock container: version and payload length as little
// endian int32, then the tree as a little endian root named "Name".
func (l *Level) WriteTo(w io.Writer) (int64, error) {
	var payload bytes.Buffer
	if err := nbt.Marshal(&payload, binary.LittleEndian, "Name", l.data); err != nil {
		return 0, err
	}

	var header [8]byte
	binary.LittleEndian.PutUint32(header[0:], storageVersion)
	binary.LittleEndian.PutUint32(header[4:], uint32(payload.Len()))

	n, err := w.Write(header[:])
	if err != nil {
		return int64(n), err
	}
	m, err := payload.WriteTo(w)
	return int64(n) + m, err
}
