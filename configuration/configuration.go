// Package configuration holds the converter settings, read from an optional Lua
// file that returns a table.
//
// Example:
//
//	return {
//	    workers = 8,
//	    flush_interval = 8192,
//	    database = {
//	        block_cache_mib = 8,
//	    },
//	    remap_file = "remap.yaml",
//	    logging = {
//	        directory = "log",
//	        console = true,
//	        levels = { DEFAULT = "info" },
//	    },
//	}
package configuration

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/bitmark-inc/logger"

	"github.com/astei/anvil2bedrock/batch"
)

var ErrNoTable = errors.New("configuration: file must return a table")

const (
	defaultLogDirectory = "log"
	defaultLogFile      = "anvil2bedrock.log"
	defaultLogCount     = 10
	defaultLogSize      = 1024 * 1024
)

type Database struct {
	BlockCacheMiB            int `gluamapper:"block_cache_mib" json:"block_cache_mib"`
	BlockSizeKiB             int `gluamapper:"block_size_kib" json:"block_size_kib"`
	MinWriteBufferMiB        int `gluamapper:"min_write_buffer_mib" json:"min_write_buffer_mib"`
	MaxWriteBufferMiB        int `gluamapper:"max_write_buffer_mib" json:"max_write_buffer_mib"`
	CompactionWriteBufferMiB int `gluamapper:"compaction_write_buffer_mib" json:"compaction_write_buffer_mib"`
}

type Configuration struct {
	Workers         int `gluamapper:"workers" json:"workers"`
	BacklogInterval int `gluamapper:"backlog_interval" json:"backlog_interval"`
	FlushInterval   int `gluamapper:"flush_interval" json:"flush_interval"`
	ReopenInterval  int `gluamapper:"reopen_interval" json:"reopen_interval"`
	HighWatermark   int `gluamapper:"high_watermark" json:"high_watermark"`
	LowWatermark    int `gluamapper:"low_watermark" json:"low_watermark"`

	Database Database `gluamapper:"database" json:"database"`

	// run a full compaction after the conversion
	Compact bool `gluamapper:"compact" json:"compact"`

	// YAML file of identifier mappings layered over the built in table
	RemapFile string `gluamapper:"remap_file" json:"remap_file"`

	Logging logger.Configuration `gluamapper:"logging" json:"logging"`
}

// Default returns the settings used without a configuration file. Zero numeric
// values select the pipeline's own defaults.
func Default() *Configuration {
	return &Configuration{
		Compact: true,
		Logging: logger.Configuration{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Console:   false,
			Levels: map[string]string{
				logger.DefaultTag: "info",
			},
		},
	}
}

// Load reads fileName over the defaults. Relative paths in the file are taken
// relative to the directory holding it.
func Load(fileName string) (*Configuration, error) {
	fileName, err := filepath.Abs(filepath.Clean(fileName))
	if err != nil {
		return nil, err
	}

	options := Default()
	if err := ParseConfigurationFile(fileName, options); err != nil {
		return nil, err
	}
	if err := options.validate(); err != nil {
		return nil, err
	}

	directory := filepath.Dir(fileName)
	options.Logging.Directory = ensureAbsolute(directory, options.Logging.Directory)
	if options.RemapFile != "" {
		options.RemapFile = ensureAbsolute(directory, options.RemapFile)
	}
	return options, nil
}

func (c *Configuration) validate() error {
	for name, value := range map[string]int{
		"workers":          c.Workers,
		"backlog_interval": c.BacklogInterval,
		"flush_interval":   c.FlushInterval,
		"reopen_interval":  c.ReopenInterval,
		"high_watermark":   c.HighWatermark,
		"low_watermark":    c.LowWatermark,
	} {
		if value < 0 {
			return fmt.Errorf("configuration: %s: %d is negative", name, value)
		}
	}
	if c.LowWatermark > 0 && c.HighWatermark > 0 && c.LowWatermark > c.HighWatermark {
		return fmt.Errorf("configuration: low_watermark %d above high_watermark %d", c.LowWatermark, c.HighWatermark)
	}
	return nil
}

// BatchOptions converts the pipeline settings.
func (c *Configuration) BatchOptions() batch.Options {
	return batch.Options{
		Workers:         c.Workers,
		BacklogInterval: uint64(c.BacklogInterval),
		FlushInterval:   uint64(c.FlushInterval),
		ReopenInterval:  uint64(c.ReopenInterval),
		HighWatermark:   c.HighWatermark,
		LowWatermark:    c.LowWatermark,
		Store: batch.StoreOptions{
			BlockCache:            c.Database.BlockCacheMiB * batch.MiB,
			BlockSize:             c.Database.BlockSizeKiB * 1024,
			MinWriteBuffer:        c.Database.MinWriteBufferMiB * batch.MiB,
			MaxWriteBuffer:        c.Database.MaxWriteBufferMiB * batch.MiB,
			CompactionWriteBuffer: c.Database.CompactionWriteBufferMiB * batch.MiB,
		},
	}
}

func ensureAbsolute(directory, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(directory, path)
}
