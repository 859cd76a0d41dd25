package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bitmark-inc/logger"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/astei/anvil2bedrock/anvil"
	"github.com/astei/anvil2bedrock/batch"
	"github.com/astei/anvil2bedrock/chunk"
	"github.com/astei/anvil2bedrock/configuration"
	"github.com/astei/anvil2bedrock/encoder"
	"github.com/astei/anvil2bedrock/leveldat"
	"github.com/astei/anvil2bedrock/remap"
	"github.com/astei/anvil2bedrock/transform"
)

var errInterrupted = errors.New("conversion interrupted")

// what the conversion cannot carry over exactly
var lossy = []string{
	"inventories",
	"some block data values",
	"custom generator settings",
	"terrain that differs between the two editions",
}

func convert(ctx context.Context, source, destination string, options *configuration.Configuration, log *logger.L) error {
	if err := os.MkdirAll(filepath.Join(destination, "db"), 0755); err != nil {
		return err
	}

	levelName := filepath.Base(filepath.Clean(destination))
	if err := os.WriteFile(filepath.Join(destination, "levelname.txt"), []byte(levelName), 0644); err != nil {
		return err
	}

	worldTime, err := convertLevel(source, destination, levelName)
	if err != nil {
		log.Warnf("level.dat not converted: %s", err)
	}

	table := remap.Default()
	if options.RemapFile != "" {
		if table, err = remap.LoadFile(options.RemapFile); err != nil {
			return fmt.Errorf("remap table: %w", err)
		}
	}

	enc := encoder.New(transform.New(table), worldTime, logger.New("encoder"))
	batchOptions := options.BatchOptions()
	batchOptions.Prepare = func(c *chunk.Chunk) {
		c.Remap(table)
		c.SortTiles()
	}
	coordinator, err := batch.New(batch.FileOpener(filepath.Join(destination, "db")), enc, batchOptions, logger.New("batch"))
	if err != nil {
		log.Criticalf("open database: %s", err)
		return err
	}

	err = convertDimensions(ctx, source, coordinator, log)

	if flushErr := coordinator.Flush(false); flushErr != nil {
		log.Errorf("final flush: %s", flushErr)
	}
	if closeErr := coordinator.Close(); closeErr != nil {
		log.Errorf("close database: %s", closeErr)
	}

	stats := coordinator.Stats()
	log.Infof("chunks: %d  flushes: %d  reopens: %d  throttled: %d", stats.Submitted, stats.Flushes, stats.Reopens, stats.Throttled)
	if err != nil {
		return err
	}

	printCompletion(destination, stats.Submitted)

	if options.Compact {
		fmt.Println("compacting database")
		coordinator.Compact()
	}
	return nil
}

func convertDimensions(ctx context.Context, source string, coordinator *batch.Coordinator, log *logger.L) error {
	dimensions := anvil.Dimensions(source)
	if len(dimensions) == 0 {
		return fmt.Errorf("%s: no region folders found", source)
	}

	for _, dimension := range dimensions {
		files, err := dimension.RegionFiles()
		if err != nil {
			log.Errorf("dimension %d: %s", dimension.ID, err)
			continue
		}
		log.Infof("dimension %d: %d region files", dimension.ID, len(files))

		bar := progressbar.Default(int64(len(files)), fmt.Sprintf("dimension %d", dimension.ID))
		for _, file := range files {
			var submitErr error
			count, err := anvil.ReadRegion(file.Path, log, func(c *chunk.Chunk) error {
				submitErr = coordinator.Submit(ctx, c, dimension.ID, file.Repack)
				return submitErr
			})
			if submitErr != nil {
				return interruption(submitErr)
			}
			if err != nil {
				log.Errorf("%s: %s", file.Path, err)
			}
			log.Debugf("%s: %d chunks", file.Path, count)
			_ = bar.Add(1)

			if ctx.Err() != nil {
				return interruption(ctx.Err())
			}
		}
		_ = bar.Finish()
	}
	return nil
}

// interruption marks a cancelled or expired context as an interrupted run.
func interruption(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", errInterrupted, err)
	}
	return err
}

// convertLevel writes the Bedrock level.dat and returns the world clock.
func convertLevel(source, destination, levelName string) (int64, error) {
	in, err := os.Open(filepath.Join(source, "level.dat"))
	if err != nil {
		return 0, err
	}
	defer in.Close()

	level, err := leveldat.Transcode(in, levelName)
	if err != nil {
		return 0, err
	}

	out, err := os.Create(filepath.Join(destination, "level.dat"))
	if err != nil {
		return level.Time, err
	}
	if _, err = level.WriteTo(out); err != nil {
		out.Close()
		return level.Time, err
	}
	return level.Time, out.Close()
}

func printCompletion(destination string, chunks uint64) {
	done := color.New(color.FgGreen, color.Bold)
	warn := color.New(color.FgYellow)

	done.Printf("converted %d chunks into %s\n", chunks, destination)
	warn.Println("the following are not converted exactly:")
	for _, item := range lossy {
		warn.Printf("  - %s\n", item)
	}
}
