package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/logger"
	"github.com/urfave/cli/v2"

	"github.com/astei/anvil2bedrock/configuration"
)

func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	app := &cli.App{
		Name:      "anvil2bedrock",
		Usage:     "converts Anvil worlds to Bedrock LevelDB worlds",
		ArgsUsage: "<anvil world> <bedrock world>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Lua configuration `FILE`",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "number of conversion workers, overrides the configuration",
			},
			&cli.BoolFlag{
				Name:  "no-compact",
				Usage: "skip the database compaction at the end",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %s\n", err)
		exitwithstatus.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.ShowAppHelp(c)
	}
	source := c.Args().Get(0)
	destination := c.Args().Get(1)

	options := configuration.Default()
	if fileName := c.String("config"); fileName != "" {
		var err error
		if options, err = configuration.Load(fileName); err != nil {
			return fmt.Errorf("configuration: %s: %w", fileName, err)
		}
	}
	if workers := c.Int("workers"); workers > 0 {
		options.Workers = workers
	}
	if c.Bool("no-compact") {
		options.Compact = false
	}

	directory, err := filepath.Abs(options.Logging.Directory)
	if err != nil {
		return err
	}
	options.Logging.Directory = directory
	if err := os.MkdirAll(directory, 0700); err != nil {
		return err
	}
	if err := logger.Initialise(options.Logging); err != nil {
		return fmt.Errorf("logger setup: %w", err)
	}
	defer logger.Finalise()

	log := logger.New("main")
	log.Infof("converting %s into %s", source, destination)
	log.Debugf("options: %+v", options)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return convert(ctx, source, destination, options, log)
}
