package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/woozymasta/geocode/internal/address"
	"github.com/woozymasta/geocode/internal/config"
	"github.com/woozymasta/geocode/internal/logger"
	"github.com/woozymasta/geocode/internal/shell"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config"   env:"CONFIG_FILE"        description:"Path to configuration file" default:"config.yaml"`
	Key        string `short:"k" long:"key"      env:"POSITION_STACK_KEY" description:"positionstack access key"`
	History    string `short:"H" long:"history"  env:"GEOCODE_HISTORY"    description:"History file, defaults to ~/.geocode_history"`
	NoColor    bool   `short:"n" long:"no-color" env:"NO_COLOR"           description:"Disable colored output"`
}

func main() {
	_ = godotenv.Load()

	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	cfg, err := config.LoadOrDefault(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if opts.Key != "" {
		cfg.PositionStack.Key = opts.Key
	}

	var resolver address.Resolver
	if cfg.PositionStack.Key != "" {
		client, err := address.New(cfg.PositionStack)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create positionstack client")
		}
		defer client.Close()
		resolver = client
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	color := !opts.NoColor && isatty.IsTerminal(os.Stdout.Fd())
	sh := shell.New(cfg, resolver, os.Stdout, color)

	var lines shell.LineReader
	if isatty.IsTerminal(os.Stdin.Fd()) {
		rl, err := shell.NewReadline(historyFile(opts.History))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize line editor")
		}
		lines = rl
	} else {
		lines = shell.NewScanner(os.Stdin, nil)
	}

	if err := sh.Run(ctx, lines); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("Shell stopped")
	}
}

func historyFile(path string) string {
	if path != "" {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		log.Debug().Err(err).Msg("No home directory, history is not saved")
		return ""
	}

	return filepath.Join(home, ".geocode_history")
}
