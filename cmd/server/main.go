package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/woozymasta/geocode/internal/address"
	"github.com/woozymasta/geocode/internal/config"
	"github.com/woozymasta/geocode/internal/logger"
	"github.com/woozymasta/geocode/internal/server"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config" env:"CONFIG_FILE"        description:"Path to configuration file" default:"config.yaml"`
	Addr       string `short:"a" long:"addr"   env:"LISTEN_ADDRESS"     description:"Address to listen on"       default:"0.0.0.0"`
	Port       int    `short:"p" long:"port"   env:"LISTEN_PORT"        description:"Port to listen on"          default:"8080"`
	Key        string `short:"k" long:"key"    env:"POSITION_STACK_KEY" description:"positionstack access key"`
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// Setup Logging
	opts.Logger.Setup()

	// Load Config
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

	srvCtx := server.NewServerContext(cfg, resolver)

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	log.Info().
		Str("addr", listenAddr).
		Int("fences", len(cfg.Fences)).
		Int("cluster_k", cfg.Cluster.K).
		Int("cluster_rounds", cfg.Cluster.Rounds).
		Msg("Web server started")

	if err := http.ListenAndServe(listenAddr, srvCtx.Routes()); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
