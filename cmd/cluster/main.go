package main

import (
	"crypto/tls"
	"net/http"
	"os"
	"time"

	"github.com/woozymasta/geocode/internal/config"
	"github.com/woozymasta/geocode/internal/logger"
	"github.com/woozymasta/geocode/internal/processor"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string   `short:"c" long:"config"  env:"CONFIG_FILE" description:"Path to configuration file" default:"config.yaml"`
	Input      []string `short:"i" long:"in"      description:"Places source: file, http(s) URL or - for stdin" required:"true"`
	Output     string   `short:"o" long:"out"     description:"GeoJSON output path, summary goes to stdout if empty"`
	K          int      `short:"k" long:"k"       description:"Number of clusters, overrides the configuration"`
	Rounds     int      `short:"r" long:"rounds"  description:"Refinement rounds, overrides the configuration" default:"-1"`
	Format     string   `short:"f" long:"format"  description:"Summary format" choice:"yaml" choice:"json" default:"yaml"`
	Minify     bool     `short:"m" long:"minify"  description:"Minify GeoJSON output"`
	Force      bool     `short:"F" long:"force"   description:"Force overwrite of existing files"`
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

	if opts.K > 0 {
		cfg.Cluster.K = opts.K
	}
	if opts.Rounds >= 0 {
		cfg.Cluster.Rounds = opts.Rounds
	}

	if opts.Output != "" && len(opts.Input) > 1 {
		log.Fatal().Msg("--out accepts a single --in source")
	}

	client := &http.Client{
		Transport: &http.Transport{
			TLSNextProto:        make(map[string]func(string, *tls.Conn) http.RoundTripper),
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
		},
		Timeout: 15 * time.Second,
	}

	log.Info().
		Int("sources", len(opts.Input)).
		Int("k", cfg.Cluster.K).
		Int("rounds", cfg.Cluster.Rounds).
		Msg("Starting clustering")

	failed := 0
	for _, source := range opts.Input {
		clusters, err := processor.ProcessPlaces(client, processor.Job{
			Source:  source,
			Output:  opts.Output,
			Options: cfg.Cluster.Options(),
			K:       cfg.Cluster.K,
			Rounds:  cfg.Cluster.Rounds,
			Minify:  opts.Minify,
			Force:   opts.Force,
		})
		if err != nil {
			log.Error().Err(err).Str("source", source).Msg("Failed to cluster places")
			failed++
			continue
		}

		if opts.Output != "" || clusters == nil {
			continue
		}

		if opts.Format == "json" {
			err = processor.WriteSummaryJSON(os.Stdout, clusters)
		} else {
			err = processor.WriteSummary(os.Stdout, clusters)
		}
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to write summary")
		}
	}

	if failed > 0 {
		log.Fatal().Int("failed", failed).Msg("Clustering finished with errors")
	}

	log.Info().Msg("Clustering finished successfully")
}
