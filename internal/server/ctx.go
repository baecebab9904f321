package server

import (
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/geocode/internal/address"
	"github.com/woozymasta/geocode/internal/config"
	"github.com/woozymasta/geocode/internal/geo"
)

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Config   *config.Config
	Resolver address.Resolver
	Fences   map[string]geo.Polygon
}

// NewServerContext prepares fences from the configuration. resolver may be
// nil, in which case the address endpoints answer 503.
func NewServerContext(cfg *config.Config, resolver address.Resolver) *ServerContext {
	log.Info().Int("config_fences_count", len(cfg.Fences)).Msg("Initializing server context")

	fences := make(map[string]geo.Polygon, len(cfg.Fences))
	for _, f := range cfg.Fences {
		poly := f.Poly()
		fences[f.Name] = poly

		b := poly.Bound()
		log.Debug().
			Str("fence", f.Name).
			Int("vertices", len(poly)).
			Floats64("bound", []float64{b.Min.Lat(), b.Min.Lon(), b.Max.Lat(), b.Max.Lon()}).
			Msg("Fence loaded")
	}

	if resolver == nil {
		log.Warn().Msg("No positionstack key configured, address endpoints disabled")
	}

	log.Info().
		Int("fences", len(fences)).
		Bool("resolver", resolver != nil).
		Msg("Server context initialized successfully")

	return &ServerContext{
		Config:   cfg,
		Resolver: resolver,
		Fences:   fences,
	}
}
