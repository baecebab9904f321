package processor

import (
	"net/http"
	"os"

	"github.com/woozymasta/geocode/internal/geo"

	"github.com/rs/zerolog/log"
)

// Job describes one batch clustering run.
type Job struct {
	Source  string
	Output  string
	Options []geo.Option
	K       int
	Rounds  int
	Minify  bool
	Force   bool
}

// ProcessPlaces loads the job source, clusters it and writes the GeoJSON
// result. When Output already exists and Force is unset the job is skipped
// and no clusters are returned.
func ProcessPlaces(client *http.Client, job Job) ([]geo.Cluster[Place], error) {
	if job.Output != "" {
		if _, err := os.Stat(job.Output); err == nil && !job.Force {
			log.Debug().Str("path", job.Output).Msg("Output file exists, skipping")
			return nil, nil
		}
	}

	places, err := LoadPlaces(client, job.Source)
	if err != nil {
		return nil, err
	}

	clusters := geo.KMeans(places, job.Rounds, job.K, job.Options...)

	log.Info().
		Str("source", job.Source).
		Int("places", len(places)).
		Int("clusters", len(clusters)).
		Int("rounds", job.Rounds).
		Msg("Places clustered")

	if job.Output == "" {
		return clusters, nil
	}

	if err := SaveGeoJSON(job.Output, ClustersToGeoJSON(clusters), job.Minify); err != nil {
		return nil, err
	}

	log.Info().Str("path", job.Output).Msg("Clusters saved")

	return clusters, nil
}
