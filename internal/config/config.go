// Package config handles configuration loading and shared data structures.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/woozymasta/geocode/internal/geo"

	"gopkg.in/yaml.v3"
)

// Config represents the root configuration file structure.
type Config struct {
	PositionStack PositionStack `yaml:"positionstack" json:"positionstack"`
	Fences        []Fence       `yaml:"fences,omitempty" json:"fences,omitempty"`
	Cluster       Cluster       `yaml:"cluster" json:"cluster"`
}

// PositionStack configures the address lookup client.
type PositionStack struct {
	URL      string        `yaml:"url" json:"url"`
	Key      string        `yaml:"key,omitempty" json:"-"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout"`
	Backoff  time.Duration `yaml:"backoff" json:"backoff"`
	CacheTTL time.Duration `yaml:"cache_ttl" json:"cache_ttl"`
	Rate     float64       `yaml:"rate" json:"rate"` // requests per second, 0 disables the limit
	Burst    int           `yaml:"burst" json:"burst"`
	Retries  int           `yaml:"retries" json:"retries"`
	CacheMB  int           `yaml:"cache_mb" json:"cache_mb"` // 0 disables the cache
}

// Cluster holds k-means defaults.
type Cluster struct {
	Rounds      int     `yaml:"rounds" json:"rounds"`
	K           int     `yaml:"k" json:"k"`
	Epsilon     float64 `yaml:"epsilon,omitempty" json:"epsilon,omitempty"` // metres
	LegacyEmpty bool    `yaml:"legacy_empty,omitempty" json:"legacy_empty,omitempty"`
}

// Fence is a named polygon given as [lat, lng] pairs.
type Fence struct {
	Name    string       `yaml:"name" json:"name"`
	Polygon [][2]float64 `yaml:"polygon" json:"polygon"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		PositionStack: PositionStack{
			URL:      "https://api.positionstack.com/v1",
			Timeout:  10 * time.Second,
			Rate:     1,
			Burst:    1,
			Retries:  3,
			Backoff:  200 * time.Millisecond,
			CacheTTL: time.Hour,
			CacheMB:  16,
		},
		Cluster: Cluster{
			Rounds: 32,
			K:      3,
		},
	}
}

// Load reads and parses the YAML configuration file from the specified path.
// Keys missing from the file keep their Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// LoadOrDefault is Load that falls back to Default when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	return cfg, err
}

// Validate checks value ranges and fence definitions.
func (c *Config) Validate() error {
	if c.Cluster.Rounds < 0 {
		return fmt.Errorf("cluster rounds must be >= 0, got %d", c.Cluster.Rounds)
	}
	if c.Cluster.K < 1 {
		return fmt.Errorf("cluster k must be >= 1, got %d", c.Cluster.K)
	}
	if c.PositionStack.Rate < 0 || c.PositionStack.Retries < 0 || c.PositionStack.CacheMB < 0 {
		return errors.New("positionstack rate, retries and cache_mb must not be negative")
	}

	seen := make(map[string]bool, len(c.Fences))
	for _, f := range c.Fences {
		if f.Name == "" {
			return errors.New("fence without name")
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate fence %q", f.Name)
		}
		seen[f.Name] = true

		if len(f.Polygon) < 3 {
			return fmt.Errorf("fence %q needs at least 3 vertices", f.Name)
		}
	}

	return nil
}

// Fence returns the polygon of the named fence.
func (c *Config) Fence(name string) (geo.Polygon, bool) {
	for _, f := range c.Fences {
		if f.Name == name {
			return f.Poly(), true
		}
	}

	return nil, false
}

// Poly converts the fence vertices into a geo.Polygon.
func (f Fence) Poly() geo.Polygon {
	poly := make(geo.Polygon, len(f.Polygon))
	for i, v := range f.Polygon {
		poly[i] = geo.At(v[0], v[1])
	}

	return poly
}

// Options converts the cluster settings into geo.KMeans options.
func (c Cluster) Options() []geo.Option {
	opts := []geo.Option{geo.WithEpsilon(c.Epsilon)}
	if c.LegacyEmpty {
		opts = append(opts, geo.WithEmptyClusters(geo.EmptyLegacy))
	}

	return opts
}
