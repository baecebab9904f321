package processor

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/woozymasta/geocode/internal/geo"
	"github.com/woozymasta/geocode/internal/olc"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
	"github.com/tdewolff/minify/v2"
	jsonmin "github.com/tdewolff/minify/v2/json"
	"gopkg.in/yaml.v3"
)

// Summary describes one cluster without its members' properties.
type Summary struct {
	Code    string   `yaml:"code" json:"code"`
	Names   []string `yaml:"names,omitempty" json:"names,omitempty"`
	Lat     float64  `yaml:"lat" json:"lat"`
	Lng     float64  `yaml:"lng" json:"lng"`
	Size    int      `yaml:"size" json:"size"`
	Cluster int      `yaml:"cluster" json:"cluster"`
}

// ClustersToGeoJSON emits one Point feature per member, tagged with its
// cluster index, followed by one centroid feature per cluster.
func ClustersToGeoJSON(clusters []geo.Cluster[Place]) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for i, c := range clusters {
		for _, p := range c.Points {
			f := geojson.NewFeature(orb.Point{p.Lng, p.Lat})
			for k, v := range p.Properties {
				f.Properties[k] = v
			}
			if p.Name != "" {
				f.Properties["name"] = p.Name
			}
			f.Properties["cluster"] = i
			fc.Append(f)
		}
	}

	for i, c := range clusters {
		f := geojson.NewFeature(orb.Point{c.Centroid.Lng, c.Centroid.Lat})
		f.Properties["cluster"] = i
		f.Properties["centroid"] = true
		f.Properties["point_count"] = len(c.Points)
		f.Properties["code"] = olc.EncodeDefault(c.Centroid)
		fc.Append(f)
	}

	return fc
}

// Summarize lists clusters in result order.
func Summarize(clusters []geo.Cluster[Place]) []Summary {
	out := make([]Summary, len(clusters))
	for i, c := range clusters {
		s := Summary{
			Cluster: i,
			Lat:     c.Centroid.Lat,
			Lng:     c.Centroid.Lng,
			Size:    len(c.Points),
			Code:    olc.EncodeDefault(c.Centroid),
		}
		for _, p := range c.Points {
			if p.Name != "" {
				s.Names = append(s.Names, p.Name)
			}
		}
		out[i] = s
	}

	return out
}

// WriteGeoJSON encodes fc to w, indented or minified.
func WriteGeoJSON(w io.Writer, fc *geojson.FeatureCollection, minified bool) error {
	if !minified {
		data, err := json.MarshalIndent(fc, "", "  ")
		if err != nil {
			return err
		}
		_, err = w.Write(append(data, '\n'))
		return err
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return err
	}

	m := minify.New()
	m.AddFunc("application/json", jsonmin.Minify)
	data, err = m.Bytes("application/json", data)
	if err != nil {
		return err
	}

	_, err = w.Write(data)
	return err
}

// WriteSummary encodes Summarize(clusters) as YAML.
func WriteSummary(w io.Writer, clusters []geo.Cluster[Place]) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Summarize(clusters)); err != nil {
		return err
	}

	return enc.Close()
}

// WriteSummaryJSON encodes Summarize(clusters) as indented JSON.
func WriteSummaryJSON(w io.Writer, clusters []geo.Cluster[Place]) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Summarize(clusters))
}

// createFile opens the output of SaveGeoJSON.
var createFile = func(path string) (io.WriteCloser, error) { return os.Create(path) }

// SaveGeoJSON writes the feature collection to path, creating parent
// directories. A failed close is reported like a failed write.
func SaveGeoJSON(path string, fc *geojson.FeatureCollection, minified bool) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := createFile(path)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Error().Err(closeErr).Str("path", path).Msg("Failed to close file")
			if err == nil {
				err = closeErr
			}
		}
	}()

	return WriteGeoJSON(f, fc, minified)
}
