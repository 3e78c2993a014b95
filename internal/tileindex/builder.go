package tileindex

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/jobrunner/tessera/internal/domain"
	"github.com/jobrunner/tessera/internal/ports/output"
)

// Builder parses GeoJSON dataset files into tile indexes.
type Builder struct {
	opts Options
}

// NewBuilder returns a builder using the given index options.
func NewBuilder(opts Options) *Builder {
	return &Builder{opts: opts}
}

// Build reads a GeoJSON feature collection from path, optionally
// gzip-compressed, and constructs the dataset descriptor and its index.
func (b *Builder) Build(ctx context.Context, path string) (*domain.Dataset, output.TileIndex, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	raw, err := readDatasetFile(path)
	if err != nil {
		return nil, nil, &domain.LoadError{
			DatasetID: DeriveDatasetID(path),
			Source:    path,
			Err:       err,
		}
	}

	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, nil, &domain.LoadError{
			DatasetID: DeriveDatasetID(path),
			Source:    path,
			Err:       fmt.Errorf("parse geojson: %w", err),
		}
	}

	features := make([]domain.TileFeature, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		features = append(features, domain.TileFeature{
			Geometry:   f.Geometry,
			Properties: f.Properties,
		})
	}

	idx := New(features, b.opts)

	info, err := os.Stat(path)
	var size int64
	if err == nil {
		size = info.Size()
	}

	ds := &domain.Dataset{
		ID:           DeriveDatasetID(path),
		Name:         datasetName(fc, path),
		Path:         path,
		Size:         size,
		FeatureCount: idx.FeatureCount(),
		Bounds:       idx.Bounds(),
		License:      datasetLicense(fc),
		LoadedAt:     time.Now(),
	}
	return ds, idx, nil
}

// readDatasetFile reads a dataset file, transparently decompressing
// .gz sources.
func readDatasetFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer zr.Close()
		r = zr
	}
	return io.ReadAll(r)
}

// DeriveDatasetID derives the registry key from a dataset file path:
// the base name without the .geojson or .geojson.gz extension.
func DeriveDatasetID(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, ".gz")
	name = strings.TrimSuffix(name, ".geojson")
	name = strings.TrimSuffix(name, ".json")
	return name
}

// datasetName prefers a top-level "name" member of the collection and
// falls back to the derived ID.
func datasetName(fc *geojson.FeatureCollection, path string) string {
	if fc.ExtraMembers != nil {
		if name := fc.ExtraMembers.MustString("name", ""); name != "" {
			return name
		}
	}
	return DeriveDatasetID(path)
}

// datasetLicense picks up an optional top-level "license" member, either
// a plain string or an object with name, url and attribution fields.
func datasetLicense(fc *geojson.FeatureCollection) domain.License {
	if fc.ExtraMembers == nil {
		return domain.License{}
	}

	switch v := fc.ExtraMembers["license"].(type) {
	case string:
		return domain.License{Name: v}
	case map[string]interface{}:
		lic := domain.License{}
		if s, ok := v["name"].(string); ok {
			lic.Name = s
		}
		if s, ok := v["url"].(string); ok {
			lic.URL = s
		}
		if s, ok := v["attribution"].(string); ok {
			lic.Attribution = s
		}
		return lic
	default:
		return domain.License{}
	}
}
