// Package artifact loads the trained model, scaler parameters, and
// background set from disk at startup.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fraudlens/fraudlens/internal/domain"
	"github.com/fraudlens/fraudlens/internal/explain"
	"github.com/fraudlens/fraudlens/internal/model"
	"github.com/fraudlens/fraudlens/internal/preprocess"
)

// Bundle holds everything the inference pipeline needs, loaded once
// at startup. A load failure is fatal; the service never starts with
// a partial bundle.
//
// The background set is stored in the standardized feature space the
// model scores in, so its rows are directly comparable to transformed
// records.
type Bundle struct {
	Model      *model.Model
	Scaler     *preprocess.Scaler
	Background *explain.Background
}

// modelFile is the on-disk layout of model.json.
type modelFile struct {
	Features  []string           `json:"features"`
	Weights   map[string]float64 `json:"weights"`
	Intercept float64            `json:"intercept"`
	Threshold float64            `json:"threshold"`
}

// scalerFile is the on-disk layout of scaler.json.
type scalerFile struct {
	Fields []string  `json:"fields"`
	Mean   []float64 `json:"mean"`
	Scale  []float64 `json:"scale"`
}

// Load reads all artifacts described by cfg.
func Load(cfg domain.ArtifactConfig) (*Bundle, error) {
	m, err := LoadModel(filepath.Join(cfg.Dir, cfg.ModelFile))
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}

	scaler, err := LoadScaler(filepath.Join(cfg.Dir, cfg.ScalerFile))
	if err != nil {
		return nil, fmt.Errorf("failed to load scaler: %w", err)
	}

	bg, err := LoadBackground(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load background set: %w", err)
	}

	return &Bundle{Model: m, Scaler: scaler, Background: bg}, nil
}

// LoadModel reads a serialized logistic model and validates it against
// the transaction schema.
func LoadModel(path string) (*model.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f modelFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid model file %s: %w", path, err)
	}

	if len(f.Features) == 0 {
		return nil, fmt.Errorf("model file %s declares no features", path)
	}
	for _, name := range f.Features {
		if !domain.IsSchemaField(name) {
			return nil, fmt.Errorf("model file %s references unknown field %q", path, name)
		}
	}

	return model.New(f.Features, f.Weights, f.Intercept, f.Threshold)
}

// LoadScaler reads fitted standardization parameters.
func LoadScaler(path string) (*preprocess.Scaler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f scalerFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid scaler file %s: %w", path, err)
	}

	return preprocess.NewScaler(f.Fields, f.Mean, f.Scale)
}

// LoadBackground reads the background set using the configured driver.
func LoadBackground(cfg domain.ArtifactConfig) (*explain.Background, error) {
	path := filepath.Join(cfg.Dir, cfg.BackgroundFile)

	switch cfg.BackgroundDriver {
	case "csv", "":
		return loadBackgroundCSV(path)
	case "sqlite":
		return loadBackgroundSQLite(path, cfg.BackgroundTable)
	default:
		return nil, fmt.Errorf("unsupported background driver: %s", cfg.BackgroundDriver)
	}
}
