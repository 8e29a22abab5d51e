package ingest

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/AngelCh415/campaign-dashboard/internal/models"
	"github.com/AngelCh415/campaign-dashboard/internal/store"
)

// ErrUnsupportedFormat is returned for dataset files that are neither JSON nor YAML.
var ErrUnsupportedFormat = eris.New("unsupported dataset format")

//go:embed data/campaigns.json
var embeddedDataset []byte

// Loader reads the static dataset once and installs it in the store.
type Loader struct {
	st   *store.MemoryStore
	log  *zap.Logger
	path string
}

// NewLoader reads from path, or from the bundled snapshot when path is empty.
func NewLoader(st *store.MemoryStore, log *zap.Logger, path string) *Loader {
	return &Loader{st: st, log: log, path: path}
}

// Run loads, normalizes and stores the dataset.
func (l *Loader) Run(ctx context.Context) error {
	raws, err := l.read(ctx)
	if err != nil {
		return err
	}
	records := Normalize(raws)
	l.st.Replace(records)

	source := l.path
	if source == "" {
		source = "embedded"
	}
	l.log.Info("dataset loaded",
		zap.String("source", source),
		zap.Int("records", len(records)),
		zap.Int("tag_categories", len(l.st.Facets().TagCategories())),
	)
	return nil
}

func (l *Loader) read(ctx context.Context) ([]models.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.path == "" {
		return DecodeJSON(embeddedDataset)
	}
	b, err := os.ReadFile(l.path)
	if err != nil {
		return nil, eris.Wrapf(err, "read dataset %s", l.path)
	}
	switch strings.ToLower(filepath.Ext(l.path)) {
	case ".json":
		return DecodeJSON(b)
	case ".yaml", ".yml":
		return DecodeYAML(b)
	}
	return nil, eris.Wrapf(ErrUnsupportedFormat, "dataset %s", l.path)
}

// DecodeJSON parses a JSON array of raw records.
func DecodeJSON(b []byte) ([]models.RawRecord, error) {
	var out []models.RawRecord
	dec := json.NewDecoder(bytes.NewReader(b))
	if err := dec.Decode(&out); err != nil {
		return nil, eris.Wrap(err, "decode json dataset")
	}
	return out, nil
}

// DecodeYAML parses a YAML sequence of raw records.
func DecodeYAML(b []byte) ([]models.RawRecord, error) {
	var out []models.RawRecord
	if err := yaml.Unmarshal(b, &out); err != nil {
		return nil, eris.Wrap(err, "decode yaml dataset")
	}
	return out, nil
}

// Embedded returns the bundled snapshot, normalized.
func Embedded() ([]models.Record, error) {
	raws, err := DecodeJSON(embeddedDataset)
	if err != nil {
		return nil, err
	}
	return Normalize(raws), nil
}
