package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BrainPreserve/supplements/internal/config"
	"github.com/BrainPreserve/supplements/internal/observability"
)

// ErrEmptyDataset is returned when the input has no header row.
var ErrEmptyDataset = errors.New("dataset has no header row")

// Store holds the records of one dataset in file order.
type Store struct {
	schema  *Schema
	records []Record
	dropped int
}

// NewStore wraps already-built records.
func NewStore(schema *Schema, records []Record) *Store {
	return &Store{schema: schema, records: append([]Record(nil), records...)}
}

// Schema returns the dataset schema.
func (s *Store) Schema() *Schema { return s.schema }

// Records returns the records in dataset order. The slice is a copy.
func (s *Store) Records() []Record {
	return append([]Record(nil), s.records...)
}

// Len returns the number of loaded records.
func (s *Store) Len() int { return len(s.records) }

// Dropped returns how many rows were discarded for a column-count mismatch.
func (s *Store) Dropped() int { return s.dropped }

// Load reads the CSV at path.
func Load(path string, cols config.ColumnsConfig, logger *observability.Logger) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	store, err := Parse(f, cols)
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", path, err)
	}

	if logger != nil {
		log := logger.WithOperation("dataset_load")
		if missing := store.schema.MissingRoles(); len(missing) > 0 {
			log.Warn().Strs("columns", missing).Msg("Configured columns missing from header")
		}
		if store.dropped > 0 {
			log.Debug().Int("dropped", store.dropped).Msg("Dropped rows with mismatched column count")
		}
		log.Info().
			Str("path", path).
			Int("records", store.Len()).
			Int("columns", len(store.schema.Header)).
			Msg("Dataset loaded")
	}

	return store, nil
}

// Parse reads CSV from r. The first row is the header; rows whose column
// count differs from it are dropped.
func Parse(r io.Reader, cols config.ColumnsConfig) (*Store, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyDataset
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		header[i] = strings.TrimSpace(h)
	}

	schema := NewSchema(header, cols)
	store := &Store{schema: schema}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		if len(row) != len(header) {
			store.dropped++
			continue
		}

		values := make(map[string]string, len(header))
		for i, h := range header {
			values[h] = row[i]
		}
		store.records = append(store.records, Record{schema: schema, values: values})
	}

	return store, nil
}
