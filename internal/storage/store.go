// Package storage persists finished runs: metadata, the final distribution
// as CSV, and the retained history as compressed binary layers.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Store manages a directory of runs, one subdirectory per run.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata summarizes one finished run.
type RunMetadata struct {
	ID         string             `json:"id"`
	Timestamp  time.Time          `json:"timestamp"`
	Rows       int                `json:"rows"`
	Cols       int                `json:"cols"`
	Boundary   string             `json:"boundary"`
	Steps      int                `json:"steps"`
	Converged  bool               `json:"converged"`
	Absorbed   float64            `json:"absorbed_mass"`
	Workers    int                `json:"workers"`
	Seed       int64              `json:"seed,omitempty"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
	HasHistory bool               `json:"has_history"`
}

// Save writes one run. The distribution is the final committed state;
// layers, if any, are the retained history snapshots.
func (s *Store) Save(meta RunMetadata, distribution [][]float64, layers []Layer) (string, error) {
	if meta.ID == "" {
		meta.ID = fmt.Sprintf("run_%d", time.Now().Unix())
	}
	meta.Timestamp = time.Now()
	meta.HasHistory = len(layers) > 0

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if err := writeDistributionCSV(filepath.Join(runDir, "distribution.csv"), distribution); err != nil {
		return "", err
	}

	if len(layers) > 0 {
		if err := WriteLayers(filepath.Join(runDir, "layers.bin.gz"), meta.Rows, meta.Cols, layers); err != nil {
			return "", err
		}
	}

	return meta.ID, nil
}

// List returns metadata for every stored run.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}

		runs = append(runs, meta)
	}

	return runs, nil
}

// Load returns the metadata of one run.
func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadDistribution reads back a run's final distribution.
func (s *Store) LoadDistribution(runID string) ([][]float64, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "distribution.csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	out := make([][]float64, 0, len(records))
	for _, record := range records {
		row := make([]float64, len(record))
		for j, v := range record {
			row[j], err = strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("storage: bad value %q: %w", v, err)
			}
		}
		out = append(out, row)
	}

	return out, nil
}

// LoadLayers reads back a run's history snapshots.
func (s *Store) LoadLayers(runID string) (rows, cols int, layers []Layer, err error) {
	return ReadLayers(filepath.Join(s.baseDir, runID, "layers.bin.gz"))
}

func writeDistributionCSV(path string, distribution [][]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	for _, row := range distribution {
		record := make([]string, len(row))
		for j, v := range row {
			record[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	return nil
}
