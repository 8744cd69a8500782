// Package terrain loads field-type classification matrices from CSV.
package terrain

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/san-kum/driftgrid/internal/grid"
)

// Domain errors for terrain ingestion.
var (
	// ErrEmpty indicates a file with no rows.
	ErrEmpty = errors.New("terrain: no rows in input")

	// ErrBadTag indicates a cell value that is not a field type tag.
	ErrBadTag = errors.New("terrain: field type must be an integer in [0, 255]")
)

// Load reads a row-major field-type matrix from a CSV file. Each record is
// one grid row; each value is a numeric FieldType tag.
func Load(path string) ([][]grid.FieldType, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("terrain: %w", err)
	}
	defer f.Close()

	types, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	return types, nil
}

// Parse reads a field-type matrix from CSV data. The matrix must be
// rectangular and non-empty.
func Parse(r io.Reader) ([][]grid.FieldType, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("terrain: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmpty
	}

	cols := len(records[0])
	types := make([][]grid.FieldType, len(records))
	for i, record := range records {
		if len(record) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", grid.ErrRagged, i, len(record), cols)
		}

		types[i] = make([]grid.FieldType, cols)
		for j, v := range record {
			tag, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil || tag < 0 || tag > 255 {
				return nil, fmt.Errorf("%w: %q at row %d col %d", ErrBadTag, v, i, j)
			}
			types[i][j] = grid.FieldType(tag)
		}
	}

	return types, nil
}

// Save writes a field-type matrix as CSV, the inverse of Load.
func Save(path string, types [][]grid.FieldType) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("terrain: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	for _, row := range types {
		record := make([]string, len(row))
		for j, t := range row {
			record[j] = strconv.Itoa(int(t))
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("terrain: %w", err)
		}
	}

	return nil
}
