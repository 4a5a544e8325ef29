package artifact

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fraudlens/fraudlens/internal/explain"
)

// loadBackgroundCSV reads a background set from a headered CSV file.
// The header row names the columns; every subsequent row must be
// numeric and the same width.
func loadBackgroundCSV(path string) (*explain.Background, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header from %s: %w", path, err)
	}
	columns := make([]string, len(header))
	copy(columns, header)

	var rows [][]float64
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read %s line %d: %w", path, line, err)
		}

		row := make([]float64, len(record))
		for i, cell := range record {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("non-numeric value %q in %s line %d column %s", cell, path, line, columns[i])
			}
			row[i] = v
		}
		rows = append(rows, row)
	}

	return explain.NewBackground(columns, rows)
}
