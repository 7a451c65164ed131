package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
)

// Options selects the columns of a CSV file.
type Options struct {
	// Target is the name of the target column. Empty selects the last column.
	Target string
	// Features lists the feature columns in order. Empty selects every
	// column except the target.
	Features []string
}

// LoadCSV loads a dataset from a CSV file with a header row.
//
// CSV Format:
//
//	CRIM,ZN,INDUS,...,MEDV
//	0.00632,18,2.31,...,24
//	0.02731,0,7.07,...,21.6
//
// Every selected cell must parse as a float.
func LoadCSV(path string, opts Options) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	d, err := ReadCSV(file, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// ReadCSV reads a dataset from CSV data with a header row.
func ReadCSV(r io.Reader, opts Options) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("CSV file is empty or missing header")
	}

	header := records[0]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	targetCol, featureCols, err := selectColumns(header, opts)
	if err != nil {
		return nil, err
	}

	records = records[1:]
	rows := make([][]float64, len(records))
	y := make([]float64, len(records))
	for i, record := range records {
		if y[i], err = parseCell(record, i, targetCol); err != nil {
			return nil, err
		}
		rows[i] = make([]float64, len(featureCols))
		for j, col := range featureCols {
			if rows[i][j], err = parseCell(record, i, col); err != nil {
				return nil, err
			}
		}
	}

	names := make([]string, len(featureCols))
	for j, col := range featureCols {
		names[j] = header[col]
	}
	return New(names, header[targetCol], rows, y)
}

// selectColumns resolves the target and feature column indices.
func selectColumns(header []string, opts Options) (int, []int, error) {
	targetCol := len(header) - 1
	if opts.Target != "" {
		targetCol = slices.Index(header, opts.Target)
		if targetCol < 0 {
			return 0, nil, fmt.Errorf("target column %q not found", opts.Target)
		}
	}

	var featureCols []int
	if len(opts.Features) == 0 {
		for i := range header {
			if i != targetCol {
				featureCols = append(featureCols, i)
			}
		}
	} else {
		for _, name := range opts.Features {
			col := slices.Index(header, name)
			if col < 0 {
				return 0, nil, fmt.Errorf("feature column %q not found", name)
			}
			if col == targetCol {
				return 0, nil, fmt.Errorf("column %q is both a feature and the target", name)
			}
			featureCols = append(featureCols, col)
		}
	}
	if len(featureCols) == 0 {
		return 0, nil, fmt.Errorf("no feature columns selected")
	}
	return targetCol, featureCols, nil
}

func parseCell(record []string, row, col int) (float64, error) {
	if col >= len(record) {
		return 0, fmt.Errorf("row %d: missing column %d", row+1, col+1)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(record[col]), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value at row %d, column %d: %w", row+1, col+1, err)
	}
	return v, nil
}
