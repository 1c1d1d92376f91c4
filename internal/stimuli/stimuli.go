// Package stimuli loads stimulus tables from CSV or YAML files.
package stimuli

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/dualtask/internal/model"
)

// Required columns, matched case-insensitively.
const (
	ColumnID        = "id"
	ColumnItem      = "item"
	ColumnCondition = "condition"
	ColumnActor     = "name1"
)

var requiredColumns = []string{ColumnID, ColumnItem, ColumnCondition, ColumnActor}

// Extensions are tried in this order when resolving a table.
var Extensions = []string{".csv", ".yaml", ".yml"}

var (
	// ErrMissingColumn reports a table without one of the required columns.
	ErrMissingColumn = errors.New("stimulus table is missing a column")
	// ErrNotFound reports that no table exists for a variant.
	ErrNotFound = errors.New("stimulus table not found")
	// ErrEmpty reports a table without rows.
	ErrEmpty = errors.New("stimulus table is empty")
)

// MissingColumnError names the absent column and the file it was expected in.
type MissingColumnError struct {
	Path   string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: no column titled %q", e.Path, e.Column)
}

// Is reports whether target is ErrMissingColumn.
func (e *MissingColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}

// Resolve returns the table path of variant inside dir.
func Resolve(dir, variant string) (string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("stimulus directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("stimulus directory %s is not a directory", dir)
	}
	for _, ext := range Extensions {
		path := filepath.Join(dir, variant+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s{%s}", ErrNotFound, filepath.Join(dir, variant), strings.Join(Extensions, ","))
}

// Load reads the stimulus table of variant from dir.
func Load(dir, variant string) ([]model.Stimulus, error) {
	path, err := Resolve(dir, variant)
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads a stimulus table, choosing the decoder by extension.
func LoadFile(path string) ([]model.Stimulus, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only stimulus table.
			_ = cerr
		}
	}()

	var rows []map[string]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		rows, err = readYAML(file)
	default:
		rows, err = readCSV(file)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmpty, path)
	}
	for _, col := range requiredColumns {
		if _, ok := rows[0][col]; !ok {
			return nil, &MissingColumnError{Path: path, Column: col}
		}
	}
	out := make([]model.Stimulus, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.Stimulus{
			ID:        row[ColumnID],
			Item:      row[ColumnItem],
			Condition: row[ColumnCondition],
			Actor:     row[ColumnActor],
		})
	}
	return out, nil
}

func readCSV(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = normalize(h)
	}
	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		row := make(map[string]string, len(header))
		for i, h := range header {
			row[h] = strings.TrimSpace(rec[i])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// readYAML accepts a sequence of mappings. Scalar values of any type are
// kept as written.
func readYAML(r io.Reader) ([]map[string]string, error) {
	var raw []map[string]yaml.Node
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	rows := make([]map[string]string, 0, len(raw))
	for i, item := range raw {
		row := make(map[string]string, len(item))
		for k, v := range item {
			if v.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("row %d: column %q is not a scalar", i+1, k)
			}
			row[normalize(k)] = strings.TrimSpace(v.Value)
		}
		rows = append(rows, row)
	}
	if len(rows) > 0 {
		// Every row must carry the columns of the first.
		for i, row := range rows[1:] {
			for k := range rows[0] {
				if _, ok := row[k]; !ok {
					return nil, fmt.Errorf("row %d: missing %q", i+2, k)
				}
			}
		}
	}
	return rows, nil
}

func normalize(col string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Split separates the fixed practice prefix from the test items.
func Split(items []model.Stimulus, practiceSize int) (practice, test []model.Stimulus, err error) {
	if practiceSize < 0 {
		return nil, nil, fmt.Errorf("practice size must be >= 0")
	}
	if practiceSize > len(items) {
		return nil, nil, fmt.Errorf("practice size %d exceeds %d stimuli", practiceSize, len(items))
	}
	return items[:practiceSize:practiceSize], items[practiceSize:], nil
}
