// Package sink appends result records to per-table CSV files.
package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"go.uber.org/multierr"

	"github.com/verte-zerg/dualtask/internal/model"
)

// ResultSink persists one record at a time.
type ResultSink interface {
	Append(ctx context.Context, table string, rec model.Record) error
}

// HeaderMismatchError reports a record whose columns differ from the
// header already written for its table.
type HeaderMismatchError struct {
	Table string
	Want  []string
	Got   []string
}

func (e *HeaderMismatchError) Error() string {
	return fmt.Sprintf("record for table %q has %d columns %v, header has %d %v",
		e.Table, len(e.Got), e.Got, len(e.Want), e.Want)
}

// CheckRecord validates that rec has one value per column and, when want is
// set, exactly the columns of want.
func CheckRecord(table string, want []string, rec model.Record) error {
	cols := rec.Columns()
	if len(rec.Values()) != len(cols) {
		return fmt.Errorf("record for table %q has %d values for %d columns", table, len(rec.Values()), len(cols))
	}
	if want != nil && !slices.Equal(want, cols) {
		return &HeaderMismatchError{Table: table, Want: want, Got: cols}
	}
	return nil
}

type csvFile struct {
	file   *os.File
	writer *csv.Writer
	header []string
}

// CSV writes one file per (task, subject, timestamp, table).
type CSV struct {
	dir     string
	prefix  string
	mu      sync.Mutex
	files   map[string]*csvFile
	created []string
}

// NewCSV returns a sink writing under dir. Files are named
// {experiment}_{subject}_{task}_{stamp}_{table}.csv.
func NewCSV(dir, experiment, subject, task, stamp string) (*CSV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create results directory: %w", err)
	}
	prefix := strings.Join([]string{experiment, subject, task, stamp}, "_")
	return &CSV{dir: dir, prefix: prefix, files: map[string]*csvFile{}}, nil
}

// Path returns the file used for table.
func (s *CSV) Path(table string) string {
	return filepath.Join(s.dir, s.prefix+"_"+table+".csv")
}

// Files returns the paths created so far.
func (s *CSV) Files() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.created)
}

// Append writes rec to the file of table, writing the header on first use.
func (s *CSV) Append(_ context.Context, table string, rec model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[table]
	var header []string
	if ok {
		header = f.header
	}
	if err := CheckRecord(table, header, rec); err != nil {
		return err
	}
	if !ok {
		var err error
		f, err = s.create(table, rec.Columns())
		if err != nil {
			return err
		}
	}
	if err := f.writer.Write(rec.Values()); err != nil {
		return fmt.Errorf("failed to write %s record: %w", table, err)
	}
	f.writer.Flush()
	if err := f.writer.Error(); err != nil {
		return fmt.Errorf("failed to flush %s record: %w", table, err)
	}
	return nil
}

func (s *CSV) create(table string, header []string) (*csvFile, error) {
	path := s.Path(table)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	f := &csvFile{file: file, writer: csv.NewWriter(file), header: slices.Clone(header)}
	if err := f.writer.Write(header); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to write header of %s: %w", path, err)
	}
	s.files[table] = f
	s.created = append(s.created, path)
	return f, nil
}

// Close flushes and closes every file.
func (s *CSV) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	for table, f := range s.files {
		f.writer.Flush()
		err = multierr.Append(err, f.writer.Error())
		err = multierr.Append(err, f.file.Close())
		delete(s.files, table)
	}
	return err
}

type multi []ResultSink

// Multi fans an append out to every sink. All sinks are tried; their
// errors are combined.
func Multi(sinks ...ResultSink) ResultSink {
	return multi(sinks)
}

func (m multi) Append(ctx context.Context, table string, rec model.Record) error {
	var err error
	for _, s := range m {
		err = multierr.Append(err, s.Append(ctx, table, rec))
	}
	return err
}
