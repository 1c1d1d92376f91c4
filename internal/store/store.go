// Package store handles SQLite persistence of experiment results.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/verte-zerg/dualtask/internal/model"
	"github.com/verte-zerg/dualtask/internal/sink"

	_ "modernc.org/sqlite" // SQLite driver.
)

var identRE = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Store wraps SQLite access for result records. Each logical table maps
// to a results_<table> table whose columns follow the first record.
type Store struct {
	db    *sql.DB
	mu    sync.Mutex
	runID string
	cols  map[string][]string
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	store := &Store{db: db, cols: map[string][]string{}}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			experiment TEXT NOT NULL,
			subject TEXT NOT NULL,
			tasks TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_subject ON runs(subject);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// BeginRun registers a run; later appends are tagged with its id.
func (s *Store) BeginRun(ctx context.Context, run model.Run) error {
	if run.ID == "" {
		return fmt.Errorf("run id is empty")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, experiment, subject, tasks, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Experiment, run.Subject, strings.Join(run.Tasks, ","), run.StartedAt.Format(time.RFC3339Nano))
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.runID = run.ID
	s.mu.Unlock()
	return nil
}

// EndRun stamps the end time of the current run.
func (s *Store) EndRun(ctx context.Context, endedAt time.Time) error {
	s.mu.Lock()
	id := s.runID
	s.mu.Unlock()
	if id == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `UPDATE runs SET ended_at = ? WHERE id = ?`, endedAt.Format(time.RFC3339Nano), id)
	return err
}

func tableName(table string) (string, error) {
	if !identRE.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return "results_" + table, nil
}

func quote(ident string) string {
	return `"` + ident + `"`
}

// Append implements sink.ResultSink.
func (s *Store) Append(ctx context.Context, table string, rec model.Record) error {
	name, err := tableName(table)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runID == "" {
		return fmt.Errorf("no run started")
	}
	cols := rec.Columns()
	want, err := s.ensureTable(ctx, name, cols)
	if err != nil {
		return err
	}
	if err := sink.CheckRecord(table, want, rec); err != nil {
		return err
	}

	names := make([]string, 0, len(cols)+1)
	names = append(names, "run_id")
	for _, c := range cols {
		names = append(names, quote(c))
	}
	args := make([]any, 0, len(cols)+1)
	args = append(args, s.runID)
	for _, v := range rec.Values() {
		args = append(args, v)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(args)), ",")
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, quote(name), strings.Join(names, ", "), placeholders)
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

// ensureTable creates name on first use and returns its record columns.
func (s *Store) ensureTable(ctx context.Context, name string, cols []string) ([]string, error) {
	if known, ok := s.cols[name]; ok {
		return known, nil
	}
	existing, err := s.columns(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		s.cols[name] = existing
		return existing, nil
	}
	defs := make([]string, 0, len(cols)+1)
	defs = append(defs, "run_id TEXT NOT NULL REFERENCES runs(id)")
	for _, c := range cols {
		if !identRE.MatchString(c) {
			return nil, fmt.Errorf("invalid column name %q", c)
		}
		defs = append(defs, quote(c)+" TEXT")
	}
	stmt := fmt.Sprintf(`CREATE TABLE %s (%s)`, quote(name), strings.Join(defs, ", "))
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return nil, err
	}
	s.cols[name] = slices.Clone(cols)
	return s.cols[name], nil
}

// columns lists the record columns of name, or nil if it does not exist.
func (s *Store) columns(ctx context.Context, name string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, quote(name)))
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	var cols []string
	for rows.Next() {
		var (
			cid     int
			col     string
			typ     string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &col, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		if col != "run_id" {
			cols = append(cols, col)
		}
	}
	return cols, rows.Err()
}

func (s *Store) hasTable(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	return n > 0, err
}

func filterClause(f model.ReportFilter, taskCol string) (string, []any) {
	clauses := []string{"1=1"}
	var args []any
	if f.Subject != "" {
		clauses = append(clauses, "r.subject = ?")
		args = append(args, f.Subject)
	}
	if f.Task != "" {
		clauses = append(clauses, taskCol+" = ?")
		args = append(args, f.Task)
	}
	return strings.Join(clauses, " AND "), args
}

// ListEventAggregates sums scored sub-events per table, task and context.
func (s *Store) ListEventAggregates(ctx context.Context, f model.ReportFilter) ([]model.EventAggregate, error) {
	var out []model.EventAggregate
	for _, table := range []string{model.TableBeepPress, model.TableNBack, model.TableFlanker} {
		name, _ := tableName(table)
		ok, err := s.hasTable(ctx, name)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		where, args := filterClause(f, "t.task")
		query := fmt.Sprintf(`SELECT t.task, t.presentation, COUNT(*),
			SUM(CASE WHEN t.accuracy = 'correct' THEN 1 ELSE 0 END),
			AVG(CASE WHEN t.accuracy = 'correct' AND t.rt != 'NA' THEN CAST(t.rt AS REAL) END)
			FROM %s t
			JOIN runs r ON r.id = t.run_id
			WHERE %s AND t.accuracy != 'NA'
			GROUP BY t.task, t.presentation
			ORDER BY t.task, t.presentation`, quote(name), where)
		aggs, err := s.scanEventAggregates(ctx, table, query, args)
		if err != nil {
			return nil, err
		}
		out = append(out, aggs...)
	}
	return out, nil
}

func (s *Store) scanEventAggregates(ctx context.Context, table, query string, args []any) ([]model.EventAggregate, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	var out []model.EventAggregate
	for rows.Next() {
		agg := model.EventAggregate{Table: table}
		var ctxName string
		var rt sql.NullFloat64
		if err := rows.Scan(&agg.Task, &ctxName, &agg.Total, &agg.Correct, &rt); err != nil {
			return nil, err
		}
		agg.Context = model.Context(ctxName)
		if rt.Valid {
			agg.MeanRTCorrect = model.Some(rt.Float64)
		}
		out = append(out, agg)
	}
	return out, rows.Err()
}

// ListTrialChoices returns discrete-choice outcomes of stored trials in
// run and insertion order.
func (s *Store) ListTrialChoices(ctx context.Context, f model.ReportFilter) ([]model.TrialChoice, error) {
	name, _ := tableName(model.TableMain)
	ok, err := s.hasTable(ctx, name)
	if err != nil || !ok {
		return nil, err
	}
	where, args := filterClause(f, "t.task")
	query := fmt.Sprintf(`SELECT t.task, t.main_trial, t.dot_response_accuracy,
		t.number_response_accuracy, t.beep_count_response_accuracy
		FROM %s t
		JOIN runs r ON r.id = t.run_id
		WHERE %s
		ORDER BY r.started_at ASC, t.rowid ASC`, quote(name), where)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	var out []model.TrialChoice
	for rows.Next() {
		var c model.TrialChoice
		var trial, dot, number, count string
		if err := rows.Scan(&c.Task, &trial, &dot, &number, &count); err != nil {
			return nil, err
		}
		c.Trial, err = strconv.Atoi(trial)
		if err != nil {
			return nil, fmt.Errorf("invalid main_trial %q: %w", trial, err)
		}
		c.Dot, c.Number, c.BeepCount = accuracyOf(dot), accuracyOf(number), accuracyOf(count)
		out = append(out, c)
	}
	return out, rows.Err()
}

func accuracyOf(v string) model.Opt[model.Accuracy] {
	if v == "" || v == model.NA {
		return model.None[model.Accuracy]()
	}
	return model.Some(model.Accuracy(v))
}
