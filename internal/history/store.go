// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history archives finished search tasks in a SQLite database so
// past aggregations survive process restarts and task-table eviction.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/biosearch/pkg/types"
)

const dbFile = "biosearch.db"

// Store manages the search history SQLite database.
type Store struct {
	db       *sql.DB
	pageSize int
}

// NewStore opens or creates the history database at dataDir/biosearch.db,
// creating the schema when missing.
func NewStore(cfg types.HistoryConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(cfg.DataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	s := &Store{db: db, pageSize: pageSize}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS searches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			task_id TEXT NOT NULL UNIQUE,
			query TEXT NOT NULL,
			status TEXT NOT NULL,
			total INTEGER NOT NULL DEFAULT 0,
			error TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS source_results (
			search_id INTEGER NOT NULL REFERENCES searches(id) ON DELETE CASCADE,
			source_id TEXT NOT NULL,
			raw_count INTEGER NOT NULL DEFAULT 0,
			record_count INTEGER NOT NULL DEFAULT 0,
			records TEXT NOT NULL DEFAULT '[]'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_source_results_search ON source_results(search_id)`,
		`CREATE INDEX IF NOT EXISTS idx_searches_created ON searches(created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Entry is one archived search.
type Entry struct {
	ID        int64     `json:"id"`
	TaskID    string    `json:"task_id"`
	Query     string    `json:"query"`
	Status    string    `json:"status"`
	Total     int       `json:"total"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	// Sources is populated by Detail only.
	Sources []SourceSummary `json:"sources,omitempty"`
}

// SourceSummary is one source's archived outcome within a search.
type SourceSummary struct {
	SourceID    string           `json:"source_id"`
	RawCount    int              `json:"raw_count"`
	RecordCount int              `json:"record_count"`
	Records     []map[string]any `json:"records"`
}

// SaveTask archives a terminal task. It is wired as the task manager's
// OnTerminal hook; re-saving the same task id replaces the earlier row,
// so a last-write-wins completion also wins here.
func (s *Store) SaveTask(ctx context.Context, t types.Task) error {
	if !t.Status.Terminal() {
		return fmt.Errorf("task %s is not terminal (%s)", t.ID, t.Status)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM searches WHERE task_id = ?`, t.ID); err != nil {
		return fmt.Errorf("clearing earlier archive of %s: %w", t.ID, err)
	}

	total := asInt(indexResult(t.Result, "total_records"))
	res, err := tx.ExecContext(ctx,
		`INSERT INTO searches (task_id, query, status, total, error, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.Query, string(t.Status), total, t.Error, t.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting search row: %w", err)
	}
	searchID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading search id: %w", err)
	}

	if sources, ok := indexResult(t.Result, "sources").(map[string]any); ok {
		for sourceID, v := range sources {
			sm, ok := v.(map[string]any)
			if !ok {
				continue
			}
			records, err := json.Marshal(defaultRecords(sm["records"]))
			if err != nil {
				return fmt.Errorf("encoding %s records: %w", sourceID, err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO source_results (search_id, source_id, raw_count, record_count, records) VALUES (?, ?, ?, ?, ?)`,
				searchID, sourceID, asInt(sm["raw_count"]), asInt(sm["record_count"]), string(records),
			); err != nil {
				return fmt.Errorf("inserting %s result: %w", sourceID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing archive of %s: %w", t.ID, err)
	}
	return nil
}

// History lists archived searches newest first. Page is 1-based; pageSize
// <= 0 uses the configured default. A non-empty keyword filters queries by
// substring. The second return is the total match count before paging.
func (s *Store) History(ctx context.Context, page, pageSize int, keyword string) ([]Entry, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = s.pageSize
	}
	where := ""
	args := []any{}
	if keyword != "" {
		where = ` WHERE query LIKE ?`
		args = append(args, "%"+keyword+"%")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM searches`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting searches: %w", err)
	}

	args = append(args, pageSize, (page-1)*pageSize)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, task_id, query, status, total, coalesce(error, ''), created_at FROM searches`+
			where+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing searches: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

// Detail returns one archived search with its per-source records.
func (s *Store) Detail(ctx context.Context, id int64) (Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, task_id, query, status, total, coalesce(error, ''), created_at FROM searches WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return Entry{}, fmt.Errorf("search %d not found", id)
	}
	if err != nil {
		return Entry{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT source_id, raw_count, record_count, records FROM source_results WHERE search_id = ? ORDER BY source_id`, id)
	if err != nil {
		return Entry{}, fmt.Errorf("loading source results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sm SourceSummary
		var records string
		if err := rows.Scan(&sm.SourceID, &sm.RawCount, &sm.RecordCount, &records); err != nil {
			return Entry{}, fmt.Errorf("scanning source result: %w", err)
		}
		if err := json.Unmarshal([]byte(records), &sm.Records); err != nil {
			return Entry{}, fmt.Errorf("decoding %s records: %w", sm.SourceID, err)
		}
		e.Sources = append(e.Sources, sm)
	}
	return e, rows.Err()
}

// Delete removes one archived search and its source rows.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM searches WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting search %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete of %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("search %d not found", id)
	}
	return nil
}

// Stats summarizes the archive.
type Stats struct {
	Searches  int            `json:"searches"`
	Completed int            `json:"completed"`
	Failed    int            `json:"failed"`
	Records   int            `json:"records"`
	BySource  map[string]int `json:"by_source"`
}

// Stats reports archive totals and per-source record counts.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	st := Stats{BySource: map[string]int{}}
	err := s.db.QueryRowContext(ctx, `SELECT
			count(*),
			count(*) FILTER (WHERE status = 'completed'),
			count(*) FILTER (WHERE status = 'failed'),
			coalesce(sum(total), 0)
		FROM searches`).Scan(&st.Searches, &st.Completed, &st.Failed, &st.Records)
	if err != nil {
		return Stats{}, fmt.Errorf("reading search totals: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT source_id, coalesce(sum(record_count), 0) FROM source_results GROUP BY source_id`)
	if err != nil {
		return Stats{}, fmt.Errorf("reading source totals: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return Stats{}, fmt.Errorf("scanning source total: %w", err)
		}
		st.BySource[id] = n
	}
	return st, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var e Entry
	var created string
	if err := row.Scan(&e.ID, &e.TaskID, &e.Query, &e.Status, &e.Total, &e.Error, &created); err != nil {
		return Entry{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing created_at %q: %w", created, err)
	}
	e.CreatedAt = t
	return e, nil
}

// indexResult reads a key from a possibly-nil result map.
func indexResult(m map[string]any, key string) any {
	if m == nil {
		return nil
	}
	return m[key]
}

// asInt converts in-process ints and JSON-decoded float64s alike.
func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func defaultRecords(v any) []any {
	if records, ok := v.([]any); ok {
		return records
	}
	return []any{}
}
