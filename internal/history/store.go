package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/devchat-app/aidebug/internal/model"
)

// DefaultLimit caps List when the query sets no limit.
const DefaultLimit = 100

// Store provides SQLite-based analysis history storage.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// StoreConfig configures the history store.
type StoreConfig struct {
	// Path is the SQLite database file path. ":memory:" is accepted.
	Path string
}

// NewStore opens the database, creating it and its schema when needed.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Path != ":memory:" {
		if dir := filepath.Dir(cfg.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating history directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and avoids
	// SQLITE_BUSY between concurrent writers in this process.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS analyses (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			language TEXT NOT NULL,
			code_hash TEXT NOT NULL,
			issue_count INTEGER NOT NULL,
			errors INTEGER NOT NULL DEFAULT 0,
			warnings INTEGER NOT NULL DEFAULT 0,
			infos INTEGER NOT NULL DEFAULT 0,
			fixed BOOLEAN NOT NULL DEFAULT FALSE,
			created_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS analysis_issues (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			analysis_id TEXT NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			severity TEXT NOT NULL,
			title TEXT NOT NULL,
			location TEXT NOT NULL
		)`,

		`CREATE VIRTUAL TABLE IF NOT EXISTS issues_fts USING fts5(
			title,
			content='analysis_issues',
			content_rowid='id'
		)`,

		`CREATE TRIGGER IF NOT EXISTS analysis_issues_ai AFTER INSERT ON analysis_issues BEGIN
			INSERT INTO issues_fts(rowid, title) VALUES (new.id, new.title);
		END`,

		`CREATE TRIGGER IF NOT EXISTS analysis_issues_ad AFTER DELETE ON analysis_issues BEGIN
			INSERT INTO issues_fts(issues_fts, rowid, title) VALUES ('delete', old.id, old.title);
		END`,

		`CREATE INDEX IF NOT EXISTS idx_analyses_language ON analyses(language)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_source ON analyses(source)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_created ON analyses(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_issues_analysis ON analysis_issues(analysis_id)`,
		`CREATE INDEX IF NOT EXISTS idx_issues_severity ON analysis_issues(severity)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Record saves a report and returns the stored record.
func (s *Store) Record(ctx context.Context, source, language, codeHash string, report *model.Report) (*Record, error) {
	if source == "" {
		source = SourceSnippet
	}

	counts := report.CountBySeverity()
	rec := &Record{
		ID:         uuid.NewString(),
		Source:     source,
		Language:   language,
		CodeHash:   codeHash,
		IssueCount: len(report.Issues),
		Errors:     counts[model.SeverityError],
		Warnings:   counts[model.SeverityWarning],
		Infos:      counts[model.SeverityInfo],
		Fixed:      report.FixedCode != nil,
		CreatedAt:  s.now().UTC(),
		Issues:     make([]IssueRecord, 0, len(report.Issues)),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT INTO analyses (
		id, source, language, code_hash, issue_count, errors, warnings, infos, fixed, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Source, rec.Language, rec.CodeHash, rec.IssueCount,
		rec.Errors, rec.Warnings, rec.Infos, rec.Fixed, rec.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("inserting analysis: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO analysis_issues (
		analysis_id, position, severity, title, location
	) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, issue := range report.Issues {
		ir := IssueRecord{Severity: string(issue.Severity), Title: issue.Title, Location: issue.Location}
		if _, err := stmt.ExecContext(ctx, rec.ID, i, ir.Severity, ir.Title, ir.Location); err != nil {
			return nil, fmt.Errorf("inserting issue: %w", err)
		}
		rec.Issues = append(rec.Issues, ir)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing analysis: %w", err)
	}
	return rec, nil
}

// ftsQuery turns free text into an FTS5 query: every whitespace-separated
// token becomes a quoted phrase, and a trailing * stays a prefix match.
func ftsQuery(text string) string {
	fields := strings.Fields(text)
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		prefix := strings.HasSuffix(f, "*")
		f = strings.TrimRight(f, "*")
		if f == "" {
			continue
		}
		term := `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
		if prefix {
			term += "*"
		}
		terms = append(terms, term)
	}
	if len(terms) == 0 {
		return `""`
	}
	return strings.Join(terms, " ")
}

// List returns records matching q, newest first. Issues are not loaded.
func (s *Store) List(ctx context.Context, q Query) (*ListResult, error) {
	var args []interface{}
	var conditions []string

	if q.Text != "" {
		conditions = append(conditions, `a.id IN (
			SELECT i.analysis_id FROM analysis_issues i
			WHERE i.id IN (SELECT rowid FROM issues_fts WHERE issues_fts MATCH ?))`)
		args = append(args, ftsQuery(q.Text))
	}
	if q.Source != "" {
		conditions = append(conditions, "a.source LIKE ?")
		args = append(args, strings.ReplaceAll(q.Source, "*", "%"))
	}
	if q.Language != "" {
		conditions = append(conditions, "a.language = ?")
		args = append(args, strings.ToLower(q.Language))
	}
	if q.Severity != "" {
		conditions = append(conditions, "a.id IN (SELECT analysis_id FROM analysis_issues WHERE severity = ?)")
		args = append(args, q.Severity)
	}
	if !q.Since.IsZero() {
		conditions = append(conditions, "a.created_at >= ?")
		args = append(args, q.Since.UTC())
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	//nolint:gosec // whereClause only holds placeholders
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM analyses a "+whereClause, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting records: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	//nolint:gosec // whereClause only holds placeholders
	query := `
		SELECT id, source, language, code_hash, issue_count, errors, warnings, infos, fixed, created_at
		FROM analyses a
		` + whereClause + `
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?`
	args = append(args, limit, q.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}

	return &ListResult{Records: records, TotalCount: total}, nil
}

// Get loads one record with its issues.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source, language, code_hash, issue_count, errors, warnings, infos, fixed, created_at
		FROM analyses WHERE id = ?`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT severity, title, location FROM analysis_issues
		WHERE analysis_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("querying issues: %w", err)
	}
	defer rows.Close()

	rec.Issues = make([]IssueRecord, 0, rec.IssueCount)
	for rows.Next() {
		var ir IssueRecord
		if err := rows.Scan(&ir.Severity, &ir.Title, &ir.Location); err != nil {
			return nil, fmt.Errorf("scanning issue: %w", err)
		}
		rec.Issues = append(rec.Issues, ir)
	}
	return rec, rows.Err()
}

// Stats returns aggregate statistics.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		BySeverity: make(map[string]int64),
		ByLanguage: make(map[string]int64),
		TopIssues:  make([]TitleCount, 0),
	}

	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(issue_count), 0), COALESCE(SUM(CASE WHEN fixed THEN 1 ELSE 0 END), 0)
		FROM analyses`).Scan(&stats.TotalAnalyses, &stats.TotalIssues, &stats.FixedAnalyses); err != nil {
		return nil, fmt.Errorf("querying totals: %w", err)
	}

	if err := s.groupCount(ctx, `SELECT severity, COUNT(*) FROM analysis_issues GROUP BY severity`, stats.BySeverity); err != nil {
		return nil, fmt.Errorf("querying severity breakdown: %w", err)
	}
	if err := s.groupCount(ctx, `SELECT language, COUNT(*) FROM analyses GROUP BY language`, stats.ByLanguage); err != nil {
		return nil, fmt.Errorf("querying language breakdown: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT title, COUNT(*) AS cnt FROM analysis_issues
		GROUP BY title ORDER BY cnt DESC, title ASC LIMIT 10`)
	if err != nil {
		return nil, fmt.Errorf("querying top issues: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var tc TitleCount
		if err := rows.Scan(&tc.Title, &tc.Count); err != nil {
			return nil, fmt.Errorf("scanning top issue: %w", err)
		}
		stats.TopIssues = append(stats.TopIssues, tc)
	}

	return stats, rows.Err()
}

func (s *Store) groupCount(ctx context.Context, query string, into map[string]int64) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		into[key] = count
	}
	return rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(sc scanner) (*Record, error) {
	var r Record
	if err := sc.Scan(
		&r.ID, &r.Source, &r.Language, &r.CodeHash, &r.IssueCount,
		&r.Errors, &r.Warnings, &r.Infos, &r.Fixed, &r.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning record: %w", err)
	}
	return &r, nil
}
