package out

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fieldmap/internal/modules/ticket/domain"
	ticketout "fieldmap/internal/modules/ticket/port/out"

	_ "modernc.org/sqlite"
)

var _ ticketout.ActivityLog = (*SQLiteActivityLog)(nil)

type SQLiteActivityLog struct {
	db *sql.DB
}

func NewSQLiteActivityLog(dbPath string) (*SQLiteActivityLog, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	log := &SQLiteActivityLog{db: db}
	if err := log.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return log, nil
}

func (s *SQLiteActivityLog) Close() error {
	return s.db.Close()
}

func (s *SQLiteActivityLog) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS activity (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  kind TEXT NOT NULL,
  ticket_id TEXT NOT NULL DEFAULT '',
  from_status TEXT NOT NULL DEFAULT '',
  to_status TEXT NOT NULL DEFAULT '',
  detail TEXT NOT NULL DEFAULT '',
  at TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create activity table: %w", err)
	}
	return nil
}

func (s *SQLiteActivityLog) Append(ctx context.Context, a domain.Activity) error {
	const stmt = `
INSERT INTO activity (kind, ticket_id, from_status, to_status, detail, at)
VALUES (?, ?, ?, ?, ?, ?);
`
	_, err := s.db.ExecContext(ctx, stmt,
		string(a.Kind),
		a.TicketID,
		string(a.From),
		string(a.To),
		a.Detail,
		a.At.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

func (s *SQLiteActivityLog) List(ctx context.Context, limit int) ([]domain.Activity, error) {
	const query = `
SELECT id, kind, ticket_id, from_status, to_status, detail, at
FROM activity
ORDER BY id DESC
LIMIT ?;
`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()

	var out []domain.Activity
	for rows.Next() {
		var (
			a              domain.Activity
			kind, from, to string
			at             string
		)
		if err := rows.Scan(&a.ID, &kind, &a.TicketID, &from, &to, &a.Detail, &at); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.Kind = domain.ActivityKind(kind)
		a.From = domain.Status(from)
		a.To = domain.Status(to)
		if parsed, err := time.Parse(time.RFC3339Nano, at); err == nil {
			a.At = parsed
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity: %w", err)
	}
	return out, nil
}

func (s *SQLiteActivityLog) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM activity`); err != nil {
		return fmt.Errorf("reset activity: %w", err)
	}
	return nil
}
