//go:build !tinygo

// Package capture records sample lines in a sqlite database so a host run
// can be replayed with capdump.
package capture

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaFS embed.FS

var ErrClosed = errors.New("capture: store closed")

// Row is one recorded line.
type Row struct {
	Capture int64
	Seq     int64
	At      time.Time
	Line    string
}

// Store appends lines to one capture session.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	insert *sql.Stmt
	id     int64
	seq    int64
	now    func() time.Time
}

// Open creates path if needed and starts a new capture session.
func Open(ctx context.Context, path string, channels int, build string) (*Store, error) {
	db, err := openDB(ctx, path)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, now: time.Now}

	res, err := db.ExecContext(ctx,
		`INSERT INTO captures(started_at, channels, build) VALUES(?,?,?)`,
		s.now().UTC().Format(time.RFC3339Nano), channels, build)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("capture: new session: %w", err)
	}
	if s.id, err = res.LastInsertId(); err != nil {
		_ = db.Close()
		return nil, err
	}
	s.insert, err = db.PrepareContext(ctx, `INSERT INTO samples(capture_id, seq, at_ns, line) VALUES(?,?,?,?)`)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func openDB(ctx context.Context, path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("capture: sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	_, _ = db.ExecContext(ctx, "PRAGMA journal_mode = WAL")
	_, _ = db.ExecContext(ctx, "PRAGMA synchronous = NORMAL")

	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, string(schema)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("capture: migrate: %w", err)
	}
	return db, nil
}

// ID returns the capture session id.
func (s *Store) ID() int64 { return s.id }

func (s *Store) WriteLine(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrClosed
	}
	s.seq++
	_, err := s.insert.Exec(s.id, s.seq, s.now().UnixNano(), line)
	return err
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	_ = s.insert.Close()
	err := s.db.Close()
	s.db = nil
	return err
}

// Reader reads captures back.
type Reader struct {
	db *sql.DB
}

func OpenReader(ctx context.Context, path string) (*Reader, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := openDB(ctx, path)
	if err != nil {
		return nil, err
	}
	return &Reader{db: db}, nil
}

func (r *Reader) Close() error { return r.db.Close() }

// Latest returns the id of the newest capture session.
func (r *Reader) Latest(ctx context.Context) (int64, error) {
	var id sql.NullInt64
	if err := r.db.QueryRowContext(ctx, `SELECT MAX(id) FROM captures`).Scan(&id); err != nil {
		return 0, err
	}
	if !id.Valid {
		return 0, sql.ErrNoRows
	}
	return id.Int64, nil
}

// Each calls fn for every row of capture id in sequence order, stopping
// after limit rows when limit > 0.
func (r *Reader) Each(ctx context.Context, id int64, limit int, fn func(Row) error) error {
	q := `SELECT seq, at_ns, line FROM samples WHERE capture_id = ? ORDER BY seq`
	args := []any{id}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		row := Row{Capture: id}
		var ns int64
		if err := rows.Scan(&row.Seq, &ns, &row.Line); err != nil {
			return err
		}
		row.At = time.Unix(0, ns)
		if err := fn(row); err != nil {
			return err
		}
	}
	return rows.Err()
}
