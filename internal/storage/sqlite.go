package storage

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

// SQLite stores records in an embedded single-file database, for
// deployments that want one durable artifact instead of a directory.
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	err = withTimeout(queryTimeout, func(ctx context.Context) error {
		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS state (
				key TEXT PRIMARY KEY,
				doc BLOB NOT NULL
			)
		`)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Ping() error {
	return withTimeout(pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *SQLite) Load(key string) ([]byte, bool, error) {
	var doc []byte

	err := withTimeout(queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			SELECT doc FROM state WHERE key = ?
		`, key).Scan(&doc)
	})

	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

func (s *SQLite) Save(key string, doc []byte) error {
	return withTimeout(queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO state (key, doc) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET doc = excluded.doc
		`, key, doc)
		return err
	})
}

func (s *SQLite) Delete(key string) error {
	return withTimeout(queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM state WHERE key = ?`, key)
		return err
	})
}

func withTimeout(d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return fn(ctx)
}
