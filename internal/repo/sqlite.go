package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/pkordes/claimtrack/internal/domain"
)

const (
	bucketClaims = "claims"
	bucketTags   = "tags"
)

// SQLiteStore snapshots claims and tags as JSON payloads, one row per
// bucket, in a single-file SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
	log  *slog.Logger
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(ctx context.Context, path string, log *slog.Logger) (*SQLiteStore, error) {
	if path == "" {
		path = "claimtrack.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("repo.NewSQLiteStore: create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("repo.NewSQLiteStore: open: %w", err)
	}
	// One writer at a time; SQLite serialises writes anyway.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS state (
		bucket  TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("repo.NewSQLiteStore: create state table: %w", err)
	}
	return &SQLiteStore{db: db, path: path, log: loggerOrDefault(log)}, nil
}

var _ Store = (*SQLiteStore)(nil)

// Close releases the database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) ReadAllClaims(ctx context.Context) ([]domain.Claim, error) {
	payload, err := s.load(ctx, bucketClaims)
	if err != nil {
		return nil, fmt.Errorf("repo.SQLiteStore.ReadAllClaims: %w", err)
	}
	claims, err := decodeEach[domain.Claim](s.log, s.path, payload)
	if err != nil {
		return nil, fmt.Errorf("repo.SQLiteStore.ReadAllClaims: decode %s: %w", bucketClaims, err)
	}
	return validClaims(s.log, s.path, claims), nil
}

func (s *SQLiteStore) SaveAllClaims(ctx context.Context, claims []domain.Claim) error {
	if err := s.persist(ctx, bucketClaims, nonNilSlice(claims)); err != nil {
		return fmt.Errorf("repo.SQLiteStore.SaveAllClaims: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ReadAllTags(ctx context.Context) ([]domain.Tag, error) {
	payload, err := s.load(ctx, bucketTags)
	if err != nil {
		return nil, fmt.Errorf("repo.SQLiteStore.ReadAllTags: %w", err)
	}
	tags, err := decodeEach[domain.Tag](s.log, s.path, payload)
	if err != nil {
		return nil, fmt.Errorf("repo.SQLiteStore.ReadAllTags: decode %s: %w", bucketTags, err)
	}
	return validTags(s.log, s.path, tags), nil
}

func (s *SQLiteStore) SaveAllTags(ctx context.Context, tags []domain.Tag) error {
	if err := s.persist(ctx, bucketTags, nonNilSlice(tags)); err != nil {
		return fmt.Errorf("repo.SQLiteStore.SaveAllTags: %w", err)
	}
	return nil
}

// load returns the bucket's payload. A missing bucket reads as empty.
func (s *SQLiteStore) load(ctx context.Context, bucket string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM state WHERE bucket = ?`, bucket).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", bucket, err)
	}
	return payload, nil
}

func (s *SQLiteStore) persist(ctx context.Context, bucket string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", bucket, err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO state(bucket, payload) VALUES(?, ?)
		 ON CONFLICT(bucket) DO UPDATE SET payload = excluded.payload`,
		bucket, data); err != nil {
		return fmt.Errorf("upsert %s: %w", bucket, err)
	}
	return nil
}
