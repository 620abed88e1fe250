package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pkordes/claimtrack/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, *pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup. On a pgx.Tx, Begin opens a
// savepoint.
type db interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps each claim as a JSONB document row and each tag as a
// plain row. A position column preserves list order.
type PostgresStore struct {
	db  db
	log *slog.Logger
}

// NewPostgresStore constructs a Store backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewPostgresStore(db db, log *slog.Logger) *PostgresStore {
	return &PostgresStore{db: db, log: loggerOrDefault(log)}
}

var _ Store = (*PostgresStore)(nil)

// ReadAllClaims returns every claim ordered by position.
func (s *PostgresStore) ReadAllClaims(ctx context.Context) ([]domain.Claim, error) {
	const q = `SELECT payload FROM claims ORDER BY position`

	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.PostgresStore.ReadAllClaims: %w", err)
	}
	defer rows.Close()

	claims := []domain.Claim{}
	for rows.Next() {
		var (
			payload []byte
			c       domain.Claim
		)
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("repo.PostgresStore.ReadAllClaims: scan: %w", err)
		}
		if err := json.Unmarshal(payload, &c); err != nil {
			s.log.Warn("dropping undecodable stored claim", "source", "postgres", "error", err)
			continue
		}
		claims = append(claims, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.PostgresStore.ReadAllClaims: rows: %w", err)
	}
	return validClaims(s.log, "postgres", claims), nil
}

// SaveAllClaims replaces the claims table contents inside one transaction.
func (s *PostgresStore) SaveAllClaims(ctx context.Context, claims []domain.Claim) error {
	const ins = `
		INSERT INTO claims (id, position, claimant_id, status, start_time, payload, last_modified)
		VALUES (@id, @position, @claimant_id, @status, @start_time, @payload, @last_modified)`

	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM claims`); err != nil {
			return err
		}
		for i, c := range claims {
			payload, err := json.Marshal(c)
			if err != nil {
				return fmt.Errorf("encode claim %s: %w", c.ID(), err)
			}
			args := pgx.NamedArgs{
				"id":            c.ID(),
				"position":      i,
				"claimant_id":   c.Claimant().ID,
				"status":        string(c.Status()),
				"start_time":    nil, // NULL when unset
				"payload":       payload,
				"last_modified": c.LastModified(),
			}
			if c.HasStartTime() {
				args["start_time"] = c.StartTime()
			}
			if _, err := tx.Exec(ctx, ins, args); err != nil {
				return fmt.Errorf("insert claim %s: %w", c.ID(), err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("repo.PostgresStore.SaveAllClaims: %w", err)
	}
	return nil
}

// ReadAllTags returns every tag ordered by position.
func (s *PostgresStore) ReadAllTags(ctx context.Context) ([]domain.Tag, error) {
	const q = `SELECT id, name FROM tags ORDER BY position`

	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.PostgresStore.ReadAllTags: %w", err)
	}
	defer rows.Close()

	tags := []domain.Tag{}
	for rows.Next() {
		var t domain.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("repo.PostgresStore.ReadAllTags: scan: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.PostgresStore.ReadAllTags: rows: %w", err)
	}
	return validTags(s.log, "postgres", tags), nil
}

// SaveAllTags replaces the tags table contents inside one transaction.
// Deleting first lets a rename reuse a name another tag just gave up.
func (s *PostgresStore) SaveAllTags(ctx context.Context, tags []domain.Tag) error {
	const ins = `INSERT INTO tags (id, position, name) VALUES (@id, @position, @name)`

	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM tags`); err != nil {
			return err
		}
		for i, t := range tags {
			args := pgx.NamedArgs{"id": t.ID, "position": i, "name": t.Name}
			if _, err := tx.Exec(ctx, ins, args); err != nil {
				return fmt.Errorf("insert tag %s: %w", t.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("repo.PostgresStore.SaveAllTags: %w", err)
	}
	return nil
}

// inTx runs fn in a transaction, committing on success and rolling back on
// any error.
func (s *PostgresStore) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
