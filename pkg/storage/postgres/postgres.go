package postgres

import (
	"context"
	_ "embed"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"censorship/pkg/storage"
)

//go:embed schema.sql
var schema string

type Store struct {
	db *pgxpool.Pool
}

// New connects to Postgres and creates the words table if it is missing.
func New(ctx context.Context, conStr string) (*Store, error) {
	db, err := pgxpool.Connect(ctx, conStr)
	if err != nil {
		return nil, err
	}
	s := Store{
		db: db,
	}

	if _, err := db.Exec(ctx, schema); err != nil {
		db.Close()
		return nil, err
	}

	return &s, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Store) Close() {
	s.db.Close()
}

// Words returns the stored patterns ordered by position.
func (s *Store) Words(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT pattern FROM words ORDER BY pos`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var words []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, err
		}
		words = append(words, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(words) == 0 {
		return nil, storage.ErrNoWords
	}
	return words, nil
}

// SaveWords replaces the stored list within a single transaction.
func (s *Store) SaveWords(ctx context.Context, words []string) (err error) {
	words = storage.Clean(words)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM words`); err != nil {
		return err
	}

	if len(words) > 0 {
		batch := new(pgx.Batch)
		for i, w := range words {
			batch.Queue(`INSERT INTO words (pos, pattern) VALUES ($1, $2)`, i, w)
		}

		res := tx.SendBatch(ctx, batch)
		err = res.Close()
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
