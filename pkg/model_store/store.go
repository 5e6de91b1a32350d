// Package model_store persists trained Markov models in SQLite.
//
// Models are stored as their JSON encoding next to the account and dimension
// they were trained for, so a later run can score new activity against an
// earlier baseline without retraining.
//
// Store is safe for concurrent use; database/sql handles pooling.
package model_store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jtomasevic/bloc/internal/logging"
	"github.com/jtomasevic/bloc/pkg/markov_chain"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound   = errors.New("model store: model not found")
	ErrNilModel   = errors.New("model store: nil model")
	ErrEmptyLabel = errors.New("model store: empty label")
)

// Record is one stored model with its lookup keys.
type Record struct {
	ID        uuid.UUID
	Label     string
	Account   string
	Dimension string
	Model     *markov_chain.Model
	// Training is the state sequence the model was trained on, when kept.
	Training  string
	CreatedAt time.Time
}

// Summary is a Record without the model payload.
type Summary struct {
	ID             uuid.UUID
	Label          string
	Account        string
	Dimension      string
	VocabularySize int
	CreatedAt      time.Time
}

// Filter narrows List. Empty fields match everything.
type Filter struct {
	Account   string
	Dimension string
	Limit     int
}

type Store struct {
	db  *sql.DB
	log logrus.FieldLogger
}

type Option func(*Store)

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) {
		s.log = l
	}
}

// NewStore opens (or creates) the database at path and applies migrations.
func NewStore(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &Store{db: db, log: logging.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	s.log.WithField("path", path).Debug("model store opened")
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS models (
		id TEXT PRIMARY KEY,
		label TEXT NOT NULL,
		account TEXT NOT NULL DEFAULT '',
		dimension TEXT NOT NULL DEFAULT '',
		vocabulary_size INTEGER NOT NULL,
		payload BLOB NOT NULL,
		training TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_models_account ON models(account, dimension);
	CREATE INDEX IF NOT EXISTS idx_models_created ON models(created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save inserts rec, or replaces the stored model when rec.ID already exists.
// A zero ID gets a fresh one. The stored record's ID is returned.
func (s *Store) Save(ctx context.Context, rec Record) (uuid.UUID, error) {
	if rec.Model == nil {
		return uuid.Nil, ErrNilModel
	}
	if strings.TrimSpace(rec.Label) == "" {
		rec.Label = rec.Model.Label
	}
	if strings.TrimSpace(rec.Label) == "" {
		return uuid.Nil, ErrEmptyLabel
	}
	if err := rec.Model.Check(); err != nil {
		return uuid.Nil, fmt.Errorf("save model %q: %w", rec.Label, err)
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	var payload bytes.Buffer
	if err := rec.Model.Encode(&payload); err != nil {
		return uuid.Nil, fmt.Errorf("encode model %q: %w", rec.Label, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	// Rollback after commit is a no-op
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO models (id, label, account, dimension, vocabulary_size, payload, training, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			label = excluded.label,
			account = excluded.account,
			dimension = excluded.dimension,
			vocabulary_size = excluded.vocabulary_size,
			payload = excluded.payload,
			training = excluded.training
	`,
		rec.ID.String(),
		rec.Label,
		rec.Account,
		rec.Dimension,
		len(rec.Model.Vocabulary),
		payload.Bytes(),
		rec.Training,
		rec.CreatedAt.UnixNano(),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to save model %q: %w", rec.Label, err)
	}
	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"id":        rec.ID,
		"label":     rec.Label,
		"account":   rec.Account,
		"dimension": rec.Dimension,
		"states":    len(rec.Model.Vocabulary),
	}).Info("model saved")
	return rec.ID, nil
}

// Load returns the record stored under id.
func (s *Store) Load(ctx context.Context, id uuid.UUID) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, label, account, dimension, payload, training, created_at
		FROM models WHERE id = ?`, id.String())
	return scanRecord(row)
}

// Latest returns the most recently created model for account and dimension.
func (s *Store) Latest(ctx context.Context, account, dimension string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, label, account, dimension, payload, training, created_at
		FROM models WHERE account = ? AND dimension = ?
		ORDER BY created_at DESC LIMIT 1`, account, dimension)
	return scanRecord(row)
}

// List returns summaries, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]Summary, error) {
	query := `SELECT id, label, account, dimension, vocabulary_size, created_at FROM models`
	var (
		where []string
		args  []any
	)
	if f.Account != "" {
		where = append(where, "account = ?")
		args = append(args, f.Account)
	}
	if f.Dimension != "" {
		where = append(where, "dimension = ?")
		args = append(args, f.Dimension)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum     Summary
			id      string
			created int64
		)
		if err := rows.Scan(&id, &sum.Label, &sum.Account, &sum.Dimension, &sum.VocabularySize, &created); err != nil {
			return nil, fmt.Errorf("failed to scan model row: %w", err)
		}
		if sum.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("stored model id %q: %w", id, err)
		}
		sum.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Delete removes the model stored under id.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM models WHERE id = ?", id.String())
	if err != nil {
		return fmt.Errorf("failed to delete model: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	s.log.WithField("id", id).Info("model deleted")
	return nil
}

// Count returns the number of stored models.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM models").Scan(&n)
	return n, err
}

func (s *Store) Close() error {
	return s.db.Close()
}

func scanRecord(row *sql.Row) (*Record, error) {
	var (
		rec     Record
		id      string
		payload []byte
		created int64
	)
	err := row.Scan(&id, &rec.Label, &rec.Account, &rec.Dimension, &payload, &rec.Training, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}
	if rec.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("stored model id %q: %w", id, err)
	}
	if rec.Model, err = markov_chain.Decode(bytes.NewReader(payload)); err != nil {
		return nil, fmt.Errorf("stored model %s: %w", id, err)
	}
	rec.CreatedAt = time.Unix(0, created).UTC()
	return &rec, nil
}
