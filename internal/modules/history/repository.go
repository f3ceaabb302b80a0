// Package history persists the results of mitigation runs so past estimates
// can be listed and compared.
package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Record is one stored mitigation result.
type Record struct {
	ID         string
	Technique  string // "zne" or "pec"
	Circuit    string
	Method     string // extrapolation model or representation noise model
	Estimate   float64
	StdError   float64
	NumSamples int
	CreatedAt  time.Time
}

// Repository handles CRUD operations for mitigation results.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new history repository and ensures its schema.
func NewRepository(db *sql.DB, log zerolog.Logger) (*Repository, error) {
	r := &Repository{
		db:  db,
		log: log.With().Str("repository", "history").Logger(),
	}
	if err := r.ensureSchema(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Repository) ensureSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS mitigation_results (
			uuid        TEXT PRIMARY KEY,
			technique   TEXT NOT NULL,
			circuit     TEXT NOT NULL,
			method      TEXT NOT NULL,
			estimate    REAL NOT NULL,
			std_error   REAL NOT NULL,
			num_samples INTEGER NOT NULL,
			created_at  INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_mitigation_results_created_at
			ON mitigation_results (created_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("failed to create mitigation_results schema: %w", err)
	}
	return nil
}

// Save stores one result and returns its generated ID.
func (r *Repository) Save(rec Record) (string, error) {
	id := rec.ID
	if id == "" {
		id = uuid.New().String()
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.Exec(`
		INSERT INTO mitigation_results
		(uuid, technique, circuit, method, estimate, std_error, num_samples, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		rec.Technique,
		rec.Circuit,
		rec.Method,
		rec.Estimate,
		rec.StdError,
		rec.NumSamples,
		createdAt.Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to save mitigation result: %w", err)
	}

	r.log.Debug().Str("uuid", id).Str("technique", rec.Technique).Msg("Stored mitigation result")
	return id, nil
}

// List returns the most recent results, newest first.
func (r *Repository) List(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(`
		SELECT uuid, technique, circuit, method, estimate, std_error, num_samples, created_at
		FROM mitigation_results
		ORDER BY created_at DESC, uuid
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list mitigation results: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Get returns one result by ID, sql.ErrNoRows if it does not exist.
func (r *Repository) Get(id string) (Record, error) {
	row := r.db.QueryRow(`
		SELECT uuid, technique, circuit, method, estimate, std_error, num_samples, created_at
		FROM mitigation_results
		WHERE uuid = ?
	`, id)
	return scanRecord(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var createdAt int64
	err := row.Scan(
		&rec.ID,
		&rec.Technique,
		&rec.Circuit,
		&rec.Method,
		&rec.Estimate,
		&rec.StdError,
		&rec.NumSamples,
		&createdAt,
	)
	if err != nil {
		return Record{}, err
	}
	rec.CreatedAt = time.Unix(createdAt, 0)
	return rec, nil
}
