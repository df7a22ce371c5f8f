package facts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"confnode/internal/domain"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps uploaded facts snapshots in a SQLite database
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and migrates) the database at dbPath
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS facts (
		name TEXT PRIMARY KEY,
		environment TEXT,
		data JSON NOT NULL,
		timestamp TEXT NOT NULL,
		expiration TEXT,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_facts_environment ON facts(environment);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Name returns the store identifier
func (s *SQLiteStore) Name() string {
	return "sqlite"
}

// Find loads the latest snapshot for name. An expired snapshot is absent.
func (s *SQLiteStore) Find(ctx context.Context, name string, env *domain.Environment) (*domain.Facts, error) {
	var (
		data       []byte
		timestamp  string
		expiration sql.NullString
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT data, timestamp, expiration FROM facts WHERE name = ?
	`, name).Scan(&data, &timestamp, &expiration)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query facts: %w", err)
	}

	values := make(map[string]any)
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to unmarshal facts data: %w", err)
	}

	facts := domain.NewFacts(name, values)
	if ts, err := time.Parse(time.RFC3339Nano, timestamp); err == nil {
		facts.Timestamp = ts
	}
	facts.Expiration = nullToTimePtr(expiration)
	if facts.Expired(time.Now()) {
		return nil, nil
	}
	return facts, nil
}

// Save replaces the stored snapshot for facts.Name
func (s *SQLiteStore) Save(ctx context.Context, facts *domain.Facts) error {
	return s.SaveForEnvironment(ctx, facts, "")
}

// SaveForEnvironment is Save that also records the environment the
// snapshot was uploaded from
func (s *SQLiteStore) SaveForEnvironment(ctx context.Context, facts *domain.Facts, environment string) error {
	if facts == nil || facts.Name == "" {
		return fmt.Errorf("%w: facts must carry a node name", domain.ErrInvalidArgument)
	}

	data, err := json.Marshal(facts.Values)
	if err != nil {
		return fmt.Errorf("failed to marshal facts data: %w", err)
	}

	ts := facts.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO facts (name, environment, data, timestamp, expiration, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			environment = excluded.environment,
			data = excluded.data,
			timestamp = excluded.timestamp,
			expiration = excluded.expiration,
			updated_at = CURRENT_TIMESTAMP
	`, facts.Name, stringToNull(environment), data, ts.UTC().Format(time.RFC3339Nano), timePtrToNull(facts.Expiration))
	if err != nil {
		return fmt.Errorf("failed to save facts: %w", err)
	}
	return nil
}

// Delete removes the snapshot for name
func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM facts WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to delete facts: %w", err)
	}
	return nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// nullToTimePtr parses a nullable RFC3339 column
func nullToTimePtr(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, ns.String)
	if err != nil {
		return nil
	}
	return &t
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// timePtrToNull formats *time.Time as a nullable RFC3339 column
func timePtrToNull(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339Nano), Valid: true}
}
