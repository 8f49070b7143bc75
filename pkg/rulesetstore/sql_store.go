package rulesetstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pama-lee/ordo/pkg/database"
	"github.com/pama-lee/ordo/pkg/ruleset"
)

// rebind rewrites "?" placeholders to the target driver's native syntax.
// database.Database never does this itself (see postgres.go's BulkInsert,
// which builds $N placeholders by hand at each call site); SQLStore issues
// the same query text against any of the three SQL backends, so it rebinds
// once here instead of hand-writing three copies of every statement.
func rebind(driver, query string) string {
	if driver != "postgres" && driver != "postgresql" {
		return query
	}
	var b strings.Builder
	n := 1
	for _, r := range query {
		if r == '?' {
			fmt.Fprintf(&b, "$%d", n)
			n++
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SQLStore persists rulesets in a single table through any pkg/database
// backend (SQLite, Postgres, MySQL). Column types are kept to the
// lowest-common-denominator subset all three drivers accept: TEXT, BLOB.
type SQLStore struct {
	db database.Database
}

// NewSQLStore wraps an already-connected database.Database and ensures the
// rulesets table exists.
func NewSQLStore(ctx context.Context, db database.Database) (*SQLStore, error) {
	s := &SQLStore{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore opens (creating if absent) a SQLite-backed store at path,
// or an in-memory store when path is "" or ":memory:".
func NewSQLiteStore(ctx context.Context, path string) (*SQLStore, error) {
	db := database.NewSQLiteDB(&database.Config{Driver: "sqlite", Database: path})
	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("rulesetstore: connect: %w", err)
	}
	return NewSQLStore(ctx, db)
}

// NewPostgresStore opens a Postgres-backed store from cfg.
func NewPostgresStore(ctx context.Context, cfg *database.Config) (*SQLStore, error) {
	db := database.NewPostgresDB(cfg)
	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("rulesetstore: connect: %w", err)
	}
	return NewSQLStore(ctx, db)
}

// NewMySQLStore opens a MySQL-backed store from cfg.
func NewMySQLStore(ctx context.Context, cfg *database.Config) (*SQLStore, error) {
	db := database.NewMySQLDB(cfg)
	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("rulesetstore: connect: %w", err)
	}
	return NewSQLStore(ctx, db)
}

// NewSQLStoreFromString opens, connects, and wraps a database.Database built
// from a connection string (e.g. "sqlite://./rulesets.db", "postgres://...").
func NewSQLStoreFromString(ctx context.Context, connStr string) (*SQLStore, error) {
	db, err := database.NewDatabaseFromString(connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("rulesetstore: connect: %w", err)
	}
	return NewSQLStore(ctx, db)
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	blobType := "BLOB"
	if d := s.db.Driver(); d == "postgres" || d == "postgresql" {
		blobType = "BYTEA"
	}

	_, err := s.db.Exec(ctx, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS rulesets (
	name      TEXT NOT NULL,
	version   TEXT NOT NULL,
	checksum  TEXT NOT NULL,
	container %s NOT NULL,
	saved_at  TEXT NOT NULL,
	PRIMARY KEY (name, version)
)`, blobType))
	if err != nil {
		return fmt.Errorf("rulesetstore: create schema: %w", err)
	}
	return nil
}

// Save implements Store.
func (s *SQLStore) Save(ctx context.Context, r *ruleset.RuleSet) error {
	packed, err := encode(r)
	if err != nil {
		return fmt.Errorf("rulesetstore: encode: %w", err)
	}
	sum, err := checksum(r)
	if err != nil {
		return fmt.Errorf("rulesetstore: checksum: %w", err)
	}

	driver := s.db.Driver()

	_, err = s.db.Exec(ctx,
		rebind(driver, `DELETE FROM rulesets WHERE name = ? AND version = ?`),
		r.Config.Name, r.Config.Version)
	if err != nil {
		return fmt.Errorf("rulesetstore: clear prior version: %w", err)
	}

	// saved_at uses fixed-width nanoseconds so that ListVersions' ORDER BY
	// on the text column sorts in time order.
	_, err = s.db.Exec(ctx,
		rebind(driver, `INSERT INTO rulesets (name, version, checksum, container, saved_at) VALUES (?, ?, ?, ?, ?)`),
		r.Config.Name, r.Config.Version, sum, packed, time.Now().UTC().Format("2006-01-02T15:04:05.000000000Z07:00"))
	if err != nil {
		return fmt.Errorf("rulesetstore: insert: %w", err)
	}
	return nil
}

// Load implements Store.
func (s *SQLStore) Load(ctx context.Context, name, version string) (*ruleset.RuleSet, error) {
	row := s.db.QueryRow(ctx,
		rebind(s.db.Driver(), `SELECT container FROM rulesets WHERE name = ? AND version = ?`), name, version)

	var packed []byte
	if err := row.Scan(&packed); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("rulesetstore: load: %w", err)
	}
	return decode(packed)
}

// ListVersions implements Store.
func (s *SQLStore) ListVersions(ctx context.Context, name string) ([]string, error) {
	rows, err := s.db.Query(ctx,
		rebind(s.db.Driver(), `SELECT version FROM rulesets WHERE name = ? ORDER BY saved_at ASC`), name)
	if err != nil {
		return nil, fmt.Errorf("rulesetstore: list versions: %w", err)
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("rulesetstore: scan version: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// Delete implements Store.
func (s *SQLStore) Delete(ctx context.Context, name, version string) error {
	_, err := s.db.Exec(ctx, rebind(s.db.Driver(), `DELETE FROM rulesets WHERE name = ? AND version = ?`), name, version)
	if err != nil {
		return fmt.Errorf("rulesetstore: delete: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
