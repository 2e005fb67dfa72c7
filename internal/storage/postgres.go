package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// PostgresConfig configures the postgres backend.
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int
	AutoMigrate  bool
}

// PostgresStore implements DocumentStore on a single JSONB table.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore opens a connection pool and optionally migrates the schema.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig, logger *slog.Logger) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, errors.New("postgres: dsn is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	db, err := OpenPostgres(ctx, cfg.DSN, cfg.MaxOpenConns)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		version, err := Migrate(ctx, db, logger)
		if err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("postgres schema ready", "version", version)
	}

	return &PostgresStore{db: db, logger: logger}, nil
}

// OpenPostgres opens and verifies a lib/pq connection pool.
func OpenPostgres(ctx context.Context, dsn string, maxOpen int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if maxOpen <= 0 {
		maxOpen = 10
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen / 2)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return db, nil
}

// DB exposes the pool for migrations and test fixtures.
func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// Put creates or replaces a document.
func (s *PostgresStore) Put(ctx context.Context, collection, id string, doc []byte) error {
	if err := validateKey(collection, id); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, body)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, id)
		DO UPDATE SET body = EXCLUDED.body, updated_at = now()`,
		collection, id, string(doc))
	if err != nil {
		return fmt.Errorf("postgres: put %s/%s: %w", collection, id, err)
	}
	return nil
}

// Create stores a document only if the id is unused.
func (s *PostgresStore) Create(ctx context.Context, collection, id string, doc []byte) error {
	if err := validateKey(collection, id); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, body)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO NOTHING`,
		collection, id, string(doc))
	if err != nil {
		return fmt.Errorf("postgres: create %s/%s: %w", collection, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: create %s/%s: %w", collection, id, err)
	}
	if n == 0 {
		return ErrExists
	}
	return nil
}

// Get retrieves a document.
func (s *PostgresStore) Get(ctx context.Context, collection, id string) ([]byte, error) {
	if err := validateKey(collection, id); err != nil {
		return nil, err
	}
	var body []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE collection = $1 AND id = $2`,
		collection, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get %s/%s: %w", collection, id, err)
	}
	return body, nil
}

// Delete removes a document.
func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	if err := validateKey(collection, id); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`,
		collection, id)
	if err != nil {
		return fmt.Errorf("postgres: delete %s/%s: %w", collection, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: delete %s/%s: %w", collection, id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List iterates a collection ordered by id.
func (s *PostgresStore) List(ctx context.Context, collection string, fn func(id string, doc []byte) bool) error {
	if err := validateCollection(collection); err != nil {
		return err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, body FROM documents WHERE collection = $1 ORDER BY id`,
		collection)
	if err != nil {
		return fmt.Errorf("postgres: list %s: %w", collection, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id   string
			body []byte
		)
		if err := rows.Scan(&id, &body); err != nil {
			return fmt.Errorf("postgres: list %s: %w", collection, err)
		}
		if !fn(id, body) {
			break
		}
	}
	return rows.Err()
}

// CountDocuments groups rows by collection.
func (s *PostgresStore) CountDocuments(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT collection, count(*) FROM documents GROUP BY collection`)
	if err != nil {
		return nil, fmt.Errorf("postgres: count: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			collection string
			n          int
		)
		if err := rows.Scan(&collection, &n); err != nil {
			return nil, fmt.Errorf("postgres: count: %w", err)
		}
		counts[collection] = n
	}
	return counts, rows.Err()
}

// Ping checks the connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.logger.Info("closing postgres store")
	return s.db.Close()
}
