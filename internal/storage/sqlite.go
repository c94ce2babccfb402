package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/franckalain/foodlens/internal/logger"
)

//go:embed schema.sql
var schemaFS embed.FS

// Object is a stored upload
type Object struct {
	Key         string
	ContentType string
	Data        []byte
	CreatedAt   time.Time
}

// SQLiteStore keeps objects in a local SQLite file, standing in for the
// bucket during development
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// WAL lets readers inspect uploads while the service writes
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("error enabling WAL mode: %w", err)
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("error initializing schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initializeSchema(db *sql.DB) error {
	schemaBytes, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("error reading schema file: %w", err)
	}

	if _, err := db.Exec(string(schemaBytes)); err != nil {
		return fmt.Errorf("error executing schema: %w", err)
	}

	logger.Debug("Object store schema initialized")
	return nil
}

// Put stores data under key, replacing any previous object
func (s *SQLiteStore) Put(ctx context.Context, key, contentType string, data []byte) error {
	query := `
		INSERT INTO objects (key, content_type, data, size, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			content_type = excluded.content_type,
			data = excluded.data,
			size = excluded.size,
			created_at = excluded.created_at
	`

	_, err := s.db.ExecContext(ctx, query, key, contentType, data, len(data), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to store object %s: %w", key, err)
	}
	return nil
}

// Get retrieves an object; a missing key returns nil without error
func (s *SQLiteStore) Get(ctx context.Context, key string) (*Object, error) {
	query := `SELECT key, content_type, data, created_at FROM objects WHERE key = ?`

	var obj Object
	var createdAt int64
	err := s.db.QueryRowContext(ctx, query, key).Scan(&obj.Key, &obj.ContentType, &obj.Data, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	obj.CreatedAt = time.UnixMilli(createdAt)
	return &obj, nil
}

// Keys lists the most recent object keys
func (s *SQLiteStore) Keys(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM objects ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
