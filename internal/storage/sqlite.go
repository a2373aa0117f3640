// Package storage provides the SQLite implementation of the Store interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/atsume/internal/models"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT,
		category TEXT,
		extension TEXT,
		size INTEGER NOT NULL DEFAULT 0,
		upload_date TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		status TEXT NOT NULL,
		text_content TEXT NOT NULL DEFAULT '',
		text_source TEXT,
		meta TEXT,
		error_message TEXT,
		data_url TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_documents_upload_date ON documents(upload_date);
	CREATE INDEX IF NOT EXISTS idx_documents_category ON documents(category);
	`
	_, err := db.Exec(schema)
	return err
}

// Save upserts a record by id. The full record is written; a failed write
// leaves any prior version untouched.
func (s *SQLiteStore) Save(ctx context.Context, rec *models.DocumentRecord) error {
	metaJSON, err := json.Marshal(rec.Meta)
	if err != nil {
		return fmt.Errorf("failed to marshal meta: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents
		 (id, name, type, category, extension, size, upload_date, updated_at,
		  status, text_content, text_source, meta, error_message, data_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		  name = excluded.name,
		  type = excluded.type,
		  category = excluded.category,
		  extension = excluded.extension,
		  size = excluded.size,
		  upload_date = excluded.upload_date,
		  updated_at = excluded.updated_at,
		  status = excluded.status,
		  text_content = excluded.text_content,
		  text_source = excluded.text_source,
		  meta = excluded.meta,
		  error_message = excluded.error_message,
		  data_url = excluded.data_url`,
		rec.ID, rec.Name, rec.Type, rec.Category, rec.Extension, rec.Size,
		rec.UploadDate, rec.UpdatedAt, rec.Status, rec.TextContent,
		rec.TextSource, string(metaJSON), rec.ErrorMessage, rec.DataURL,
	)
	return err
}

const recordColumns = `id, name, type, category, extension, size, upload_date,
	updated_at, status, text_content, text_source, meta, error_message, data_url`

// Get returns the record with the given id, normalized for legacy gaps.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*models.DocumentRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM documents WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetAll returns every record, newest upload first, normalized for legacy gaps.
func (s *SQLiteStore) GetAll(ctx context.Context) ([]*models.DocumentRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM documents ORDER BY upload_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*models.DocumentRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Delete removes a record by id. Deleting a missing id is a no-op.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	return err
}

// Clear removes all records.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents`)
	return err
}

// Count returns the total number of records.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.DocumentRecord, error) {
	var rec models.DocumentRecord
	var typ, category, extension, textSource, metaJSON, errorMessage, dataURL sql.NullString
	if err := row.Scan(
		&rec.ID, &rec.Name, &typ, &category, &extension, &rec.Size,
		&rec.UploadDate, &rec.UpdatedAt, &rec.Status, &rec.TextContent,
		&textSource, &metaJSON, &errorMessage, &dataURL,
	); err != nil {
		return nil, err
	}
	rec.Type = typ.String
	rec.Category = category.String
	rec.Extension = extension.String
	rec.TextSource = textSource.String
	rec.ErrorMessage = errorMessage.String
	rec.DataURL = dataURL.String
	if metaJSON.String != "" {
		if err := json.Unmarshal([]byte(metaJSON.String), &rec.Meta); err != nil {
			return nil, fmt.Errorf("failed to unmarshal meta for %s: %w", rec.ID, err)
		}
	}
	return models.Normalize(&rec), nil
}
