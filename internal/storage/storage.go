// Package storage defines the persistence interface for document records.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/atsume/internal/models"
)

// ErrNotFound is returned by Get when no record has the given id.
var ErrNotFound = errors.New("document not found")

// Store is the durable, keyed persistence layer for document records.
// Save is an upsert keyed by id and always writes the full record; there are
// no field-level patches. Delete on a missing id is a no-op. Storage failures
// are propagated to the caller, never swallowed.
type Store interface {
	Save(ctx context.Context, rec *models.DocumentRecord) error
	Get(ctx context.Context, id string) (*models.DocumentRecord, error)
	GetAll(ctx context.Context) ([]*models.DocumentRecord, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
	Close() error
}
