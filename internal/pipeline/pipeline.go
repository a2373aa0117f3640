// Package pipeline orchestrates document ingestion: it validates incoming
// files, creates placeholder records, runs the matching extractor, derives
// metadata, and persists results. The pipeline holds no state of its own
// between calls; the document store is its only shared resource.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/atsume/internal/extract"
	"github.com/hyperjump/atsume/internal/models"
	"github.com/hyperjump/atsume/internal/registry"
	"github.com/hyperjump/atsume/internal/storage"
	"github.com/hyperjump/atsume/internal/textmeta"
	"github.com/hyperjump/atsume/pkg/utils"
)

// Validation and processing errors surfaced per file or per operation.
var (
	ErrUnsupportedType  = errors.New("unsupported file type")
	ErrFileTooLarge     = errors.New("file exceeds the 10 MiB size limit")
	ErrInsufficientText = errors.New("insufficient text extracted")
	ErrMissingOriginal  = errors.New("original file data missing, cannot reprocess")
)

// Pipeline runs uploads through validation, extraction, and persistence.
type Pipeline struct {
	store  storage.Store
	logger *zap.Logger
}

// New creates a Pipeline backed by store. A nil logger is replaced with a no-op.
func New(store storage.Store, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{store: store, logger: logger}
}

// Submit ingests a batch of uploads. Files that fail validation (oversized,
// unclassifiable) are skipped and reported without aborting the batch, as are
// files whose extraction fails; those still produce a record in error state.
// Valid files are processed sequentially so state transitions for each
// document are observed in upload order. Storage failures abort the batch and
// are returned to the caller.
func (p *Pipeline) Submit(ctx context.Context, uploads []models.FileUpload) (*models.IngestionReport, error) {
	report := &models.IngestionReport{}
	for _, up := range uploads {
		if up.Size == 0 {
			up.Size = int64(len(up.Data))
		}

		def := registry.Classify(up.Name, up.Type)
		if def == nil {
			report.Failed = append(report.Failed, models.FileFailure{Name: up.Name, Reason: ErrUnsupportedType.Error()})
			continue
		}
		if up.Size > models.MaxFileSize {
			report.Failed = append(report.Failed, models.FileFailure{Name: up.Name, Reason: ErrFileTooLarge.Error()})
			continue
		}

		rec, err := p.process(ctx, newRecord(up, def), def, up.Data)
		if err != nil {
			return report, err
		}
		if rec.Status == models.StatusError {
			report.Failed = append(report.Failed, models.FileFailure{Name: up.Name, Reason: rec.ErrorMessage})
		} else {
			report.Succeeded++
		}
	}
	return report, nil
}

// Reprocess re-runs extraction for an existing record from its stored
// original bytes, following the same path as Submit. The record keeps its id
// and upload date; text, metadata, status, and error message are overwritten.
func (p *Pipeline) Reprocess(ctx context.Context, id string) (*models.DocumentRecord, error) {
	rec, err := p.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.DataURL == "" {
		return nil, ErrMissingOriginal
	}
	def := registry.DefinitionFor(rec)
	if def == nil {
		return nil, ErrUnsupportedType
	}
	_, data, err := models.DecodeDataURL(rec.DataURL)
	if err != nil {
		return nil, fmt.Errorf("decode stored file data: %w", err)
	}
	rec.Category = def.Category
	return p.process(ctx, rec, def, data)
}

// Delete removes one record. Deleting a missing id is a no-op.
func (p *Pipeline) Delete(ctx context.Context, id string) error {
	return p.store.Delete(ctx, id)
}

// ClearAll removes every record.
func (p *Pipeline) ClearAll(ctx context.Context) error {
	return p.store.Clear(ctx)
}

// Download re-materializes the original uploaded bytes for a record.
func (p *Pipeline) Download(ctx context.Context, id string) (*models.DocumentRecord, []byte, error) {
	rec, err := p.store.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if rec.DataURL == "" {
		return nil, nil, ErrMissingOriginal
	}
	_, data, err := models.DecodeDataURL(rec.DataURL)
	if err != nil {
		return nil, nil, fmt.Errorf("decode stored file data: %w", err)
	}
	return rec, data, nil
}

// newRecord builds the placeholder record for a validated upload.
func newRecord(up models.FileUpload, def *registry.Definition) *models.DocumentRecord {
	now := time.Now()
	declared := up.Type
	if declared == "" && len(def.MIMETypes) > 0 {
		declared = def.MIMETypes[0]
	}
	return &models.DocumentRecord{
		ID:         uuid.NewString(),
		Name:       up.Name,
		Type:       declared,
		Category:   def.Category,
		Extension:  models.ExtensionOf(up.Name),
		Size:       up.Size,
		UploadDate: now,
		UpdatedAt:  now,
		Status:     models.StatusProcessing,
		TextSource: def.Source,
		Meta:       map[string]any{},
	}
}

// process runs one document through extraction and persists both the
// placeholder and the final state. For a single id the placeholder write
// happens before the final write; processing never remains the stored status
// after process returns without error.
func (p *Pipeline) process(ctx context.Context, rec *models.DocumentRecord, def *registry.Definition, data []byte) (*models.DocumentRecord, error) {
	rec.Status = models.StatusProcessing
	rec.ErrorMessage = ""
	rec.UpdatedAt = time.Now()
	if err := p.store.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("save placeholder: %w", err)
	}

	// Generation markers survive reprocessing; everything else in meta is
	// recomputed from the fresh extraction.
	carried := map[string]any{}
	for _, k := range []string{"lastGeneratedAt", "lastGeneratedCount"} {
		if v, ok := rec.Meta[k]; ok {
			carried[k] = v
		}
	}

	res, err := extract.Extract(data, def)
	if err != nil {
		p.logger.Warn("extraction failed",
			zap.String("id", rec.ID),
			zap.String("name", rec.Name),
			zap.String("category", def.Category),
			zap.Error(err))
		rec.TextContent = ""
		rec.Meta = carried
		rec.Status = models.StatusError
		rec.ErrorMessage = err.Error()
	} else {
		text := utils.NormalizeText(res.Text)
		rec.TextContent = text
		if res.Source != "" {
			rec.TextSource = res.Source
		}
		rec.Meta = textmeta.Build(carried, res.Meta, text)
		if textmeta.CharCount(text) >= models.MinTextLengthForSuccess {
			rec.Status = models.StatusReady
			rec.ErrorMessage = ""
		} else {
			// Parsed but empty or below threshold: an error outcome, not a crash.
			rec.Status = models.StatusError
			rec.ErrorMessage = ErrInsufficientText.Error()
		}
	}

	rec.DataURL = models.EncodeDataURL(rec.Type, data)
	rec.UpdatedAt = time.Now()
	if err := p.store.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	p.logger.Info("document processed",
		zap.String("id", rec.ID),
		zap.String("name", rec.Name),
		zap.String("status", rec.Status),
		zap.Int("chars", textmeta.CharCount(rec.TextContent)))
	return rec, nil
}
