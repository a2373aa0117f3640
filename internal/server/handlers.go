package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/atsume/internal/models"
	"github.com/hyperjump/atsume/internal/pipeline"
	"github.com/hyperjump/atsume/internal/projection"
	"github.com/hyperjump/atsume/internal/storage"
)

// uploadMemoryLimit bounds how much of a multipart body is held in memory;
// larger parts spill to temp files.
const uploadMemoryLimit = 32 << 20

// handleUpload accepts multipart uploads in the "files" field and runs them
// through the ingestion pipeline. Per-file validation and extraction failures
// are reported in the response; only storage failures produce a 500.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(uploadMemoryLimit); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		s.respondError(w, http.StatusBadRequest, "no files provided")
		return
	}

	var uploads []models.FileUpload
	var unreadable []models.FileFailure
	for _, fh := range headers {
		up, err := readUpload(fh)
		if err != nil {
			unreadable = append(unreadable, models.FileFailure{Name: fh.Filename, Reason: "failed to read upload"})
			continue
		}
		uploads = append(uploads, up)
	}

	report, err := s.pipeline.Submit(r.Context(), uploads)
	if err != nil {
		s.logger.Error("ingestion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	report.Failed = append(report.Failed, unreadable...)
	s.respondJSON(w, http.StatusOK, report)
}

func readUpload(fh *multipart.FileHeader) (models.FileUpload, error) {
	f, err := fh.Open()
	if err != nil {
		return models.FileUpload{}, err
	}
	defer f.Close()
	// The pipeline enforces the per-file ceiling; reading one byte past it is
	// enough to detect oversize without buffering arbitrarily large bodies.
	data, err := io.ReadAll(io.LimitReader(f, models.MaxFileSize+1))
	if err != nil {
		return models.FileUpload{}, err
	}
	size := fh.Size
	if size == 0 {
		size = int64(len(data))
	}
	return models.FileUpload{
		Name: fh.Filename,
		Type: fh.Header.Get("Content-Type"),
		Size: size,
		Data: data,
	}, nil
}

// handleList returns the projected document view, filtered by the optional
// search and category query parameters.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.GetAll(r.Context())
	if err != nil {
		s.logger.Error("list documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	docs := projection.Project(records, projection.Options{
		Search:   r.URL.Query().Get("search"),
		Category: r.URL.Query().Get("category"),
	})
	if docs == nil {
		docs = []*projection.EnrichedDocument{}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
		"total":     len(records),
		"matched":   len(docs),
	})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, projection.Enrich(rec))
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.pipeline.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.logger.Error("delete document failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.pipeline.ClearAll(r.Context()); err != nil {
		s.logger.Error("clear documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// handleDownload re-materializes the original upload and serves it as a
// named attachment.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	rec, data, err := s.pipeline.Download(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, pipeline.ErrMissingOriginal) {
			s.respondError(w, http.StatusConflict, err.Error())
			return
		}
		s.respondStoreError(w, err)
		return
	}
	contentType := rec.Type
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.Name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	text, err := s.pipeline.ExtractedText(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "text": text})
}

func (s *Server) handleReprocess(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.pipeline.Reprocess(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrMissingOriginal), errors.Is(err, pipeline.ErrUnsupportedType):
			s.respondError(w, http.StatusConflict, err.Error())
		case errors.Is(err, storage.ErrNotFound):
			s.respondError(w, http.StatusNotFound, err.Error())
		default:
			s.logger.Error("reprocess failed", zap.String("id", id), zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	s.respondJSON(w, http.StatusOK, projection.Enrich(rec))
}

func (s *Server) handleGenerateQuestions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var opts pipeline.GenerateOptions
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	questions, rec, err := s.pipeline.GenerateQuestions(r.Context(), id, s.generator, opts)
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrGeneratorUnavailable):
			s.respondError(w, http.StatusNotImplemented, err.Error())
		case errors.Is(err, pipeline.ErrNotReady), errors.Is(err, pipeline.ErrTextTooShort):
			s.respondError(w, http.StatusConflict, err.Error())
		case errors.Is(err, storage.ErrNotFound):
			s.respondError(w, http.StatusNotFound, err.Error())
		default:
			s.logger.Error("question generation failed", zap.String("id", id), zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"document":  projection.Enrich(rec),
		"questions": questions,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.Count(r.Context())
	if err != nil {
		s.logger.Error("status: count documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]any{"documents": count}
	if s.dbPath != "" {
		if diskBytes, err := storage.UsageBytes(s.dbPath); err == nil {
			resp["disk_usage_bytes"] = diskBytes
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	}
	s.logger.Error("storage error", zap.Error(err))
	s.respondError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encode response failed", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
