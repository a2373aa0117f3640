package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hyperjump/atsume/internal/models"
)

// Question-generation boundary errors.
var (
	ErrGeneratorUnavailable = errors.New("question generator unavailable")
	ErrNotReady             = errors.New("document is not ready")
	ErrTextTooShort         = errors.New("document text too short for question generation")
)

// GenerateOptions narrows what callers may ask of an external generator.
type GenerateOptions struct {
	Module string   `json:"module"`
	Count  int      `json:"count"`
	Types  []string `json:"types"`
}

// GeneratedQuestion is the shape handed back across the generation boundary.
type GeneratedQuestion struct {
	Type     string   `json:"type"`
	Question string   `json:"question"`
	Options  []string `json:"options,omitempty"`
	Answer   any      `json:"answer,omitempty"`
}

// QuestionGenerator produces practice questions from extracted document text.
// Implementations live outside this module; the pipeline only gates access
// and records outcomes.
type QuestionGenerator interface {
	Generate(ctx context.Context, text string, opts GenerateOptions) ([]GeneratedQuestion, error)
}

// ExtractedText returns the extracted text for a document, or an empty string
// when extraction has not succeeded.
func (p *Pipeline) ExtractedText(ctx context.Context, id string) (string, error) {
	rec, err := p.store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return rec.TextContent, nil
}

// GenerateQuestions invokes gen for a document and records the outcome in the
// record's metadata (lastGeneratedAt, lastGeneratedCount) without touching
// status or text. The call is refused, and the record left unmodified, unless
// the document is ready and its trimmed text meets the generation minimum.
func (p *Pipeline) GenerateQuestions(ctx context.Context, id string, gen QuestionGenerator, opts GenerateOptions) ([]GeneratedQuestion, *models.DocumentRecord, error) {
	if gen == nil {
		return nil, nil, ErrGeneratorUnavailable
	}
	rec, err := p.store.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if rec.Status != models.StatusReady {
		return nil, nil, ErrNotReady
	}
	text := strings.TrimSpace(rec.TextContent)
	if utf8.RuneCountInString(text) < models.MinTextLengthForGeneration {
		return nil, nil, fmt.Errorf("%w: %d of %d characters",
			ErrTextTooShort, utf8.RuneCountInString(text), models.MinTextLengthForGeneration)
	}

	questions, err := gen.Generate(ctx, text, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("generate questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, nil, errors.New("generator returned no questions")
	}

	rec.Meta["lastGeneratedAt"] = time.Now().UnixMilli()
	rec.Meta["lastGeneratedCount"] = len(questions)
	rec.UpdatedAt = time.Now()
	if err := p.store.Save(ctx, rec); err != nil {
		return nil, nil, fmt.Errorf("save generation result: %w", err)
	}
	return questions, rec, nil
}
