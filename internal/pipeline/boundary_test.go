package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hyperjump/atsume/internal/models"
)

type fakeGenerator struct {
	questions []GeneratedQuestion
	err       error
	gotText   string
	gotOpts   GenerateOptions
}

func (g *fakeGenerator) Generate(_ context.Context, text string, opts GenerateOptions) ([]GeneratedQuestion, error) {
	g.gotText = text
	g.gotOpts = opts
	return g.questions, g.err
}

func submitOne(t *testing.T, pipe *Pipeline, name, content string) string {
	t.Helper()
	report, err := pipe.Submit(context.Background(), []models.FileUpload{
		{Name: name, Type: "text/plain", Data: []byte(content)},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if report.Succeeded+len(report.Failed) != 1 {
		t.Fatalf("report = %+v", report)
	}
	recs, err := pipe.store.GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	for _, rec := range recs {
		if rec.Name == name {
			return rec.ID
		}
	}
	t.Fatalf("record %s not stored", name)
	return ""
}

func TestGenerateQuestions_success(t *testing.T) {
	pipe, store := newTestPipeline(t)
	ctx := context.Background()
	id := submitOne(t, pipe, "notes.txt", text200())

	gen := &fakeGenerator{questions: []GeneratedQuestion{
		{Type: "multiple-choice", Question: "Q1?", Options: []string{"a", "b"}, Answer: 0},
		{Type: "open", Question: "Q2?"},
	}}
	questions, rec, err := pipe.GenerateQuestions(ctx, id, gen, GenerateOptions{Module: "quiz", Count: 2})
	if err != nil {
		t.Fatalf("GenerateQuestions: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("questions = %d, want 2", len(questions))
	}
	if gen.gotText != text200() {
		t.Errorf("generator received wrong text (%d chars)", len(gen.gotText))
	}
	if gen.gotOpts.Module != "quiz" || gen.gotOpts.Count != 2 {
		t.Errorf("options not forwarded: %+v", gen.gotOpts)
	}
	if rec.Meta["lastGeneratedCount"] != 2 {
		t.Errorf("lastGeneratedCount = %v", rec.Meta["lastGeneratedCount"])
	}
	if rec.Meta["lastGeneratedAt"] == nil {
		t.Error("lastGeneratedAt not recorded")
	}
	if rec.Status != models.StatusReady {
		t.Errorf("status changed by generation: %q", rec.Status)
	}

	// Markers are persisted.
	stored, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Meta["lastGeneratedCount"] != float64(2) {
		t.Errorf("stored lastGeneratedCount = %v", stored.Meta["lastGeneratedCount"])
	}
}

func TestGenerateQuestions_refusesShortText(t *testing.T) {
	pipe, store := newTestPipeline(t)
	ctx := context.Background()

	// 50 characters: enough to be ready, not enough to generate from.
	id := submitOne(t, pipe, "short.txt", strings.Repeat("word ", 10))

	before, _ := store.Get(ctx, id)
	if before.Status != models.StatusReady {
		t.Fatalf("precondition: status = %q, want ready", before.Status)
	}

	gen := &fakeGenerator{questions: []GeneratedQuestion{{Question: "Q?"}}}
	_, _, err := pipe.GenerateQuestions(ctx, id, gen, GenerateOptions{})
	if !errors.Is(err, ErrTextTooShort) {
		t.Fatalf("err = %v, want ErrTextTooShort", err)
	}
	if gen.gotText != "" {
		t.Error("generator must not be called for short text")
	}

	// The record is left untouched.
	after, _ := store.Get(ctx, id)
	if _, ok := after.Meta["lastGeneratedAt"]; ok {
		t.Error("refused generation must not record markers")
	}
	if !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Error("refused generation must not touch the record")
	}
}

func TestGenerateQuestions_refusesNotReady(t *testing.T) {
	pipe, _ := newTestPipeline(t)
	ctx := context.Background()
	id := submitOne(t, pipe, "broken.txt", "tiny") // extraction below threshold, error state

	gen := &fakeGenerator{questions: []GeneratedQuestion{{Question: "Q?"}}}
	if _, _, err := pipe.GenerateQuestions(ctx, id, gen, GenerateOptions{}); !errors.Is(err, ErrNotReady) {
		t.Fatalf("err = %v, want ErrNotReady", err)
	}
}

func TestGenerateQuestions_nilGenerator(t *testing.T) {
	pipe, _ := newTestPipeline(t)
	_, _, err := pipe.GenerateQuestions(context.Background(), "any", nil, GenerateOptions{})
	if !errors.Is(err, ErrGeneratorUnavailable) {
		t.Fatalf("err = %v, want ErrGeneratorUnavailable", err)
	}
}

func TestGenerateQuestions_generatorFailure(t *testing.T) {
	pipe, store := newTestPipeline(t)
	ctx := context.Background()
	id := submitOne(t, pipe, "notes.txt", text200())

	gen := &fakeGenerator{err: errors.New("model offline")}
	if _, _, err := pipe.GenerateQuestions(ctx, id, gen, GenerateOptions{}); err == nil {
		t.Fatal("expected generator failure to propagate")
	}

	rec, _ := store.Get(ctx, id)
	if _, ok := rec.Meta["lastGeneratedAt"]; ok {
		t.Error("failed generation must not record markers")
	}
}

func TestGenerateQuestions_emptyResult(t *testing.T) {
	pipe, _ := newTestPipeline(t)
	id := submitOne(t, pipe, "notes.txt", text200())

	gen := &fakeGenerator{}
	if _, _, err := pipe.GenerateQuestions(context.Background(), id, gen, GenerateOptions{}); err == nil {
		t.Fatal("expected error when the generator returns no questions")
	}
}

func TestGenerationMarkersSurviveReprocess(t *testing.T) {
	pipe, store := newTestPipeline(t)
	ctx := context.Background()
	id := submitOne(t, pipe, "notes.txt", text200())

	gen := &fakeGenerator{questions: []GeneratedQuestion{{Question: "Q?"}}}
	if _, _, err := pipe.GenerateQuestions(ctx, id, gen, GenerateOptions{}); err != nil {
		t.Fatalf("GenerateQuestions: %v", err)
	}

	if _, err := pipe.Reprocess(ctx, id); err != nil {
		t.Fatalf("Reprocess: %v", err)
	}
	rec, _ := store.Get(ctx, id)
	if rec.Meta["lastGeneratedCount"] != float64(1) {
		t.Errorf("lastGeneratedCount after reprocess = %v, want carried 1", rec.Meta["lastGeneratedCount"])
	}
	if rec.Meta["lastGeneratedAt"] == nil {
		t.Error("lastGeneratedAt dropped on reprocess")
	}
}

func TestExtractedText(t *testing.T) {
	pipe, _ := newTestPipeline(t)
	ctx := context.Background()
	id := submitOne(t, pipe, "notes.txt", text200())

	text, err := pipe.ExtractedText(ctx, id)
	if err != nil {
		t.Fatalf("ExtractedText: %v", err)
	}
	if text != text200() {
		t.Errorf("text = %q", text)
	}
}
