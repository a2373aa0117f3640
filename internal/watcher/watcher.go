// Package watcher ingests files dropped into watched directories, feeding
// them through the ingestion pipeline with debounced fsnotify events.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/hyperjump/atsume/internal/models"
	"github.com/hyperjump/atsume/internal/registry"
)

const defaultDebounce = 400 * time.Millisecond

// Ingestor accepts uploads; satisfied by the ingestion pipeline.
type Ingestor interface {
	Submit(ctx context.Context, uploads []models.FileUpload) (*models.IngestionReport, error)
}

// Watcher watches drop directories and submits matching files for ingestion.
// Files are left in place after ingestion; every drop creates a new record.
type Watcher struct {
	dirs     []string
	exts     map[string]bool
	ingestor Ingestor
	logger   *zap.Logger
	debounce time.Duration

	fsw      *fsnotify.Watcher
	mu       sync.Mutex
	timers   map[string]*time.Timer
	started  bool
	stopOnce sync.Once
}

// New creates a Watcher for dirs. Only files whose extension appears in the
// format registry are ingested.
func New(dirs []string, ingestor Ingestor, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	exts := make(map[string]bool)
	for _, ext := range registry.WatchExtensions() {
		exts[ext] = true
	}
	return &Watcher{
		dirs:     dirs,
		exts:     exts,
		ingestor: ingestor,
		logger:   logger,
		debounce: defaultDebounce,
		timers:   make(map[string]*time.Timer),
	}
}

// Start begins watching. It returns once watches are registered; events are
// handled until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.fsw = fsw
	w.started = true
	w.mu.Unlock()

	for _, dir := range w.dirs {
		if err := w.addTree(dir); err != nil {
			_ = fsw.Close()
			return err
		}
	}
	w.logger.Info("watching drop directories", zap.Strings("dirs", w.dirs))
	go w.run(ctx)
	return nil
}

// Stop closes the underlying watcher.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		if w.fsw != nil {
			_ = w.fsw.Close()
		}
	})
}

// addTree registers dir and its subdirectories.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fsw.Add(path)
		}
		return nil
	})
}

func (w *Watcher) run(ctx context.Context) {
	defer w.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
		return
	}
	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		if event.Op.Has(fsnotify.Create) {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("watch new directory failed", zap.String("path", event.Name), zap.Error(err))
			}
		}
		return
	}
	if !w.exts[strings.ToLower(filepath.Ext(event.Name))] {
		return
	}
	w.debounceIngest(event.Name)
}

// debounceIngest delays ingestion until writes to the file settle.
func (w *Watcher) debounceIngest(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.timers[path]; ok {
		timer.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.ingestFile(path)
	})
}

func (w *Watcher) ingestFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		w.logger.Warn("read dropped file failed", zap.String("path", path), zap.Error(err))
		return
	}
	up := models.FileUpload{Name: filepath.Base(path), Data: data}
	if def := registry.Classify(up.Name, ""); def != nil && len(def.MIMETypes) > 0 {
		up.Type = def.MIMETypes[0]
	}
	report, err := w.ingestor.Submit(context.Background(), []models.FileUpload{up})
	if err != nil {
		w.logger.Error("ingest dropped file failed", zap.String("path", path), zap.Error(err))
		return
	}
	for _, failure := range report.Failed {
		w.logger.Warn("dropped file not ingested",
			zap.String("path", path), zap.String("reason", failure.Reason))
	}
	if report.Succeeded > 0 {
		w.logger.Info("dropped file ingested", zap.String("path", path))
	}
}
