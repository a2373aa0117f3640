// Package main is the atsume CLI entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/atsume/internal/config"
	"github.com/hyperjump/atsume/internal/models"
	"github.com/hyperjump/atsume/internal/pipeline"
	"github.com/hyperjump/atsume/internal/projection"
	"github.com/hyperjump/atsume/internal/registry"
	"github.com/hyperjump/atsume/internal/server"
	"github.com/hyperjump/atsume/internal/storage"
	"github.com/hyperjump/atsume/internal/watcher"
	"github.com/hyperjump/atsume/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/atsume/config.yaml"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch command := os.Args[1]; command {
	case "server":
		runServer()
	case "ingest":
		runIngest()
	case "list":
		runList()
	case "reprocess":
		runReprocess()
	case "delete":
		runDelete()
	case "clear":
		runClear()
	case "version", "--version", "-v":
		fmt.Printf("atsume version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`Usage: atsume <command> [flags]

Commands:
  server      Run the HTTP API server (with drop-directory watching)
  ingest      Ingest one or more files into the document store
  list        List stored documents (optionally filtered)
  reprocess   Re-run extraction for a stored document
  delete      Delete one document by id
  clear       Delete all documents
  version     Print version
  help        Show this help
`)
}

// loadConfig loads config from path. When path is the default, a config.yaml
// in the current directory takes precedence (for development).
func loadConfig(path string) (*config.Config, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(fallback); err == nil {
				return config.Load(fallback)
			}
		}
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := &config.Config{}
		config.ApplyDefaults(cfg)
		return cfg, nil
	}
	return config.Load(path)
}

// openPipeline opens the store and builds a pipeline for one-shot commands.
func openPipeline(configPath string) (*pipeline.Pipeline, *storage.SQLiteStore, *config.Config, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, nil, nil, err
	}
	return pipeline.New(store, zap.NewNop()), store, cfg, nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug || *debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to open document store", zap.Error(err))
	}
	defer store.Close()

	pipe := pipeline.New(store, logger)

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if len(cfg.Watch.Directories) > 0 {
		drop := watcher.New(cfg.Watch.Directories, pipe, logger)
		if err := drop.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start drop-directory watcher", zap.Error(err))
		}
		defer drop.Stop()
	}

	srv := server.NewServer(pipe, store, nil, &cfg.Server, cfg.Storage.DatabasePath, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])
	paths := fs.Args()
	if len(paths) == 0 {
		fmt.Println("Usage: atsume ingest [flags] <file> [file...]")
		os.Exit(1)
	}

	pipe, store, _, err := openPipeline(*configPath)
	if err != nil {
		fmt.Printf("Failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	var uploads []models.FileUpload
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Printf("Skipping %s: %v\n", path, err)
			continue
		}
		up := models.FileUpload{Name: filepath.Base(path), Data: data}
		if def := registry.Classify(up.Name, ""); def != nil && len(def.MIMETypes) > 0 {
			up.Type = def.MIMETypes[0]
		}
		uploads = append(uploads, up)
	}

	report, err := pipe.Submit(context.Background(), uploads)
	if err != nil {
		fmt.Printf("Ingestion failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Ingested %d document(s)\n", report.Succeeded)
	for _, failure := range report.Failed {
		fmt.Printf("  failed: %s: %s\n", failure.Name, failure.Reason)
	}
	if report.Succeeded == 0 && len(report.Failed) > 0 {
		os.Exit(1)
	}
}

func runList() {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	search := fs.String("search", "", "free-text filter over name and preview")
	category := fs.String("category", "", "category filter (markdown, text, pdf, docx, zip, other)")
	_ = fs.Parse(os.Args[2:])

	_, store, _, err := openPipeline(*configPath)
	if err != nil {
		fmt.Printf("Failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	records, err := store.GetAll(context.Background())
	if err != nil {
		fmt.Printf("Failed to list documents: %v\n", err)
		os.Exit(1)
	}
	docs := projection.Project(records, projection.Options{Search: *search, Category: *category})
	if len(docs) == 0 {
		fmt.Println("No documents found")
		return
	}
	for _, doc := range docs {
		fmt.Printf("%s  %-10s %-10s %s\n", doc.ID, doc.StatusLabel, doc.CategoryLabel, doc.Name)
		if doc.TextPreview != "" {
			fmt.Printf("    %s\n", utils.Truncate(doc.TextPreview, 100))
		}
	}
	fmt.Printf("%d of %d document(s)\n", len(docs), len(records))
}

func runReprocess() {
	fs := flag.NewFlagSet("reprocess", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])
	if fs.NArg() != 1 {
		fmt.Println("Usage: atsume reprocess [flags] <id>")
		os.Exit(1)
	}

	pipe, store, _, err := openPipeline(*configPath)
	if err != nil {
		fmt.Printf("Failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	rec, err := pipe.Reprocess(context.Background(), fs.Arg(0))
	if err != nil {
		fmt.Printf("Reprocess failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s: %s\n", rec.Name, rec.Status)
	if rec.ErrorMessage != "" {
		fmt.Printf("  %s\n", rec.ErrorMessage)
	}
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])
	if fs.NArg() != 1 {
		fmt.Println("Usage: atsume delete [flags] <id>")
		os.Exit(1)
	}

	pipe, store, _, err := openPipeline(*configPath)
	if err != nil {
		fmt.Printf("Failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := pipe.Delete(context.Background(), fs.Arg(0)); err != nil {
		fmt.Printf("Delete failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Deleted")
}

func runClear() {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	yes := fs.Bool("yes", false, "skip confirmation")
	_ = fs.Parse(os.Args[2:])

	if !*yes {
		fmt.Print("Delete ALL documents? Type 'yes' to confirm: ")
		var answer string
		_, _ = fmt.Scanln(&answer)
		if answer != "yes" {
			fmt.Println("Aborted")
			return
		}
	}

	pipe, store, _, err := openPipeline(*configPath)
	if err != nil {
		fmt.Printf("Failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := pipe.ClearAll(context.Background()); err != nil {
		fmt.Printf("Clear failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("All documents deleted")
}
