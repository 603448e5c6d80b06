// Package main is the entry point for the SEO audit engine.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/seo-audit/auditor/internal/audit"
	"github.com/seo-audit/auditor/internal/config"
	"github.com/seo-audit/auditor/internal/report"
	"github.com/seo-audit/auditor/internal/server"
	"github.com/seo-audit/auditor/internal/storage"
)

func main() {
	var (
		maxPages      = flag.Int("max-pages", 0, "page budget for the crawl (default from config)")
		respectRobots = flag.Bool("respect-robots", false, "skip robots.txt-disallowed URLs and honor Crawl-delay")
		configPath    = flag.String("config", "", "path to a JSON configuration file")
		outPath       = flag.String("out", "", "write the JSON report to this file instead of stdout")
		exportPath    = flag.String("export", "", "export the issue table to this file (.csv or .xlsx)")
		dbPath        = flag.String("db", "", "persist audit results to this SQLite database")
		serveAddr     = flag.String("serve", "", "run as an HTTP server on this address instead of auditing once")
		verbose       = flag.Bool("v", false, "enable debug logging")
	)
	flag.Usage = usage
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Error("failed to load config", "path", *configPath, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	var db *storage.Database
	if *dbPath != "" {
		var err error
		db, err = storage.NewDatabase(*dbPath)
		if err != nil {
			logger.Error("failed to open database", "path", *dbPath, "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Initialize(); err != nil {
			logger.Error("failed to initialize database", "error", err)
			os.Exit(1)
		}
	}

	if *serveAddr != "" {
		srv := server.New(cfg, db, logger)
		if err := srv.Run(*serveAddr); err != nil {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
		return
	}

	if flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}
	seedURL := flag.Arg(0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received interrupt signal, stopping")
		cancel()
	}()

	opts := audit.Options{
		URL:           seedURL,
		RespectRobots: *respectRobots,
		Config:        cfg,
		Logger:        logger,
	}
	if *maxPages != 0 {
		opts.MaxPages = maxPages
	}

	result, err := audit.Run(ctx, opts)
	if err != nil {
		logger.Error("audit failed", "url", seedURL, "error", err)
		os.Exit(1)
	}

	if db != nil {
		id, err := db.SaveAudit(result)
		if err != nil {
			logger.Error("failed to save audit", "error", err)
		} else {
			logger.Info("audit saved", "id", id)
		}
	}

	if *exportPath != "" {
		if err := exportResult(result, *exportPath); err != nil {
			logger.Error("export failed", "path", *exportPath, "error", err)
			os.Exit(1)
		}
		logger.Info("export written", "path", *exportPath)
	}

	if err := writeReport(result, *outPath); err != nil {
		logger.Error("failed to write report", "error", err)
		os.Exit(1)
	}
}

// writeReport emits the JSON report document to a file or stdout.
func writeReport(result *audit.Result, path string) error {
	out := os.Stdout
	if path != "" {
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		defer file.Close()
		out = file
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(report.Build(result))
}

// exportResult picks the export format from the file extension.
func exportResult(result *audit.Result, path string) error {
	format := report.FormatCSV
	switch {
	case strings.HasSuffix(path, ".xlsx"):
		format = report.FormatXLSX
	case strings.HasSuffix(path, ".json"):
		format = report.FormatJSON
	case strings.HasSuffix(path, ".csv"):
	default:
		return fmt.Errorf("unsupported export extension: %s", path)
	}

	exporter := report.NewExporter(&report.ExportOptions{
		Format:    format,
		FilePath:  path,
		Delimiter: ',',
	})
	return exporter.Export(result)
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: auditor [flags] <url>\n")
	fmt.Fprintf(os.Stderr, "       auditor -serve :8080 [flags]\n\n")
	fmt.Fprintf(os.Stderr, "Flags:\n")
	flag.PrintDefaults()
}
