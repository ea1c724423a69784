package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/wadjakorntonsri/seo-audit-engine/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/config"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/domain"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/logger"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/ports"
)

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	importFile := importCmd.String("file", "", "JSON file to import")

	if len(os.Args) < 2 {
		fmt.Println("expected 'export' or 'import' subcommands")
		os.Exit(1)
	}

	cfg := config.Load()
	log, err := logger.New(cfg.LogLevel, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		log.Error("Failed to connect to db", logger.Error(err))
		os.Exit(1)
	}
	defer repo.Close()

	ctx := context.Background()
	switch os.Args[1] {
	case "export":
		_ = exportCmd.Parse(os.Args[2:])
		if err := exportAudits(ctx, repo, os.Stdout); err != nil {
			log.Error("Export failed", logger.Error(err))
			os.Exit(1)
		}
	case "import":
		_ = importCmd.Parse(os.Args[2:])
		if *importFile == "" {
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		file, err := os.Open(*importFile)
		if err != nil {
			log.Error("Failed to open file", logger.Error(err))
			os.Exit(1)
		}
		defer file.Close()

		imported, skipped, err := importAudits(ctx, repo, file, log)
		if err != nil {
			log.Error("Import failed", logger.Error(err))
			os.Exit(1)
		}
		log.Info("Import finished", logger.Int("imported", imported), logger.Int("skipped", skipped))
	default:
		fmt.Println("expected 'export' or 'import' subcommands")
		os.Exit(1)
	}
}

// exportAudits writes every stored audit, all owners, as indented JSON
func exportAudits(ctx context.Context, repo ports.AuditRepository, w io.Writer) error {
	audits, err := repo.DumpAudits(ctx)
	if err != nil {
		return err
	}
	if audits == nil {
		audits = []domain.AuditRecord{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(audits)
}

// importAudits inserts audits from r, skipping ids that already exist for
// their owner. Per-record insert failures are logged and counted as skipped.
func importAudits(ctx context.Context, repo ports.AuditRepository, r io.Reader, log logger.Logger) (int, int, error) {
	var audits []domain.AuditRecord
	if err := json.NewDecoder(r).Decode(&audits); err != nil {
		return 0, 0, fmt.Errorf("decode: %w", err)
	}

	imported, skipped := 0, 0
	for i := range audits {
		a := &audits[i]
		if a.ID == "" || a.UserID == "" {
			log.Warn("Skipping audit without id or owner", logger.Int("index", i))
			skipped++
			continue
		}

		existing, err := repo.GetAudit(ctx, a.UserID, a.ID)
		if err != nil {
			return imported, skipped, err
		}
		if existing != nil {
			log.Info("Skipping existing audit", logger.String("id", a.ID))
			skipped++
			continue
		}

		if err := repo.CreateAudit(ctx, a); err != nil {
			log.Warn("Failed to import audit", logger.String("id", a.ID), logger.Error(err))
			skipped++
			continue
		}
		imported++
	}
	return imported, skipped, nil
}
