package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/ledger-assistant/internal/config"
	"github.com/dvloznov/ledger-assistant/internal/domain"
	infraSheets "github.com/dvloznov/ledger-assistant/internal/infra/sheets"
	"github.com/dvloznov/ledger-assistant/internal/ledger"
	"github.com/dvloznov/ledger-assistant/internal/logger"
	"github.com/dvloznov/ledger-assistant/internal/notionsync"
	"github.com/dvloznov/ledger-assistant/internal/registry"
)

func main() {
	log := logger.New("export-notion")

	userID := flag.String("user", "", "User identity (required)")
	month := flag.String("month", "", "Month to export in YYYY-MM format (required)")
	groupBy := flag.String("group-by", "category", "Grouping key: category or month")
	dryRun := flag.Bool("dry-run", false, "Preview the export without writing to Notion")
	flag.Parse()

	if *userID == "" {
		log.Fatal().Msg("Error: --user is required")
	}
	if *month == "" {
		log.Fatal().Msg("Error: --month is required")
	}

	from, err := civil.ParseDate(*month + "-01")
	if err != nil {
		log.Fatal().Err(err).Str("month", *month).Msg("Error: invalid --month format, expected YYYY-MM")
	}
	to := civil.Date{Year: from.Year, Month: from.Month, Day: 1}.AddDays(31)
	to = civil.Date{Year: to.Year, Month: to.Month, Day: 1}

	filter := domain.ReportFilter{From: from, To: to}
	switch domain.GroupBy(*groupBy) {
	case domain.GroupByCategory, domain.GroupByMonth:
		filter.GroupBy = domain.GroupBy(*groupBy)
	default:
		log.Fatal().Str("group_by", *groupBy).Msg("Error: invalid --group-by, expected category or month")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cfg.NotionToken == "" || cfg.NotionDatabaseID == "" {
		log.Fatal().Msg("Error: NOTION_TOKEN and NOTION_DATABASE_ID are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	backend, err := infraSheets.NewClient(ctx, cfg.MasterSpreadsheetID, cfg.CredentialsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create spreadsheet backend")
	}

	ref, err := registry.New(backend).Resolve(ctx, *userID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to resolve ledger")
	}

	result, err := ledger.NewReporter(backend).Aggregate(ctx, ref, filter)
	if err != nil {
		log.Fatal().Err(err).Msg("Aggregate query failed")
	}

	notionClient := notionsync.NewNotionClient(cfg.NotionToken)

	if err := notionsync.ExportReport(ctx, notionClient, cfg.NotionDatabaseID, *userID, *month, result, *dryRun); err != nil {
		log.Fatal().Err(err).Msg("Export failed")
	}

	fmt.Println("Export completed successfully.")
}
