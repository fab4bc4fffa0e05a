package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/ledger-assistant/internal/config"
	"github.com/dvloznov/ledger-assistant/internal/domain"
	infraSheets "github.com/dvloznov/ledger-assistant/internal/infra/sheets"
	"github.com/dvloznov/ledger-assistant/internal/ledger"
	"github.com/dvloznov/ledger-assistant/internal/logger"
	"github.com/dvloznov/ledger-assistant/internal/registry"
)

func main() {
	log := logger.New("report")

	userID := flag.String("user", "", "User identity (required)")
	fromStr := flag.String("from", "", "Window start in YYYY-MM-DD format, inclusive")
	toStr := flag.String("to", "", "Window end in YYYY-MM-DD format, exclusive")
	groupBy := flag.String("group-by", "category", "Grouping key: category or month")
	category := flag.String("category", "", "Restrict to one category")
	direction := flag.String("direction", "", "Restrict to one direction: expense or income")
	flag.Parse()

	if *userID == "" {
		log.Fatal().Msg("Error: --user is required")
	}

	filter := domain.ReportFilter{Category: *category}

	switch domain.GroupBy(*groupBy) {
	case domain.GroupByCategory, domain.GroupByMonth:
		filter.GroupBy = domain.GroupBy(*groupBy)
	default:
		log.Fatal().Str("group_by", *groupBy).Msg("Error: invalid --group-by, expected category or month")
	}

	if *fromStr != "" {
		from, err := civil.ParseDate(*fromStr)
		if err != nil {
			log.Fatal().Err(err).Str("from", *fromStr).Msg("Error: invalid --from format, expected YYYY-MM-DD")
		}
		filter.From = from
	}
	if *toStr != "" {
		to, err := civil.ParseDate(*toStr)
		if err != nil {
			log.Fatal().Err(err).Str("to", *toStr).Msg("Error: invalid --to format, expected YYYY-MM-DD")
		}
		filter.To = to
	}
	if filter.From.IsValid() && filter.To.IsValid() && filter.To.Before(filter.From) {
		log.Fatal().Msg("Error: --to must not be before --from")
	}

	if *direction != "" {
		d := domain.Direction(*direction)
		if !d.Valid() {
			log.Fatal().Str("direction", *direction).Msg("Error: invalid --direction, expected expense or income")
		}
		filter.Direction = d
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
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

	keys := make([]string, 0, len(result.Totals))
	for k := range result.Totals {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, k := range keys {
		fmt.Fprintf(w, "%s\t%s\n", k, formatMinorUnits(result.Totals[k]))
	}
	fmt.Fprintf(w, "net\t%s\n", formatMinorUnits(result.Net()))
	w.Flush()

	fmt.Printf("%d records\n", result.Count)
}

// formatMinorUnits renders an int64 minor-unit amount as a decimal with two
// fraction digits.
func formatMinorUnits(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
