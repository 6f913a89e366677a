package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/soddigital/financeiro_backend/config"
	"github.com/soddigital/financeiro_backend/models/reports"
)

// Renders a year's DRE to an xlsx file without going through the API.
func main() {
	year := flag.Int("year", time.Now().Year(), "Reporting year")
	companyId := flag.Int("company-id", 0, "Optional: restrict to one company")
	projectId := flag.Int("project-id", 0, "Optional: restrict to one project")
	out := flag.String("out", "dre.xlsx", "Output file path")
	flag.Parse()

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}

	response, err := reports.GetDREReport(ctx, reports.DREFilter{
		Year:      *year,
		CompanyId: *companyId,
		ProjectId: *projectId,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build report: %v\n", err)
		os.Exit(1)
	}

	f, err := reports.BuildDREWorkbook(response)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to render workbook: %v\n", err)
		os.Exit(1)
	}
	if err := f.SaveAs(*out); err != nil {
		fmt.Fprintf(os.Stderr, "failed to save %s: %v\n", *out, err)
		os.Exit(1)
	}

	fmt.Printf("wrote %s (%d rows, resultado %s)\n", *out, len(response.Rows), response.Kpis.Result.StringFixed(2))
}
