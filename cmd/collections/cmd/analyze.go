package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ar-collections-service/cmd/collections/config"
	"ar-collections-service/internal/parsers"
	"ar-collections-service/internal/reporter"
	"ar-collections-service/pkg/logger"
)

var (
	analyzeInvoicesFile string
	analyzeDryRun       bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze overdue invoices and run the collections ladder",
	Long: `Analyze inspects every open invoice, decides the next collections step
for each contact, and consolidates the outreach so a contact with several
overdue invoices receives a single message. Autonomous emails are delivered
immediately unless --dry-run is set; calls and sensitive cases are drafted
for human review.

Examples:
  collections analyze --invoices invoices.json
  collections analyze --invoices invoices.json --dry-run --output-format json`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeInvoicesFile, "invoices", "", "invoice export file (required)")
	analyzeCmd.Flags().BoolVar(&analyzeDryRun, "dry-run", false, "compose messages without delivering them")
	analyzeCmd.MarkFlagRequired("invoices")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	handler := NewCLIErrorHandler()

	log, err := config.BuildLogger()
	if err != nil {
		os.Exit(handler.HandleError(err))
	}
	logger.SetGlobalLogger(log)

	svc, err := config.BuildService(-1, log)
	if err != nil {
		os.Exit(handler.HandleError(err))
	}
	defer svc.Close()

	invoices, err := parsers.LoadInvoices(analyzeInvoicesFile, log)
	if err != nil {
		os.Exit(handler.HandleError(err))
	}

	report := svc.AnalyzeCollections(context.Background(), invoices, analyzeDryRun)

	gen, err := reporter.NewReportGenerator(reporter.OutputFormat(viper.GetString("output_format")))
	if err != nil {
		os.Exit(handler.HandleError(err))
	}
	return gen.WriteCollectionsReport(&report, os.Stdout)
}
