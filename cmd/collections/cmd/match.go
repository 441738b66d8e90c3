package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ar-collections-service/cmd/collections/config"
	"ar-collections-service/internal/parsers"
	"ar-collections-service/internal/reporter"
	"ar-collections-service/pkg/logger"
)

var (
	matchTransactionsFile string
	matchInvoicesFile     string
	matchThreshold        float64
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match bank transactions to open invoices",
	Long: `Match pairs incoming credit transactions with open invoices using
learned associations, amount and date proximity, company-name similarity,
and invoice numbers embedded in descriptions. Each transaction takes its
best-scoring invoice; pairings a human has denied are never proposed.

Examples:
  collections match --transactions bank.json --invoices invoices.json
  collections match --transactions bank.json --invoices invoices.json --threshold 85`,
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringVar(&matchTransactionsFile, "transactions", "", "bank transaction export file (required)")
	matchCmd.Flags().StringVar(&matchInvoicesFile, "invoices", "", "invoice export file (required)")
	matchCmd.Flags().Float64Var(&matchThreshold, "threshold", -1, "minimum match confidence, 0-100 (default from config)")
	matchCmd.MarkFlagRequired("transactions")
	matchCmd.MarkFlagRequired("invoices")
}

func runMatch(cmd *cobra.Command, args []string) error {
	handler := NewCLIErrorHandler()

	log, err := config.BuildLogger()
	if err != nil {
		os.Exit(handler.HandleError(err))
	}
	logger.SetGlobalLogger(log)

	svc, err := config.BuildService(matchThreshold, log)
	if err != nil {
		os.Exit(handler.HandleError(err))
	}
	defer svc.Close()

	transactions, err := parsers.LoadTransactions(matchTransactionsFile, log)
	if err != nil {
		os.Exit(handler.HandleError(err))
	}
	invoices, err := parsers.LoadInvoices(matchInvoicesFile, log)
	if err != nil {
		os.Exit(handler.HandleError(err))
	}

	matches := svc.MatchTransactions(transactions, invoices, matchThreshold)

	gen, err := reporter.NewReportGenerator(reporter.OutputFormat(viper.GetString("output_format")))
	if err != nil {
		os.Exit(handler.HandleError(err))
	}
	return gen.WriteMatchReport(matches, os.Stdout)
}
