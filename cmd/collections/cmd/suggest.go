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
	suggestTransactionsFile string
	suggestInvoicesFile     string
	suggestAutoAccount      bool
	suggestApprove          bool
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Suggest learnable associations from payment history",
	Long: `Suggest mines paid invoices and historical bank transactions for
company names that could be learned as associations, so future matching
recognizes those payers immediately. With --auto-account it also proposes
marking historical payments as accounted; add --approve to record them.

Examples:
  collections suggest --transactions bank.json --invoices invoices.json
  collections suggest --transactions bank.json --invoices invoices.json --auto-account --approve`,
	RunE: runSuggest,
}

func init() {
	rootCmd.AddCommand(suggestCmd)

	suggestCmd.Flags().StringVar(&suggestTransactionsFile, "transactions", "", "bank transaction export file (required)")
	suggestCmd.Flags().StringVar(&suggestInvoicesFile, "invoices", "", "invoice export file (required)")
	suggestCmd.Flags().BoolVar(&suggestAutoAccount, "auto-account", false, "also propose accounting for historical payments")
	suggestCmd.Flags().BoolVar(&suggestApprove, "approve", false, "record the proposed accounting (requires --auto-account)")
	suggestCmd.MarkFlagRequired("transactions")
	suggestCmd.MarkFlagRequired("invoices")
}

func runSuggest(cmd *cobra.Command, args []string) error {
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

	transactions, err := parsers.LoadTransactions(suggestTransactionsFile, log)
	if err != nil {
		os.Exit(handler.HandleError(err))
	}
	invoices, err := parsers.LoadInvoices(suggestInvoicesFile, log)
	if err != nil {
		os.Exit(handler.HandleError(err))
	}

	gen, err := reporter.NewReportGenerator(reporter.OutputFormat(viper.GetString("output_format")))
	if err != nil {
		os.Exit(handler.HandleError(err))
	}

	suggestions := svc.SuggestAssociations(transactions, invoices)
	if err := gen.WriteSuggestions(suggestions, os.Stdout); err != nil {
		return err
	}

	if suggestAutoAccount {
		proposals := svc.AutoAccountHistoricalTransactions(transactions, invoices, suggestApprove)
		return gen.WriteMatchReport(proposals, os.Stdout)
	}
	return nil
}
