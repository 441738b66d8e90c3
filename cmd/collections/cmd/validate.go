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
	validateCompany          string
	validateTransactionsFile string
	validateInvoicesFile     string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check whether a company's payments cover its paid invoices",
	Long: `Validate sums the paid invoices for a company and the bank credits
attributable to it, then reports whether the account is balanced, short, or
overpaid. A small tolerance absorbs processor fees.

Examples:
  collections validate --company "Acme Corp" --transactions bank.json --invoices invoices.json`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateCompany, "company", "", "company name as it appears on invoices (required)")
	validateCmd.Flags().StringVar(&validateTransactionsFile, "transactions", "", "bank transaction export file (required)")
	validateCmd.Flags().StringVar(&validateInvoicesFile, "invoices", "", "invoice export file (required)")
	validateCmd.MarkFlagRequired("company")
	validateCmd.MarkFlagRequired("transactions")
	validateCmd.MarkFlagRequired("invoices")
}

func runValidate(cmd *cobra.Command, args []string) error {
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

	transactions, err := parsers.LoadTransactions(validateTransactionsFile, log)
	if err != nil {
		os.Exit(handler.HandleError(err))
	}
	invoices, err := parsers.LoadInvoices(validateInvoicesFile, log)
	if err != nil {
		os.Exit(handler.HandleError(err))
	}

	validation := svc.ValidateCompanyPayments(validateCompany, transactions, invoices)

	gen, err := reporter.NewReportGenerator(reporter.OutputFormat(viper.GetString("output_format")))
	if err != nil {
		os.Exit(handler.HandleError(err))
	}
	return gen.WriteValidation(&validation, os.Stdout)
}
