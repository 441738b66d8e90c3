package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ar-collections-service/cmd/collections/config"
	"ar-collections-service/internal/models"
	"ar-collections-service/internal/service"
	"ar-collections-service/pkg/logger"
)

var learnCmd = &cobra.Command{
	Use:   "learn <transaction-token> <company-name>",
	Short: "Teach the matcher that a transaction token belongs to a company",
	Long: `Learn records a confirmed association between a token appearing in
bank descriptions and a company name. Relearning a token overwrites the
previous company.

Examples:
  collections learn "ACME HOLDINGS PMT" "Acme Corp"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(svc *service.Service) error {
			if err := svc.LearnAssociation(args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Learned: %q -> %q\n", args[0], args[1])
			return nil
		})
	},
}

var denyCmd = &cobra.Command{
	Use:   "deny <transaction-description> <invoice-id>",
	Short: "Forbid a transaction from ever matching an invoice",
	Long: `Deny records a rejected pairing so the matcher never proposes it
again. The denial covers only the exact pair; the transaction and the
invoice can still match other counterparts.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(svc *service.Service) error {
			if err := svc.DenyMatch(args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Denied: transaction will not match invoice %s\n", args[1])
			return nil
		})
	},
}

var accountCmd = &cobra.Command{
	Use:   "account <transaction-description> <company-name>",
	Short: "Mark a transaction as already accounted for",
	Long: `Account records a transaction as explained so future matching runs
exclude it from the candidate pool.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(svc *service.Service) error {
			t := models.Transaction{Description: args[0], IsCredit: true}
			if err := svc.MarkTransactionAccounted(t, args[1], ""); err != nil {
				return err
			}
			fmt.Println("Transaction marked as accounted")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(learnCmd)
	rootCmd.AddCommand(denyCmd)
	rootCmd.AddCommand(accountCmd)
}

// withService builds a configured service, runs fn, and routes failures
// through the CLI error handler.
func withService(fn func(*service.Service) error) error {
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

	if err := fn(svc); err != nil {
		os.Exit(handler.HandleError(err))
	}
	return nil
}
