package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"ar-collections-service/pkg/errors"
	"ar-collections-service/pkg/logger"
)

// CLIErrorHandler provides user-friendly error handling for CLI operations
type CLIErrorHandler struct {
	logger  logger.Logger
	verbose bool
}

// NewCLIErrorHandler creates a new CLI error handler
func NewCLIErrorHandler() *CLIErrorHandler {
	return &CLIErrorHandler{
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		verbose: viper.GetBool("verbose"),
	}
}

// HandleError handles errors and provides user-friendly messages
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	h.logger.WithError(err).Error("Command failed")

	if collErr, ok := errors.AsCollectionsError(err); ok {
		return h.handleCollectionsError(collErr)
	}
	return h.handleGenericError(err)
}

// handleCollectionsError handles CollectionsError with detailed context
func (h *CLIErrorHandler) handleCollectionsError(err *errors.CollectionsError) int {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Message)

	if len(err.Context) > 0 {
		fmt.Fprintf(os.Stderr, "\nContext:\n")
		for key, value := range err.Context {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", key, value)
		}
	}

	if err.Suggestion != "" {
		fmt.Fprintf(os.Stderr, "\nSuggestion: %s\n", err.Suggestion)
	}

	fmt.Fprintf(os.Stderr, "\n%s\n", h.getCategoryHelp(err.Category))

	if h.verbose && err.Cause != nil {
		fmt.Fprintf(os.Stderr, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.GetExitCode()
}

// handleGenericError handles non-CollectionsError types
func (h *CLIErrorHandler) handleGenericError(err error) int {
	if os.IsNotExist(err) || strings.Contains(err.Error(), "no such file or directory") {
		fmt.Fprintf(os.Stderr, "Error: File not found\n")
		fmt.Fprintf(os.Stderr, "Suggestion: Check if the file path is correct and the file exists\n")
		return 2
	}

	if os.IsPermission(err) || strings.Contains(err.Error(), "permission denied") {
		fmt.Fprintf(os.Stderr, "Error: Permission denied\n")
		fmt.Fprintf(os.Stderr, "Suggestion: Check file permissions and ensure you have read access\n")
		return 2
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	if !h.verbose {
		fmt.Fprintf(os.Stderr, "\nRun with --verbose for more detailed error information\n")
	}

	return 1
}

// getCategoryHelp returns category-specific help text
func (h *CLIErrorHandler) getCategoryHelp(category errors.ErrorCategory) string {
	switch category {
	case errors.CategoryFile:
		return `File error help:
• Check if the file exists and is readable
• Verify the file path is correct (use absolute paths if needed)
• Ensure the export contains valid JSON`

	case errors.CategoryValidation:
		return `Validation error help:
• Check that all required fields have values
• Verify date formats use YYYY-MM-DD or RFC3339 timestamps
• Ensure amounts are decimal numbers without currency symbols`

	case errors.CategoryConfiguration:
		return `Configuration error help:
• Check your command-line flags and arguments
• Verify configuration file syntax if using --config
• Try running with default settings first`

	case errors.CategoryStore:
		return `Store error help:
• Check DATABASE_URL if using the Postgres store
• Verify the data directory exists and is writable
• Computed results are still valid; only persistence failed`

	case errors.CategoryMatching, errors.CategoryAnalysis:
		return `Analysis error help:
• Check data quality in your input files
• Try adjusting the confidence threshold (--threshold)
• Verify that invoices and transactions cover the same period`

	default:
		return `For more help:
• Use 'collections --help' for general help
• Use 'collections <command> --help' for command-specific help`
	}
}
