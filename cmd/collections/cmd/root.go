package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "collections",
	Short: "Accounts receivable collections and reconciliation tool",
	Long: `Collections analyzes overdue invoices, drafts and sends escalating
payment reminders, and matches incoming bank transactions to open invoices.
Matching decisions a human confirms or denies are remembered and improve
future runs.

Examples:
  collections analyze --invoices invoices.json --dry-run
  collections match --transactions bank.json --invoices invoices.json
  collections suggest --transactions bank.json --invoices invoices.json
  collections validate --company "Acme Corp" --transactions bank.json --invoices invoices.json`,
	Version: getVersionString(),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("data-dir", "data", "directory for file-backed memory")
	rootCmd.PersistentFlags().String("database-url", "", "Postgres DSN for the memory store (file-backed when empty)")
	rootCmd.PersistentFlags().String("output-format", "console", "output format (console, json)")

	// Bind flags to viper
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	viper.BindPFlag("database_url", rootCmd.PersistentFlags().Lookup("database-url"))
	viper.BindPFlag("output_format", rootCmd.PersistentFlags().Lookup("output-format"))
	viper.BindEnv("database_url", "COLLECTIONS_DATABASE_URL", "DATABASE_URL")
}

// initConfig reads in config file and ENV variables.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)

		// If a config file is specified, read it in.
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
			os.Exit(1)
		}

		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	}

	// Read environment variables that match
	viper.SetEnvPrefix("COLLECTIONS")
	viper.AutomaticEnv()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
