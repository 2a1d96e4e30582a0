// Package cmd provides the invoicer command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/bwmarrin/snowflake"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	nodeID  int64
)

var rootCmd = &cobra.Command{
	Use:   "invoicer",
	Short: "Price and issue protocol service invoices",
	Long: `invoicer prices protocol and visit work, stores clients and invoices,
and renders invoices as HTML or PDF.

Examples:
  invoicer serve
  invoicer migrate
  invoicer quote --protocols 12 --onsite 30 --remote 40 --implementation`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "invoicing config file (default is ./invoicing.yml)")
	rootCmd.PersistentFlags().Int64Var(&nodeID, "node", 1, "snowflake node id")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		cobra.CheckErr(os.Setenv("INVOICER_CONFIG_FILE", cfgFile))
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "invoicer version %s\n", version())
	},
}

func newSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(nodeID)
}
