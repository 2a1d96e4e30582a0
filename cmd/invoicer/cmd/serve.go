package cmd

import (
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run migrations, seed the admin user and serve the HTTP API until
interrupted.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	app := serveApp()
	if err := app.Err(); err != nil {
		return err
	}
	app.Run()
	return nil
}
