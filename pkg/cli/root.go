// Package cli implements the devmock command line interface. The CLI
// is a thin host around pkg/engine: serve wraps the engine in a plain
// net/http server, and the remaining commands are local file
// operations that never need a running server.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "devmock",
	Short: "devmock answers API requests with synthetic data during development",
	Long: `devmock is a local mock server for frontend and integration development.
It matches incoming requests against route files, switchable scenarios
and generated templates, and answers them without a real backend.

Run 'devmock init' to scaffold a mock directory, then 'devmock serve'.`,
	// No Run function here means 'devmock' with no args will print help text by default.
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Execute()
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
