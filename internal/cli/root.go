// Package cli provides the command-line interface for croptint.
package cli

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/croptint/internal/version"
)

// NewRootCmd builds the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "croptint",
		Short: "Dominant colour extraction for crop images",
		Long: `croptint resolves one representative colour per crop image.

Given a CSV table of (crop_name, image_url) rows, croptint downloads each
image once into a content-addressed cache, filters out transparent and
background pixels, clusters the rest in HSV colour space, and writes the
table back with one dominant_color hex code per row.`,
		Version:      version.Short(),
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Optional .env file for CROPTINT_* settings.
			_ = godotenv.Load()
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress non-error output")

	// Set version template
	rootCmd.SetVersionTemplate(version.String() + "\n")

	// Add subcommands
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newExtractCmd())
	rootCmd.AddCommand(newViewerCmd())

	return rootCmd
}

// newVersionCmd builds the version command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including build date, commit hash, and Go version.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.String())
		},
	}
}

// newLogger builds the logger for a command invocation from the global
// verbosity flags.
func newLogger(cmd *cobra.Command) hclog.Logger {
	level := hclog.Info
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = hclog.Debug
	}
	if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		level = hclog.Error
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:   "croptint",
		Level:  level,
		Output: os.Stderr,
	})
}
