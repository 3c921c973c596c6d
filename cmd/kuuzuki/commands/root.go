// Package commands provides the CLI commands for kuuzuki.
package commands

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kuuzuki-ai/kuuzuki/internal/logging"
)

var (
	// Version information set at build time
	Version   = "0.1.0"
	BuildTime = "dev"
)

// Global flags
var (
	logLevel  string
	prettyLog bool
)

var rootCmd = &cobra.Command{
	Use:   "kuuzuki",
	Short: "kuuzuki - tool governance for AI coding agents",
	Long: `kuuzuki governs the tool calls of an AI coding assistant: permission
rules with wildcard matching, security validation of commands and paths,
resolution of unavailable tools to substitutes, and error recovery with
circuit breaking.

Run 'kuuzuki serve' to start the governance API, or 'kuuzuki check' to
evaluate a command against the active permission and security rules.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// .env is optional; real environment variables win.
		_ = godotenv.Load()

		cfg := logging.DefaultConfig()
		if logLevel != "" {
			cfg.Level = logging.ParseLevel(logLevel)
		}
		cfg.Pretty = prettyLog
		logging.Init(cfg)
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG|INFO|WARN|ERROR)")
	rootCmd.PersistentFlags().BoolVar(&prettyLog, "pretty", false, "Human-readable log output")

	rootCmd.SetVersionTemplate(fmt.Sprintf("kuuzuki %s (%s)\n", Version, BuildTime))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetWorkDir returns the working directory from flag or current directory.
func GetWorkDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	return os.Getwd()
}
