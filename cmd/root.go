package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the atom-agent application
var rootCmd = &cobra.Command{
	Use:   "atom-agent",
	Short: "Schedules meetings across multiple users' calendars",
	Long: `atom-agent is a personal assistant backend that schedules meetings across
multiple participants' Google calendars. It fetches everyone's availability,
asks a language model to rank candidate times, and creates the meeting
automatically when enough participants are free.

It can run as:
  - An MCP (Model Context Protocol) server for AI assistants (default)
  - A one-shot CLI scheduler (schedule command)`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "atom-agent version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newScheduleCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}
