// Package cmd implements the command-line interface for atom-agent.
//
// This package provides the following commands:
//   - serve: Start the MCP server exposing the scheduling tools for AI assistants
//   - schedule: Run one meeting-scheduling pass from the command line
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
//
// The serve command is the default command when no subcommand is specified.
package cmd
