package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "calbridge",
	Short: "MCP server exposing Google Calendar tools for AI assistants",
	Long: `calbridge is a Model Context Protocol (MCP) server that exposes Google
Calendar operations as tools for AI assistants.

OAuth is delegated to an external auth proxy (Nango): the server fetches a
short-lived access token per tool call and never stores credentials itself.
Configure the proxy connection via NANGO_BASE_URL, NANGO_SECRET_KEY,
NANGO_CONNECTION_ID and NANGO_INTEGRATION_ID.`,
	SilenceUsage: true,
}

// version is injected by main at build time; "dev" otherwise.
var version = "dev"

// SetVersion records the build version on the root command.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute runs the CLI. Invoking the binary with no arguments serves MCP
// over stdio, which is how MCP clients typically launch it.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "calbridge version %s\n" .Version}}`)

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}
