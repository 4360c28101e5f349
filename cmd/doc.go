// Package cmd wires up the calbridge CLI.
//
// Subcommands: serve (the MCP server; also what runs when the binary is
// invoked with no arguments, since MCP clients launch servers that way),
// version, and generate-docs (renders the tool reference from the
// registered schemas).
package cmd
