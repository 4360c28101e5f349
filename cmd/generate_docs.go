package cmd

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/calbridge/calbridge/internal/server"
	"github.com/calbridge/calbridge/internal/tools/calendar_tools"
)

// docSections orders the generated reference: the read-only surface leads
// the document, matching what --read-only mode leaves registered.
var docSections = []string{"Query Tools", "Write Tools", "Other"}

func newGenerateDocsCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Write the MCP tool reference as Markdown",
		Long: `Render the MCP tool reference as markdown.

The reference is built by registering every tool and introspecting the
result, so it cannot drift from the schemas the server actually exposes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateDocs(outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "File to write (defaults to stdout)")

	return cmd
}

func runGenerateDocs(outputFile string) error {
	// A bare server context suffices: registration never touches the auth
	// proxy, so no configuration is needed to introspect the tools.
	serverContext := server.NewServerContext(context.Background())
	defer func() {
		_ = serverContext.Shutdown()
	}()

	mcpSrv := mcpserver.NewMCPServer("calbridge", version,
		mcpserver.WithToolCapabilities(true),
	)

	// readOnly off, so the write tools appear in the reference too.
	if err := calendar_tools.RegisterCalendarTools(mcpSrv, serverContext, false); err != nil {
		return fmt.Errorf("registering calendar tools: %w", err)
	}

	registered := mcpSrv.ListTools()
	tools := make([]mcp.Tool, 0, len(registered))
	for _, entry := range registered {
		tools = append(tools, entry.Tool)
	}

	markdown := generateToolsMarkdown(tools)
	if outputFile == "" {
		fmt.Print(markdown)
		return nil
	}
	if err := os.WriteFile(outputFile, []byte(markdown), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outputFile, err)
	}
	fmt.Fprintf(os.Stderr, "Tool reference written to %s\n", outputFile)
	return nil
}

// generateToolsMarkdown renders the full reference: header, table of
// contents, the calendar addressing notes, then one section per tool
// group with tools sorted by name.
func generateToolsMarkdown(tools []mcp.Tool) string {
	grouped := make(map[string][]mcp.Tool, len(docSections))
	for _, tool := range tools {
		section := toolSection(tool.Name)
		grouped[section] = append(grouped[section], tool)
	}

	var sb strings.Builder
	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("Every tool calbridge exposes over MCP, generated from the registered tool schemas.\n\n")

	sb.WriteString("## Table of Contents\n\n")
	for _, section := range docSections {
		if len(grouped[section]) == 0 {
			continue
		}
		anchor := strings.ToLower(strings.ReplaceAll(section, " ", "-"))
		fmt.Fprintf(&sb, "- [%s](#%s)\n", section, anchor)
	}
	sb.WriteString("\n")

	sb.WriteString("## Calendar Selection\n\n")
	sb.WriteString("Tools that operate on a single calendar take a `calendar_id` parameter:\n\n")
	sb.WriteString("- Where `calendar_id` is optional it defaults to `primary`, the authenticated user's main calendar\n")
	sb.WriteString("- Other calendars are addressed by ID (usually an email address) as listed by `get_all_calendars`\n\n")

	for _, section := range docSections {
		sectionTools := grouped[section]
		if len(sectionTools) == 0 {
			continue
		}
		sort.Slice(sectionTools, func(i, j int) bool {
			return sectionTools[i].Name < sectionTools[j].Name
		})

		fmt.Fprintf(&sb, "## %s\n\n", section)
		for _, tool := range sectionTools {
			writeToolMarkdown(&sb, tool)
		}
	}

	return sb.String()
}

// toolSection buckets tools by their verb prefix. The split mirrors the
// read-only registration mode: query tools stay available there, write
// tools do not.
func toolSection(name string) string {
	prefix, _, found := strings.Cut(name, "_")
	if !found {
		return "Other"
	}

	switch prefix {
	case "get":
		return "Query Tools"
	case "create", "cancel":
		return "Write Tools"
	default:
		return "Other"
	}
}

// writeToolMarkdown renders one tool: heading, description, then the
// argument list with required/optional markers.
func writeToolMarkdown(sb *strings.Builder, tool mcp.Tool) {
	fmt.Fprintf(sb, "### %s\n\n", tool.Name)
	if tool.Description != "" {
		fmt.Fprintf(sb, "%s\n\n", tool.Description)
	}

	props := tool.InputSchema.Properties
	if len(props) == 0 {
		return
	}

	sb.WriteString("**Arguments:**\n")
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		schema, ok := props[name].(map[string]any)
		if !ok {
			continue
		}
		requirement := "optional"
		if slices.Contains(tool.InputSchema.Required, name) {
			requirement = "required"
		}
		description, ok := schema["description"].(string)
		if !ok {
			description = schemaType(schema) + " parameter"
		}
		fmt.Fprintf(sb, "- `%s` (%s): %s\n", name, requirement, description)
	}
	sb.WriteString("\n")
}

// schemaType names the JSON schema type of an argument that has no
// description of its own.
func schemaType(schema map[string]any) string {
	if t, ok := schema["type"].(string); ok {
		return t
	}
	return "any"
}
