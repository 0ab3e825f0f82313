package cmd

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"bigfiles/internal/query"
	"bigfiles/internal/render"
	"bigfiles/internal/report"
	"bigfiles/internal/store"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/mordilloSan/go-logger/logger"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server exposing catalog queries as tools",
	Args:  cobra.NoArgs,
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	// stdout carries the protocol.
	logger.Init(logger.Config{Levels: []logger.Level{logger.ErrorLevel}})

	st, err := openExistingCatalog()
	if err != nil {
		return err
	}
	defer st.Close()

	engine := query.New(st)
	s := mcpserver.NewMCPServer("bigfiles", Version, mcpserver.WithToolCapabilities(false))

	s.AddTool(findDuplicatesTool(), makeDuplicatesHandler(engine))
	s.AddTool(duplicatePathsTool(), makeDuplicatePathsHandler(engine))
	s.AddTool(findLargestTool(), makeLargestHandler(engine))
	s.AddTool(indexSummaryTool(), makeSummaryHandler(engine))

	return mcpserver.ServeStdio(s)
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

// --- Tool schema builders ---

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

func findDuplicatesTool() mcp.Tool {
	return mcp.NewTool("find_duplicates",
		mcp.WithDescription("List groups of indexed files sharing the same file name and size, largest first. Contents are not compared."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithNumber("max_groups",
			mcp.Description("Maximum number of groups to return (default 50)"),
		),
	)
}

func duplicatePathsTool() mcp.Tool {
	return mcp.NewTool("duplicate_paths",
		mcp.WithDescription("List the paths of every indexed file with the given name and size."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("File name including extension, as returned by find_duplicates"),
		),
		mcp.WithString("size",
			mcp.Required(),
			mcp.Description("File size in bytes as a decimal string, exactly as returned by find_duplicates"),
		),
	)
}

func findLargestTool() mcp.Tool {
	return mcp.NewTool("find_largest",
		mcp.WithDescription("List the largest indexed files, largest first."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of files to return (default 50)"),
		),
	)
}

func indexSummaryTool() mcp.Tool {
	return mcp.NewTool("index_summary",
		mcp.WithDescription("Get a Markdown report of the catalog: totals, top extensions, duplicate groups and largest files."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
	)
}

// --- Handler factories ---

func makeDuplicatesHandler(e *query.Engine) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		maxGroups := req.GetInt("max_groups", query.DefaultLimit)
		if maxGroups <= 0 {
			maxGroups = query.DefaultLimit
		}

		groups, err := e.FindDuplicates(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("find duplicates failed: %v", err)), nil
		}
		return mcp.NewToolResultText(formatDuplicates(groups, maxGroups)), nil
	}
}

func makeDuplicatePathsHandler(e *query.Engine) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name := req.GetString("name", "")
		if name == "" {
			return mcp.NewToolResultError("name is required"), nil
		}
		size, err := parseSize(req.GetArguments()["size"])
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		paths, err := e.DuplicatePaths(ctx, store.DuplicateGroup{Name: name, Size: size})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("duplicate paths failed: %v", err)), nil
		}
		if len(paths) == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("No indexed files named %q with size %d.", name, size)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "## %s (%s) - %d files\n\n", name, render.Size(size), len(paths))
		for _, p := range paths {
			fmt.Fprintf(&sb, "- `%s`\n", p)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func makeLargestHandler(e *query.Engine) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := req.GetInt("limit", query.DefaultLimit)
		files, err := e.FindLargest(ctx, limit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("find largest failed: %v", err)), nil
		}
		return mcp.NewToolResultText(formatLargest(files)), nil
	}
}

func makeSummaryHandler(e *query.Engine) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		md, err := report.Build(ctx, e, report.DefaultOptions)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("report failed: %v", err)), nil
		}
		return mcp.NewToolResultText(md), nil
	}
}

// maxExactFloat is the largest integer a JSON number is guaranteed to carry
// without rounding (2^53 - 1).
const maxExactFloat = 1<<53 - 1

// parseSize reads a byte count given as a decimal string or a JSON number.
// Numbers of 2^53 and above are rejected because float64 decoding has already
// rounded them.
func parseSize(v any) (int64, error) {
	var size int64
	switch v := v.(type) {
	case nil:
		return 0, errors.New("size is required")
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("size %q is not an integer", v)
		}
		size = n
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("size %v is not an integer", v)
		}
		if math.Abs(v) > maxExactFloat {
			return 0, fmt.Errorf("size %v is too large for a JSON number; pass it as a string", v)
		}
		size = int64(v)
	case int:
		size = int64(v)
	case int64:
		size = v
	default:
		return 0, fmt.Errorf("size has unsupported type %T", v)
	}
	if size < 0 {
		return 0, errors.New("size must be a non-negative integer")
	}
	return size, nil
}

// --- Formatting helpers ---

func formatDuplicates(groups []store.DuplicateGroup, maxGroups int) string {
	if len(groups) == 0 {
		return render.NoDuplicates
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Duplicate groups (%d)\n\n", len(groups))
	for i, g := range groups {
		if i == maxGroups {
			fmt.Fprintf(&sb, "\n_%d more groups not shown._\n", len(groups)-maxGroups)
			break
		}
		fmt.Fprintf(&sb, "- **%s** - %s (%d bytes), %d copies\n", g.Name, render.Size(g.Size), g.Size, g.Count)
	}
	return sb.String()
}

func formatLargest(files []store.FileRecord) string {
	if len(files) == 0 {
		return render.NoFiles
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Largest files (%d)\n\n", len(files))
	for i, f := range files {
		fmt.Fprintf(&sb, "%d. `%s` - %s (%d bytes)\n", i+1, f.Path, render.Size(f.Size), f.Size)
	}
	return sb.String()
}
