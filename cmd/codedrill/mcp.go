package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/codedrill/codedrill/internal/config"
	"github.com/codedrill/codedrill/internal/grading"
	"github.com/codedrill/codedrill/internal/llm"
	"github.com/codedrill/codedrill/internal/session"
	"github.com/codedrill/codedrill/internal/storage/sqlite"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve exercise generation and grading as MCP tools over stdio",
	Long: `Expose CodeDrill as an MCP server so editors and agents can generate
exercises and grade solutions.

Tools:
  generate_exercise - Generate a new Python exercise
  submit_solution   - Run and grade a solution against the current exercise`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	store, err := sqlite.Open(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer store.Close()

	sessions := session.NewMemoryStore(cfg.Sessions.TTL)
	defer sessions.Close()

	provider, err := cfg.Provider(providerFlag)
	if err != nil {
		return err
	}

	client := llm.NewClient(provider.BaseURL, provider.APIKey, provider.Model(modelFlag))
	box := newSandbox(cfg)
	svc := grading.NewService(client, box, sessions, store, zap.NewNop().Sugar(), gradingOptions(cfg))

	sess, err := localSession(cmd.Context(), store, sessions)
	if err != nil {
		return err
	}

	s := server.NewMCPServer("codedrill", "0.1.0")

	s.AddTool(mcp.Tool{
		Name:        "generate_exercise",
		Description: "Generate a new Python exercise. The reference solution stays hidden until graded.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"category": map[string]any{
					"type":        "string",
					"description": "Exercise category (e.g. for-loop, while-loop, list)",
				},
				"difficulty": map[string]any{
					"type":        "string",
					"description": "Exercise difficulty (beginner, intermediate, advanced)",
				},
			},
		},
	}, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGenerateTool(ctx, svc, sess.Token, request)
	})

	s.AddTool(mcp.Tool{
		Name:        "submit_solution",
		Description: "Run a Python solution in the sandbox and grade it against the current exercise.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"code": map[string]any{
					"type":        "string",
					"description": "Python source code to grade",
				},
			},
			Required: []string{"code"},
		},
	}, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleSubmitTool(ctx, svc, sess.Token, request)
	})

	return server.ServeStdio(s)
}

func handleGenerateTool(ctx context.Context, svc *grading.Service, token string, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]any)
	category, _ := args["category"].(string)
	difficulty, _ := args["difficulty"].(string)

	ex, err := svc.Generate(ctx, token, category, difficulty)
	if err != nil {
		return toolError(fmt.Sprintf("error: %v", err)), nil
	}
	return toolText(ex.Problem), nil
}

func handleSubmitTool(ctx context.Context, svc *grading.Service, token string, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]any)
	code, _ := args["code"].(string)
	if code == "" {
		return toolError("error: 'code' is required"), nil
	}

	result, err := svc.Submit(ctx, token, code)
	if err != nil {
		return toolError(fmt.Sprintf("error: %v", err)), nil
	}

	data, err := json.MarshalIndent(map[string]any{
		"output":   result.Output,
		"correct":  result.Correct,
		"judgment": result.Judgment,
	}, "", "  ")
	if err != nil {
		return toolError(fmt.Sprintf("error: %v", err)), nil
	}
	return toolText(string(data)), nil
}

func toolText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: text}},
	}
}

func toolError(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: text}},
		IsError: true,
	}
}
