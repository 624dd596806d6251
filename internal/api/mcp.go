package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kenwebdev/folio/internal/knowledge"
)

// MCPDeps holds the dependencies for the MCP surface.
type MCPDeps struct {
	Resolver    Resolver
	Knowledge   *knowledge.Document
	DefaultLang string
}

// NewMCPServer exposes the chat pipeline as an MCP tool and the knowledge
// document as resources, so agent clients can query the site owner's facts
// through the same grounded pipeline the widget uses.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"folio",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("folio — grounded Q&A about the portfolio site owner."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("ask",
			mcp.WithDescription("Ask a question about the site owner. Answers come from the knowledge base, with a grounded generative fallback."),
			mcp.WithString("question", mcp.Description("The question to answer"), mcp.Required()),
			mcp.WithString("lang", mcp.Description("Response language code (th, en, ja); defaults to the configured language")),
		),
		mcpAsk(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"owner://knowledge",
			"Owner Knowledge",
			mcp.WithResourceDescription("The fact sheet for the default language as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceKnowledge(deps),
	)

	return s
}

func mcpAsk(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil {
			return mcpError("question is required"), nil
		}
		lang := req.GetString("lang", deps.DefaultLang)

		answer, meta, err := deps.Resolver.Resolve(ctx, question, lang)
		if err != nil {
			return mcpError(fmt.Sprintf("answer resolution failed at stage %s: %v", meta.Stage, err)), nil
		}
		return mcpText(answer), nil
	}
}

func mcpResourceKnowledge(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		rec, ok := deps.Knowledge.Resolve(deps.DefaultLang)
		if !ok {
			return nil, fmt.Errorf("no knowledge record for %q", deps.DefaultLang)
		}

		b, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("marshaling knowledge record: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
