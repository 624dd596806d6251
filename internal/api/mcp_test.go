package api

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kenwebdev/folio/internal/knowledge"
)

// --- helpers ---

func newTestMCPDeps(t *testing.T, r Resolver) MCPDeps {
	t.Helper()
	doc, err := knowledge.Parse([]byte(`{"th":{"name":"เค็น","age":22,"skills":["HTML"]},"en":{"name":"Ken","age":22}}`))
	if err != nil {
		t.Fatal(err)
	}
	return MCPDeps{Resolver: r, Knowledge: doc, DefaultLang: "th"}
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func makeReadResourceRequest(uri string) mcp.ReadResourceRequest {
	return mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

// --- tests ---

func TestMCPTool_Ask(t *testing.T) {
	r := &stubResolver{reply: "อายุ 22 ปี"}
	handler := mcpAsk(newTestMCPDeps(t, r))

	req := makeCallToolRequest("ask", map[string]any{
		"question": "อายุเท่าไหร่",
		"lang":     "th",
	})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}
	if got := toolText(t, result); got != "อายุ 22 ปี" {
		t.Fatalf("unexpected answer: %s", got)
	}
}

func TestMCPTool_Ask_DefaultLang(t *testing.T) {
	r := &stubResolver{reply: "ok"}
	handler := mcpAsk(newTestMCPDeps(t, r))

	req := makeCallToolRequest("ask", map[string]any{
		"question": "who are you",
	})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}
	if r.lang != "th" {
		t.Fatalf("resolver called with lang %q, want configured default", r.lang)
	}
}

func TestMCPTool_Ask_MissingQuestion(t *testing.T) {
	handler := mcpAsk(newTestMCPDeps(t, &stubResolver{}))

	req := makeCallToolRequest("ask", map[string]any{
		"lang": "en",
	})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result for missing question")
	}
	if got := toolText(t, result); !strings.Contains(got, "question") {
		t.Fatalf("unexpected error text: %s", got)
	}
}

func TestMCPTool_Ask_ResolverFailure(t *testing.T) {
	r := &stubResolver{err: errors.New("no API key configured")}
	handler := mcpAsk(newTestMCPDeps(t, r))

	req := makeCallToolRequest("ask", map[string]any{
		"question": "q",
	})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result for resolver failure")
	}
	text := toolText(t, result)
	if !strings.Contains(text, "failed") || !strings.Contains(text, "no API key configured") {
		t.Fatalf("unexpected error text: %s", text)
	}
}

func TestMCPResource_Knowledge(t *testing.T) {
	handler := mcpResourceKnowledge(newTestMCPDeps(t, &stubResolver{}))

	contents, err := handler(context.Background(), makeReadResourceRequest("owner://knowledge"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("expected 1 resource content, got %d", len(contents))
	}

	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected TextResourceContents, got %T", contents[0])
	}
	if text.URI != "owner://knowledge" {
		t.Fatalf("unexpected URI: %s", text.URI)
	}
	if text.MIMEType != "application/json" {
		t.Fatalf("unexpected MIME type: %s", text.MIMEType)
	}

	var rec knowledge.Record
	if err := json.Unmarshal([]byte(text.Text), &rec); err != nil {
		t.Fatalf("failed to parse resource: %v", err)
	}
	if rec.Name != "เค็น" {
		t.Fatalf("expected default-language record, got name %q", rec.Name)
	}
}

func TestMCPResource_Knowledge_MissingRecord(t *testing.T) {
	deps := newTestMCPDeps(t, &stubResolver{})
	doc, err := knowledge.Parse([]byte(`{"en":{"name":"Ken"}}`))
	if err != nil {
		t.Fatal(err)
	}
	deps.Knowledge = doc

	handler := mcpResourceKnowledge(deps)
	if _, err := handler(context.Background(), makeReadResourceRequest("owner://knowledge")); err == nil {
		t.Fatal("expected error when the default-language record is missing")
	}
}
