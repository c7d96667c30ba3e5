package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func mcpSession(t *testing.T, p *Pipeline) *mcp.ClientSession {
	t.Helper()
	impl := &mcp.Implementation{Name: "arxpipe-test", Version: "0.0.1"}
	srv := mcp.NewServer(impl, nil)
	p.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(impl, nil)
	sess, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { sess.Close() })
	return sess
}

func callToolText(t *testing.T, sess *mcp.ClientSession, name string, args map[string]any) string {
	t.Helper()
	result, err := sess.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("call %s: %v", name, err)
	}
	if result.IsError {
		t.Fatalf("tool %s error: %v", name, result.Content)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("tool %s: expected TextContent", name)
	}
	return tc.Text
}

func TestMCPProcessTool(t *testing.T) {
	srv := archiveServer(t, tarGzArchive(t, paperFiles))
	p := New(testConfig(srv))
	sess := mcpSession(t, p)

	text := callToolText(t, sess, "arxpipe_process", map[string]any{
		"arxiv_id":    "2301.00001",
		"include_pdf": false,
	})

	var res Result
	if err := json.Unmarshal([]byte(text), &res); err != nil {
		t.Fatalf("result payload: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, error %q", res.Error)
	}
	if res.MainFile != "main.tex" {
		t.Errorf("main file = %q", res.MainFile)
	}
}

func TestMCPProcessToolInvalidID(t *testing.T) {
	srv := archiveServer(t, tarGzArchive(t, paperFiles))
	p := New(testConfig(srv))
	sess := mcpSession(t, p)

	// A bad identifier is a domain failure: the tool call itself succeeds
	// and the payload carries the error.
	text := callToolText(t, sess, "arxpipe_process", map[string]any{"arxiv_id": "nope"})

	var res Result
	if err := json.Unmarshal([]byte(text), &res); err != nil {
		t.Fatal(err)
	}
	if res.Success {
		t.Fatal("expected failure result")
	}
	if !strings.Contains(res.Error, "invalid arXiv identifier") {
		t.Errorf("error = %q", res.Error)
	}
}

func TestMCPBatchTool(t *testing.T) {
	srv := archiveServer(t, tarGzArchive(t, paperFiles))
	p := New(testConfig(srv))
	sess := mcpSession(t, p)

	text := callToolText(t, sess, "arxpipe_process_batch", map[string]any{
		"arxiv_ids":   []string{"2301.00001", "bad id"},
		"include_pdf": false,
	})

	var payload struct {
		Results []Result `json:"results"`
	}
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		t.Fatal(err)
	}
	if len(payload.Results) != 2 {
		t.Fatalf("got %d results", len(payload.Results))
	}
	if !payload.Results[0].Success {
		t.Errorf("first paper failed: %q", payload.Results[0].Error)
	}
	if payload.Results[1].Success {
		t.Error("second paper should fail")
	}
}

func TestMCPStatusTool(t *testing.T) {
	srv := archiveServer(t, tarGzArchive(t, paperFiles))
	cfg := testConfig(srv)
	p := New(cfg)
	sess := mcpSession(t, p)

	text := callToolText(t, sess, "arxpipe_status", nil)

	var st Status
	if err := json.Unmarshal([]byte(text), &st); err != nil {
		t.Fatal(err)
	}
	if st.Config.MaxDownloads != cfg.MaxDownloads {
		t.Errorf("max_downloads = %d", st.Config.MaxDownloads)
	}
	if st.Semaphores.ExtractionAvailable != cfg.MaxExtractions {
		t.Errorf("extraction slots = %d", st.Semaphores.ExtractionAvailable)
	}
}
