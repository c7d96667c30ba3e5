// CLAUDE:SUMMARY MCP tool surface: process one paper, process a batch, report pipeline status.
package pipeline

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/arxpipe/arxpipe/kit"
)

// RegisterMCP registers pipeline tools on an MCP server.
func (p *Pipeline) RegisterMCP(srv *mcp.Server) {
	p.registerProcessTool(srv)
	p.registerBatchTool(srv)
	p.registerStatusTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// --- process ---

type processReq struct {
	ID         string `json:"arxiv_id"`
	IncludePDF *bool  `json:"include_pdf,omitempty"`
}

func (r *processReq) includePDF() bool {
	return r.IncludePDF == nil || *r.IncludePDF
}

func (p *Pipeline) registerProcessTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "arxpipe_process",
		Description: "Download an arXiv paper's source, extract its text, and optionally compile it to PDF.",
		InputSchema: inputSchema(map[string]any{
			"arxiv_id":    map[string]any{"type": "string", "description": "arXiv identifier, e.g. 2301.00001 or hep-th/9901001"},
			"include_pdf": map[string]any{"type": "boolean", "description": "Compile to PDF and read the rendered output (default true)"},
		}, []string{"arxiv_id"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*processReq)
		return p.Process(ctx, r.ID, r.includePDF()), nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r processReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- process batch ---

type batchReq struct {
	IDs        []string `json:"arxiv_ids"`
	IncludePDF *bool    `json:"include_pdf,omitempty"`
}

func (r *batchReq) includePDF() bool {
	return r.IncludePDF == nil || *r.IncludePDF
}

func (p *Pipeline) registerBatchTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "arxpipe_process_batch",
		Description: "Process multiple arXiv papers concurrently. Returns one result per id, in input order.",
		InputSchema: inputSchema(map[string]any{
			"arxiv_ids":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "arXiv identifiers"},
			"include_pdf": map[string]any{"type": "boolean", "description": "Compile each paper to PDF (default true)"},
		}, []string{"arxiv_ids"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*batchReq)
		return map[string]any{"results": p.ProcessMany(ctx, r.IDs, r.includePDF())}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r batchReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- status ---

func (p *Pipeline) registerStatusTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "arxpipe_status",
		Description: "Report pipeline configuration, free concurrency slots and counters.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(_ context.Context, _ any) (any, error) {
		return p.Status(), nil
	}

	decode := func(_ *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
