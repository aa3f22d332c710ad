package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// Tool names.
const (
	ToolSearchPassages   = "search_passages"
	ToolBuildContext     = "build_context"
	ToolListDocuments    = "list_documents"
	ToolDocumentMetadata = "document_metadata"
)

// maxLimit bounds search_passages results.
const maxLimit = 50

func searchPassagesTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolSearchPassages,
		Description: "Find the passages most relevant to a query, ranked by similarity and theme/gist overlap",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Natural language query",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of passages to return",
					"default":     5,
					"minimum":     1,
					"maximum":     maxLimit,
				},
				"theme_filter": map[string]interface{}{
					"type":        "string",
					"description": "Keep only passages whose document has a theme containing this text",
				},
			},
			Required: []string{"query"},
		},
	}
}

func buildContextTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolBuildContext,
		Description: "Build a grounding context block of quoted passages grouped by source document",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Question the context should help answer",
				},
			},
			Required: []string{"query"},
		},
	}
}

func listDocumentsTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolListDocuments,
		Description: "List the indexed source documents",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

func documentMetadataTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolDocumentMetadata,
		Description: "Get the full metadata of a source document by exact title",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"title": map[string]interface{}{
					"type":        "string",
					"description": "Exact document title as returned by list_documents",
				},
			},
			Required: []string{"title"},
		},
	}
}
