// Package mcp exposes passage search and grounding context as MCP tools over stdio.
package mcp

import (
	"context"
	"io"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragctx/internal/domain/passage"
	"github.com/kailas-cloud/ragctx/internal/domain/search/request"
	"github.com/kailas-cloud/ragctx/internal/domain/search/result"
	"github.com/kailas-cloud/ragctx/internal/usecase/grounding"
)

// ServerName is the name announced during MCP initialization.
const ServerName = "ragctx"

// Searcher ranks passages for a request.
type Searcher interface {
	Search(ctx context.Context, req *request.Request) ([]result.Scored, error)
}

// ContextBuilder renders grounding context for a query.
type ContextBuilder interface {
	Build(ctx context.Context, query string) grounding.Context
}

// Catalog browses source documents.
type Catalog interface {
	ListDocuments(ctx context.Context) ([]passage.DocumentSummary, error)
	Metadata(ctx context.Context, title string) (passage.Metadata, error)
}

// Server wraps the MCP server with the retrieval services.
type Server struct {
	mcp     *server.MCPServer
	search  Searcher
	context ContextBuilder
	catalog Catalog
	logger  *zap.Logger
}

// NewServer creates an MCP server and registers its tools.
func NewServer(version string, search Searcher, cb ContextBuilder, catalog Catalog, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		mcp:     server.NewMCPServer(ServerName, version, server.WithToolCapabilities(false)),
		search:  search,
		context: cb,
		catalog: catalog,
		logger:  logger,
	}
	s.registerTools()
	return s
}

// Serve speaks MCP over in/out until ctx is canceled or in is closed.
// Nothing but protocol frames may be written to out.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(zap.NewStdLog(s.logger))
	return stdio.Listen(ctx, in, out)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(searchPassagesTool(), s.handleSearchPassages)
	s.mcp.AddTool(buildContextTool(), s.handleBuildContext)
	s.mcp.AddTool(listDocumentsTool(), s.handleListDocuments)
	s.mcp.AddTool(documentMetadataTool(), s.handleDocumentMetadata)
}
