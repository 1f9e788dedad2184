// Package mcp exposes product extraction as MCP tools over stdio or HTTP.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/maialino123/ecomate-extract/internal/pipeline"
	"github.com/maialino123/ecomate-extract/pkg/models"
)

// ServerName is announced to MCP clients.
const ServerName = "ecomate-extract"

// PipelineFunc returns the pipeline capturing pages in mode.
type PipelineFunc func(mode models.FetchMode) (*pipeline.Pipeline, error)

// Server answers tool calls with extraction pipelines.
type Server struct {
	pipelines PipelineFunc
	mcp       *server.MCPServer
}

// NewServer registers every tool on a fresh MCP server.
func NewServer(pipelines PipelineFunc, version string) *Server {
	s := &Server{
		pipelines: pipelines,
		mcp: server.NewMCPServer(
			ServerName,
			version,
			server.WithToolCapabilities(true),
			server.WithRecovery(),
		),
	}
	s.registerTools()
	return s
}

// ServeStdio serves MCP on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}
