// Package mcp exposes the archbase analyzers and generators as MCP tools
// over stdio.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/singleflight"

	"github.com/archbase/archbase-cli/pkg/component"
	"github.com/archbase/archbase-cli/pkg/docs"
	"github.com/archbase/archbase-cli/pkg/generator"
	"github.com/archbase/archbase-cli/pkg/mcplog"
	"github.com/archbase/archbase-cli/pkg/patterns"
	"github.com/archbase/archbase-cli/pkg/scanner"
	"github.com/archbase/archbase-cli/pkg/util"
	"github.com/archbase/archbase-cli/pkg/validator"
)

const serverName = "archbase"

// Config wires the server to its backends. Nil backends are created with
// default options and closed by Server.Close.
type Config struct {
	Version    string
	Components *component.Analyzer
	Scanner    *scanner.ProjectScanner
	Patterns   *patterns.ProjectPatternAnalyzer
	Generators *generator.Registry
	Validator  *validator.Validator
	Docs       *docs.Analyzer

	// CallLog records every tool call when non-nil.
	CallLog *mcplog.Logger
	Logger  *slog.Logger
}

// Server implements the archbase MCP server.
type Server struct {
	mcpServer  *server.MCPServer
	components *component.Analyzer
	scanner    *scanner.ProjectScanner
	patterns   *patterns.ProjectPatternAnalyzer
	generators *generator.Registry
	validator  *validator.Validator
	docs       *docs.Analyzer
	callLog    *mcplog.Logger
	logger     *slog.Logger

	// scans collapses concurrent scan_project calls for the same arguments.
	scans singleflight.Group

	owned []interface{ Close() error }
}

// NewServer creates the server and registers every tool.
func NewServer(cfg Config) *Server {
	logger := util.OrDefault(cfg.Logger)
	s := &Server{
		components: cfg.Components,
		scanner:    cfg.Scanner,
		patterns:   cfg.Patterns,
		generators: cfg.Generators,
		validator:  cfg.Validator,
		docs:       cfg.Docs,
		callLog:    cfg.CallLog,
		logger:     logger,
	}
	if s.components == nil {
		s.components = component.NewAnalyzer(component.Options{Logger: logger})
		s.owned = append(s.owned, s.components)
	}
	if s.scanner == nil {
		s.scanner = scanner.NewProjectScanner(scanner.Options{Logger: logger})
		s.owned = append(s.owned, s.scanner)
	}
	if s.patterns == nil {
		s.patterns = patterns.NewProjectPatternAnalyzer(patterns.Options{Logger: logger})
		s.owned = append(s.owned, s.patterns)
	}
	if s.validator == nil {
		s.validator = validator.NewValidator(validator.Options{Logger: logger})
		s.owned = append(s.owned, s.validator)
	}
	if s.docs == nil {
		s.docs = docs.NewAnalyzer(docs.Options{Logger: logger})
		s.owned = append(s.owned, s.docs)
	}
	if s.generators == nil {
		s.generators = generator.Default(generator.Config{Logger: logger})
	}

	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	opts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if s.callLog != nil {
		opts = append(opts, server.WithToolHandlerMiddleware(s.loggingMiddleware()))
	}
	s.mcpServer = server.NewMCPServer(serverName, version, opts...)

	s.mcpServer.AddTools(
		server.ServerTool{Tool: analyzeComponentTool(), Handler: s.handleAnalyzeComponent},
		server.ServerTool{Tool: scanProjectTool(), Handler: s.handleScanProject},
		server.ServerTool{Tool: analyzePatternsTool(), Handler: s.handleAnalyzePatterns},
		server.ServerTool{Tool: analyzeJavaControllerTool(), Handler: s.handleAnalyzeJavaController},
		server.ServerTool{Tool: mapServiceMethodsTool(), Handler: s.handleMapServiceMethods},
		server.ServerTool{Tool: listGeneratorsTool(), Handler: s.handleListGenerators},
		server.ServerTool{Tool: generateTool(s.generators.Kinds()), Handler: s.handleGenerate},
		server.ServerTool{Tool: validateCodeTool(), Handler: s.handleValidateCode},
		server.ServerTool{Tool: analyzeDocsTool(), Handler: s.handleAnalyzeDocs},
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// Close releases the backends the server created itself.
func (s *Server) Close() error {
	var first error
	for _, c := range s.owned {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
