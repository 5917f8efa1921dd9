// Package mcp exposes the incremental lexer as Model Context Protocol tools
// over stdio.
package mcp

import (
	"context"
	"runtime/debug"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/relex/internal/config"
	"github.com/standardbeagle/relex/internal/languages"
	"github.com/standardbeagle/relex/internal/version"
)

// Server is the relex MCP tool server
type Server struct {
	server           *mcp.Server
	cfg              *config.Config
	registry         *languages.Registry
	diagnosticLogger *DiagnosticLogger
}

// NewServer creates the MCP server and registers its tools. A nil cfg uses
// the defaults.
func NewServer(cfg *config.Config, registry *languages.Registry) *Server {
	return newServer(cfg, registry, NewDiagnosticLogger(true))
}

func newServer(cfg *config.Config, registry *languages.Registry, logger *DiagnosticLogger) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if registry == nil {
		registry = languages.Default()
	}

	s := &Server{
		cfg:              cfg,
		registry:         registry,
		diagnosticLogger: logger,
	}
	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "relex-mcp-server",
		Version: version.Version,
	}, nil)
	s.registerTools()
	s.diagnosticLogger.Printf("MCP server initialized with %d languages", len(registry.Names()))
	return s
}

func (s *Server) registerTools() {
	languageSchema := &jsonschema.Schema{
		Type:        "string",
		Description: "Language name (see the languages tool). Defaults to the configured language.",
	}

	s.server.AddTool(&mcp.Tool{
		Name:        "languages",
		Description: "List registered languages and their token kinds.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, s.handleLanguages)

	s.server.AddTool(&mcp.Tool{
		Name:        "tokenize",
		Description: "Lex text in one pass and return every token with its offset, lookahead, lookback and lexer state.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"language": languageSchema,
				"text":     {Type: "string", Description: "Text to lex"},
				"dump":     {Type: "boolean", Description: "Also return the plain text dump"},
			},
			Required: []string{"text"},
		},
	}, s.handleTokenize)

	s.server.AddTool(&mcp.Tool{
		Name:        "edit",
		Description: "Lex text, then apply edits one at a time with the incremental updater. Reports the relexed range of every edit and the final tokens.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"language": languageSchema,
				"text":     {Type: "string", Description: "Initial text"},
				"edits": {
					Type:        "array",
					Description: "Edits applied in order",
					Items: &jsonschema.Schema{
						Type: "object",
						Properties: map[string]*jsonschema.Schema{
							"op":     {Type: "string", Enum: []any{"insert", "remove", "replace"}},
							"offset": {Type: "integer", Description: "Character offset for insert and remove"},
							"length": {Type: "integer", Description: "Characters to remove"},
							"text":   {Type: "string", Description: "Inserted text, or the whole new text for replace"},
						},
						Required: []string{"op"},
					},
				},
				"verify": {Type: "boolean", Description: "Check the tokens against a batch lex after every edit (default true)"},
			},
			Required: []string{"text", "edits"},
		},
	}, s.handleEdit)

	s.server.AddTool(&mcp.Tool{
		Name:        "fuzz",
		Description: "Run the randomized differential harness over one or more seeds and report relexing locality.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"language":      languageSchema,
				"seed":          {Type: "integer", Description: "First seed"},
				"seeds":         {Type: "integer", Description: "Number of consecutive seeds"},
				"rounds":        {Type: "integer", Description: "Rounds per seed"},
				"ops_per_round": {Type: "integer", Description: "Edits per round"},
				"max_length":    {Type: "integer", Description: "Document length that forces removals"},
			},
		},
	}, s.handleFuzz)
}

// recoverFromPanic turns a panicking handler into an error result
func (s *Server) recoverFromPanic(operation string, handler func() (*mcp.CallToolResult, error)) (result *mcp.CallToolResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.diagnosticLogger.Errorf("PANIC RECOVERED in %s: %v\n%s", operation, r, debug.Stack())
			result, err = createErrorResponse(operation, panicError{r})
		}
	}()

	result, err = handler()
	if err != nil {
		s.diagnosticLogger.Errorf("Error in %s: %v", operation, err)
		return createErrorResponse(operation, err)
	}
	return result, nil
}

// Start serves the tools over stdio until ctx is done or the client leaves
func (s *Server) Start(ctx context.Context) error {
	s.diagnosticLogger.Printf("Starting MCP server with stdio transport")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Close releases the diagnostic log
func (s *Server) Close() error {
	s.diagnosticLogger.Printf("MCP server shutdown complete")
	return s.diagnosticLogger.Close()
}
