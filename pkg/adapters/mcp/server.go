package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/codeflow-dev/codeflow"
	"github.com/codeflow-dev/codeflow/internal/logging"
	"github.com/codeflow-dev/codeflow/pkg/domain"
	"github.com/codeflow-dev/codeflow/pkg/flowgraph"
	"github.com/codeflow-dev/codeflow/pkg/interpreter"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Engine defines what the MCP server needs from the trace engine.
type Engine interface {
	Execute(ctx context.Context, src domain.Source) (*codeflow.Result, error)
	Validate(code string) error
	Languages() []string
	Canonical(language string) string
	StrategyFor(language string) string
}

// TraceArgs are the arguments of the trace_code tool.
type TraceArgs struct {
	Code     string `json:"code"`
	Language string `json:"language,omitempty"`
	// Inputs is a JSON array of strings, one per input() call.
	Inputs string `json:"inputs,omitempty"`
}

// StepSummary is the compact form of a step returned to agents.
type StepSummary struct {
	Index       int    `json:"index"`
	Line        int    `json:"line" jsonschema_description:"1-based source line, 0 when the step has none"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
}

// TraceResponse is the structured result of trace_code.
type TraceResponse struct {
	Language   string        `json:"language"`
	Strategy   string        `json:"strategy" jsonschema_description:"interpreter, process or static"`
	TotalSteps int           `json:"totalSteps"`
	Steps      []StepSummary `json:"steps"`
	Output     []string      `json:"output"`
	Error      string        `json:"error,omitempty"`
	IsStatic   bool          `json:"isStatic"`
	Note       string        `json:"note,omitempty"`
	Mermaid    string        `json:"mermaid" jsonschema_description:"Flow graph of the trace as a Mermaid flowchart"`
}

// ValidateArgs are the arguments of the validate_code tool.
type ValidateArgs struct {
	Code     string `json:"code"`
	Language string `json:"language,omitempty"`
}

// ValidateResponse is the structured result of validate_code.
type ValidateResponse struct {
	Valid  bool   `json:"valid"`
	Error  string `json:"error,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
	Note   string `json:"note,omitempty"`
}

// Server wraps the Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("codeflow-mcp", strings.TrimSpace(codeflow.Version)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on port until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	traceTool := mcp.NewTool("trace_code",
		mcp.WithDescription("Trace a program step by step and return its steps, console output and flow graph. "+
			"javascript is interpreted; other languages are analyzed statically and run with a toolchain when one is installed."),
		mcp.WithString("code", mcp.Required(), mcp.Description("Program source")),
		mcp.WithString("language", mcp.Description("Language name or alias (default javascript)")),
		mcp.WithString("inputs", mcp.Description("JSON array of strings fed to input() or stdin (optional)")),
		mcp.WithOutputSchema[TraceResponse](),
	)
	s.mcpServer.AddTool(traceTool, mcp.NewStructuredToolHandler(s.handleTrace))

	validateTool := mcp.NewTool("validate_code",
		mcp.WithDescription("Check that a javascript program parses, without running it."),
		mcp.WithString("code", mcp.Required(), mcp.Description("Program source")),
		mcp.WithString("language", mcp.Description("Language name or alias (default javascript)")),
		mcp.WithOutputSchema[ValidateResponse](),
	)
	s.mcpServer.AddTool(validateTool, mcp.NewStructuredToolHandler(s.handleValidate))
}

func (s *Server) handleTrace(ctx context.Context, request mcp.CallToolRequest, args TraceArgs) (TraceResponse, error) {
	var inputs []string
	if args.Inputs != "" {
		if err := json.Unmarshal([]byte(args.Inputs), &inputs); err != nil {
			return TraceResponse{}, fmt.Errorf("inputs must be a JSON array of strings: %w", err)
		}
	}

	res, err := s.engine.Execute(ctx, domain.Source{Code: args.Code, Inputs: inputs, Language: args.Language})
	if err != nil {
		s.logger.Warn("MCP trace rejected", "err", err)
		return TraceResponse{}, err
	}

	out := TraceResponse{
		Language:   s.engine.Canonical(args.Language),
		Strategy:   s.engine.StrategyFor(args.Language),
		TotalSteps: len(res.Steps),
		Steps:      make([]StepSummary, len(res.Steps)),
		Output:     res.Output,
		IsStatic:   res.IsStatic,
		Note:       res.Note,
		Mermaid:    flowgraph.Mermaid(res.FlowGraph, nil),
	}
	for i, st := range res.Steps {
		out.Steps[i] = StepSummary{Index: i, Line: st.Line, Kind: string(st.Kind), Description: st.Description}
	}
	if res.Error != nil {
		out.Error = *res.Error
	}
	return out, nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args ValidateArgs) (ValidateResponse, error) {
	if s.engine.Canonical(args.Language) != interpreter.Language {
		return ValidateResponse{Valid: true, Note: "Only javascript is parsed; other languages are analyzed statically."}, nil
	}

	err := s.engine.Validate(args.Code)
	var syntaxErr *domain.SyntaxError
	switch {
	case err == nil:
		return ValidateResponse{Valid: true}, nil
	case errors.As(err, &syntaxErr):
		return ValidateResponse{Error: syntaxErr.Message, Line: syntaxErr.Line, Column: syntaxErr.Column}, nil
	default:
		return ValidateResponse{}, err
	}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("codeflow://languages", "Supported Languages",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		langs := make(map[string]string)
		for _, l := range s.engine.Languages() {
			langs[l] = s.engine.StrategyFor(l)
		}
		jsonBytes, err := json.Marshal(langs)
		if err != nil {
			return nil, fmt.Errorf("failed to encode languages: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "codeflow://languages",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
