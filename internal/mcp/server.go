// Package mcp implements a Model Context Protocol server exposing confq's
// config-file querying capabilities as MCP tools over stdio transport.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/confq/confq/internal/binary"
	"github.com/confq/confq/internal/formats"
	"github.com/confq/confq/internal/paginate"
	"github.com/confq/confq/internal/yq"
	"github.com/confq/confq/pkg/observability"
)

const (
	// serverName is the MCP server implementation name.
	serverName = "confq"
	// serverVersion is the MCP server implementation version.
	serverVersion = "1.0.0"

	// toolCount is the expected number of registered tools.
	toolCount = 7
)

// QueryBackend executes engine invocations and reports the backing binary.
// Satisfied by *yq.Backend.
type QueryBackend interface {
	Execute(ctx context.Context, req yq.Request) (*yq.Result, error)
	Resolved(ctx context.Context) (*binary.Resolved, error)
}

// ServerDeps holds injectable dependencies for the MCP server.
// Zero-value fields use production defaults.
type ServerDeps struct {
	// Backend executes queries. Required.
	Backend QueryBackend

	// Formats is the enabled-format set. Zero value enables the defaults.
	Formats formats.Enabled

	// PageSize is the pagination budget in bytes. Zero uses the default.
	PageSize int

	// QueryTimeout bounds one engine invocation. Zero uses the default.
	QueryTimeout time.Duration

	// Logger is an optional structured logger. Nil uses slog default.
	Logger *slog.Logger

	// Metrics is an optional RED metrics recorder. Nil disables per-tool metrics.
	Metrics *observability.REDMetrics

	// Tracer is an optional OTel tracer for per-tool-call spans. Nil disables tracing.
	Tracer trace.Tracer
}

// Server wraps the MCP SDK server with confq tool registrations.
type Server struct {
	inner        *mcpsdk.Server
	backend      QueryBackend
	formats      formats.Enabled
	pageSize     int
	queryTimeout time.Duration
	metrics      *observability.REDMetrics
	tracer       trace.Tracer

	mu    sync.RWMutex
	tools []string
}

// NewServer creates a new MCP server with all confq tools registered.
func NewServer(deps ServerDeps) *Server {
	opts := &mcpsdk.ServerOptions{}
	if deps.Logger != nil {
		opts.Logger = deps.Logger
	}

	inner := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    serverName,
			Version: serverVersion,
		},
		opts,
	)

	enabled := deps.Formats
	if enabled.Empty() {
		enabled = formats.DefaultEnabled()
	}

	pageSize := deps.PageSize
	if pageSize <= 0 {
		pageSize = paginate.DefaultPageSize
	}

	queryTimeout := deps.QueryTimeout
	if queryTimeout <= 0 {
		queryTimeout = yq.DefaultTimeout
	}

	srv := &Server{
		inner:        inner,
		backend:      deps.Backend,
		formats:      enabled,
		pageSize:     pageSize,
		queryTimeout: queryTimeout,
		metrics:      deps.Metrics,
		tracer:       deps.Tracer,
		tools:        make([]string, 0, toolCount),
	}

	srv.registerTools()

	return srv
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.tools))
	copy(names, s.tools)
	sort.Strings(names)

	return names
}

// Run starts the MCP server on stdio transport. It blocks until the context
// is canceled or the connection closes.
func (s *Server) Run(ctx context.Context) error {
	err := s.inner.Run(ctx, &mcpsdk.StdioTransport{})
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

// RunWithTransport starts the MCP server on the given transport. It blocks
// until the context is canceled or the connection closes.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	err := s.inner.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

// registerTools adds all confq MCP tools to the server.
func (s *Server) registerTools() {
	registerTool(s, ToolNameQuery, queryToolDescription, s.handleQuery)
	registerTool(s, ToolNameStructure, structureToolDescription, s.handleStructure)
	registerTool(s, ToolNameConvert, convertToolDescription, s.handleConvert)
	registerTool(s, ToolNameMerge, mergeToolDescription, s.handleMerge)
	registerTool(s, ToolNameSet, setToolDescription, s.handleSet)
	registerTool(s, ToolNameDiff, diffToolDescription, s.handleDiff)
	registerTool(s, ToolNameStatus, statusToolDescription, s.handleStatus)
}

func registerTool[Input any](
	s *Server,
	name, description string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        name,
		Description: description,
	}, withMetrics(s.metrics, name, withTracing(s.tracer, name, handler)))

	s.trackTool(name)
}

// mcpSpanPrefix is the prefix for MCP tool span names.
const mcpSpanPrefix = "mcp."

// traceIDMetaKey is the metadata key for trace_id in MCP tool responses.
const traceIDMetaKey = "trace_id"

// withTracing wraps an MCP tool handler to create an OTel span per invocation
// and include trace_id in the response content when sampled.
func withTracing[Input any](
	tracer trace.Tracer,
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if tracer == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		ctx, span := tracer.Start(ctx, mcpSpanPrefix+toolName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", toolName)),
		)
		defer span.End()

		result, output, err := handler(ctx, req, input)

		// Include trace_id in response when span is sampled.
		sc := span.SpanContext()
		if sc.IsSampled() && result != nil {
			traceContent := &mcpsdk.TextContent{Text: fmt.Sprintf("%s=%s", traceIDMetaKey, sc.TraceID().String())}
			result.Content = append(result.Content, traceContent)
		}

		return result, output, err
	}
}

// withMetrics wraps an MCP tool handler to record RED metrics per invocation.
func withMetrics[Input any](
	metrics *observability.REDMetrics,
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if metrics == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		start := time.Now()

		decInflight := metrics.TrackInflight(ctx, mcpSpanPrefix+toolName)
		defer decInflight()

		result, output, err := handler(ctx, req, input)

		status := observability.StatusOK
		if err != nil || (result != nil && result.IsError) {
			status = observability.StatusError
		}

		metrics.RecordRequest(ctx, mcpSpanPrefix+toolName, status, time.Since(start))

		return result, output, err
	}
}

func (s *Server) trackTool(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = append(s.tools, name)
}

// Tool description constants.
const (
	queryToolDescription = "Evaluate a yq expression against a JSON, YAML, or TOML file. " +
		"Results larger than one page return a cursor for fetching subsequent pages."

	structureToolDescription = "Summarize the structure of a configuration file: keys, " +
		"types, and list shapes without values, for navigating large documents."

	convertToolDescription = "Convert a configuration file between JSON, YAML, and TOML, " +
		"optionally applying a yq expression before encoding."

	mergeToolDescription = "Deep-merge two configuration files. Overlay values win, maps " +
		"merge recursively, arrays replace wholesale. Output defaults to the base file's format."

	setToolDescription = "Set or delete a value at a key path, rewriting the file in place. " +
		"Values are JSON-encoded; the file is re-emitted by the engine, not byte-patched."

	diffToolDescription = "Compare two configuration files structurally. Both files are " +
		"canonicalized to JSON before diffing, so format and key order differences vanish."

	statusToolDescription = "Report the resolved query engine binary: path, version, " +
		"and whether it came from PATH, cache, bundle, download, or an explicit override."
)
