package mcp_test

import (
	"context"
	"testing"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confq/confq/internal/binary"
	"github.com/confq/confq/internal/mcp"
	"github.com/confq/confq/internal/yq"
)

// stubBackend answers every query with a fixed payload.
type stubBackend struct {
	stdout string
}

func (s *stubBackend) Execute(_ context.Context, _ yq.Request) (*yq.Result, error) {
	return &yq.Result{Stdout: []byte(s.stdout)}, nil
}

func (s *stubBackend) Resolved(_ context.Context) (*binary.Resolved, error) {
	return &binary.Resolved{Path: "/bin/yq", Source: binary.SourceSystem}, nil
}

func TestNewServer_ReturnsNonNil(t *testing.T) {
	t.Parallel()

	srv := mcp.NewServer(mcp.ServerDeps{Backend: &stubBackend{}})
	require.NotNil(t, srv)
}

func TestNewServer_ToolsRegistered(t *testing.T) {
	t.Parallel()

	srv := mcp.NewServer(mcp.ServerDeps{Backend: &stubBackend{}})

	tools := srv.ListToolNames()
	assert.Len(t, tools, 7)
	assert.Contains(t, tools, "data_query")
	assert.Contains(t, tools, "data_structure")
	assert.Contains(t, tools, "data_convert")
	assert.Contains(t, tools, "data_merge")
	assert.Contains(t, tools, "data_set")
	assert.Contains(t, tools, "data_diff")
	assert.Contains(t, tools, "binary_status")
}

func TestServer_Run_CancelledContext(t *testing.T) {
	t.Parallel()

	srv := mcp.NewServer(mcp.ServerDeps{Backend: &stubBackend{}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := srv.Run(ctx)
	require.Error(t, err)
}

func TestMCPServer_InMemoryTransport_ToolsList(t *testing.T) {
	t.Parallel()

	srv := mcp.NewServer(mcp.ServerDeps{Backend: &stubBackend{}})

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	serverDone := make(chan error, 1)

	go func() {
		serverDone <- srv.RunWithTransport(ctx, serverTransport)
	}()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	defer func() {
		_ = session.Close()
	}()

	toolsResult, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	require.NotNil(t, toolsResult)

	toolNames := make([]string, 0, len(toolsResult.Tools))
	for _, tool := range toolsResult.Tools {
		toolNames = append(toolNames, tool.Name)
	}

	assert.Len(t, toolNames, 7)
	assert.Contains(t, toolNames, "data_query")
	assert.Contains(t, toolNames, "data_merge")
	assert.Contains(t, toolNames, "data_set")
	assert.Contains(t, toolNames, "binary_status")

	for _, tool := range toolsResult.Tools {
		assert.NotNil(t, tool.InputSchema, "tool %s missing input schema", tool.Name)
	}

	cancel()
	<-serverDone
}

func TestMCPServer_InMemoryTransport_CallQuery(t *testing.T) {
	t.Parallel()

	srv := mcp.NewServer(mcp.ServerDeps{Backend: &stubBackend{stdout: "\"8080\"\n"}})

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	serverDone := make(chan error, 1)

	go func() {
		serverDone <- srv.RunWithTransport(ctx, serverTransport)
	}()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	defer func() {
		_ = session.Close()
	}()

	result, err := session.CallTool(ctx, &mcpsdk.CallToolParams{
		Name: "data_query",
		Arguments: map[string]any{
			"file":       "app.yaml",
			"expression": ".port",
		},
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)
	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "8080")

	cancel()
	<-serverDone
}

func TestMCPServer_InMemoryTransport_CallQuery_Error(t *testing.T) {
	t.Parallel()

	srv := mcp.NewServer(mcp.ServerDeps{Backend: &stubBackend{}})

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	serverDone := make(chan error, 1)

	go func() {
		serverDone <- srv.RunWithTransport(ctx, serverTransport)
	}()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	defer func() {
		_ = session.Close()
	}()

	result, err := session.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      "data_query",
		Arguments: map[string]any{"file": ""},
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)

	cancel()
	<-serverDone
}
