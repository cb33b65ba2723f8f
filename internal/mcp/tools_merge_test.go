package mcp

import (
	"context"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confq/confq/internal/formats"
	"github.com/confq/confq/internal/yq"
)

// mergeBackend replays one response for the overlay evaluation and another
// for the merge itself, keyed on file path.
func mergeBackend(overlayFile, overlayJSON, merged string) *fakeBackend {
	return &fakeBackend{
		execFn: func(req yq.Request) (*yq.Result, error) {
			if req.FilePath == overlayFile {
				return &yq.Result{Stdout: []byte(overlayJSON)}, nil
			}

			return &yq.Result{Stdout: []byte(merged)}, nil
		},
	}
}

func TestHandleMerge_DeepMergesOverlay(t *testing.T) {
	t.Parallel()

	backend := mergeBackend("overlay.json", "{\"port\":9090}\n", "name: svc\nport: 9090\n")
	srv := newTestServer(t, backend)

	result, output, err := srv.handleMerge(context.Background(), &mcpsdk.CallToolRequest{}, MergeInput{
		FileA: "base.yaml",
		FileB: "overlay.json",
	})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	paged := pagedOutput(t, output)
	assert.Equal(t, "yaml", paged.Format)
	assert.Equal(t, "name: svc\nport: 9090\n", paged.Result)

	require.Len(t, backend.requests, 2)

	// The overlay is first evaluated to JSON for inlining.
	overlay := backend.requests[0]
	assert.Equal(t, "overlay.json", overlay.FilePath)
	assert.Equal(t, ".", overlay.Expression)
	assert.Equal(t, formats.JSON, overlay.InputFormat)
	assert.Equal(t, formats.JSON, overlay.OutputFormat)

	// The merge runs against the base file with the overlay inlined.
	merge := backend.requests[1]
	assert.Equal(t, "base.yaml", merge.FilePath)
	assert.Equal(t, `. * {"port":9090}`, merge.Expression)
	assert.Equal(t, formats.YAML, merge.InputFormat)
	assert.Equal(t, formats.YAML, merge.OutputFormat)
}

func TestHandleMerge_EmptyOverlayIsIdentity(t *testing.T) {
	t.Parallel()

	backend := mergeBackend("empty.yaml", "null\n", "{\n  \"port\": 8080\n}\n")
	srv := newTestServer(t, backend)

	_, output, err := srv.handleMerge(context.Background(), &mcpsdk.CallToolRequest{}, MergeInput{
		FileA: "base.json",
		FileB: "empty.yaml",
	})
	require.NoError(t, err)

	paged := pagedOutput(t, output)
	assert.Equal(t, "json", paged.Format)

	require.Len(t, backend.requests, 2)
	assert.Equal(t, ". * {}", backend.requests[1].Expression)
}

func TestHandleMerge_ExplicitOutputFormat(t *testing.T) {
	t.Parallel()

	backend := mergeBackend("overlay.yaml", "{\"a\":1}\n", "a = 1\n")
	srv := newTestServer(t, backend)

	_, output, err := srv.handleMerge(context.Background(), &mcpsdk.CallToolRequest{}, MergeInput{
		FileA:        "base.json",
		FileB:        "overlay.yaml",
		OutputFormat: "toml",
	})
	require.NoError(t, err)

	paged := pagedOutput(t, output)
	assert.Equal(t, "toml", paged.Format)

	require.Len(t, backend.requests, 2)
	assert.Equal(t, formats.TOML, backend.requests[1].OutputFormat)
}

func TestHandleMerge_MissingFile(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, staticBackend(""))

	result, _, err := srv.handleMerge(context.Background(), &mcpsdk.CallToolRequest{}, MergeInput{
		FileA: "base.yaml",
	})
	require.NoError(t, err)
	assert.Contains(t, errorText(t, result), "file parameter")
}

func TestHandleMerge_DisabledOverlayFormat(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, staticBackend(""), "json", "yaml")

	result, _, err := srv.handleMerge(context.Background(), &mcpsdk.CallToolRequest{}, MergeInput{
		FileA: "base.yaml",
		FileB: "overlay.toml",
	})
	require.NoError(t, err)
	assert.Contains(t, errorText(t, result), "format disabled")
}
