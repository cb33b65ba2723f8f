package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/confq/confq/internal/platform"
)

// StatusOutput is the structured payload of the binary_status tool.
type StatusOutput struct {
	Path     string            `json:"path"`
	Version  string            `json:"version"`
	Source   string            `json:"source"`
	Platform string            `json:"platform"`
	Host     platform.HostInfo `json:"host"`
	Formats  string            `json:"enabled_formats"`
}

// handleStatus processes binary_status tool calls. Resolution runs on the
// same single-flight path queries use, so a first call may trigger a
// download.
func (s *Server) handleStatus(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	_ StatusInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	resolved, err := s.backend.Resolved(ctx)
	if err != nil {
		return errorResult(err)
	}

	platformKey := ""

	desc, descErr := platform.Resolve()
	if descErr == nil {
		platformKey = desc.Key()
	}

	return jsonResult(StatusOutput{
		Path:     resolved.Path,
		Version:  resolved.Version.String(),
		Source:   string(resolved.Source),
		Platform: platformKey,
		Host:     platform.DescribeHost(ctx),
		Formats:  s.formats.String(),
	})
}
