package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool name constants.
const (
	ToolNameQuery     = "data_query"
	ToolNameStructure = "data_structure"
	ToolNameConvert   = "data_convert"
	ToolNameMerge     = "data_merge"
	ToolNameSet       = "data_set"
	ToolNameDiff      = "data_diff"
	ToolNameStatus    = "binary_status"
)

// Sentinel errors for tool input validation.
var (
	// ErrEmptyFile indicates the file parameter is empty.
	ErrEmptyFile = errors.New("file parameter is required and must not be empty")

	// ErrEmptyTarget indicates the to parameter of a conversion is empty.
	ErrEmptyTarget = errors.New("to parameter is required and must not be empty")

	// ErrEmptyPath indicates the path parameter of a mutation is empty.
	ErrEmptyPath = errors.New("path parameter is required and must not be empty")

	// ErrEmptyValue indicates a set call without a value.
	ErrEmptyValue = errors.New("value parameter is required unless delete is set")

	// ErrInvalidValue indicates a set value that is not valid JSON.
	ErrInvalidValue = errors.New("value parameter must be a JSON-encoded scalar, array, or object")
)

// Input types (auto-generate JSON schemas via struct tags).

// QueryInput is the input schema for the data_query tool.
type QueryInput struct {
	File         string `json:"file"                    jsonschema:"path to a JSON YAML or TOML file"`
	Expression   string `json:"expression,omitempty"    jsonschema:"yq expression to evaluate (default: .)"`
	InputFormat  string `json:"input_format,omitempty"  jsonschema:"input format override; detected from extension when empty"`
	OutputFormat string `json:"output_format,omitempty" jsonschema:"output format; defaults to the input format"`
	Cursor       string `json:"cursor,omitempty"        jsonschema:"opaque pagination cursor from a previous page"`
	PageSize     int    `json:"page_size,omitempty"     jsonschema:"page budget in bytes (default: 10000)"`
}

// StructureInput is the input schema for the data_structure tool.
type StructureInput struct {
	File        string `json:"file"                   jsonschema:"path to a JSON YAML or TOML file"`
	Expression  string `json:"expression,omitempty"   jsonschema:"yq expression selecting the subtree to summarize (default: .)"`
	InputFormat string `json:"input_format,omitempty" jsonschema:"input format override; detected from extension when empty"`
	MaxDepth    int    `json:"max_depth,omitempty"    jsonschema:"summary depth before collapsing to key listings (default: 1)"`
	FullKeys    bool   `json:"full_keys,omitempty"    jsonschema:"recursively list every key with types only"`
}

// ConvertInput is the input schema for the data_convert tool.
type ConvertInput struct {
	File       string `json:"file"                 jsonschema:"path to a JSON YAML or TOML file"`
	To         string `json:"to"                   jsonschema:"target format (json yaml or toml)"`
	From       string `json:"from,omitempty"       jsonschema:"input format override; detected from extension when empty"`
	Expression string `json:"expression,omitempty" jsonschema:"yq expression applied before encoding (default: .)"`
	Cursor     string `json:"cursor,omitempty"     jsonschema:"opaque pagination cursor from a previous page"`
	PageSize   int    `json:"page_size,omitempty"  jsonschema:"page budget in bytes (default: 10000)"`
}

// MergeInput is the input schema for the data_merge tool.
type MergeInput struct {
	FileA        string `json:"file_a"                  jsonschema:"path to the base file"`
	FileB        string `json:"file_b"                  jsonschema:"path to the overlay file whose values win"`
	FormatA      string `json:"format_a,omitempty"      jsonschema:"base file format override; detected from extension when empty"`
	FormatB      string `json:"format_b,omitempty"      jsonschema:"overlay file format override; detected from extension when empty"`
	OutputFormat string `json:"output_format,omitempty" jsonschema:"output format; defaults to the base file's format"`
	Cursor       string `json:"cursor,omitempty"        jsonschema:"opaque pagination cursor from a previous page"`
	PageSize     int    `json:"page_size,omitempty"     jsonschema:"page budget in bytes (default: 10000)"`
}

// SetInput is the input schema for the data_set tool.
type SetInput struct {
	File        string `json:"file"                   jsonschema:"path to a JSON YAML or TOML file to rewrite in place"`
	Path        string `json:"path"                   jsonschema:"dot-separated key path, e.g. server.port or .users[0].name"`
	Value       string `json:"value,omitempty"        jsonschema:"JSON-encoded replacement value; required unless delete is set"`
	Delete      bool   `json:"delete,omitempty"       jsonschema:"remove the key at path instead of assigning it"`
	InputFormat string `json:"input_format,omitempty" jsonschema:"file format override; detected from extension when empty"`
}

// DiffInput is the input schema for the data_diff tool.
type DiffInput struct {
	FileA   string `json:"file_a"             jsonschema:"path to the left-hand file"`
	FileB   string `json:"file_b"             jsonschema:"path to the right-hand file"`
	FormatA string `json:"format_a,omitempty" jsonschema:"left file format override; detected from extension when empty"`
	FormatB string `json:"format_b,omitempty" jsonschema:"right file format override; detected from extension when empty"`
}

// StatusInput is the input schema for the binary_status tool. It takes no
// parameters.
type StatusInput struct{}

// Output type (used as structured output for generic AddTool).

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// PagedOutput is the structured payload for tools that page their results.
type PagedOutput struct {
	Result     string `json:"result"`
	Format     string `json:"format"`
	TotalSize  int    `json:"total_size"`
	IsLast     bool   `json:"is_last"`
	NextCursor string `json:"next_cursor,omitempty"`
	Advisory   string `json:"advisory,omitempty"`
	Note       string `json:"note,omitempty"`
}

// Result helpers.

// errorResult builds a CallToolResult with isError set. Protocol-level
// errors stay nil; the failure travels in the result payload.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}
