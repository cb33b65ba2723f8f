package paginate

import "fmt"

const (
	// defaultSummaryDepth is how deep Summarize descends before collapsing
	// to key listings.
	defaultSummaryDepth = 1

	// maxPrimitiveDisplay truncates primitive values longer than this in
	// summaries.
	maxPrimitiveDisplay = 100
)

// SummaryOptions controls structure summarization.
type SummaryOptions struct {
	// MaxDepth bounds recursion; zero uses the default. Ignored when
	// FullKeys is set.
	MaxDepth int

	// FullKeys recursively lists every key with type names only,
	// ignoring MaxDepth, for complete navigation maps.
	FullKeys bool
}

// Summarize returns the shape of v — keys, indices, and types, no values —
// so a caller can navigate a large document before committing to a full
// fetch.
func Summarize(v any, opts SummaryOptions) any {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = defaultSummaryDepth
	}

	return summarize(v, 0, maxDepth, opts.FullKeys)
}

func summarize(v any, depth, maxDepth int, fullKeys bool) any {
	if !fullKeys && depth > maxDepth {
		return depthExceeded(v)
	}

	switch val := asGeneric(v).(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = summarize(child, depth+1, maxDepth, fullKeys)
		}

		return out
	case []any:
		return summarizeList(val, depth, maxDepth, fullKeys)
	default:
		return summarizePrimitive(val, fullKeys)
	}
}

// summarizeList shows a representative structure (full-keys mode) or a
// count plus a first-item sample.
func summarizeList(list []any, depth, maxDepth int, fullKeys bool) any {
	if len(list) == 0 {
		return []any{}
	}

	if fullKeys {
		first := asGeneric(list[0])
		switch first.(type) {
		case map[string]any, []any:
			return []any{summarize(first, depth+1, maxDepth, fullKeys)}
		default:
			return []any{typeName(first)}
		}
	}

	return map[string]any{
		"__summary__":       fmt.Sprintf("<list with %d items>", len(list)),
		"first_item_sample": summarize(list[0], depth+1, maxDepth, fullKeys),
	}
}

// depthExceeded still lists map keys recursively so navigation never dead
// ends, but collapses lists and primitives.
func depthExceeded(v any) any {
	switch val := asGeneric(v).(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = depthExceeded(child)
		}

		return out
	case []any:
		return fmt.Sprintf("<list with %d items>", len(val))
	default:
		return typeName(val)
	}
}

func summarizePrimitive(v any, fullKeys bool) any {
	if fullKeys {
		return typeName(v)
	}

	s := fmt.Sprintf("%v", v)
	if len(s) > maxPrimitiveDisplay {
		return s[:maxPrimitiveDisplay-3] + "..."
	}

	return s
}

// asGeneric normalizes decoder-specific container types. yaml.v3 produces
// map[string]any for string-keyed mappings but map[any]any otherwise.
func asGeneric(v any) any {
	m, ok := v.(map[any]any)
	if !ok {
		return v
	}

	out := make(map[string]any, len(m))
	for k, child := range m {
		out[fmt.Sprintf("%v", k)] = child
	}

	return out
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case string:
		return "string"
	case int, int64, uint64, float32, float64:
		return "number"
	case map[string]any, map[any]any:
		return "object"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}
