package yq

import "strings"

// Diagnostic substrings below are tied to the pinned yq release
// (internal/binary.DefaultPinnedVersion). Revisit this table whenever the
// pin moves; unmatched diagnostics fall into KindNonZeroExit rather than
// being guessed at.

// malformedExpressionMarkers match yq's expression parser diagnostics,
// e.g. `Error: bad expression, please check expression syntax` or
// `Error: 1:3: invalid input text "..."`.
var malformedExpressionMarkers = []string{
	"bad expression",
	"invalid input text",
	"parsing expression",
	"invalid expression",
}

// unsupportedFormatMarkers match encoder-capability diagnostics, e.g. the
// TOML encoder's `only scalars (strings, numbers, booleans) are supported`
// for non-scalar output.
var unsupportedFormatMarkers = []string{
	"only scalars",
	"unrecognised format",
	"unknown format",
}

// classifyStderr maps a nonzero-exit stderr to a failure kind.
// KindNonZeroExit is the explicit unclassified bucket.
func classifyStderr(stderr string) Kind {
	lowered := strings.ToLower(stderr)

	for _, marker := range malformedExpressionMarkers {
		if strings.Contains(lowered, marker) {
			return KindMalformedExpression
		}
	}

	for _, marker := range unsupportedFormatMarkers {
		if strings.Contains(lowered, marker) {
			return KindUnsupportedFormat
		}
	}

	return KindNonZeroExit
}
