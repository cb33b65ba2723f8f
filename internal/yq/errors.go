package yq

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an execution failure for the caller's retry/surface
// decision. Classification never triggers automatic retries here; the one
// documented fallback (TOML encode failure) lives with the caller.
type Kind string

const (
	// KindBinaryMissing means no usable yq binary could be resolved.
	KindBinaryMissing Kind = "binary_missing"

	// KindTimeout means the child was killed on deadline expiry.
	KindTimeout Kind = "timeout"

	// KindNonZeroExit is the explicit unclassified bucket for nonzero
	// exits whose stderr matched no known diagnostic.
	KindNonZeroExit Kind = "nonzero_exit"

	// KindMalformedExpression means stderr matched an expression-parse
	// diagnostic.
	KindMalformedExpression Kind = "malformed_expression"

	// KindUnsupportedFormat means stderr matched an encoder-capability
	// diagnostic (e.g. TOML output of non-scalar values).
	KindUnsupportedFormat Kind = "unsupported_format"
)

// stderrExcerptLimit bounds the stderr carried inside an ExecError.
const stderrExcerptLimit = 2048

// ExecError is a classified execution failure. It always carries the kind
// plus the underlying diagnostic; nothing collapses into a generic
// "operation failed".
type ExecError struct {
	Kind     Kind
	Stderr   string
	ExitCode int
	Err      error
}

// Error renders the kind and the most useful diagnostic line.
func (e *ExecError) Error() string {
	msg := firstDiagnosticLine(e.Stderr)

	switch {
	case msg != "" && e.Err != nil:
		return fmt.Sprintf("yq %s: %s: %v", e.Kind, msg, e.Err)
	case msg != "":
		return fmt.Sprintf("yq %s: %s", e.Kind, msg)
	case e.Err != nil:
		return fmt.Sprintf("yq %s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("yq %s (exit %d)", e.Kind, e.ExitCode)
	}
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *ExecError) Unwrap() error {
	return e.Err
}

// KindOf extracts the classification from err, or "" when err is not an
// ExecError.
func KindOf(err error) Kind {
	var execErr *ExecError
	if errors.As(err, &execErr) {
		return execErr.Kind
	}

	return ""
}

// firstDiagnosticLine returns the first non-empty stderr line with yq's
// "Error: " prefix stripped.
func firstDiagnosticLine(stderr string) string {
	for line := range strings.Lines(stderr) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		return strings.TrimPrefix(line, "Error: ")
	}

	return ""
}

// newExecError builds an ExecError with stderr truncated to the excerpt
// limit.
func newExecError(kind Kind, stderr string, exitCode int, err error) *ExecError {
	if len(stderr) > stderrExcerptLimit {
		stderr = stderr[:stderrExcerptLimit]
	}

	return &ExecError{Kind: kind, Stderr: stderr, ExitCode: exitCode, Err: err}
}
