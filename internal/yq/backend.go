// Package yq builds and executes yq subprocess invocations with typed
// failure classification. It returns raw, undecoded stdout; decoding is the
// caller's responsibility.
package yq

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/confq/confq/internal/binary"
	"github.com/confq/confq/internal/formats"
)

const (
	// DefaultTimeout bounds query execution when the request does not set
	// its own.
	DefaultTimeout = 30 * time.Second

	// waitDelay is the grace period between context cancellation and the
	// forced close of the child's I/O pipes.
	waitDelay = 2 * time.Second
)

// ErrInvalidRequest reports a request with contradictory fields.
var ErrInvalidRequest = errors.New("invalid query request")

// Request describes one yq invocation. Caller-owned and immutable for the
// duration of the call.
type Request struct {
	// FilePath is the input file. Empty with NullInput set means no input.
	FilePath string

	// Expression is the yq expression to evaluate.
	Expression string

	// InputFormat is the format of the input file.
	InputFormat formats.Type

	// OutputFormat is the format yq encodes results into.
	OutputFormat formats.Type

	// InPlace rewrites FilePath instead of writing to stdout.
	InPlace bool

	// NullInput evaluates the expression without reading input, for
	// constructing new documents.
	NullInput bool

	// Timeout bounds the child's lifetime; zero uses DefaultTimeout.
	Timeout time.Duration
}

// Result is the raw outcome of a successful invocation.
type Result struct {
	// Stdout is the undecoded output.
	Stdout []byte

	// Stderr is whatever yq wrote to stderr (warnings on success).
	Stderr []byte

	// ExitCode is the child's exit status, always zero here; failures
	// surface as ExecError instead.
	ExitCode int
}

// BinaryResolver supplies the yq executable. Satisfied by
// *binary.Resolver.
type BinaryResolver interface {
	Resolve(ctx context.Context) (*binary.Resolved, error)
}

// Backend executes yq invocations. Invocations are independent; one child
// process per in-flight query, no shared mutable state.
type Backend struct {
	resolver BinaryResolver
	logger   *slog.Logger
}

// NewBackend builds a Backend. A nil logger discards diagnostics.
func NewBackend(resolver BinaryResolver, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Backend{resolver: resolver, logger: logger}
}

// Resolved exposes the backing binary for status reporting.
func (b *Backend) Resolved(ctx context.Context) (*binary.Resolved, error) {
	return b.resolver.Resolve(ctx)
}

// Execute runs one yq invocation and returns its raw output. Failures are
// returned as *ExecError with a classification kind; they are never
// retried here.
func (b *Backend) Execute(ctx context.Context, req Request) (*Result, error) {
	err := validateRequest(req)
	if err != nil {
		return nil, err
	}

	resolved, err := b.resolver.Resolve(ctx)
	if err != nil {
		return nil, newExecError(KindBinaryMissing, "", -1, err)
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Discrete argv elements only; expressions and paths containing shell
	// metacharacters must never reach a shell.
	args := buildArgs(req)

	cmd := exec.CommandContext(runCtx, resolved.Path, args...)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// The child gets its own process group so deadline expiry reaps it
	// and any descendants it spawned.
	setProcessGroup(cmd)

	cmd.Cancel = func() error {
		return killProcessGroup(cmd)
	}
	cmd.WaitDelay = waitDelay

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	b.logger.Debug("yq executed",
		"expression", req.Expression,
		"file", req.FilePath,
		"duration", elapsed,
		"error", runErr)

	if runErr == nil {
		return &Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes(), ExitCode: 0}, nil
	}

	if runCtx.Err() != nil && ctx.Err() == nil {
		return nil, newExecError(KindTimeout, stderr.String(), -1,
			fmt.Errorf("killed after %s", timeout))
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		stderrText := stderr.String()

		return nil, newExecError(classifyStderr(stderrText), stderrText, exitErr.ExitCode(), runErr)
	}

	return nil, newExecError(KindBinaryMissing, stderr.String(), -1, runErr)
}

// validateRequest rejects contradictory field combinations up front.
func validateRequest(req Request) error {
	if req.Expression == "" {
		return fmt.Errorf("%w: empty expression", ErrInvalidRequest)
	}

	if req.InPlace && req.FilePath == "" {
		return fmt.Errorf("%w: in-place requires a file path", ErrInvalidRequest)
	}

	if req.NullInput && req.FilePath != "" {
		return fmt.Errorf("%w: null input excludes a file path", ErrInvalidRequest)
	}

	if !req.NullInput && req.FilePath == "" {
		return fmt.Errorf("%w: missing file path", ErrInvalidRequest)
	}

	return nil
}

// buildArgs assembles the argument vector. Format flags precede the
// expression; the file path, when present, is always last.
func buildArgs(req Request) []string {
	args := make([]string, 0, 8)

	if !req.NullInput {
		args = append(args, "-p", string(req.InputFormat))
	}

	args = append(args, "-o", string(req.OutputFormat))

	if req.InPlace {
		args = append(args, "-i")
	}

	if req.NullInput {
		args = append(args, "-n")
	}

	args = append(args, req.Expression)

	if req.FilePath != "" {
		args = append(args, req.FilePath)
	}

	return args
}
