package yq_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confq/confq/internal/binary"
	"github.com/confq/confq/internal/formats"
	"github.com/confq/confq/internal/yq"
)

// staticResolver hands out a fixed pre-resolved binary.
type staticResolver struct {
	resolved *binary.Resolved
	err      error
}

func (r staticResolver) Resolve(_ context.Context) (*binary.Resolved, error) {
	return r.resolved, r.err
}

// writeScript installs an executable shell script standing in for yq.
func writeScript(t *testing.T, body string) *yq.Backend {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("shell script fixtures require a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), "yq")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))

	resolver := staticResolver{resolved: &binary.Resolved{
		Path:    path,
		Version: binary.Version{Major: 4, Minor: 52, Patch: 2},
		Source:  binary.SourceSystem,
	}}

	return yq.NewBackend(resolver, nil)
}

func queryRequest(file string) yq.Request {
	return yq.Request{
		FilePath:     file,
		Expression:   ".name",
		InputFormat:  formats.YAML,
		OutputFormat: formats.JSON,
	}
}

func TestExecute_ReturnsRawStdout(t *testing.T) {
	t.Parallel()

	backend := writeScript(t, `printf '{"name":"svc"}\n'`)

	res, err := backend.Execute(context.Background(), queryRequest("/tmp/in.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "{\"name\":\"svc\"}\n", string(res.Stdout))
	assert.Zero(t, res.ExitCode)
}

func TestExecute_ArgumentVectorOrder(t *testing.T) {
	t.Parallel()

	// The script echoes one argument per line so the test can assert the
	// exact vector, including an expression full of shell metacharacters
	// arriving as a single element.
	backend := writeScript(t, `printf '%s\n' "$@"`)

	expr := `.items[] | select(.name == "a; rm -rf $HOME")`
	res, err := backend.Execute(context.Background(), yq.Request{
		FilePath:     "/tmp/with space.yaml",
		Expression:   expr,
		InputFormat:  formats.YAML,
		OutputFormat: formats.TOML,
	})
	require.NoError(t, err)

	want := "-p\nyaml\n-o\ntoml\n" + expr + "\n/tmp/with space.yaml\n"
	assert.Equal(t, want, string(res.Stdout))
}

func TestExecute_InPlaceAndNullInputFlags(t *testing.T) {
	t.Parallel()

	backend := writeScript(t, `printf '%s\n' "$@"`)

	res, err := backend.Execute(context.Background(), yq.Request{
		FilePath:     "/tmp/in.toml",
		Expression:   `.a = 1`,
		InputFormat:  formats.TOML,
		OutputFormat: formats.TOML,
		InPlace:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, "-p\ntoml\n-o\ntoml\n-i\n.a = 1\n/tmp/in.toml\n", string(res.Stdout))

	res, err = backend.Execute(context.Background(), yq.Request{
		Expression:   `{"fresh": true}`,
		OutputFormat: formats.JSON,
		NullInput:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, "-o\njson\n-n\n{\"fresh\": true}\n", string(res.Stdout))
}

func TestExecute_TimeoutKillsChild(t *testing.T) {
	t.Parallel()

	backend := writeScript(t, `sleep 30`)

	req := queryRequest("/tmp/in.yaml")
	req.Timeout = 50 * time.Millisecond

	start := time.Now()
	_, err := backend.Execute(context.Background(), req)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Equal(t, yq.KindTimeout, yq.KindOf(err))
	assert.Less(t, elapsed, 5*time.Second, "timeout must not wait for the child's natural exit")
}

func TestExecute_MalformedExpressionClassified(t *testing.T) {
	t.Parallel()

	backend := writeScript(t,
		`echo 'Error: bad expression, please check expression syntax' >&2; exit 1`)

	_, err := backend.Execute(context.Background(), queryRequest("/tmp/in.yaml"))
	require.Error(t, err)
	assert.Equal(t, yq.KindMalformedExpression, yq.KindOf(err))
}

func TestExecute_MissingFileStaysUnclassified(t *testing.T) {
	t.Parallel()

	backend := writeScript(t,
		`echo 'Error: open /tmp/absent.yaml: no such file or directory' >&2; exit 1`)

	_, err := backend.Execute(context.Background(), queryRequest("/tmp/absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, yq.KindNonZeroExit, yq.KindOf(err),
		"a valid expression against a missing file is not a malformed expression")
}

func TestExecute_UnsupportedFormatClassified(t *testing.T) {
	t.Parallel()

	backend := writeScript(t,
		`echo 'Error: only scalars (strings, numbers, booleans) are supported' >&2; exit 1`)

	_, err := backend.Execute(context.Background(), queryRequest("/tmp/in.toml"))
	require.Error(t, err)
	assert.Equal(t, yq.KindUnsupportedFormat, yq.KindOf(err))
}

func TestExecute_ExecErrorCarriesDiagnostics(t *testing.T) {
	t.Parallel()

	backend := writeScript(t, `echo 'Error: something broke' >&2; exit 3`)

	_, err := backend.Execute(context.Background(), queryRequest("/tmp/in.yaml"))
	require.Error(t, err)

	var execErr *yq.ExecError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, 3, execErr.ExitCode)
	assert.Contains(t, execErr.Stderr, "something broke")
	assert.Contains(t, execErr.Error(), "something broke")
}

func TestExecute_BinaryMissing(t *testing.T) {
	t.Parallel()

	backend := yq.NewBackend(staticResolver{err: binary.ErrBinaryMissing}, nil)

	_, err := backend.Execute(context.Background(), queryRequest("/tmp/in.yaml"))
	require.Error(t, err)
	assert.Equal(t, yq.KindBinaryMissing, yq.KindOf(err))
	assert.ErrorIs(t, err, binary.ErrBinaryMissing)
}

func TestExecute_InvalidRequests(t *testing.T) {
	t.Parallel()

	backend := yq.NewBackend(staticResolver{}, nil)

	tests := []struct {
		name string
		req  yq.Request
	}{
		{"empty expression", yq.Request{FilePath: "/tmp/a.yaml"}},
		{"in-place without file", yq.Request{Expression: ".a", InPlace: true, NullInput: true}},
		{"null input with file", yq.Request{Expression: ".a", FilePath: "/tmp/a.yaml", NullInput: true}},
		{"no input at all", yq.Request{Expression: ".a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := backend.Execute(context.Background(), tt.req)
			require.ErrorIs(t, err, yq.ErrInvalidRequest)
		})
	}
}
