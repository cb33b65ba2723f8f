package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confq/confq/internal/config"
	"github.com/confq/confq/internal/formats"
)

func TestNewMCPCommand_Flags(t *testing.T) {
	t.Parallel()

	configPath := ""
	cmd := NewMCPCommand(&configPath)

	require.NotNil(t, cmd)
	assert.Equal(t, "mcp", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("debug"))
}

func TestNewQueryCommand_ArgValidation(t *testing.T) {
	t.Parallel()

	configPath := ""
	cmd := NewQueryCommand(&configPath)

	require.NotNil(t, cmd)
	assert.Error(t, cmd.Args(cmd, []string{"only-file"}))
	assert.NoError(t, cmd.Args(cmd, []string{"file.yaml", ".key"}))
	assert.NotNil(t, cmd.Flags().Lookup("format"))
	assert.NotNil(t, cmd.Flags().Lookup("output"))
}

func TestNewStatusCommand(t *testing.T) {
	t.Parallel()

	configPath := ""
	cmd := NewStatusCommand(&configPath)

	require.NotNil(t, cmd)
	assert.Equal(t, "status", cmd.Use)
}

func TestDetectFormat(t *testing.T) {
	t.Parallel()

	enabled, err := formats.NewEnabled(nil)
	require.NoError(t, err)

	got, err := detectFormat("app.yaml", "", enabled)
	require.NoError(t, err)
	assert.Equal(t, formats.YAML, got)

	got, err = detectFormat("app.yaml", "json", enabled)
	require.NoError(t, err)
	assert.Equal(t, formats.JSON, got)

	_, err = detectFormat("app.conf", "", enabled)
	require.ErrorIs(t, err, formats.ErrUndetectable)

	jsonOnly, err := formats.NewEnabled([]string{"json"})
	require.NoError(t, err)

	_, err = detectFormat("app.yaml", "", jsonOnly)
	require.ErrorIs(t, err, formats.ErrFormatDisabled)
}

func TestBuildBackend_FromDefaults(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		CacheRoot:     t.TempDir(),
		PageSize:      config.DefaultPageSize,
		QueryTimeout:  config.DefaultQueryTimeout,
		FetchMaxTries: config.DefaultFetchMaxTries,
	}

	backend, err := buildBackend(cfg, nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, backend)
}

func TestBuildBackend_BadPinRejected(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		CacheRoot:     t.TempDir(),
		PinnedVersion: "not-a-version",
		PageSize:      config.DefaultPageSize,
		QueryTimeout:  config.DefaultQueryTimeout,
		FetchMaxTries: config.DefaultFetchMaxTries,
	}

	_, err := buildBackend(cfg, nil, nil)
	require.Error(t, err)
}
