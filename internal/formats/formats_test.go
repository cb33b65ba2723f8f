package formats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confq/confq/internal/formats"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    formats.Type
		wantErr bool
	}{
		{"json", "json", formats.JSON, false},
		{"uppercase", "YAML", formats.YAML, false},
		{"padded", " toml ", formats.TOML, false},
		{"xml", "xml", formats.XML, false},
		{"unknown", "ini", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := formats.Parse(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, formats.ErrUnknownFormat)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		path    string
		want    formats.Type
		wantErr bool
	}{
		{"json", "config.json", formats.JSON, false},
		{"yaml", "deploy.yaml", formats.YAML, false},
		{"yml", "ci.yml", formats.YAML, false},
		{"toml", "Cargo.toml", formats.TOML, false},
		{"xml", "pom.xml", formats.XML, false},
		{"case insensitive", "CONFIG.JSON", formats.JSON, false},
		{"nested path", "/etc/app/settings.yaml", formats.YAML, false},
		{"no extension", "Makefile", "", true},
		{"unknown extension", "notes.txt", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := formats.DetectFile(tt.path)
			if tt.wantErr {
				require.ErrorIs(t, err, formats.ErrUndetectable)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewEnabled_DefaultsWhenEmpty(t *testing.T) {
	t.Parallel()

	e, err := formats.NewEnabled(nil)
	require.NoError(t, err)

	assert.True(t, e.Contains(formats.JSON))
	assert.True(t, e.Contains(formats.YAML))
	assert.True(t, e.Contains(formats.TOML))
	assert.False(t, e.Contains(formats.XML), "xml is opt-in")
	assert.Equal(t, "json,yaml,toml", e.String())
}

func TestNewEnabled_ExplicitList(t *testing.T) {
	t.Parallel()

	e, err := formats.NewEnabled([]string{"json", "YAML", "json"})
	require.NoError(t, err)

	assert.Equal(t, "json,yaml", e.String(), "duplicates collapse, order preserved")
	assert.NoError(t, e.Require(formats.JSON))
	assert.ErrorIs(t, e.Require(formats.TOML), formats.ErrFormatDisabled)
}

func TestNewEnabled_UnknownName(t *testing.T) {
	t.Parallel()

	_, err := formats.NewEnabled([]string{"json", "csv"})
	require.ErrorIs(t, err, formats.ErrUnknownFormat)
}

func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		format formats.Type
		data   string
	}{
		{"json object", formats.JSON, `{"name":"svc","replicas":3}`},
		{"yaml mapping", formats.YAML, "name: svc\nreplicas: 3\n"},
		{"toml table", formats.TOML, "name = \"svc\"\nreplicas = 3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v, err := formats.Decode([]byte(tt.data), tt.format)
			require.NoError(t, err)
			require.NotNil(t, v)

			m, ok := v.(map[string]any)
			require.True(t, ok, "expected a map, got %T", v)
			assert.Contains(t, m, "name")
			assert.Contains(t, m, "replicas")
		})
	}
}

func TestDecode_XMLUnsupported(t *testing.T) {
	t.Parallel()

	_, err := formats.Decode([]byte("<a/>"), formats.XML)
	require.ErrorIs(t, err, formats.ErrNoDecoder)
}

func TestDecode_Malformed(t *testing.T) {
	t.Parallel()

	_, err := formats.Decode([]byte("{not json"), formats.JSON)
	require.Error(t, err)
}
