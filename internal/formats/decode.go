package formats

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrNoDecoder reports a format confq executes queries against but cannot
// decode into generic values (currently XML).
var ErrNoDecoder = errors.New("no decoder for format")

// Decode parses raw backend output into generic Go values (maps, slices,
// scalars) for structure summarization. It is a boundary decode only; the
// format-preserving read/write path stays inside yq.
func Decode(data []byte, t Type) (any, error) {
	var v any

	switch t {
	case JSON:
		err := json.Unmarshal(data, &v)
		if err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	case YAML:
		err := yaml.Unmarshal(data, &v)
		if err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case TOML:
		err := toml.Unmarshal(data, &v)
		if err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrNoDecoder, t)
	}

	return v, nil
}
