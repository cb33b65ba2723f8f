// Package formats enumerates the structured-data formats confq handles,
// detects a file's format from its extension, and gates operation against
// the configured enabled set.
package formats

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Type identifies a data format. Values double as yq's -p/-o flag values.
type Type string

const (
	// JSON is JavaScript Object Notation.
	JSON Type = "json"

	// YAML is YAML Ain't Markup Language.
	YAML Type = "yaml"

	// TOML is Tom's Obvious Minimal Language.
	TOML Type = "toml"

	// XML is Extensible Markup Language.
	XML Type = "xml"
)

var (
	// ErrUnknownFormat reports a name outside the supported set.
	ErrUnknownFormat = errors.New("unknown format")

	// ErrFormatDisabled reports a format excluded by configuration.
	ErrFormatDisabled = errors.New("format disabled")

	// ErrUndetectable reports a file extension no format claims.
	ErrUndetectable = errors.New("cannot detect format from extension")
)

// all enumerates every supported format.
var all = []Type{JSON, YAML, TOML, XML}

// extensions maps file extensions to formats.
var extensions = map[string]Type{
	".json": JSON,
	".yaml": YAML,
	".yml":  YAML,
	".toml": TOML,
	".xml":  XML,
}

// Parse validates a format name, case-insensitively.
func Parse(name string) (Type, error) {
	normalized := Type(strings.ToLower(strings.TrimSpace(name)))

	for _, t := range all {
		if t == normalized {
			return t, nil
		}
	}

	return "", fmt.Errorf("%w: %q (valid: %s)", ErrUnknownFormat, name, joinAll())
}

// DetectFile infers a file's format from its extension.
func DetectFile(path string) (Type, error) {
	ext := strings.ToLower(filepath.Ext(path))

	t, ok := extensions[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUndetectable, path)
	}

	return t, nil
}

// All returns every supported format.
func All() []Type {
	out := make([]Type, len(all))
	copy(out, all)

	return out
}

// Defaults returns the formats enabled when configuration is silent.
// XML is opt-in; it needs yq's XML module quirks explained to callers.
func Defaults() []Type {
	return []Type{JSON, YAML, TOML}
}

func joinAll() string {
	names := make([]string, len(all))
	for i, t := range all {
		names[i] = string(t)
	}

	return strings.Join(names, ", ")
}

// Enabled is the configured set of usable formats.
type Enabled struct {
	ordered []Type
	members map[Type]bool
}

// NewEnabled builds an enabled set from configured names. An empty list
// uses the defaults; unknown names are rejected.
func NewEnabled(names []string) (Enabled, error) {
	if len(names) == 0 {
		return enabledFrom(Defaults()), nil
	}

	types := make([]Type, 0, len(names))

	for _, name := range names {
		t, err := Parse(name)
		if err != nil {
			return Enabled{}, err
		}

		types = append(types, t)
	}

	return enabledFrom(types), nil
}

// DefaultEnabled returns the default enabled set.
func DefaultEnabled() Enabled {
	return enabledFrom(Defaults())
}

func enabledFrom(types []Type) Enabled {
	members := make(map[Type]bool, len(types))
	ordered := make([]Type, 0, len(types))

	for _, t := range types {
		if members[t] {
			continue
		}

		members[t] = true
		ordered = append(ordered, t)
	}

	return Enabled{ordered: ordered, members: members}
}

// Contains reports whether t is enabled.
func (e Enabled) Contains(t Type) bool {
	return e.members[t]
}

// Require returns ErrFormatDisabled when t is not enabled, naming the
// enabled set in the message.
func (e Enabled) Require(t Type) error {
	if e.Contains(t) {
		return nil
	}

	return fmt.Errorf("%w: %s (enabled: %s)", ErrFormatDisabled, t, e.String())
}

// Empty reports whether no formats are enabled, i.e. the zero value.
func (e Enabled) Empty() bool {
	return len(e.ordered) == 0
}

// String renders the enabled formats as a comma-separated list.
func (e Enabled) String() string {
	names := make([]string, len(e.ordered))
	for i, t := range e.ordered {
		names[i] = string(t)
	}

	return strings.Join(names, ",")
}
