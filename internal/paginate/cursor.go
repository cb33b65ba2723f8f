// Package paginate slices serialized results into byte-bounded,
// cursor-addressed pages and produces structure summaries for navigation.
// It holds no state and is safe for concurrent use.
package paginate

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// cursorFormatVersion is bumped when the cursor wire shape changes;
// decoding rejects versions it does not understand.
const cursorFormatVersion = 1

var (
	// ErrInvalidCursor reports a malformed or out-of-range cursor.
	// The caller restarts pagination from offset zero.
	ErrInvalidCursor = errors.New("invalid cursor")

	// ErrStaleCursor reports a cursor minted against data whose size has
	// since changed. Resumption fails rather than returning a wrong page.
	ErrStaleCursor = errors.New("stale cursor")
)

// Cursor is a resumable position within a paginated result. Opaque at the
// boundary; EncodeCursor/DecodeCursor round-trip it exactly.
type Cursor struct {
	// Offset is the byte position to resume from.
	Offset int `json:"offset"`

	// TotalSize is the serialized size the cursor was minted against,
	// used to detect staleness on resume.
	TotalSize int `json:"total_size"`

	// FormatVersion is the cursor wire-format version.
	FormatVersion int `json:"v"`
}

// EncodeCursor renders c as an opaque base64 token.
func EncodeCursor(c Cursor) string {
	data, err := json.Marshal(c)
	if err != nil {
		// Cursor has no unmarshalable fields; this cannot happen.
		panic(err)
	}

	return base64.StdEncoding.EncodeToString(data)
}

// DecodeCursor parses an opaque token back into a Cursor, rejecting
// malformed input, unknown versions, and impossible positions.
func DecodeCursor(token string) (Cursor, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: %w", ErrInvalidCursor, err)
	}

	var c Cursor

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	err = dec.Decode(&c)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: %w", ErrInvalidCursor, err)
	}

	if c.FormatVersion != cursorFormatVersion {
		return Cursor{}, fmt.Errorf("%w: unsupported format version %d", ErrInvalidCursor, c.FormatVersion)
	}

	if c.Offset < 0 || c.TotalSize < 0 || c.Offset > c.TotalSize {
		return Cursor{}, fmt.Errorf("%w: offset %d outside [0, %d]", ErrInvalidCursor, c.Offset, c.TotalSize)
	}

	return c, nil
}
