package paginate

import (
	"fmt"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
)

const (
	// DefaultPageSize is the page budget in bytes when the caller does not
	// set one, sized for token-constrained callers.
	DefaultPageSize = 10000

	// advisoryPageThreshold is the page count above which a page carries
	// advisory text steering the caller toward narrower queries.
	advisoryPageThreshold = 2
)

// PageResult is one byte-bounded slice of a serialized result.
type PageResult struct {
	// Chunk is the page content.
	Chunk []byte

	// NextCursor resumes after this page; nil on the last page.
	NextCursor *Cursor

	// IsLast reports whether this page exhausts the data.
	IsLast bool

	// TotalSize is the full serialized size in bytes.
	TotalSize int

	// Advisory is non-empty when the result spans enough pages that the
	// caller should consider narrowing the query instead of paging on.
	Advisory string
}

// Page slices data at the cursor position, bounded by pageSize bytes.
// A nil cursor starts from offset zero. The split point backs up to the
// nearest UTF-8 rune boundary so no page ends mid-character. Serialization
// happens once per call upstream; no state is kept across calls.
func Page(data []byte, cursor *Cursor, pageSize int) (PageResult, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	total := len(data)
	offset := 0

	if cursor != nil {
		if cursor.TotalSize != total {
			return PageResult{}, fmt.Errorf("%w: minted for %d bytes, data is now %d bytes",
				ErrStaleCursor, cursor.TotalSize, total)
		}

		if cursor.Offset < 0 || cursor.Offset > total {
			return PageResult{}, fmt.Errorf("%w: offset %d outside [0, %d]",
				ErrInvalidCursor, cursor.Offset, total)
		}

		offset = cursor.Offset
	}

	end := offset + pageSize
	if end >= total {
		end = total
	} else {
		// Never cut mid-character: back the split point up to the nearest
		// rune start. A pageSize smaller than one rune degenerates to a
		// forced split, which only malformed input can produce.
		for end > offset && !utf8.RuneStart(data[end]) {
			end--
		}

		if end == offset {
			end = offset + pageSize
		}
	}

	result := PageResult{
		Chunk:     data[offset:end],
		IsLast:    end >= total,
		TotalSize: total,
	}

	if !result.IsLast {
		result.NextCursor = &Cursor{
			Offset:        end,
			TotalSize:     total,
			FormatVersion: cursorFormatVersion,
		}
		result.Advisory = advisory(total, pageSize)
	}

	return result, nil
}

// advisory builds steering text for results spanning many pages.
func advisory(total, pageSize int) string {
	pages := (total + pageSize - 1) / pageSize
	if pages <= advisoryPageThreshold {
		return ""
	}

	return fmt.Sprintf(
		"Result spans %d pages (%s). Consider querying for specific keys "+
			"(e.g. '.data | keys') or counts (e.g. '.items | length') to reduce result size.",
		pages, humanize.Bytes(uint64(total)))
}
