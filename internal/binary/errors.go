package binary

import "errors"

var (
	// ErrVersionParse reports --version output with no recognizable dotted
	// version token. Callers treat the candidate as unusable, never as
	// "newest".
	ErrVersionParse = errors.New("no version token found")

	// ErrChecksumMismatch reports a downloaded artifact whose SHA-256 does
	// not match the pinned record. The artifact is deleted before this is
	// returned; an unverified binary is never installed.
	ErrChecksumMismatch = errors.New("checksum verification failed")

	// ErrNoChecksumRecord reports a (version, platform) pair with no pinned
	// checksum. Downloads without a record are refused.
	ErrNoChecksumRecord = errors.New("no pinned checksum for version/platform")

	// ErrFetch reports download failure after the bounded retry budget is
	// exhausted. It wraps the last underlying cause.
	ErrFetch = errors.New("binary download failed")

	// ErrBinaryMissing reports that no usable binary could be resolved.
	// In offline mode it is returned without attempting a download.
	ErrBinaryMissing = errors.New("yq binary not found")
)
