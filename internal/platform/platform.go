// Package platform maps the host OS and CPU architecture to the yq release
// artifact expected for it. Resolution is table-driven: only combinations
// with a published, checksum-pinned yq build are supported, and there is no
// fallback below the OS/arch level.
package platform

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrUnsupportedPlatform reports an OS/arch combination with no published
// yq build. It is fatal and never retried.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// Descriptor is the static metadata for one supported platform.
// Instances come from the package-level table and are never mutated.
type Descriptor struct {
	// OS is the GOOS value ("linux", "darwin", "windows").
	OS string

	// Arch is the GOARCH value ("amd64", "arm64").
	Arch string

	// AssetName is the GitHub release asset name (e.g. "yq_linux_amd64").
	AssetName string

	// Filename is the installed binary filename (e.g. "yq" or "yq.exe").
	Filename string
}

// downloadURLTemplate builds release asset URLs. Placeholders: version tag,
// asset name.
const downloadURLTemplate = "https://github.com/mikefarah/yq/releases/download/%s/%s"

// descriptors enumerates every supported (os, arch) pair. The set mirrors
// the platforms with pinned checksums; extending it requires a new
// ChecksumRecord as well.
var descriptors = []Descriptor{
	{OS: "linux", Arch: "amd64", AssetName: "yq_linux_amd64", Filename: "yq"},
	{OS: "linux", Arch: "arm64", AssetName: "yq_linux_arm64", Filename: "yq"},
	{OS: "darwin", Arch: "amd64", AssetName: "yq_darwin_amd64", Filename: "yq"},
	{OS: "darwin", Arch: "arm64", AssetName: "yq_darwin_arm64", Filename: "yq"},
	{OS: "windows", Arch: "amd64", AssetName: "yq_windows_amd64.exe", Filename: "yq.exe"},
}

// Resolve returns the descriptor for the host platform.
func Resolve() (Descriptor, error) {
	return ResolveFor(runtime.GOOS, runtime.GOARCH)
}

// ResolveFor returns the descriptor for an explicit (os, arch) pair.
// Split out from Resolve so tests can exercise every table entry regardless
// of the host.
func ResolveFor(goos, goarch string) (Descriptor, error) {
	for _, d := range descriptors {
		if d.OS == goos && d.Arch == goarch {
			return d, nil
		}
	}

	return Descriptor{}, fmt.Errorf("%w: %s/%s", ErrUnsupportedPlatform, goos, goarch)
}

// Supported returns a copy of the full descriptor table.
func Supported() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors)

	return out
}

// Key returns the cache-directory key for this platform (e.g. "linux_amd64").
func (d Descriptor) Key() string {
	return d.OS + "_" + d.Arch
}

// DownloadURL builds the release asset URL for the given version tag.
func (d Descriptor) DownloadURL(version string) string {
	return fmt.Sprintf(downloadURLTemplate, version, d.AssetName)
}
