package platform

import (
	"context"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/host"
)

// HostInfo describes the running host for the status command and the
// startup log. Distro fields are populated on Linux only.
type HostInfo struct {
	OS            string
	Arch          string
	Distro        string
	DistroVersion string
}

// DescribeHost collects host details. Distro detection failures are not
// errors; basic OS/arch information is always available.
func DescribeHost(ctx context.Context) HostInfo {
	info := HostInfo{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}

	if runtime.GOOS != "linux" {
		return info
	}

	distro, _, version, err := host.PlatformInformationWithContext(ctx)
	if err != nil {
		return info
	}

	info.Distro = strings.ToLower(strings.TrimSpace(distro))
	info.DistroVersion = strings.TrimSpace(version)

	return info
}
