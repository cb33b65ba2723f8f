//go:build windows

package yq

import "os/exec"

// setProcessGroup is a no-op on Windows; there is no POSIX process group
// to create.
func setProcessGroup(_ *exec.Cmd) {}

// killProcessGroup kills the direct child. Descendants are not tracked on
// Windows; yq does not spawn children in practice.
func killProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}

	return cmd.Process.Kill()
}
