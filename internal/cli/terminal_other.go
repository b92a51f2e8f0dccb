//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd

package cli

// isTerminalFd is false on platforms without a termios ioctl, so progress
// falls back to log lines there.
func isTerminalFd(uintptr) bool { return false }
