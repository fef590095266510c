//go:build unix

package gpg

import (
	"os"
)

// commonProgramDirs returns common GnuPG installation directories on Unix systems.
func commonProgramDirs() []string {
	return []string{
		"/usr/bin",
		"/usr/local/bin",
		"/opt/homebrew/bin", // macOS Homebrew on Apple Silicon
		"/opt/local/bin",    // MacPorts
		"/snap/bin",         // Ubuntu Snap
	}
}

func programFile(name string) string {
	return name
}

// isExecutableFile checks if a file exists and is executable on Unix.
func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode()&0o111 != 0
}
