//go:build windows

package gpg

import (
	"os"
	"path/filepath"
	"strings"
)

// commonProgramDirs returns common GnuPG installation directories on Windows.
func commonProgramDirs() []string {
	dirs := []string{
		// Gpg4win default installations
		`C:\Program Files (x86)\GnuPG\bin`,
		`C:\Program Files\GnuPG\bin`,
		// Git for Windows includes GPG
		`C:\Program Files\Git\usr\bin`,
		`C:\Program Files (x86)\Git\usr\bin`,
	}

	if userProfile := os.Getenv("USERPROFILE"); userProfile != "" {
		dirs = append(dirs,
			filepath.Join(userProfile, "scoop", "apps", "gpg", "current", "bin"), // Scoop
			filepath.Join(userProfile, "AppData", "Local", "Programs", "GnuPG", "bin"),
		)
	}

	if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
		dirs = append(dirs, filepath.Join(localAppData, "Programs", "GnuPG", "bin"))
	}

	return dirs
}

func programFile(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".exe") {
		return name
	}
	return name + ".exe"
}

// isExecutableFile checks if a file exists on Windows.
// The .exe extension is what makes it executable.
func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
