package gpg

import (
	"os/exec"
	"path/filepath"
)

// Programs names the executables a Client runs.
type Programs struct {
	GPG          string
	GPGConf      string
	ConnectAgent string
}

// DefaultPrograms returns bare program names resolved through PATH.
// On Windows, exec.Command will automatically try the .exe suffix.
func DefaultPrograms() Programs {
	return Programs{
		GPG:          "gpg",
		GPGConf:      "gpgconf",
		ConnectAgent: "gpg-connect-agent",
	}
}

// WithOverrides replaces every non-empty field of o.
func (p Programs) WithOverrides(o Programs) Programs {
	if o.GPG != "" {
		p.GPG = o.GPG
	}
	if o.GPGConf != "" {
		p.GPGConf = o.GPGConf
	}
	if o.ConnectAgent != "" {
		p.ConnectAgent = o.ConnectAgent
	}
	return p
}

// Missing returns the programs that can be found neither in PATH nor
// in the platform's common installation directories.
func (p Programs) Missing() []string {
	var missing []string
	for _, name := range []string{p.GPG, p.GPGConf, p.ConnectAgent} {
		if DetectProgram(name) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// DetectProgram attempts to find an executable in PATH, then in common locations.
// Returns the path if found, empty string if not found.
func DetectProgram(name string) string {
	if path, err := exec.LookPath(name); err == nil {
		return path
	}
	if filepath.IsAbs(name) {
		if isExecutableFile(name) {
			return name
		}
		return ""
	}

	for _, dir := range commonProgramDirs() {
		path := filepath.Join(dir, programFile(name))
		if isExecutableFile(path) {
			return path
		}
	}
	return ""
}
