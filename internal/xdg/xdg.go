package xdg

import (
	"os"
	"os/user"
	"path/filepath"
)

// ConfigEnv overrides the config file location.
const ConfigEnv = "YKPGP_CONFIG"

// Paths holds XDG-compliant directory paths
type Paths struct {
	ConfigHome string
}

// NewPaths returns XDG-compliant directory paths
// If XDG_CONFIG_HOME is set, it is used; otherwise, the default is applied
func NewPaths() (Paths, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		homeDir, err := getHomeDir()
		if err != nil {
			return Paths{}, err
		}
		configHome = filepath.Join(homeDir, ".config")
	}

	return Paths{ConfigHome: configHome}, nil
}

// getHomeDir returns the user's home directory
func getHomeDir() (string, error) {
	currentUser, err := user.Current()
	if err != nil {
		return "", err
	}
	return currentUser.HomeDir, nil
}

// ConfigPath returns the path to the config file
func (p Paths) ConfigPath() string {
	return filepath.Join(p.ConfigHome, "ykpgp", "config")
}

// ResolveConfigPath picks the config file: an explicit path wins, then
// $YKPGP_CONFIG, then the XDG location.
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if env := os.Getenv(ConfigEnv); env != "" {
		return env, nil
	}
	paths, err := NewPaths()
	if err != nil {
		return "", err
	}
	return paths.ConfigPath(), nil
}
