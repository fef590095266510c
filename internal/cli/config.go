package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/dotsecenv/ykpgp/internal/xdg"
	"github.com/dotsecenv/ykpgp/pkg/ykpgp/config"
	"github.com/dotsecenv/ykpgp/pkg/ykpgp/gpg"
	"github.com/dotsecenv/ykpgp/pkg/ykpgp/output"
)

// InitConfig writes a commented configuration file. Detected gpg program
// paths are recorded so later runs do not depend on PATH.
func InitConfig(configPath, name, email string, stderr io.Writer) error {
	configPath, err := xdg.ResolveConfigPath(configPath)
	if err != nil {
		return output.NewErrorf(output.CodeConfigInvalid, "failed to get XDG paths: %v", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		return output.NewErrorf(output.CodeConfigInvalid, "config file already exists: %s", configPath)
	}

	cfg := config.DefaultConfig()
	cfg.Name = name
	cfg.Email = email
	cfg.GPG.Program = gpg.DetectProgram("gpg")
	cfg.GPG.GPGConf = gpg.DetectProgram("gpgconf")
	cfg.GPG.ConnectAgent = gpg.DetectProgram("gpg-connect-agent")
	if cfg.GPG.Program == "" {
		_, _ = fmt.Fprintf(stderr, "warning: gpg not found; set gpg.program in %s\n", configPath)
	}

	if err := config.Save(configPath, cfg); err != nil {
		return output.NewErrorf(output.CodeConfigSaveError, "failed to save config: %v", err)
	}

	_, _ = fmt.Fprintf(stderr, "Initialized config file: %s\n", configPath)
	return nil
}
