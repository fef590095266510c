package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dotsecenv/ykpgp/pkg/ykpgp/gpg"
	"github.com/dotsecenv/ykpgp/pkg/ykpgp/identity"
	"github.com/dotsecenv/ykpgp/pkg/ykpgp/integration"
)

// GPG names the GnuPG executables (empty = resolve through PATH)
type GPG struct {
	Program      string `yaml:"program,omitempty"`
	GPGConf      string `yaml:"gpgconf,omitempty"`
	ConnectAgent string `yaml:"connect_agent,omitempty"`
}

// Config represents the ykpgp configuration
type Config struct {
	Name  string   `yaml:"name,omitempty"`
	Email string   `yaml:"email,omitempty"`
	UIDs  []string `yaml:"uids,omitempty"` // Full user ID list; the first is primary
	RSA   bool     `yaml:"rsa"`            // Provision RSA keys instead of curve keys
	SSH   bool     `yaml:"ssh"`            // Enable SSH authentication after provisioning
	Git   string   `yaml:"git,omitempty"`  // Commit signing scope: "", "local" or "global"

	GPG        GPG    `yaml:"gpg,omitempty"`
	GitProgram string `yaml:"git_program,omitempty"` // Path to git executable (empty = use PATH)
	GnuPGHome  string `yaml:"gnupghome,omitempty"`   // Keyring directory (empty = gpg's default)
}

// UnmarshalYAML provides custom YAML unmarshaling with better error messages for uid lists
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	type configAlias Config
	var temp configAlias

	if err := node.Decode(&temp); err != nil {
		if strings.Contains(err.Error(), "cannot unmarshal") && strings.Contains(err.Error(), "into []string") {
			lineInfo := ""
			if parts := strings.Split(err.Error(), "line "); len(parts) > 1 {
				lineInfo = " on line " + strings.Split(parts[1], ":")[0]
			}
			return fmt.Errorf(
				"invalid uids configuration%s:\n"+
					"  Expected format: uids: [\"Name <email>\", \"Name <other@email>\"]\n"+
					"  Original error: %w",
				lineInfo, err,
			)
		}
		return err
	}

	*c = Config(temp)
	return nil
}

// DefaultConfig returns a Config that provisions curve keys with no
// integrations and resolves every program through PATH.
func DefaultConfig() Config {
	return Config{
		RSA: false,
		SSH: false,
		Git: string(integration.ScopeNone),
	}
}

// Load reads the config from the specified path.
// A missing or empty file yields DefaultConfig.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if len(strings.TrimSpace(string(data))) == 0 {
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

const headerComment = `# ykpgp configuration. Command-line flags override these values;
# boolean options can only be turned on from the command line.`

// keyComments annotate the written file for users editing it by hand.
var keyComments = map[string]string{
	"name":      "# Identity used when no -i flags are given. $NAME and $EMAIL override\n# name and email.",
	"uids":      "# Full user ID list (\"Name <email>\"); replaces name and email, first is primary.",
	"git":       `# Commit signing scope: "", local or global`,
	"gpg":       "# GnuPG programs; empty values are looked up in PATH.",
	"gnupghome": "# Keyring directory; $GNUPGHOME takes precedence",
}

// Save writes the config to the specified path, annotated with comments.
func Save(path string, cfg Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	var body yaml.Node
	if err := body.Encode(cfg); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if body.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(body.Content); i += 2 {
			key := body.Content[i]
			if c, ok := keyComments[key.Value]; ok {
				key.HeadComment = c
			}
		}
	}
	doc := yaml.Node{
		Kind:        yaml.DocumentNode,
		HeadComment: headerComment,
		Content:     []*yaml.Node{&body},
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate checks values that cannot be expressed in the YAML schema.
func (c Config) Validate() error {
	if _, err := integration.ParseScope(c.Git); err != nil {
		return fmt.Errorf("invalid git configuration: %w", err)
	}
	for _, uid := range c.UIDs {
		if _, _, ok := identity.ParseUID(uid); !ok {
			return fmt.Errorf("invalid uids configuration: %q is not of the form \"Name <email>\"", uid)
		}
	}
	return nil
}

// Scope returns the configured commit signing scope.
func (c Config) Scope() integration.Scope {
	s, _ := integration.ParseScope(c.Git)
	return s
}

// Identity returns the identity values the config supplies.
func (c Config) Identity() identity.Source {
	return identity.Source{Name: c.Name, Email: c.Email, UIDs: c.UIDs}
}

// Programs returns the configured gpg program overrides.
func (c Config) Programs() gpg.Programs {
	return gpg.Programs{
		GPG:          c.GPG.Program,
		GPGConf:      c.GPG.GPGConf,
		ConnectAgent: c.GPG.ConnectAgent,
	}
}
