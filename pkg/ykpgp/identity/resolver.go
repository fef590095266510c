package identity

import (
	"errors"
	"fmt"
	"strings"
)

// Source is one place identity values may come from.
type Source struct {
	Name  string
	Email string
	UIDs  []string
}

// Prompter asks the user for a single line of input.
type Prompter interface {
	Prompt(label string) (string, error)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(label string) (string, error)

// Prompt implements Prompter.
func (f PrompterFunc) Prompt(label string) (string, error) {
	return f(label)
}

// Resolver determines the run's identity. Explicit user IDs from the flags
// or, failing that, the config define the whole UID list. Otherwise the
// name and email are taken from the flags, the environment, the config
// and finally an interactive prompt, in that order.
type Resolver struct {
	Flags  Source
	Config Source
	// Getenv looks up NAME and EMAIL. Nil disables the environment.
	Getenv func(string) string
	// Prompt is consulted for values no other source provides. Nil
	// makes such values an error.
	Prompt Prompter
}

// Resolve returns the identity for this run.
func (r Resolver) Resolve() (Identity, error) {
	if len(r.Flags.UIDs) > 0 {
		return FromUIDs(r.Flags.UIDs)
	}
	if len(r.Config.UIDs) > 0 {
		return FromUIDs(r.Config.UIDs)
	}

	name, err := r.value("NAME", r.Flags.Name, r.Config.Name,
		"Full name? (Consider setting $NAME in your shell profile): ")
	if err != nil {
		return Identity{}, err
	}
	email, err := r.value("EMAIL", r.Flags.Email, r.Config.Email,
		"Email? (Consider setting $EMAIL in your shell profile): ")
	if err != nil {
		return Identity{}, err
	}
	return New(name, email)
}

func (r Resolver) value(env, flag, config, label string) (string, error) {
	if v := strings.TrimSpace(flag); v != "" {
		return v, nil
	}
	if r.Getenv != nil {
		if v := strings.TrimSpace(r.Getenv(env)); v != "" {
			return v, nil
		}
	}
	if v := strings.TrimSpace(config); v != "" {
		return v, nil
	}
	if r.Prompt == nil {
		return "", fmt.Errorf("%w: set $%s", ErrIncomplete, env)
	}
	v, err := r.Prompt.Prompt(label)
	if err != nil {
		return "", err
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return "", errors.Join(ErrIncomplete, fmt.Errorf("empty %s", strings.ToLower(env)))
	}
	return v, nil
}
