package integration

import "fmt"

// Scope is the git configuration level commit signing is enabled at.
type Scope string

const (
	ScopeNone   Scope = ""
	ScopeLocal  Scope = "local"
	ScopeGlobal Scope = "global"
)

// ParseScope validates a scope name from flags or config.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeNone, ScopeLocal, ScopeGlobal:
		return Scope(s), nil
	default:
		return ScopeNone, fmt.Errorf("invalid git scope %q: must be %q or %q", s, ScopeLocal, ScopeGlobal)
	}
}

// Flag returns the git config option selecting the scope.
func (s Scope) Flag() string {
	if s == ScopeNone {
		return ""
	}
	return "--" + string(s)
}
