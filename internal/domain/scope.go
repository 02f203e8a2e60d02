package domain

import "errors"

// DeleteScope selects between hiding a message for the requesting user
// and removing it for everyone.
type DeleteScope int

const (
	ScopeMine DeleteScope = iota
	ScopeEveryone
)

var ErrUnknownScope = errors.New("unknown delete scope")

// ParseDeleteScope maps the wire values "me" and "all".
func ParseDeleteScope(s string) (DeleteScope, error) {
	switch s {
	case "me":
		return ScopeMine, nil
	case "all":
		return ScopeEveryone, nil
	}
	return 0, ErrUnknownScope
}

func (s DeleteScope) String() string {
	switch s {
	case ScopeMine:
		return "me"
	case ScopeEveryone:
		return "all"
	}
	return "unknown"
}
