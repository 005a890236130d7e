// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package patterns

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Aliases is a closed alias map: every key resolves in one lookup to a form
// that itself resolves to nothing else. Keys and canonical forms are stored
// folded (see Fold).
type Aliases struct {
	m map[string]string
}

// NewAliases builds an alias map from groups. Groups are applied in order,
// so a form listed by a later group overrides an earlier mapping. Chains
// (a canonical form that is itself an alias of another group) are resolved
// transitively; a cycle is an error.
func NewAliases(groups []AliasGroup) (*Aliases, error) {
	m := make(map[string]string)
	for _, g := range groups {
		c := Fold(g.Canonical)
		if c == "" {
			return nil, fmt.Errorf("alias group with empty canonical form")
		}
		m[c] = c
		for _, a := range g.Aliases {
			if k := Fold(a); k != "" {
				m[k] = c
			}
		}
	}

	closed := make(map[string]string, len(m))
	for k := range m {
		target, err := resolve(m, k)
		if err != nil {
			return nil, err
		}
		closed[k] = target
	}
	return &Aliases{m: closed}, nil
}

func resolve(m map[string]string, k string) (string, error) {
	seen := map[string]bool{k: true}
	cur := k
	for {
		next, ok := m[cur]
		if !ok || next == cur {
			return cur, nil
		}
		if seen[next] {
			return "", fmt.Errorf("alias cycle through %q", k)
		}
		seen[next] = true
		cur = next
	}
}

// Lookup returns the canonical form for s. s must already be folded with Fold.
func (a *Aliases) Lookup(s string) (string, bool) {
	if a == nil {
		return "", false
	}
	v, ok := a.m[s]
	return v, ok
}

// Len returns the number of known surface forms, canonical forms included.
func (a *Aliases) Len() int {
	if a == nil {
		return 0
	}
	return len(a.m)
}

// Fold normalizes s for comparison: NFKC, lowercased, trimmed, internal
// whitespace collapsed. Fold(Fold(s)) == Fold(s).
func Fold(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(norm.NFKC.String(s))), " ")
}
