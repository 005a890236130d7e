// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package canonical normalizes entity and relation text to canonical forms
// and removes duplicates. All operations are pure and idempotent.
package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/pdiddy/billgraph/internal/patterns"
	"github.com/pdiddy/billgraph/pkg/types"
)

// Canonicalizer maps surface forms to canonical forms and deduplicates
// extraction records.
type Canonicalizer struct {
	aliases    *patterns.Aliases
	tieBreak   types.RelationTieBreak
	predicates func(string) (string, bool)
}

// Option configures a Canonicalizer.
type Option func(*Canonicalizer)

// WithTieBreak sets the relation deduplication policy.
func WithTieBreak(tb types.RelationTieBreak) Option {
	return func(c *Canonicalizer) { c.tieBreak = tb }
}

// WithPredicates sets the lookup Predicate uses, typically Table.Property.
func WithPredicates(lookup func(string) (string, bool)) Option {
	return func(c *Canonicalizer) { c.predicates = lookup }
}

// New returns a Canonicalizer using aliases, which may be nil.
func New(aliases *patterns.Aliases, opts ...Option) *Canonicalizer {
	c := &Canonicalizer{aliases: aliases, tieBreak: types.TieBreakFirst}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Text returns the canonical form of s: NFKC-normalized, lowercased,
// trimmed, internal whitespace collapsed, then mapped through the aliases.
func (c *Canonicalizer) Text(s string) string {
	n := patterns.Fold(s)
	if v, ok := c.aliases.Lookup(n); ok {
		return v
	}
	return n
}

// Predicate maps p to its ontology property name. Unmapped predicates are
// returned trimmed.
func (c *Canonicalizer) Predicate(p string) string {
	p = strings.TrimSpace(p)
	if c.predicates != nil {
		if v, ok := c.predicates(p); ok {
			return v
		}
	}
	return p
}

// Entities merges occurrences that share (canonical text, type). The
// occurrence with the highest confidence wins; ties keep the first seen.
// Output order follows the first appearance of each key. Occurrences with
// empty text or type are dropped.
func (c *Canonicalizer) Entities(in []types.Entity) []types.Entity {
	type key struct{ text, typ string }

	index := make(map[key]int, len(in))
	var out []types.Entity
	for _, e := range in {
		text := c.Text(e.Text)
		typ := strings.TrimSpace(e.Type)
		if text == "" || typ == "" {
			continue
		}
		e.Text = text
		e.Type = typ
		e.NormalizedNER = text
		e.ID = EntityID(typ, text)

		k := key{text, typ}
		i, seen := index[k]
		if !seen {
			index[k] = len(out)
			out = append(out, e)
			continue
		}
		if e.Confidence > out[i].Confidence {
			out[i] = e
		}
	}
	return out
}

// Relations canonicalizes subject and object, trims the predicate, drops
// records missing any of the three, and keeps one relation per
// (subject, predicate, object) according to the tie-break policy.
func (c *Canonicalizer) Relations(in []types.Relation) []types.Relation {
	type key struct{ s, p, o string }

	index := make(map[key]int, len(in))
	var out []types.Relation
	for _, r := range in {
		r.Subject = c.Text(r.Subject)
		r.Object = c.Text(r.Object)
		r.Predicate = strings.Join(strings.Fields(r.Predicate), " ")
		if r.Subject == "" || r.Predicate == "" || r.Object == "" {
			continue
		}

		k := key{r.Subject, r.Predicate, r.Object}
		i, seen := index[k]
		if !seen {
			index[k] = len(out)
			out = append(out, r)
			continue
		}
		if c.tieBreak == types.TieBreakConfidence && r.Confidence > out[i].Confidence {
			out[i] = r
		}
	}
	return out
}

// EntityID derives a stable 12-hex identifier from an entity's type and
// canonical text.
func EntityID(typ, text string) string {
	h := sha256.Sum256([]byte(typ + "\x00" + text))
	return hex.EncodeToString(h[:])[:12]
}
