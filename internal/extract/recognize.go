// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/billgraph/internal/patterns"
	"github.com/pdiddy/billgraph/pkg/types"
)

// Context window sizes, in bytes on each side of a match.
const (
	entityContext   = 50
	relationContext = 100
)

// Recognize scans text with every entity pattern of tbl, in table order,
// and returns one occurrence per non-overlapping match. Occurrences are
// not deduplicated.
func Recognize(text string, tbl *patterns.Table) []types.Entity {
	var out []types.Entity
	if text == "" {
		return out
	}
	for _, rule := range tbl.Entities() {
		for _, loc := range rule.Regexp.FindAllStringIndex(text, -1) {
			if loc[0] == loc[1] {
				continue
			}
			match := text[loc[0]:loc[1]]
			out = append(out, types.Entity{
				Text:          match,
				Type:          rule.Type,
				StartChar:     loc[0],
				EndChar:       loc[1],
				NER:           rule.Type,
				NormalizedNER: strings.ToLower(match),
				Confidence:    rule.Confidence,
				Context:       window(text, loc[0], loc[1], entityContext),
				Source:        tbl.Source(),
			})
		}
	}
	return out
}

// ExtractRelations emits the literal triple of every relation template
// whose pattern matches text, once per match. Templates with a second
// object also emit (subject, "moved to", object2).
func ExtractRelations(text string, tbl *patterns.Table) []types.Relation {
	var out []types.Relation
	if text == "" {
		return out
	}
	for _, rule := range tbl.Relations() {
		for _, loc := range rule.Regexp.FindAllStringIndex(text, -1) {
			if loc[0] == loc[1] {
				continue
			}
			ctx := window(text, loc[0], loc[1], relationContext)
			out = append(out, types.Relation{
				Subject:      rule.Subject,
				Predicate:    rule.Predicate,
				Object:       rule.Object,
				RelationType: rule.RelationType,
				Confidence:   rule.Confidence,
				Context:      ctx,
				Source:       tbl.Source(),
			})
			if rule.Object2 != "" {
				out = append(out, types.Relation{
					Subject:      rule.Subject,
					Predicate:    patterns.SecondaryPredicate,
					Object:       rule.Object2,
					RelationType: rule.RelationType,
					Confidence:   rule.Confidence,
					Context:      ctx,
					Source:       tbl.Source(),
				})
			}
		}
	}
	return out
}

// window returns text[start-n : end+n] clipped to the text and widened to
// rune boundaries.
func window(text string, start, end, n int) string {
	lo := max(0, start-n)
	hi := min(len(text), end+n)
	for lo > 0 && !utf8.RuneStart(text[lo]) {
		lo--
	}
	for hi < len(text) && !utf8.RuneStart(text[hi]) {
		hi++
	}
	return text[lo:hi]
}
