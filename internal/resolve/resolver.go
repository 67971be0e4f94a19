// Package resolve maps free-text agent references from a plan onto the agent catalog.
package resolve

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"github.com/h1t35h/AssetOpsBench/pkg/models"
)

// entry is a catalog agent with its comparison forms precomputed.
type entry struct {
	name     string
	norm     string
	compact  string
	keywords []string
}

// Resolver resolves agent references against one catalog snapshot.
// It holds no mutable state and is safe for concurrent use.
type Resolver struct {
	entries []entry
}

// New precomputes the normalized forms of every catalog agent.
func New(catalog *models.Catalog) *Resolver {
	r := &Resolver{}
	for _, agent := range catalog.Agents() {
		norm := Normalize(agent.Name)
		e := entry{
			name:    agent.Name,
			norm:    norm,
			compact: strings.ReplaceAll(norm, " ", ""),
		}
		seen := make(map[string]bool)
		for _, kw := range agent.Keywords {
			k := Normalize(kw)
			if k == "" || seen[k] {
				continue
			}
			seen[k] = true
			e.keywords = append(e.keywords, k)
		}
		r.entries = append(r.entries, e)
	}
	return r
}

// Resolve is a convenience for one-off resolution against a catalog.
func Resolve(raw string, catalog *models.Catalog) models.ResolvedAgent {
	return New(catalog).Resolve(raw)
}

// Resolve maps raw onto a catalog agent. Rules are tried in order and the
// first rule with a match wins:
//
//  1. exact: equal after case folding and punctuation removal
//  2. partial: one name contains the other, preferring word-boundary
//     matches over plain substrings such as "TSFMAgent"
//  3. keyword: the reference contains catalog keywords; the agent with the
//     most matched keywords wins, ties go to catalog order
//
// When nothing matches the result is Unresolved. No default agent is ever chosen.
func (r *Resolver) Resolve(raw string) models.ResolvedAgent {
	norm := Normalize(raw)
	if norm == "" {
		return models.Unresolved()
	}
	compact := strings.ReplaceAll(norm, " ", "")

	for _, e := range r.entries {
		if e.norm == "" {
			continue
		}
		if norm == e.norm || compact == e.compact {
			return models.ResolvedAgent{CanonicalName: e.name, Confidence: models.ConfidenceExact}
		}
	}

	padded := " " + norm + " "
	for _, e := range r.entries {
		if e.norm == "" {
			continue
		}
		if strings.Contains(padded, " "+e.norm+" ") || strings.Contains(" "+e.norm+" ", padded) {
			return models.ResolvedAgent{CanonicalName: e.name, Confidence: models.ConfidencePartial}
		}
	}
	for _, e := range r.entries {
		if e.norm == "" {
			continue
		}
		if strings.Contains(norm, e.norm) || strings.Contains(e.norm, norm) ||
			strings.Contains(compact, e.compact) || strings.Contains(e.compact, compact) {
			return models.ResolvedAgent{CanonicalName: e.name, Confidence: models.ConfidencePartial}
		}
	}

	best, bestCount := -1, 0
	for i, e := range r.entries {
		count := 0
		for _, kw := range e.keywords {
			if strings.Contains(padded, " "+kw+" ") {
				count++
			}
		}
		if count > bestCount {
			best, bestCount = i, count
		}
	}
	if best >= 0 {
		return models.ResolvedAgent{CanonicalName: r.entries[best].name, Confidence: models.ConfidenceKeyword}
	}

	return models.Unresolved()
}

// Normalize folds case, turns punctuation into spaces and collapses whitespace,
// so "IoT-Data_Download " and "iot data download" compare equal.
func Normalize(s string) string {
	folded := cases.Fold().String(s)
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, folded)
	return strings.Join(strings.Fields(mapped), " ")
}
