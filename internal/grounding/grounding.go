// Package grounding checks that a compiled plan mentions the concrete entities
// named in the problem statement it was generated for.
//
// Findings are advisory. Recognition favors recall, and a missing entity is
// reported as a warning; it never fails or alters a compilation.
package grounding

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"github.com/h1t35h/AssetOpsBench/pkg/models"
)

var (
	timeRangePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:last|past|next|previous|this|coming)\s+(?:\d+\s+)?(?:minute|hour|day|week|month|quarter|year)s?\b`),
		regexp.MustCompile(`(?i)\b(?:yesterday|today|tomorrow)\b`),
		regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}(?:[T ]\d{2}:\d{2}(?::\d{2})?)?\b`),
		regexp.MustCompile(`(?i)\b(?:january|february|march|april|may|june|july|august|september|october|november|december)\s+(?:\d{1,2},?\s+)?\d{4}\b`),
	}

	sitePattern = regexp.MustCompile(`(?i)\bsite\s+([A-Za-z0-9][A-Za-z0-9_\-]*)`)

	// assetPattern matches equipment named word-plus-number: "Chiller 6", "AHU-3", "pump #12".
	assetPattern = regexp.MustCompile(`\b([A-Za-z][A-Za-z]*)[ \t]*(?:[-#][ \t]*)?(\d+[A-Za-z]?)\b`)

	// sensorPattern matches sensor-type keywords, longest phrases first.
	sensorPattern = buildSensorPattern([]string{
		"supply temperature", "return temperature", "condenser water flow", "chilled water flow",
		"supply water temperature", "return water temperature", "differential pressure",
		"percent loaded", "power input", "run status", "setpoint",
		"temperature", "pressure", "vibration", "humidity", "flow rate", "flow",
		"voltage", "power", "energy", "tonnage", "efficiency", "speed",
	})
)

// assetStopwords are leading words that make a word-plus-number span something other than equipment.
var assetStopwords = map[string]bool{
	"last": true, "past": true, "next": true, "previous": true, "this": true, "coming": true,
	"top": true, "first": true, "step": true, "steps": true, "version": true, "site": true,
	"in": true, "at": true, "on": true, "for": true, "since": true, "of": true, "to": true,
	"from": true, "by": true, "over": true, "within": true, "and": true, "or": true, "the": true,
	"minute": true, "minutes": true, "hour": true, "hours": true, "day": true, "days": true,
	"week": true, "weeks": true, "month": true, "months": true, "year": true, "years": true,
	"january": true, "february": true, "march": true, "april": true, "may": true, "june": true,
	"july": true, "august": true, "september": true, "october": true, "november": true, "december": true,
}

func buildSensorPattern(phrases []string) *regexp.Regexp {
	sorted := append([]string(nil), phrases...)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	quoted := make([]string, len(sorted))
	for i, p := range sorted {
		quoted[i] = strings.ReplaceAll(regexp.QuoteMeta(p), " ", `\s+`)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)s?\b`)
}

type span struct {
	start, end int
	mention    models.EntityMention
}

// Extract returns the entity mentions found in statement, in order of
// appearance, with case-insensitive duplicates removed.
func Extract(statement string) []models.EntityMention {
	var claimed []span

	claim := func(start, end int, kind models.EntityKind, text string) {
		for _, s := range claimed {
			if start < s.end && s.start < end {
				return
			}
		}
		claimed = append(claimed, span{start: start, end: end, mention: models.EntityMention{Kind: kind, Text: text}})
	}

	for _, p := range timeRangePatterns {
		for _, m := range p.FindAllStringIndex(statement, -1) {
			claim(m[0], m[1], models.EntityTimeRange, statement[m[0]:m[1]])
		}
	}
	for _, m := range sitePattern.FindAllStringSubmatchIndex(statement, -1) {
		claim(m[0], m[1], models.EntitySite, statement[m[2]:m[3]])
	}
	for _, m := range assetPattern.FindAllStringSubmatchIndex(statement, -1) {
		if assetStopwords[strings.ToLower(statement[m[2]:m[3]])] {
			continue
		}
		claim(m[0], m[1], models.EntityAsset, statement[m[0]:m[1]])
	}
	for _, m := range sensorPattern.FindAllStringIndex(statement, -1) {
		claim(m[0], m[1], models.EntitySensor, statement[m[0]:m[1]])
	}

	sort.SliceStable(claimed, func(i, j int) bool { return claimed[i].start < claimed[j].start })

	fold := cases.Fold()
	seen := make(map[string]bool, len(claimed))
	var out []models.EntityMention
	for _, s := range claimed {
		key := string(s.mention.Kind) + "\x00" + strings.Join(chunks(fold.String(s.mention.Text)), " ")
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s.mention)
	}
	return out
}

// Check returns the entities mentioned in statement that none of the plan's
// task texts reference. A nil or empty graph grounds nothing.
func Check(statement string, graph *models.TaskGraph) []models.EntityMention {
	mentions := Extract(statement)
	if len(mentions) == 0 {
		return nil
	}
	haystack := cases.Fold().String(strings.Join(graph.TaskTexts(), "\n"))

	var missing []models.EntityMention
	for _, m := range mentions {
		if !Mentions(haystack, m) {
			missing = append(missing, m)
		}
	}
	return missing
}

// Mentions reports whether folded text references the entity. Spacing and
// punctuation between the entity's words and numbers are ignored, so
// "Chiller 6" is found in "chiller-6" and "chiller #6" but not in "chiller 60".
func Mentions(folded string, m models.EntityMention) bool {
	parts := chunks(cases.Fold().String(m.Text))
	if len(parts) == 0 {
		return true
	}
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	pattern := `(?:^|[^\p{L}\p{N}])` + strings.Join(parts, `[^\p{L}\p{N}]*`) + `s?(?:$|[^\p{L}\p{N}])`
	return regexp.MustCompile(pattern).MatchString(folded)
}

// chunks splits s into runs of letters and runs of digits.
func chunks(s string) []string {
	var out []string
	var cur []rune
	curDigit := false
	flush := func() {
		if len(cur) > 0 {
			out = append(out, string(cur))
			cur = cur[:0]
		}
	}
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			if !curDigit {
				flush()
			}
			curDigit = true
			cur = append(cur, r)
		case unicode.IsLetter(r):
			if curDigit {
				flush()
			}
			curDigit = false
			cur = append(cur, r)
		default:
			flush()
		}
	}
	flush()
	return out
}
