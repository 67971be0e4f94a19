// Package extract scans raw plan text produced by a language model and pulls
// out the per-step field records of the plan markup.
//
// The markup is line oriented but loose:
//
//	Step 1: find the chiller
//	#Task1: List all chillers at site MAIN
//	#Agent1: IoT Data Download
//	#Dependency1: None
//	#ExpectedOutput1: A list of chiller identifiers
//
// Extraction performs no normalization beyond dropping terminal newlines from
// values. Grouping, trimming and validation belong to the compiler.
package extract

import (
	"errors"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/h1t35h/AssetOpsBench/pkg/models"
)

// ErrNoSteps is returned when the text contains no recognizable step block.
var ErrNoSteps = errors.New("no step blocks found in plan text")

// maxIndexDigits bounds step numbers; longer numbers are treated as out of range.
const maxIndexDigits = 6

// fieldTagPattern matches the bit-exact field tags, e.g. "#ExpectedOutput3:".
var fieldTagPattern = regexp.MustCompile(`#(Task|Agent|Dependency|ExpectedOutput)(\d+):`)

// stepMarkerPattern matches a line opening a step block: any decoration
// (markdown, bullets, emoji, whitespace) followed by "Step <N>".
var stepMarkerPattern = regexp.MustCompile(`(?mi)^[^\p{L}\p{N}\n]*step[ \t]*#?(\d+)`)

// Result is the output of a single extraction pass.
type Result struct {
	// Records holds every field record in text order, orphans included.
	Records []models.FieldRecord
	// Steps holds the step block indices in order of appearance.
	// Duplicates are preserved so the compiler can report them.
	Steps []int
	// ExplicitMarkers is true when at least one step block was opened by a
	// "Step N" line. #Task<N> tags still open the blocks no marker names.
	ExplicitMarkers bool
}

// Orphans returns the records whose index matches no step block.
func (r *Result) Orphans() []models.FieldRecord {
	var out []models.FieldRecord
	for _, rec := range r.Records {
		if rec.Orphan {
			out = append(out, rec)
		}
	}
	return out
}

type tokenKind int

const (
	tokenStepMarker tokenKind = iota
	tokenFieldTag
)

// token is a recognized span of the input.
type token struct {
	kind  tokenKind
	start int
	end   int
	index int
	field models.Field
}

// Extract scans text and returns its field records.
// It fails with ErrNoSteps when no step block can be found.
func Extract(text string) (*Result, error) {
	tokens := tokenize(text)

	result := &Result{}
	marked := make(map[int]bool)
	for _, tok := range tokens {
		if tok.kind == tokenStepMarker {
			marked[tok.index] = true
		}
	}
	result.ExplicitMarkers = len(marked) > 0

	for i, tok := range tokens {
		if tok.kind == tokenStepMarker {
			result.Steps = append(result.Steps, tok.index)
			continue
		}
		if tok.field == models.FieldTask && !marked[tok.index] {
			result.Steps = append(result.Steps, tok.index)
		}

		end := len(text)
		if i+1 < len(tokens) {
			end = tokens[i+1].start
		}
		result.Records = append(result.Records, models.FieldRecord{
			StepIndex: tok.index,
			Field:     tok.field,
			RawValue:  strings.TrimRight(text[tok.end:end], "\r\n"),
		})
	}

	if len(result.Steps) == 0 {
		return nil, ErrNoSteps
	}

	known := make(map[int]bool, len(result.Steps))
	for _, idx := range result.Steps {
		if idx > 0 {
			known[idx] = true
		}
	}
	for i := range result.Records {
		if !known[result.Records[i].StepIndex] {
			result.Records[i].Orphan = true
		}
	}

	return result, nil
}

// tokenize finds all step markers and field tags and returns them in text order.
// A "Step N" line is a marker only when the next field tag belongs to step N
// and the line does not sit inside step N's own block; any other such line is
// ordinary value text.
func tokenize(text string) []token {
	var tags []token
	for _, m := range fieldTagPattern.FindAllStringSubmatchIndex(text, -1) {
		tags = append(tags, token{
			kind:  tokenFieldTag,
			start: m[0],
			end:   m[1],
			field: models.Field(text[m[2]:m[3]]),
			index: parseIndex(text[m[4]:m[5]]),
		})
	}

	tokens := append([]token(nil), tags...)
	for _, m := range stepMarkerPattern.FindAllStringSubmatchIndex(text, -1) {
		idx := parseIndex(text[m[2]:m[3]])
		next := sort.Search(len(tags), func(i int) bool { return tags[i].start >= m[1] })
		if next == len(tags) || tags[next].index != idx {
			continue
		}
		if next > 0 && tags[next-1].index == idx {
			continue
		}
		tokens = append(tokens, token{
			kind:  tokenStepMarker,
			start: m[0],
			end:   m[1],
			index: idx,
		})
	}

	sort.SliceStable(tokens, func(i, j int) bool {
		return tokens[i].start < tokens[j].start
	})
	return tokens
}

// parseIndex converts a digit run to a step index, returning 0 when out of range.
func parseIndex(digits string) int {
	if len(digits) > maxIndexDigits {
		return 0
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}
