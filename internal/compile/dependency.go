package compile

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// stepRefPattern matches one dependency reference, e.g. "#S2".
var stepRefPattern = regexp.MustCompile(`^#S(\d{1,6})$`)

// parseDependencies turns a normalized #Dependency value into sorted, unique
// step indices. "None" or an empty value yields no dependencies. On failure it
// returns the first token that could not be parsed.
func parseDependencies(value string) ([]int, string, bool) {
	tokens := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(tokens) == 0 {
		return nil, "", true
	}
	if len(tokens) == 1 && isNone(tokens[0]) {
		return nil, "", true
	}

	seen := make(map[int]bool, len(tokens))
	var refs []int
	for _, tok := range tokens {
		m := stepRefPattern.FindStringSubmatch(tok)
		if m == nil {
			return nil, tok, false
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, tok, false
		}
		if !seen[n] {
			seen[n] = true
			refs = append(refs, n)
		}
	}
	sort.Ints(refs)
	return refs, "", true
}

func isNone(tok string) bool {
	return strings.EqualFold(strings.TrimSuffix(tok, "."), "none")
}
