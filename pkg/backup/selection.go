package backup

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ParseError reports a selection token that is malformed or out of bounds.
// It is recoverable: the caller re-prompts the user.
type ParseError struct {
	Token string
	Max   int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid selection %q: expected an index or range within [1, %d]", e.Token, e.Max)
}

var (
	indexToken = regexp.MustCompile(`^\d+$`)
	rangeToken = regexp.MustCompile(`^(\d+)-(\d+)$`)
)

// ParseSelection parses a comma-separated selection of 1-based indices and
// inclusive ranges ("1,3-5") against a displayed list of maxIndex items. It
// returns the deduplicated union in ascending order. Any malformed or
// out-of-bounds token fails the whole parse; no partial result is returned.
//
// The literals "all", "quit" and "exit" are the caller's business, not the
// parser's.
func ParseSelection(input string, maxIndex int) ([]int, error) {
	seen := make(map[int]bool)

	for _, raw := range strings.Split(input, ",") {
		token := strings.TrimSpace(raw)

		if m := rangeToken.FindStringSubmatch(token); m != nil {
			lo, err1 := strconv.Atoi(m[1])
			hi, err2 := strconv.Atoi(m[2])
			if err1 != nil || err2 != nil || lo < 1 || hi < lo || hi > maxIndex {
				return nil, &ParseError{Token: token, Max: maxIndex}
			}
			for i := lo; i <= hi; i++ {
				seen[i] = true
			}
			continue
		}

		if !indexToken.MatchString(token) {
			return nil, &ParseError{Token: token, Max: maxIndex}
		}
		n, err := strconv.Atoi(token)
		if err != nil || n < 1 || n > maxIndex {
			return nil, &ParseError{Token: token, Max: maxIndex}
		}
		seen[n] = true
	}

	indices := make([]int, 0, len(seen))
	for n := range seen {
		indices = append(indices, n)
	}
	sort.Ints(indices)
	return indices, nil
}
