package tracker

import (
	"strconv"
	"strings"
)

// ParseLenientInt reads an optionally signed run of leading digits, ignoring
// surrounding whitespace and anything after the digits: "350kcal" is 350 and
// "3.7" is 3. ok is false when no digits lead the input.
func ParseLenientInt(raw string) (n int, ok bool) {
	s := strings.TrimSpace(raw)

	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}
