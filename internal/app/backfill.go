package app

import (
	"strconv"
	"strings"
)

// ParseNum extracts the numeric part of a display string such as "$349,900",
// "3 beds" or "1,850 sqft". Anything without digits parses to zero, which
// sorts those listings last and keeps them out of range filters.
func ParseNum(display string) float64 {
	var b strings.Builder
	seenDot := false
	for _, r := range display {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' && !seenDot:
			seenDot = true
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return f
}
