package aggregator

import (
	"regexp"
	"strings"
)

// Kind tells a street apart from an intersection.
type Kind int

const (
	Street Kind = iota + 1
	Intersection
)

func (k Kind) String() string {
	switch k {
	case Street:
		return "street"
	case Intersection:
		return "intersection"
	default:
		return "unknown"
	}
}

// Address is a classified, normalized address. Key is the group key and is
// compared verbatim: the case and whitespace folding happens in Normalize.
type Address struct {
	Kind Kind
	Key  string
}

// blockOf is the dataset's "hundred block" marker, e.g. "1200 BLOCK OF W MARKHAM".
const blockOf = "BLOCK OF "

// houseNumber accepts any Unicode digit and space, U+00A0 included.
var houseNumber = regexp.MustCompile(`^\p{Nd}+[\s\p{Zs}]+`)

// Normalize upper-cases and trims raw, then classifies it.
//
// Anything containing "&", " AND " or "/" is an intersection and keeps the
// folded string as its key. "MAIN ST & 5TH ST" and "MAIN ST AND 5TH ST" are
// different keys.
//
// Everything else is a street: one leading house number is dropped and every
// "BLOCK OF " is removed.
//
// The second return value is false when raw is blank.
func Normalize(raw string) (Address, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return Address{}, false
	}

	if isIntersection(s) {
		return Address{Kind: Intersection, Key: s}, true
	}

	s = houseNumber.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, blockOf, "")

	return Address{Kind: Street, Key: s}, true
}

func isIntersection(s string) bool {
	return strings.Contains(s, "&") ||
		strings.Contains(s, " AND ") ||
		strings.Contains(s, "/")
}
