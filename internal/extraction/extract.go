package extraction

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Token is a single monetary candidate found in recognized text.
type Token struct {
	// Raw is the matched substring as it appeared in the text.
	Raw string
	// Value is the parsed amount. The decimal separator, if any, is
	// normalized to '.' before parsing.
	Value float64
	// Pos is the byte offset of the match in the scanned text.
	Pos int
}

// numberRunRE matches a digit run with at most one decimal separator.
// Matches are non-overlapping and leftmost-longest, so classification of
// each run decides whether it becomes a token.
var numberRunRE = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// Tokens scans normalized text for monetary candidates, in order of
// appearance. Two shapes qualify:
//
//   - digits, a decimal separator ('.' or ','), then exactly two digits
//   - four or more digits with no adjacent separator, when cfg.BareAmounts
//     is set (currencies without minor units)
//
// Runs that fit neither shape, and literals that fail to parse to a finite
// value, are skipped silently. Extraction is best-effort: noisy recognition
// is the normal case, not an error.
func Tokens(text string, cfg Config) []Token {
	var tokens []Token
	for _, loc := range numberRunRE.FindAllStringIndex(text, -1) {
		raw := text[loc[0]:loc[1]]

		sep := strings.IndexAny(raw, ".,")
		switch {
		case sep >= 0:
			// Rule a: exactly two digits after the separator.
			if len(raw)-sep-1 != 2 {
				continue
			}
		case cfg.BareAmounts && len(raw) >= 4:
			// Rule b: whole-number amount.
		default:
			continue
		}

		v, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
		if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
			continue
		}

		tokens = append(tokens, Token{Raw: raw, Value: v, Pos: loc[0]})
	}
	return tokens
}
