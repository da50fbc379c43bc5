package extraction

// SelectTotal picks the single best candidate amount from a token sequence:
// the maximum value, with ties going to the earliest occurrence. On a
// receipt the grand total is reliably the largest line amount; this is a
// heuristic, not a guarantee (a receipt listing a pre-tip and post-tip total
// can defeat it when OCR truncates the larger figure).
//
// The second return value is false when no tokens were found. Absence is a
// distinct outcome from a zero total, which some AI flows use as an explicit
// "not a monetary scan" sentinel.
func SelectTotal(tokens []Token) (Token, bool) {
	if len(tokens) == 0 {
		return Token{}, false
	}
	best := tokens[0]
	for _, t := range tokens[1:] {
		if t.Value > best.Value {
			best = t
		}
	}
	return best, true
}
