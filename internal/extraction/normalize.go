package extraction

import "regexp"

// Config controls the optional extraction heuristics.
type Config struct {
	// StripGlyphNoise removes confusable glyphs (stray currency symbols,
	// S-like letters) fused directly onto a two-decimal amount.
	StripGlyphNoise bool

	// BareAmounts enables whole-number candidates of four or more digits,
	// for currencies without minor units (IDR, VND, JPY).
	BareAmounts bool
}

// thousandsRE matches a thousands-separator comma sitting between a digit
// and a three-digit group that is not followed by another digit.
var thousandsRE = regexp.MustCompile(`(\d),(\d{3})($|[^0-9])`)

// glyphNoiseRE matches confusable glyphs fused onto a two-decimal amount
// with no separating space. OCR commonly reads ฿45.00 or S45.00 where the
// leading glyph is the currency marker, not a digit.
var glyphNoiseRE = regexp.MustCompile(`[S$€£¥฿₫₱₹]+(\d+[.,]\d{2})`)

// Normalize cleans recognized text of recognition artifacts before token
// extraction: thousands-separator commas are removed, and (when enabled)
// currency-glyph noise abutting a decimal amount is stripped rather than
// rewritten to a digit. Normalize is idempotent.
func Normalize(text string, cfg Config) string {
	// Run both passes to a shared fixed point. "1,234,567" needs two comma
	// passes because the first replacement consumes the digit before the
	// second comma, and stripping a glyph can expose a fresh thousands
	// pattern ("1,S234.56" -> "1,234.56" -> "1234.56").
	for {
		next := thousandsRE.ReplaceAllString(text, "$1$2$3")
		if cfg.StripGlyphNoise {
			next = glyphNoiseRE.ReplaceAllString(next, "$1")
		}
		if next == text {
			return text
		}
		text = next
	}
}
