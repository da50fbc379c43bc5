package vision

import "fmt"

// Mode is the user-selected scan context. It decides which prompt an AI
// recognizer uses and how the result should be read.
type Mode string

const (
	// ModeReceipt scans a bill or receipt for its grand total.
	ModeReceipt Mode = "receipt"
	// ModeMenu scans a menu for its listed prices.
	ModeMenu Mode = "menu"
	// ModeFood scans a dish photo for a typical local price estimate.
	ModeFood Mode = "food"
)

// ParseMode validates a mode string from user input.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeReceipt, ModeMenu, ModeFood:
		return Mode(s), nil
	case "":
		return ModeReceipt, nil
	}
	return "", fmt.Errorf("unknown scan mode %q", s)
}

// ScanResult is what a recognizer extracted from one photo.
//
// AI recognizers fill Total directly: nil means the provider did not supply
// a structured amount (the text pipeline should run), and an explicit 0 is
// the provider's sentinel for "not a monetary scan". The local OCR
// recognizer fills Text only and leaves Total nil.
type ScanResult struct {
	// Text is the raw recognized text, when the recognizer produces any.
	Text string `json:"text,omitempty"`
	// Total is the provider-extracted amount in the local currency.
	Total *float64 `json:"total"`
	// Currency is the provider's guess at the local currency code, if any.
	Currency string `json:"currency,omitempty"`
	// Commentary is a short human-readable note about the scan.
	Commentary string `json:"commentary,omitempty"`
}

// Recognizer turns a photo into a ScanResult.
type Recognizer interface {
	// Scan analyzes an image (or PDF) according to the scan mode.
	Scan(imageData []byte, contentType string, mode Mode) (*ScanResult, error)
	// Close releases recognizer resources.
	Close() error
}

// promptFor returns the vision prompt for a scan mode. All AI providers
// share the same prompts so their output parses identically.
func promptFor(mode Mode) string {
	var task string
	switch mode {
	case ModeMenu:
		task = `You are looking at a photo of a restaurant menu, probably from Southeast Asia.
Read all listed prices and pick the price of the most prominent or highlighted dish
(or the first main dish if nothing stands out). Write one short sentence of advice
about the menu for a traveler.`
	case ModeFood:
		task = `You are looking at a photo of a dish or drink, probably from Southeast Asia.
Identify it and estimate what a typical street or restaurant price for it would be
in the local currency. Write one short sentence about the dish for a traveler.`
	default:
		task = `You are looking at a photo of a receipt or bill, probably from Southeast Asia.
Find the final total, grand total, or amount due. It is usually at the bottom,
labeled "TOTAL", "Amount Due", or similar. Write one short sentence about the
bill for a traveler (e.g. whether service charge is already included).`
	}

	return task + `

Return ONLY valid JSON in this exact format:
{
  "total": 0.00,
  "currency": "THB",
  "note": "one short sentence"
}

Important:
- "total" must be a number in the local currency, not a string
- "currency" is the ISO 4217 code of the local currency, or null if unclear
- If the photo contains no monetary amount at all, set "total" to exactly 0
- Do not include any text before or after the JSON
- Do not use markdown code blocks`
}
