package scan

import (
	"errors"

	"github.com/ahjaypee/se-asia-scanner/internal/convert"
)

// Pipeline error kinds. All are recoverable at the API boundary: the caller
// surfaces a message and lets the user retry.
var (
	// ErrRecognitionFailed wraps a recognizer failure (engine unavailable
	// or nothing usable in the photo).
	ErrRecognitionFailed = errors.New("recognition failed")

	// ErrNoAmountFound means extraction and selection produced no
	// candidate, or the AI provider flagged a non-monetary scan.
	ErrNoAmountFound = errors.New("no amount found")

	// ErrInvalidAmount and ErrRateUnavailable come from the converter.
	ErrInvalidAmount   = convert.ErrInvalidAmount
	ErrRateUnavailable = convert.ErrRateUnavailable
)

// Error kind identifiers surfaced to API clients.
const (
	KindRecognitionFailed = "recognition_failed"
	KindNoAmountFound     = "no_amount_found"
	KindInvalidAmount     = "invalid_amount"
	KindRateUnavailable   = "rate_unavailable"
)

// Kind maps a pipeline error to its kind identifier. The second return is
// false for errors outside the pipeline's vocabulary.
func Kind(err error) (string, bool) {
	switch {
	case errors.Is(err, ErrRecognitionFailed):
		return KindRecognitionFailed, true
	case errors.Is(err, ErrNoAmountFound):
		return KindNoAmountFound, true
	case errors.Is(err, ErrInvalidAmount):
		return KindInvalidAmount, true
	case errors.Is(err, ErrRateUnavailable):
		return KindRateUnavailable, true
	}
	return "", false
}
