package vision

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseScanJSON parses the JSON an AI provider returns for a scan prompt.
// Models wrap output in markdown fences or chatter despite instructions,
// so the object is located by its outermost braces before unmarshaling.
func parseScanJSON(text string) (*ScanResult, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}
	text = text[startIdx : endIdx+1]

	var body struct {
		Total    *float64 `json:"total"`
		Currency string   `json:"currency"`
		Note     string   `json:"note"`
	}
	if err := json.Unmarshal([]byte(text), &body); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	result := &ScanResult{
		Total:      body.Total,
		Currency:   strings.ToUpper(strings.TrimSpace(body.Currency)),
		Commentary: strings.TrimSpace(body.Note),
	}

	// A negative structured total is provider noise; treat it as the
	// "not a monetary scan" sentinel rather than propagating garbage.
	if result.Total != nil && *result.Total < 0 {
		zero := 0.0
		result.Total = &zero
	}

	return result, nil
}
