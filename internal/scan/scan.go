package scan

import "time"

// Scan is one processed capture: the extracted local total and its
// conversion, plus where the photo went.
type Scan struct {
	ID   string `json:"id"`
	Mode string `json:"mode"`
	From string `json:"from"`
	To   string `json:"to"`
	// Total is the extracted amount in the source currency.
	Total float64 `json:"total"`
	// Rate is the from-to rate used for this scan.
	Rate float64 `json:"rate"`
	// ConvertedCents is the converted amount in minor units of the target
	// currency, rounded for display.
	ConvertedCents int       `json:"converted_cents"`
	Commentary     string    `json:"commentary,omitempty"`
	Filename       string    `json:"filename"`
	ContentType    string    `json:"content_type"`
	TripID         string    `json:"trip_id,omitempty"` // ID of the trip this scan belongs to
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Trip groups scans from one journey with a running spend total.
type Trip struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	ScanIDs []string `json:"scan_ids"`
	// TotalCents is the summed converted amounts, in minor units of the
	// scans' target currency.
	TotalCents int       `json:"total_cents"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
