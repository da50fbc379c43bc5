package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://ipapi.co/json"

// ErrNoLocation is returned when the lookup produced no usable currency.
// Callers treat any error here as "no suggestion": the lookup is a
// best-effort convenience for pre-populating a currency selector.
var ErrNoLocation = errors.New("no location-based currency")

// Locator suggests a currency code from the caller's location.
type Locator interface {
	LocateCurrency(ctx context.Context) (string, error)
}

// IPLocator resolves a currency from an ipapi.co style endpoint that
// returns {"currency": "THB"} for the requesting IP.
type IPLocator struct {
	baseURL string
	client  *http.Client
}

// NewIPLocator creates an IPLocator. An empty baseURL selects the default
// public endpoint.
func NewIPLocator(baseURL string) *IPLocator {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &IPLocator{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// LocateCurrency asks the geolocation endpoint for the local currency code.
func (l *IPLocator) LocateCurrency(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: creating request: %v", ErrNoLocation, err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: calling geolocation API: %v", ErrNoLocation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: geolocation API status %d", ErrNoLocation, resp.StatusCode)
	}

	var body struct {
		Currency string `json:"currency"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", ErrNoLocation, err)
	}

	code := strings.ToUpper(strings.TrimSpace(body.Currency))
	if code == "" {
		return "", ErrNoLocation
	}
	return code, nil
}
