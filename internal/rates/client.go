package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://open.er-api.com/v6/latest"

// Client fetches live rates from an open.er-api.com style JSON endpoint:
// GET {baseURL}/{code} returns {"result": "success", "rates": {...}}.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a rate Client. An empty baseURL selects the default
// public endpoint. Requests carry a bounded timeout so a stalled rate fetch
// cannot leave the pipeline stuck in a processing state.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type ratesResponse struct {
	Result string             `json:"result"`
	Rates  map[string]float64 `json:"rates"`
}

// Rates fetches the rate table for the base currency. Any transport,
// status, or decode failure surfaces as ErrUnavailable.
func (c *Client) Rates(ctx context.Context, base string) (map[string]float64, error) {
	endpoint := fmt.Sprintf("%s/%s", c.baseURL, url.PathEscape(strings.ToUpper(base)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", ErrUnavailable, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: calling rate API: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: rate API status %d", ErrUnavailable, resp.StatusCode)
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrUnavailable, err)
	}

	if body.Result != "success" || len(body.Rates) == 0 {
		return nil, fmt.Errorf("%w: rate API result %q", ErrUnavailable, body.Result)
	}

	return body.Rates, nil
}
