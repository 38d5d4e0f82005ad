package openfoodfacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/fridge/backend/internal/domain"
	"golang.org/x/time/rate"
)

// Client handles communication with the Open Food Facts REST API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	timeout     time.Duration
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates a new Open Food Facts API client. timeout bounds each
// product fetch; an exceeded bound degrades to "not found" rather than
// surfacing an error, since barcode scanning is best-effort.
func NewClient(baseURL, userAgent string, timeout time.Duration) *Client {
	// Open Food Facts asks API consumers to stay under ~100 req/min
	limiter := rate.NewLimiter(rate.Limit(1.6), 10)

	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		httpClient:  &http.Client{},
		baseURL:     baseURL,
		userAgent:   userAgent,
		timeout:     timeout,
		rateLimiter: limiter,
	}
}

// SetDebug toggles verbose request logging.
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// FetchProduct fetches the raw product payload for a barcode.
// Returns domain.ErrProductNotFound for missing products, non-success
// statuses and timeouts; domain.ErrLookupTransport for other network
// failures (DNS, connection refused).
func (c *Client) FetchProduct(ctx context.Context, barcode string) (map[string]interface{}, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	reqURL := fmt.Sprintf("%s/api/v2/product/%s.json", c.baseURL, url.PathEscape(barcode))
	if c.debug {
		log.Printf("[off] GET %s", reqURL)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			log.Printf("[off] request timed out for barcode %q, treating as not found", barcode)
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrLookupTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[off] status %d for barcode %q", resp.StatusCode, barcode)
		return nil, domain.ErrProductNotFound
	}

	var payload map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		log.Printf("[off] JSON decode error for barcode %q: %v", barcode, err)
		return nil, domain.ErrProductNotFound
	}

	if !productFound(payload) {
		return nil, domain.ErrProductNotFound
	}

	return payload, nil
}

// productFound checks the API's "status: 1 plus a product object" marker.
// The status field arrives as a JSON number but some revisions send a string.
func productFound(payload map[string]interface{}) bool {
	status, ok := payload["status"]
	if !ok {
		return false
	}

	found := false
	switch v := status.(type) {
	case float64:
		found = v == 1
	case string:
		found = v == "1"
	case json.Number:
		found = v.String() == "1"
	}
	if !found {
		return false
	}

	product, ok := payload["product"].(map[string]interface{})
	return ok && len(product) > 0
}

// isTimeout reports whether err stems from the per-request deadline.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}
	return os.IsTimeout(err)
}
