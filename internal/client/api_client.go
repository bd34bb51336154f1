package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/yourorg/market-dashboard/internal/dashboard"
)

// APIClient handles communication with the market data API
type APIClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string, timeout time.Duration, logger *zap.Logger) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// BaseURL returns the API root the client talks to
func (c *APIClient) BaseURL() string {
	return c.baseURL
}

// get fetches path and returns the body of a 2xx response. Connection
// failures wrap dashboard.ErrTransport, bad statuses dashboard.ErrDecode.
func (c *APIClient) get(ctx context.Context, path string) ([]byte, error) {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("Request failed", zap.String("url", url), zap.Error(err))
		return nil, fmt.Errorf("get %s: %v: %w", path, err, dashboard.ErrTransport)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %v: %w", path, err, dashboard.ErrTransport)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("API returned unexpected status",
			zap.String("url", url),
			zap.Int("status_code", resp.StatusCode))
		return nil, fmt.Errorf("get %s: %s: %w", path, errorMessage(resp.StatusCode, body), dashboard.ErrDecode)
	}

	return body, nil
}

// errorMessage extracts {"error": ...} or {"detail": ...} from an error body
func errorMessage(status int, body []byte) string {
	if msg := gjson.GetBytes(body, "error"); msg.Type == gjson.String {
		return msg.String()
	}
	if msg := gjson.GetBytes(body, "detail"); msg.Type == gjson.String {
		return msg.String()
	}
	return fmt.Sprintf("status %d", status)
}
