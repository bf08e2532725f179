package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// requestIDHeader matches the header the server logs every request under
const requestIDHeader = "X-Request-ID"

// Client is an HTTP client for the API
type Client struct {
	baseURL    string
	token      string
	trace      io.Writer
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetToken updates the client's token
func (c *Client) SetToken(token string) {
	c.token = token
}

// SetVerbose enables request tracing on stderr
func (c *Client) SetVerbose(verbose bool) {
	if verbose {
		c.trace = os.Stderr
	} else {
		c.trace = nil
	}
}

// tracef writes one trace line when tracing is on
func (c *Client) tracef(format string, args ...any) {
	if c.trace != nil {
		_, _ = fmt.Fprintf(c.trace, format+"\n", args...)
	}
}

// redactToken keeps enough of a session token to tell sessions apart
func redactToken(token string) string {
	const keep = len("sess_") + 4
	if len(token) <= keep {
		return strings.Repeat("*", len(token))
	}
	return token[:keep] + "..."
}

// APIError represents an error response from the API
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`

	// RequestID is taken from the response header, for matching server logs
	RequestID string `json:"-"`
}

// ErrorResponse wraps an API error
type ErrorResponse struct {
	Error APIError `json:"error"`
}

func (e *APIError) String() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

func (e *APIError) Error() string {
	if e.RequestID == "" {
		return e.String()
	}
	return fmt.Sprintf("%s [request %s]", e.String(), e.RequestID)
}

// Do performs an HTTP request
func (c *Client) Do(method, path string, body, result any) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	// The ID is chosen here so a failed request can still be found in server logs
	requestID := uuid.NewString()
	req.Header.Set(requestIDHeader, requestID)

	c.tracef("> %s %s", method, url)
	c.tracef("> %s: %s", requestIDHeader, requestID)
	if c.token != "" {
		c.tracef("> Authorization: Bearer %s", redactToken(c.token))
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.tracef("! %s after %s: %v", requestID, time.Since(start).Round(time.Millisecond), err)
		return fmt.Errorf("request %s failed: %w", requestID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if echoed := resp.Header.Get(requestIDHeader); echoed != "" {
		requestID = echoed
	}
	c.tracef("< %s in %s, %d bytes", resp.Status, time.Since(start).Round(time.Millisecond), len(respBody))

	// Check for error responses
	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Code != "" {
			apiErr := errResp.Error
			if c.trace != nil {
				apiErr.RequestID = requestID
			}
			return &apiErr
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	// Parse successful response
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

// Get performs a GET request
func (c *Client) Get(path string, result any) error {
	return c.Do(http.MethodGet, path, nil, result)
}

// Post performs a POST request
func (c *Client) Post(path string, body, result any) error {
	return c.Do(http.MethodPost, path, body, result)
}

// Delete performs a DELETE request
func (c *Client) Delete(path string) error {
	return c.Do(http.MethodDelete, path, nil, nil)
}
