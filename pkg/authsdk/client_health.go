package authsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// GetLiveness reports whether the process is serving.
func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/livez")
}

// GetReadiness reports the dependency checks. A degraded service answers
// 503; the decoded checks are still returned alongside the *Error so the
// caller can see which one failed.
func (c *SDKClient) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/readyz")
}

func (c *SDKClient) health(ctx context.Context, path string) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var health HealthResponse
	decodeErr := json.Unmarshal(body, &health)

	switch {
	case resp.StatusCode == http.StatusOK && decodeErr == nil:
		return &health, nil
	case resp.StatusCode == http.StatusServiceUnavailable && decodeErr == nil && health.Status != "":
		return &health, &Error{Status: resp.StatusCode, Code: CodeError, Message: "service is " + health.Status}
	case resp.StatusCode == http.StatusOK:
		return nil, fmt.Errorf("failed to decode health response: %w", decodeErr)
	default:
		if err := parseErrorResponse(resp, body); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}
