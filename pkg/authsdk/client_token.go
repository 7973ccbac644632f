package authsdk

import (
	"context"
	"net/http"
)

// IssueToken exchanges a username (or email) and password for a token.
func (c *SDKClient) IssueToken(ctx context.Context, username, password string) (*TokenResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/token", TokenRequest{
		Username: username,
		Password: password,
	}, nil)
	if err != nil {
		return nil, err
	}

	var tok TokenResponse
	if err := decodeJSON(resp, &tok, http.StatusOK); err != nil {
		return nil, err
	}
	return &tok, nil
}

// ValidateToken asks the service whether token is valid.
func (c *SDKClient) ValidateToken(ctx context.Context, token string) (*ValidateResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/validate", nil, map[string]string{
		"Authorization": bearer(token),
	})
	if err != nil {
		return nil, err
	}

	var v ValidateResponse
	if err := decodeJSON(resp, &v, http.StatusOK); err != nil {
		return nil, err
	}
	return &v, nil
}
