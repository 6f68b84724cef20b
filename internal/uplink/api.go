package uplink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	loginPath  = "/auth/battery-login"
	uploadPath = "/webhook/live-data"
)

// HTTPAPI talks to the cloud ingestion API.
type HTTPAPI struct {
	baseURL   string
	batteryID int
	secret    string
	client    *http.Client
}

// NewHTTPAPI creates a client for baseURL.
func NewHTTPAPI(baseURL string, batteryID int, secret string, client *http.Client) *HTTPAPI {
	if client == nil {
		client = &http.Client{Timeout: HTTPTimeout}
	}
	return &HTTPAPI{
		baseURL:   strings.TrimRight(baseURL, "/"),
		batteryID: batteryID,
		secret:    secret,
		client:    client,
	}
}

type loginRequest struct {
	BatteryID     int    `json:"battery_id"`
	BatterySecret string `json:"battery_secret"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

// Login posts the battery credentials and returns the bearer token.
func (a *HTTPAPI) Login(ctx context.Context) (string, error) {
	body, err := json.Marshal(loginRequest{BatteryID: a.batteryID, BatterySecret: a.secret})
	if err != nil {
		return "", fmt.Errorf("encode login: %w", err)
	}
	resp, err := a.post(ctx, loginPath, "", body)
	if err != nil {
		return "", err
	}
	var lr loginResponse
	if err := json.Unmarshal(resp, &lr); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if lr.AccessToken == "" {
		return "", ErrNoToken
	}
	return lr.AccessToken, nil
}

// Upload posts one reading with the bearer token.
func (a *HTTPAPI) Upload(ctx context.Context, token string, body []byte) error {
	_, err := a.post(ctx, uploadPath, token, body)
	return err
}

func (a *HTTPAPI) post(ctx context.Context, path, token string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("post %s: status %d", path, resp.StatusCode)
	}
	return data, nil
}
