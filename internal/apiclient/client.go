// Package apiclient is the dashboard's client for the BulkNepal backend.
// Its market methods satisfy the synchronizer's Source interface.
package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/bulknepal/bulknepal/internal/auth"
	"github.com/bulknepal/bulknepal/internal/market"
)

const apiPrefix = "/bulknepal/api/v1"

type Client struct {
	rc     *resty.Client
	logger *zap.Logger
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	rc := resty.New()
	rc.SetBaseURL(baseURL)
	rc.SetTimeout(30 * time.Second)
	rc.SetHeader("Accept", "application/json")

	return &Client{rc: rc, logger: logger}
}

// SetToken attaches the session token to every subsequent request.
func (c *Client) SetToken(token string) {
	c.rc.SetAuthToken(token)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// call runs one request and unwraps the response envelope into out.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	req := c.rc.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json")
		req.SetBody(body)
	}

	resp, err := req.Execute(method, apiPrefix+path)
	if err != nil {
		return fmt.Errorf("backend request %s: %w", path, err)
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return fmt.Errorf("backend response %s: %w", path, err)
	}
	if !resp.IsSuccess() || !env.Success {
		msg := env.Message
		if msg == "" {
			msg = resp.Status()
		}
		return fmt.Errorf("backend %s: %s", path, msg)
	}
	if out != nil && env.Data != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("backend payload %s: %w", path, err)
		}
	}
	return nil
}

// MarketStatus fetches the proxied market open/close state.
func (c *Client) MarketStatus(ctx context.Context) (market.Status, error) {
	var status market.Status
	if err := c.call(ctx, "GET", "/nepselive/market/status", nil, &status); err != nil {
		return market.Status{}, err
	}
	return status, nil
}

// HomePage fetches the proxied live market snapshot.
func (c *Client) HomePage(ctx context.Context) (*market.Snapshot, error) {
	var snap market.Snapshot
	if err := c.call(ctx, "GET", "/nepselive/market/indices", nil, &snap); err != nil {
		return nil, err
	}
	if snap.FetchedAt.IsZero() {
		snap.FetchedAt = time.Now()
	}
	return &snap, nil
}

// Offerings fetches one public-offering category.
func (c *Client) Offerings(ctx context.Context, category string) ([]market.Offering, error) {
	q := market.CategoryQuery(category)

	var offerings []market.Offering
	path := "/cdsc/application/open/" + category
	if err := c.call(ctx, "POST", path, q, &offerings); err != nil {
		return nil, err
	}
	return offerings, nil
}

// Session is the login result: a signed session token plus the profile it
// embeds.
type Session struct {
	Token string        `json:"token"`
	User  *auth.Profile `json:"user"`
}

// Login exchanges a Google ID token for a session and attaches the session
// token to the client.
func (c *Client) Login(ctx context.Context, idToken string) (*Session, error) {
	var session Session
	body := map[string]string{"idToken": idToken}
	if err := c.call(ctx, "POST", "/auth/google", body, &session); err != nil {
		return nil, err
	}
	c.SetToken(session.Token)
	return &session, nil
}

// Me fetches the profile behind the attached session token.
func (c *Client) Me(ctx context.Context) (*auth.Profile, error) {
	var profile auth.Profile
	if err := c.call(ctx, "GET", "/auth/me", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}
