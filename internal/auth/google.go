package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Profile is the minimal identity record extracted from a verified ID token
// and embedded in every session token.
type Profile struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	Issuer  string `json:"iss"`
}

// Verifier validates Google ID tokens against the tokeninfo introspection
// endpoint and enforces the configured audience.
type Verifier struct {
	rc       *resty.Client
	audience string
	logger   *zap.Logger
}

func NewVerifier(tokenInfoURL, audience string, logger *zap.Logger) *Verifier {
	rc := resty.New()
	rc.SetBaseURL(tokenInfoURL)
	rc.SetTimeout(10 * time.Second)

	return &Verifier{rc: rc, audience: audience, logger: logger}
}

// Verify introspects an ID token. It fails with ErrMissingToken before any
// network call, ErrInvalidToken when the provider rejects the token, and
// ErrAudienceMismatch when the aud claim does not match the configured
// client ID. An empty configured audience skips the audience check.
func (v *Verifier) Verify(ctx context.Context, idToken string) (*Profile, error) {
	if idToken == "" {
		return nil, ErrMissingToken
	}

	resp, err := v.rc.R().
		SetContext(ctx).
		SetQueryParam("id_token", idToken).
		Get("")
	if err != nil {
		return nil, fmt.Errorf("introspecting token: %w", err)
	}

	if !resp.IsSuccess() {
		v.logger.Debug("tokeninfo rejected token",
			zap.Int("status", resp.StatusCode()),
		)
		return nil, ErrInvalidToken
	}

	var claims struct {
		Aud     string `json:"aud"`
		Sub     string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
		Iss     string `json:"iss"`
	}
	if err := json.Unmarshal(resp.Body(), &claims); err != nil {
		return nil, fmt.Errorf("decoding tokeninfo response: %w", err)
	}

	if v.audience != "" && claims.Aud != "" && claims.Aud != v.audience {
		return nil, ErrAudienceMismatch
	}

	return &Profile{
		Subject: claims.Sub,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
		Issuer:  claims.Iss,
	}, nil
}
