package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bulknepal/bulknepal/internal/auth"
	"github.com/bulknepal/bulknepal/internal/market"
	"github.com/bulknepal/bulknepal/internal/nepse"
)

type stubMarket struct {
	status    market.Status
	statusErr error
	snap      *market.Snapshot
	snapErr   error
	offerings []market.Offering
	offerErr  error
	gotQuery  market.OfferingQuery
}

func (m *stubMarket) MarketStatus(ctx context.Context) (market.Status, error) {
	return m.status, m.statusErr
}

func (m *stubMarket) HomePage(ctx context.Context) (*market.Snapshot, error) {
	return m.snap, m.snapErr
}

func (m *stubMarket) Offerings(ctx context.Context, q market.OfferingQuery) ([]market.Offering, error) {
	m.gotQuery = q
	return m.offerings, m.offerErr
}

type stubVerifier struct {
	profile *auth.Profile
	err     error
}

func (v *stubVerifier) Verify(ctx context.Context, idToken string) (*auth.Profile, error) {
	return v.profile, v.err
}

func newTestRouter(m Market, v Verifier) http.Handler {
	signer := auth.NewSigner("test-secret", 7*24*time.Hour)
	srv := NewServer(m, v, signer, nil, nil, zap.NewNop())
	return NewRouter(srv, zap.NewNop())
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec, payload
}

func TestHealth(t *testing.T) {
	router := newTestRouter(&stubMarket{}, &stubVerifier{})

	rec, payload := doJSON(t, router, "GET", "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if payload["success"] != true {
		t.Errorf("success = %v", payload["success"])
	}
}

func TestMarketStatus(t *testing.T) {
	m := &stubMarket{status: market.Status{IsOpen: true, UpdatedAt: "2026-08-28 15:00:00"}}
	router := newTestRouter(m, &stubVerifier{})

	rec, payload := doJSON(t, router, "GET", "/bulknepal/api/v1/nepselive/market/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	data := payload["data"].(map[string]any)
	if data["isOpen"] != true {
		t.Errorf("isOpen = %v", data["isOpen"])
	}
}

func TestMarketStatusUpstreamFailure(t *testing.T) {
	m := &stubMarket{statusErr: &nepse.UpstreamError{Message: "Failed to fetch market status"}}
	router := newTestRouter(m, &stubVerifier{})

	rec, payload := doJSON(t, router, "GET", "/bulknepal/api/v1/nepselive/market/status", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if payload["success"] != false {
		t.Errorf("success = %v", payload["success"])
	}
	if payload["message"] != "Failed to fetch market status" {
		t.Errorf("message = %v", payload["message"])
	}
}

func TestMarketIndicesFieldNames(t *testing.T) {
	m := &stubMarket{snap: &market.Snapshot{
		Indices:         []market.TickerItem{{Name: "NEPSE", LTP: 2100}},
		TopTransactions: []market.TickerItem{{Symbol: "NABIL"}},
	}}
	router := newTestRouter(m, &stubVerifier{})

	rec, payload := doJSON(t, router, "GET", "/bulknepal/api/v1/nepselive/market/indices", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	data := payload["data"].(map[string]any)
	if _, ok := data["topTransaction"]; !ok {
		t.Error("response must expose the topTransaction list")
	}
	if _, ok := data["topTransactions"]; ok {
		t.Error("internal plural name leaked into the response")
	}
}

func TestOfferingsBodyTuplePassedThrough(t *testing.T) {
	m := &stubMarket{offerings: []market.Offering{{Symbol: "SRLI", Status: "Open"}}}
	router := newTestRouter(m, &stubVerifier{})

	rec, payload := doJSON(t, router, "POST",
		"/bulknepal/api/v1/cdsc/application/open/general",
		`{"pageSize":500,"type":0,"forValue":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if m.gotQuery != (market.OfferingQuery{PageSize: 500, Type: 0, ForValue: 2}) {
		t.Errorf("query = %+v", m.gotQuery)
	}
	if payload["success"] != true {
		t.Errorf("success = %v", payload["success"])
	}
}

func TestOfferingsCategoryFallback(t *testing.T) {
	m := &stubMarket{}
	router := newTestRouter(m, &stubVerifier{})

	// No body tuple: the fpo segment maps to {500, 1, 2}.
	rec, _ := doJSON(t, router, "POST", "/bulknepal/api/v1/cdsc/application/open/fpo", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if m.gotQuery != (market.OfferingQuery{PageSize: 500, Type: 1, ForValue: 2}) {
		t.Errorf("query = %+v", m.gotQuery)
	}
}

func TestGoogleLoginMissingToken(t *testing.T) {
	router := newTestRouter(&stubMarket{}, &stubVerifier{})

	rec, payload := doJSON(t, router, "POST", "/bulknepal/api/v1/auth/google", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if payload["message"] != "Missing idToken" {
		t.Errorf("message = %v", payload["message"])
	}
}

func TestGoogleLoginAudienceMismatch(t *testing.T) {
	router := newTestRouter(&stubMarket{}, &stubVerifier{err: auth.ErrAudienceMismatch})

	rec, payload := doJSON(t, router, "POST", "/bulknepal/api/v1/auth/google", `{"idToken":"tok"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	if payload["message"] != "ID token audience mismatch" {
		t.Errorf("message = %v", payload["message"])
	}
}

func TestGoogleLoginIssuesParseableSession(t *testing.T) {
	profile := &auth.Profile{Subject: "123", Email: "trader@example.com", Name: "Trader"}
	signer := auth.NewSigner("test-secret", 7*24*time.Hour)
	srv := NewServer(&stubMarket{}, &stubVerifier{profile: profile}, signer, nil, nil, zap.NewNop())
	router := NewRouter(srv, zap.NewNop())

	rec, payload := doJSON(t, router, "POST", "/bulknepal/api/v1/auth/google", `{"idToken":"tok"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	data := payload["data"].(map[string]any)
	token, _ := data["token"].(string)
	if token == "" {
		t.Fatal("no session token issued")
	}

	parsed, err := signer.Parse(token)
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if parsed.Email != "trader@example.com" {
		t.Errorf("parsed email = %q", parsed.Email)
	}

	user := data["user"].(map[string]any)
	if user["sub"] != "123" {
		t.Errorf("user sub = %v", user["sub"])
	}
}

func TestAuthMe(t *testing.T) {
	profile := &auth.Profile{Subject: "123", Email: "trader@example.com"}
	signer := auth.NewSigner("test-secret", time.Hour)
	srv := NewServer(&stubMarket{}, &stubVerifier{}, signer, nil, nil, zap.NewNop())
	router := NewRouter(srv, zap.NewNop())

	req := httptest.NewRequest("GET", "/bulknepal/api/v1/auth/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d, want 401", rec.Code)
	}

	token, err := signer.Sign(profile)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	req = httptest.NewRequest("GET", "/bulknepal/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("with token: status = %d", rec.Code)
	}

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	data := payload["data"].(map[string]any)
	if data["email"] != "trader@example.com" {
		t.Errorf("email = %v", data["email"])
	}
}

func TestRateLimit(t *testing.T) {
	signer := auth.NewSigner("test-secret", time.Hour)
	limiter := rate.NewLimiter(rate.Limit(0), 0) // reject everything
	srv := NewServer(&stubMarket{}, &stubVerifier{}, signer, nil, limiter, zap.NewNop())
	router := NewRouter(srv, zap.NewNop())

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
}

func TestOpenAPIServed(t *testing.T) {
	router := newTestRouter(&stubMarket{}, &stubVerifier{})

	req := httptest.NewRequest("GET", "/openapi.yaml", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "BulkNepal API") {
		t.Error("openapi document missing title")
	}
}
