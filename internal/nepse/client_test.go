package nepse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bulknepal/bulknepal/internal/market"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, func()) {
	t.Helper()
	server := httptest.NewServer(handler)
	logger, _ := zap.NewDevelopment()
	return NewClient(server.URL, 5*time.Second, logger), server.Close
}

func TestMarketStatus_Success(t *testing.T) {
	client, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/live/api/v1/nepselive/market-status" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"isOpen":"OPEN","asOf":"2025-01-05T11:00:00"}`))
	})
	defer done()

	status, err := client.MarketStatus(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !status.IsOpen || status.UpdatedAt != "2025-01-05T11:00:00" {
		t.Errorf("unexpected status: %+v", status)
	}
}

func TestMarketStatus_UpstreamMessage(t *testing.T) {
	client, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"message":"maintenance window"}`))
	})
	defer done()

	_, err := client.MarketStatus(context.Background())
	ue, ok := AsUpstream(err)
	if !ok {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if ue.Message != "maintenance window" {
		t.Errorf("expected upstream message, got %q", ue.Message)
	}
}

func TestMarketStatus_FallbackMessage(t *testing.T) {
	client, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{}`))
	})
	defer done()

	_, err := client.MarketStatus(context.Background())
	ue, ok := AsUpstream(err)
	if !ok {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if ue.Message != "Failed to fetch market status" {
		t.Errorf("expected fallback message, got %q", ue.Message)
	}
}

func TestHomePage_ExplicitFailureBody(t *testing.T) {
	// Upstream sometimes reports failure in a 200 body.
	client, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"feed offline"}`))
	})
	defer done()

	_, err := client.HomePage(context.Background())
	ue, ok := AsUpstream(err)
	if !ok {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if ue.Message != "feed offline" {
		t.Errorf("expected feed offline, got %q", ue.Message)
	}
}

func TestHomePage_Normalizes(t *testing.T) {
	client, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"indices": [{"name":"NEPSE","currentValue":2100.5,"change":10.2,"changePercent":0.49}],
			"liveCompanyData": [{"symbol":"NABIL","lastTradedPrice":512.5,"change":-2,"percentageChange":-0.39}]
		}`))
	})
	defer done()

	snap, err := client.HomePage(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Indices) != 1 || snap.Indices[0].LTP != 2100.5 {
		t.Errorf("indices not normalized: %+v", snap.Indices)
	}
	if len(snap.ListedCompanies) != 1 || snap.ListedCompanies[0].Symbol != "NABIL" {
		t.Errorf("companies not normalized: %+v", snap.ListedCompanies)
	}
	if snap.FetchedAt.IsZero() {
		t.Error("FetchedAt must be stamped")
	}
}

func TestOfferings_QueryParams(t *testing.T) {
	client, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("size") != "500" || q.Get("type") != "1" || q.Get("for") != "2" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"content":[{"symbol":"hbl","name":"Himalayan Bank","status":"Open","units":100000,"price":100}]}}`))
	})
	defer done()

	offerings, err := client.Offerings(context.Background(), market.CategoryQuery("fpo"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(offerings) != 1 || offerings[0].Symbol != "HBL" {
		t.Errorf("unexpected offerings: %+v", offerings)
	}
}

func TestGet_NetworkError(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	client := NewClient("http://127.0.0.1:1", 500*time.Millisecond, logger)

	_, err := client.MarketStatus(context.Background())
	if err == nil {
		t.Fatal("expected error for unreachable upstream")
	}
	if _, ok := AsUpstream(err); ok {
		t.Error("network failure must not be classified as upstream rejection")
	}
}
