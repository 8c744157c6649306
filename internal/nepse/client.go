package nepse

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/bulknepal/bulknepal/internal/market"
)

const (
	marketStatusPath   = "/live/api/v1/nepselive/market-status"
	homePagePath       = "/live/api/v2/nepselive/home-page-data"
	publicOfferingPath = "/data/api/v1/public-offering"
)

// Client wraps the upstream NEPSE REST API. Every call is a direct
// passthrough: no retries, no caching, no outbound rate limiting.
type Client struct {
	rc     *resty.Client
	logger *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	rc := resty.New()
	rc.SetBaseURL(baseURL)
	rc.SetTimeout(timeout)
	rc.SetHeader("Content-Type", "application/json")

	return &Client{rc: rc, logger: logger}
}

// get issues one GET and decodes the body into a generic payload.
// A non-2xx status or an explicit success:false body yields an
// UpstreamError with the upstream message or the given fallback.
func (c *Client) get(ctx context.Context, path string, query map[string]string, fallback string) (map[string]any, error) {
	req := c.rc.R().SetContext(ctx)
	if query != nil {
		req.SetQueryParams(query)
	}

	resp, err := req.Get(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknown, err)
	}

	var payload map[string]any
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrUnknown, err)
	}

	if !resp.IsSuccess() || payload["success"] == false {
		msg := fallback
		if m, ok := payload["message"].(string); ok && m != "" {
			msg = m
		}
		c.logger.Debug("upstream rejected request",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode()),
			zap.String("message", msg),
		)
		return nil, &UpstreamError{Message: msg}
	}

	return payload, nil
}

// MarketStatus fetches the real-time market open/close state.
func (c *Client) MarketStatus(ctx context.Context) (market.Status, error) {
	payload, err := c.get(ctx, marketStatusPath, nil, "Failed to fetch market status")
	if err != nil {
		return market.Status{}, err
	}
	return market.NormalizeStatus(payload), nil
}

// HomePage fetches the live home-page payload (indices, sub-indices,
// company rows, top-N rankings, summaries) as one normalized snapshot.
func (c *Client) HomePage(ctx context.Context) (*market.Snapshot, error) {
	payload, err := c.get(ctx, homePagePath, nil, "Failed to fetch live indices")
	if err != nil {
		return nil, err
	}
	snap := market.NormalizeSnapshot(payload)
	snap.FetchedAt = time.Now()
	return snap, nil
}

// Offerings fetches one public-offering segment.
func (c *Client) Offerings(ctx context.Context, q market.OfferingQuery) ([]market.Offering, error) {
	query := map[string]string{
		"size": strconv.Itoa(q.PageSize),
		"type": strconv.Itoa(q.Type),
		"for":  strconv.Itoa(q.ForValue),
	}

	payload, err := c.get(ctx, publicOfferingPath, query, "Failed to fetch IPOs")
	if err != nil {
		return nil, err
	}

	data, _ := payload["data"].(map[string]any)
	if data == nil {
		return []market.Offering{}, nil
	}
	return market.NormalizeOfferings(data["content"]), nil
}
