// Package enrichment talks to the parts-and-booking service that decorates
// oil-change reminders with purchase candidates and a reservation link.
package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"carkeeper/internal/metrics"
	"carkeeper/internal/model"
)

// Client calls the enrichment HTTP API. Calls are rate limited so a burst of
// generated reminders cannot flood the upstream.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

func NewClient(baseURL string, rps float64) *Client {
	if rps <= 0 {
		rps = 1
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

type request struct {
	CarID   string `json:"carId"`
	OilSpec string `json:"oilSpec,omitempty"`
}

type response struct {
	PurchaseCandidates []model.PurchaseCandidate `json:"purchaseCandidates"`
	ReservationURL     string                    `json:"reservationUrl"`
}

// ResolvePurchaseAndBooking asks the upstream for purchase and booking data.
func (c *Client) ResolvePurchaseAndBooking(ctx context.Context, carID, oilSpec string) (*model.OilEnrichment, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("enrichment rate limit: %w", err)
	}

	body, err := json.Marshal(request{CarID: carID, OilSpec: oilSpec})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/oil-change", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build enrichment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	status := "error"
	defer func() {
		metrics.EnrichmentLatency.WithLabelValues(status).Observe(float64(time.Since(start).Milliseconds()))
	}()
	if err != nil {
		return nil, fmt.Errorf("call enrichment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("enrichment status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode enrichment: %w", err)
	}
	status = "ok"
	return &model.OilEnrichment{
		PurchaseCandidates: out.PurchaseCandidates,
		ReservationURL:     out.ReservationURL,
		OilSpec:            oilSpec,
	}, nil
}
