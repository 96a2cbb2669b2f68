package account

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Quota is a point-in-time usage snapshot for one account.
type Quota struct {
	// PlanType is the provider's plan label, e.g. "plus" or "pro".
	PlanType string `json:"plan_type,omitempty"`

	// UsedPercent is how much of the primary usage window is consumed.
	UsedPercent float64 `json:"used_percent"`

	// ResetsAt is when the usage window resets, if the provider says.
	ResetsAt time.Time `json:"resets_at,omitempty"`

	// FetchedAt records when this snapshot was taken.
	FetchedAt time.Time `json:"fetched_at"`
}

// QuotaFetcher retrieves a usage snapshot from the provider.
type QuotaFetcher interface {
	FetchQuota(ctx context.Context, accessToken, providerAccountID string) (*Quota, error)
}

const (
	quotaRetryAttempts = 3
	quotaRetryDelay    = 500 * time.Millisecond
)

// fetchQuotaWithRetry attempts a quota fetch a few times with a flat delay.
// Quota data is decorative; the caller treats a nil result as "unknown"
// rather than as a failure.
func fetchQuotaWithRetry(ctx context.Context, fetcher QuotaFetcher, accessToken, providerAccountID string) *Quota {
	if fetcher == nil {
		return nil
	}

	var lastErr error
	for attempt := 1; attempt <= quotaRetryAttempts; attempt++ {
		quota, err := fetcher.FetchQuota(ctx, accessToken, providerAccountID)
		if err == nil {
			quota.FetchedAt = time.Now()
			return quota
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(quotaRetryDelay):
		}
	}

	slog.Warn("quota fetch failed, continuing without usage data",
		"attempts", quotaRetryAttempts,
		"error", lastErr.Error(),
	)
	return nil
}

// HTTPQuotaFetcher retrieves usage snapshots from the provider's usage
// endpoint using the account's own access token.
type HTTPQuotaFetcher struct {
	endpoint   string
	httpClient *http.Client
}

// NewHTTPQuotaFetcher creates a fetcher against the given usage endpoint.
// A nil client gets a default with a conservative timeout.
func NewHTTPQuotaFetcher(endpoint string, httpClient *http.Client) *HTTPQuotaFetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPQuotaFetcher{endpoint: endpoint, httpClient: httpClient}
}

// FetchQuota implements QuotaFetcher.
func (f *HTTPQuotaFetcher) FetchQuota(ctx context.Context, accessToken, providerAccountID string) (*Quota, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if providerAccountID != "" {
		req.Header.Set("Chatgpt-Account-Id", providerAccountID)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quota request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read quota response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("quota endpoint returned status %d", resp.StatusCode)
	}

	var payload struct {
		PlanType    string  `json:"plan_type"`
		UsedPercent float64 `json:"used_percent"`
		ResetsAt    int64   `json:"resets_at"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse quota response: %w", err)
	}

	quota := &Quota{
		PlanType:    payload.PlanType,
		UsedPercent: payload.UsedPercent,
	}
	if payload.ResetsAt > 0 {
		quota.ResetsAt = time.Unix(payload.ResetsAt, 0)
	}
	return quota, nil
}
