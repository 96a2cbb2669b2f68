package account

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPQuotaFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))
		assert.Equal(t, "acct-1", r.Header.Get("Chatgpt-Account-Id"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"plan_type":"plus","used_percent":42.5,"resets_at":1756000000}`))
	}))
	defer srv.Close()

	fetcher := NewHTTPQuotaFetcher(srv.URL, nil)

	quota, err := fetcher.FetchQuota(context.Background(), "at-1", "acct-1")
	require.NoError(t, err)

	assert.Equal(t, "plus", quota.PlanType)
	assert.Equal(t, 42.5, quota.UsedPercent)
	assert.Equal(t, time.Unix(1756000000, 0), quota.ResetsAt)
}

func TestHTTPQuotaFetcher_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	fetcher := NewHTTPQuotaFetcher(srv.URL, nil)

	_, err := fetcher.FetchQuota(context.Background(), "at", "")
	assert.Error(t, err)
}

func TestHTTPQuotaFetcher_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	fetcher := NewHTTPQuotaFetcher(srv.URL, nil)

	_, err := fetcher.FetchQuota(context.Background(), "at", "")
	assert.Error(t, err)
}
