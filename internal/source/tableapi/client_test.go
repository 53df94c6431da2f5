package tableapi

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tablesync/internal/domain"
	"tablesync/internal/ratelimit"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestClient builds a client whose backoff sleeps are recorded
// instead of slept.
func newTestClient(baseURL, workspaceID string) (*Client, *[]time.Duration) {
	client := New(Config{
		BaseURL:     baseURL,
		WorkspaceID: workspaceID,
		TableID:     "T1",
		APIKey:      "key",
		APISecret:   "secret",
		Timeout:     5 * time.Second,
		MaxAttempts: 3,
		BackoffBase: 5 * time.Second,
	}, ratelimit.New(10000), testLogger())

	sleeps := &[]time.Duration{}
	client.sleep = func(_ context.Context, d time.Duration) error {
		*sleeps = append(*sleeps, d)
		return nil
	}
	return client, sleeps
}

func TestFetchRecords_EncodesQuery(t *testing.T) {
	var gotPath, gotAuth string
	var gotQuery map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		user, pass, _ := r.BasicAuth()
		gotAuth = user + ":" + pass
		gotQuery = map[string]string{
			"limit":       r.URL.Query().Get("limit"),
			"offset":      r.URL.Query().Get("offset"),
			"filters":     r.URL.Query().Get("filters"),
			"sortOptions": r.URL.Query().Get("sortOptions"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"1","_updatedAt":"2024-01-02T00:00:00Z"}]`))
	}))
	defer server.Close()

	client, _ := newTestClient(server.URL, "")

	records, err := client.FetchRecords(context.Background(), domain.RecordQuery{
		Limit:  100,
		Offset: 200,
		Filters: []domain.Filter{
			{Field: "_updatedAt", FunctionType: "greaterThan", Arg: "2024-01-01T00:00:00Z"},
		},
		Sort: []domain.SortOption{{SortBy: "_updatedAt", SortDir: "asc"}},
	})

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "1", records[0]["id"])

	assert.Equal(t, "/tables/T1/records", gotPath)
	assert.Equal(t, "key:secret", gotAuth)
	assert.Equal(t, "100", gotQuery["limit"])
	assert.Equal(t, "200", gotQuery["offset"])
	assert.JSONEq(t, `[{"field":"_updatedAt","functionType":"greaterThan","arg":"2024-01-01T00:00:00Z"}]`, gotQuery["filters"])
	assert.JSONEq(t, `[{"sortBy":"_updatedAt","sortDir":"asc"}]`, gotQuery["sortOptions"])
}

func TestFetchRecords_WorkspaceScopedPath(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client, _ := newTestClient(server.URL, "ws42")

	records, err := client.FetchRecords(context.Background(), domain.RecordQuery{Limit: 100})

	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, "/w/ws42/tables/T1/records", gotPath)
}

func TestFetchMetadata_ParsesFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tables/T1", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"label": "Work Orders",
			"columns": [
				{"name": "f1", "label": "Customer Name", "dataType": {"type": "text"}},
				{"name": "f2", "label": "Quantity", "dataType": {"type": "integer"}}
			]
		}`))
	}))
	defer server.Close()

	client, _ := newTestClient(server.URL, "")

	meta, err := client.FetchMetadata(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Work Orders", meta.Label)
	require.Len(t, meta.Fields, 2)
	assert.Equal(t, domain.Field{ID: "f1", Label: "Customer Name", Type: "text"}, meta.Fields[0])
	assert.Equal(t, domain.Field{ID: "f2", Label: "Quantity", Type: "integer"}, meta.Fields[1])
}

func TestFetchRecords_RetriesRateLimitWithBackoff(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`[{"id":"1"}]`))
	}))
	defer server.Close()

	client, sleeps := newTestClient(server.URL, "")

	records, err := client.FetchRecords(context.Background(), domain.RecordQuery{Limit: 100})

	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 3, attempts)
	// base*1 then base*2
	assert.Equal(t, []time.Duration{5 * time.Second, 10 * time.Second}, *sleeps)
}

func TestFetchRecords_RateLimitExhaustsAttempts(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, sleeps := newTestClient(server.URL, "")

	_, err := client.FetchRecords(context.Background(), domain.RecordQuery{Limit: 100})

	require.Error(t, err)
	assert.Equal(t, domain.KindRateLimited, domain.KindOf(err))
	assert.Equal(t, 3, attempts)
	assert.Len(t, *sleeps, 2)
}

func TestFetchRecords_ServerErrorFailsImmediately(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, sleeps := newTestClient(server.URL, "")

	_, err := client.FetchRecords(context.Background(), domain.RecordQuery{Limit: 100})

	require.Error(t, err)
	assert.Equal(t, domain.KindRejected, domain.KindOf(err))
	assert.Equal(t, 1, attempts)
	assert.Empty(t, *sleeps)
}

func TestFetchRecords_TransportErrorRetriedUntilExhaustion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	client, sleeps := newTestClient(server.URL, "")

	_, err := client.FetchRecords(context.Background(), domain.RecordQuery{Limit: 100})

	require.Error(t, err)
	assert.Equal(t, domain.KindTransient, domain.KindOf(err))
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, []time.Duration{5 * time.Second, 10 * time.Second}, *sleeps)
}
