package readwise

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New("test-token", testLogger(),
		WithBaseURL(srv.URL),
		WithRateLimit(1000, 1000),
	)
}

func TestExportSinglePage(t *testing.T) {
	var gotAuth, gotPath, gotUpdatedAfter string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotUpdatedAfter = r.URL.Query().Get("updatedAfter")
		w.Write([]byte(`{
			"count": 1,
			"nextPageCursor": null,
			"results": [{"user_book_id": 11, "title": "The Dispossessed", "highlights": []}]
		}`))
	})

	after := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	books, err := client.Export(context.Background(), &after)
	require.NoError(t, err)

	assert.Equal(t, "Token test-token", gotAuth)
	assert.Equal(t, "/export/", gotPath)
	assert.Equal(t, "2025-06-01T12:00:00Z", gotUpdatedAfter)

	require.Len(t, books, 1)
	assert.Equal(t, "The Dispossessed", books[0]["title"])
}

func TestExportFollowsPagination(t *testing.T) {
	var cursors []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		cursor := r.URL.Query().Get("pageCursor")
		cursors = append(cursors, cursor)
		if cursor == "" {
			w.Write([]byte(`{
				"count": 2,
				"nextPageCursor": "page-2",
				"results": [{"user_book_id": 1}]
			}`))
			return
		}
		w.Write([]byte(`{
			"count": 2,
			"nextPageCursor": null,
			"results": [{"user_book_id": 2}]
		}`))
	})

	books, err := client.Export(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"", "page-2"}, cursors)
	require.Len(t, books, 2)
}

func TestExportOmitsUpdatedAfterOnFirstRun(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("updatedAfter"))
		w.Write([]byte(`{"count": 0, "nextPageCursor": null, "results": []}`))
	})

	books, err := client.Export(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestExportStatusErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"forbidden", http.StatusForbidden, ErrUnauthorized},
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited},
		{"server error", http.StatusInternalServerError, ErrServer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			_, err := client.Export(context.Background(), nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExportMalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": `))
	})
	_, err := client.Export(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode export page")
}
