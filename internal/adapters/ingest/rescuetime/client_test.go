package rescuetime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	perr "timejar/internal/platform/errors"
)

const okBody = `{"notes":"n","row_headers":["Date"],"rows":[["2020-01-01T10:00:00"]]}`

func newTestClient(url string) *Client {
	c := NewClient(Options{BaseURL: url, Key: "secret", RetryBase: time.Millisecond})
	c.now = func() time.Time { return time.Date(2024, 3, 31, 15, 4, 5, 0, time.UTC) }
	return c
}

func TestFetch_SendsExportQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, "secret", q.Get("key"))
		require.Equal(t, "json", q.Get("format"))
		require.Equal(t, "interval", q.Get("perspective"))
		require.Equal(t, "minute", q.Get("interval"))
		require.Equal(t, "2024-03-01", q.Get("restrict_begin"))
		require.Equal(t, "2024-03-31", q.Get("restrict_end"))
		require.Equal(t, defaultUA, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	body, err := newTestClient(srv.URL).Fetch(context.Background())
	require.NoError(t, err)
	require.JSONEq(t, okBody, string(body))
}

func TestFetch_RetriesBadStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	body, err := newTestClient(srv.URL).Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(3), calls.Load())
	require.JSONEq(t, okBody, string(body))
}

func TestFetch_GivesUpAfterMaxTries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Fetch(context.Background())
	require.Error(t, err)
	require.Equal(t, perr.ErrorCodeExport, perr.CodeOf(err))
	require.Contains(t, err.Error(), "500")
	require.Equal(t, int32(defaultMaxTries), calls.Load())
}

func TestFetch_InvalidJSONIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Fetch(context.Background())
	require.Equal(t, perr.ErrorCodeJSON, perr.CodeOf(err))
	require.Equal(t, int32(1), calls.Load())
}

func TestFetch_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestClient(srv.URL).Fetch(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestFetch_RequiresKey(t *testing.T) {
	_, err := NewClient(Options{}).Fetch(context.Background())
	require.Equal(t, perr.ErrorCodeInvalidArgument, perr.CodeOf(err))
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Options{Key: "k"})
	require.Equal(t, baseURLDefault, c.opts.BaseURL)
	require.Equal(t, defaultMaxTries, c.opts.MaxTries)
	require.Equal(t, defaultWindow, c.opts.WindowDays)
	require.Equal(t, defaultTimeout, c.http.Timeout)
}

func TestRedact_HidesKey(t *testing.T) {
	c := newTestClient("http://example.invalid/data")
	got := c.redact(c.Query(c.now()))
	require.NotContains(t, got, "secret")
	require.Contains(t, got, "key=REDACTED")
}
