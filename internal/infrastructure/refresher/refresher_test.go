package refresher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
	"github.com/krolist-app/go-backend/internal/cfg"
)

type noopLogger struct{}

func (noopLogger) Infof(format string, args ...any)             {}
func (noopLogger) Warnf(format string, args ...any)             {}
func (noopLogger) Errorf(err error, format string, args ...any) {}

func newTestRefresher(endpoint string, maxRetries int) *Refresher {
	return NewRefresher(&cfg.RefresherCfg{
		Endpoint:   endpoint,
		Timeout:    2 * time.Second,
		MaxRetries: maxRetries,
	}, noopLogger{})
}

func TestInvokeRefreshAll_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Write([]byte(`{"updated": 7, "checked": 42}`))
	}))
	defer srv.Close()

	res, err := newTestRefresher(srv.URL, 0).InvokeRefreshAll(context.Background())

	assert.Equal(t, nil, err)
	assert.Equal(t, 7, res.Ok.Updated)
	assert.Equal(t, 42, res.Ok.Checked)
	if res.Denied != nil {
		t.Fatal("expected no denial")
	}
}

func TestInvokeRefreshAll_QuotaDenied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": true, "message": "weekly limit reached", "nextRefreshDate": "2024-01-14T00:00:00Z"}`))
	}))
	defer srv.Close()

	res, err := newTestRefresher(srv.URL, 0).InvokeRefreshAll(context.Background())

	assert.Equal(t, nil, err)
	assert.Equal(t, "weekly limit reached", res.Denied.Message)
	assert.Equal(t, time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC), res.Denied.NextRefreshDate)
}

func TestInvokeRefreshAll_RetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"updated": 1, "checked": 1}`))
	}))
	defer srv.Close()

	res, err := newTestRefresher(srv.URL, 2).InvokeRefreshAll(context.Background())

	assert.Equal(t, nil, err)
	assert.Equal(t, 1, res.Ok.Updated)
	assert.Equal(t, int32(2), calls.Load())
}

func TestInvokeRefreshAll_ExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestRefresher(srv.URL, 1).InvokeRefreshAll(context.Background())

	assert.NotEqual(t, nil, err)
}
