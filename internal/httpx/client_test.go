package httpx

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	clierr "github.com/polkaguardian/guardian-cli/internal/errors"
)

func TestDoJSONRetriesServerError(t *testing.T) {
	var count int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&count, 1)
		if n == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"x"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := New(2*time.Second, 1)
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	var out map[string]any
	if _, err := client.DoJSON(context.Background(), req, &out); err != nil {
		t.Fatalf("DoJSON failed: %v", err)
	}
	if out["ok"] != true {
		t.Fatalf("unexpected response: %#v", out)
	}
}

func TestDoBodyJSONReplaysBodyOnRetry(t *testing.T) {
	var count int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"key":"addr"}` {
			t.Errorf("unexpected body on attempt %d: %s", atomic.LoadInt32(&count), body)
		}
		if r.Header.Get("x-api-key") != "secret" {
			t.Errorf("missing api key header")
		}
		n := atomic.AddInt32(&count, 1)
		if n == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"code":0}`))
	}))
	defer srv.Close()

	client := New(2*time.Second, 1)
	var out map[string]any
	headers := map[string]string{"x-api-key": "secret"}
	if _, err := DoBodyJSON(context.Background(), client, http.MethodPost, srv.URL, []byte(`{"key":"addr"}`), headers, &out); err != nil {
		t.Fatalf("DoBodyJSON failed: %v", err)
	}
	if atomic.LoadInt32(&count) != 2 {
		t.Fatalf("expected 2 attempts, got %d", count)
	}
}

func TestDoJSONMapsAuthStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := New(time.Second, 0)
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
	_, err := client.DoJSON(context.Background(), req, &map[string]any{})
	cErr, ok := clierr.As(err)
	if !ok || cErr.Code != clierr.CodeAuth {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestDoJSONRateLimitIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := New(time.Second, 0)
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
	_, err := client.DoJSON(context.Background(), req, &map[string]any{})
	if !clierr.Transient(err) {
		t.Fatalf("expected transient rate-limit error, got %v", err)
	}
}
