package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/N1c0zz/NeuraMind/internal/config"
)

func testAPIConfig(baseURL string) config.APIConfig {
	return config.APIConfig{
		BaseURL:           baseURL,
		Key:               "test-key",
		DefaultUserID:     "user-1",
		ShortTimeoutSecs:  30,
		UploadTimeoutSecs: 60,
	}
}

func TestClientSendsAPIKeyHeader(t *testing.T) {
	var gotKey, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(testAPIConfig(srv.URL), nil)
	if err := c.doJSON(context.Background(), "POST", "/query", map[string]string{"q": "x"}, nil); err != nil {
		t.Fatalf("doJSON: %v", err)
	}
	if gotKey != "test-key" {
		t.Errorf("X-API-Key = %q, want %q", gotKey, "test-key")
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", gotContentType)
	}
}

func TestClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"missing"}`))
	}))
	defer srv.Close()

	c := NewClient(testAPIConfig(srv.URL), nil)
	err := c.doJSON(context.Background(), "GET", "/documents/u/x", nil, nil)

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}
	if te.Kind != KindHTTPStatus || te.Status != http.StatusNotFound {
		t.Errorf("got kind=%s status=%d, want http_status/404", te.Kind, te.Status)
	}
	if StatusOf(err) != http.StatusNotFound {
		t.Errorf("StatusOf = %d, want 404", StatusOf(err))
	}
}

func TestClientTimeoutClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(testAPIConfig(srv.URL), nil)
	c.short.Timeout = 20 * time.Millisecond

	err := c.doJSON(context.Background(), "GET", "/health", nil, nil)

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}
	if te.Kind != KindTimeout {
		t.Errorf("kind = %s, want timeout", te.Kind)
	}
}

func TestClientNetworkErrorClassified(t *testing.T) {
	// Closed server: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(testAPIConfig(srv.URL), nil)
	err := c.doJSON(context.Background(), "GET", "/health", nil, nil)

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}
	if te.Kind != KindNetwork {
		t.Errorf("kind = %s, want network", te.Kind)
	}
}

func TestClientDecodeErrorClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	c := NewClient(testAPIConfig(srv.URL), nil)
	var out map[string]interface{}
	err := c.doJSON(context.Background(), "GET", "/health", nil, &out)

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}
	if te.Kind != KindDecode {
		t.Errorf("kind = %s, want decode", te.Kind)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" || r.Method != http.MethodGet {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(testAPIConfig(srv.URL), nil)
	if err := c.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
}
