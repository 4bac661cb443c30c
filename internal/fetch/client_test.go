package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestClientFetch(t *testing.T) {
	t.Parallel()

	t.Run("returns body of 2xx response", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<a href="b.txt">b.txt</a>`)) //nolint:errcheck
		}))
		defer server.Close()

		c, err := NewClient(WithHTTPClient(server.Client()))
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}

		body, err := c.Fetch(context.Background(), server.URL+"/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if body != `<a href="b.txt">b.txt</a>` {
			t.Errorf("unexpected body %q", body)
		}
	})

	t.Run("sends user agent and headers", func(t *testing.T) {
		t.Parallel()

		var gotUA, gotHeader string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			gotHeader = r.Header.Get("X-Test")
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		c, err := NewClient(
			WithHTTPClient(server.Client()),
			WithUserAgent("test-agent"),
			WithHeaders(map[string]string{"X-Test": "yes"}),
		)
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}

		if _, err := c.Fetch(context.Background(), server.URL); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotUA != "test-agent" {
			t.Errorf("expected user agent 'test-agent', got %q", gotUA)
		}
		if gotHeader != "yes" {
			t.Errorf("expected X-Test 'yes', got %q", gotHeader)
		}
	})

	t.Run("non-2xx status is a StatusError", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		c, err := NewClient(WithHTTPClient(server.Client()))
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}

		_, err = c.Fetch(context.Background(), server.URL+"/missing/")
		var statusErr *StatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("expected StatusError, got %v", err)
		}
		if statusErr.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", statusErr.StatusCode)
		}
		if statusErr.Temporary() {
			t.Error("404 should not be temporary")
		}
	})

	t.Run("invalid utf-8 body fails", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte{'<', 'a', 0xff, 0xfe}) //nolint:errcheck
		}))
		defer server.Close()

		c, err := NewClient(WithHTTPClient(server.Client()))
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}

		_, err = c.Fetch(context.Background(), server.URL)
		if !errors.Is(err, ErrInvalidUTF8) {
			t.Errorf("expected ErrInvalidUTF8, got %v", err)
		}
	})

	t.Run("oversized body fails", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(strings.Repeat("x", 100))) //nolint:errcheck
		}))
		defer server.Close()

		c, err := NewClient(WithHTTPClient(server.Client()), WithMaxBodySize(10))
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}

		_, err = c.Fetch(context.Background(), server.URL)
		if !errors.Is(err, ErrBodyTooLarge) {
			t.Errorf("expected ErrBodyTooLarge, got %v", err)
		}
	})

	t.Run("body at the limit is accepted", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(strings.Repeat("x", 10))) //nolint:errcheck
		}))
		defer server.Close()

		c, err := NewClient(WithHTTPClient(server.Client()), WithMaxBodySize(10))
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}

		if _, err := c.Fetch(context.Background(), server.URL); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("connection failure is returned", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		c, err := NewClient()
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}

		if _, err := c.Fetch(context.Background(), url+"/"); err == nil {
			t.Error("expected error for closed server")
		}
	})
}

func TestClientRetries(t *testing.T) {
	t.Parallel()

	t.Run("no retries by default", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		c, err := NewClient(WithHTTPClient(server.Client()))
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}

		if _, err := c.Fetch(context.Background(), server.URL); err == nil {
			t.Fatal("expected error")
		}
		if calls.Load() != 1 {
			t.Errorf("expected 1 call, got %d", calls.Load())
		}
	})

	t.Run("5xx is retried until success", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			_, _ = w.Write([]byte("ok")) //nolint:errcheck
		}))
		defer server.Close()

		c, err := NewClient(
			WithHTTPClient(server.Client()),
			WithRetries(3),
			WithBackoff(time.Millisecond, 2*time.Millisecond),
		)
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}

		body, err := c.Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if body != "ok" {
			t.Errorf("expected 'ok', got %q", body)
		}
		if calls.Load() != 3 {
			t.Errorf("expected 3 calls, got %d", calls.Load())
		}
	})

	t.Run("4xx is not retried", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		c, err := NewClient(
			WithHTTPClient(server.Client()),
			WithRetries(3),
			WithBackoff(time.Millisecond, 2*time.Millisecond),
		)
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}

		_, err = c.Fetch(context.Background(), server.URL)
		var statusErr *StatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("expected StatusError, got %v", err)
		}
		if calls.Load() != 1 {
			t.Errorf("expected 1 call, got %d", calls.Load())
		}
	})
}

func TestNewClientProxy(t *testing.T) {
	t.Parallel()

	t.Run("valid proxy address", func(t *testing.T) {
		t.Parallel()
		if _, err := NewClient(WithProxy("127.0.0.1:1080")); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("invalid proxy address", func(t *testing.T) {
		t.Parallel()
		_, err := NewClient(WithProxy("localhost"))
		if !errors.Is(err, ErrInvalidProxyAddress) {
			t.Errorf("expected ErrInvalidProxyAddress, got %v", err)
		}
	})
}

func TestIsValidProxyAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		address string
		want    bool
	}{
		{address: "127.0.0.1:9050", want: true},
		{address: "proxy.local:1080", want: true},
		{address: "[::1]:1080", want: true},
		{address: "127.0.0.1", want: false},
		{address: ":1080", want: false},
		{address: "host:0", want: false},
		{address: "host:65536", want: false},
		{address: "host:abc", want: false},
		{address: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			t.Parallel()
			if got := IsValidProxyAddress(tt.address); got != tt.want {
				t.Errorf("IsValidProxyAddress(%q) = %v, want %v", tt.address, got, tt.want)
			}
		})
	}
}

func TestDecodeUTF8(t *testing.T) {
	t.Parallel()

	if s, err := DecodeUTF8([]byte("日本語")); err != nil || s != "日本語" {
		t.Errorf("DecodeUTF8 valid input = %q, %v", s, err)
	}
	if _, err := DecodeUTF8([]byte{0xc3, 0x28}); !errors.Is(err, ErrInvalidUTF8) {
		t.Errorf("expected ErrInvalidUTF8, got %v", err)
	}
}
