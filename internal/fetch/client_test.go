package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGet_ReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "test-agent" {
			t.Errorf("expected user agent test-agent, got %q", ua)
		}
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	c := New(WithHTTPClient(srv.Client()), WithUserAgent("test-agent"))
	body, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(body) != "<html>ok</html>" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestGet_Non2xxIsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	var hooked error
	c := New(WithHTTPClient(srv.Client()), WithResultHook(func(err error) { hooked = err }))
	_, err := c.Get(context.Background(), srv.URL)

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", se.StatusCode)
	}
	if hooked == nil {
		t.Fatalf("expected result hook to see the error")
	}
}

func TestGet_TimesOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := New(WithHTTPClient(srv.Client()), WithTimeout(20*time.Millisecond))

	start := time.Now()
	_, err := c.Get(context.Background(), srv.URL)
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("request was not bounded by the timeout")
	}
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"base":"USD","rates":{"EUR":0.9}}`))
	}))
	defer srv.Close()

	var out struct {
		Base  string             `json:"base"`
		Rates map[string]float64 `json:"rates"`
	}
	c := New(WithHTTPClient(srv.Client()), WithRateLimit(100, 1))
	if err := c.GetJSON(context.Background(), srv.URL, &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if out.Base != "USD" || out.Rates["EUR"] != 0.9 {
		t.Fatalf("unexpected decode %+v", out)
	}
}

func TestGet_OversizedBodyIsError(t *testing.T) {
	page := strings.Repeat("x", maxBodyBytes+1024) + "<!--end-->"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	c := New(WithHTTPClient(srv.Client()))
	body, err := c.Get(context.Background(), srv.URL)
	if !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("expected ErrBodyTooLarge, got err=%v len=%d", err, len(body))
	}
	if body != nil {
		t.Fatalf("expected no body, got %d bytes", len(body))
	}
}

func TestGet_BodyAtLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer srv.Close()

	c := New(WithHTTPClient(srv.Client()), WithMaxBody(10))
	body, err := c.Get(context.Background(), srv.URL)
	if err != nil || len(body) != 10 {
		t.Fatalf("expected full 10-byte body, got %d bytes, err %v", len(body), err)
	}

	c = New(WithHTTPClient(srv.Client()), WithMaxBody(9))
	if _, err := c.Get(context.Background(), srv.URL); !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("expected ErrBodyTooLarge, got %v", err)
	}
}
