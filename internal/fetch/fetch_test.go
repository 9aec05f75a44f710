package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/video-stream/recap/internal/failure"
	"github.com/video-stream/recap/internal/media"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr string
	}{
		{"https", "https://cdn.example.com/rec/1.mp4", ""},
		{"http with port", "http://localhost:8080/a.mp4", ""},
		{"empty", "   ", "Video URL is required"},
		{"relative", "/rec/1.mp4", "Invalid video URL format"},
		{"no scheme", "cdn.example.com/1.mp4", "Invalid video URL format"},
		{"ftp", "ftp://example.com/1.mp4", "Invalid video URL format"},
		{"garbage", "not a url", "Invalid video URL format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseURL(tt.raw)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("ParseURL(%q) error = %v", tt.raw, err)
				}
				return
			}
			if !failure.Is(err, failure.KindInvalidInput) {
				t.Fatalf("ParseURL(%q) err = %v, want invalid input", tt.raw, err)
			}
			if failure.Detail(err) != tt.wantErr {
				t.Fatalf("detail = %q, want %q", failure.Detail(err), tt.wantErr)
			}
		})
	}
}

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.Write([]byte("fake video bytes"))
	}))
	defer srv.Close()

	blob, err := New(Options{}).Fetch(context.Background(), srv.URL+"/call.mp4")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if blob.Kind() != media.KindVideo || string(blob.Bytes()) != "fake video bytes" {
		t.Fatalf("unexpected blob %s %q", blob.Kind(), blob.Bytes())
	}
	if blob.ContentType() != "video/mp4" {
		t.Fatalf("content type = %q", blob.ContentType())
	}
	if blob.Source() != "/call.mp4" {
		t.Fatalf("source = %q, want URL path", blob.Source())
	}
}

func TestFetchTimeoutIsBounded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	timeout := 100 * time.Millisecond
	start := time.Now()
	_, err := New(Options{Timeout: timeout}).Fetch(context.Background(), srv.URL)
	elapsed := time.Since(start)

	if !failure.Is(err, failure.KindUpstream) {
		t.Fatalf("err = %v, want upstream failure", err)
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("err = %v, want timeout message", err)
	}
	if elapsed > timeout+time.Second {
		t.Fatalf("fetch took %v, want about %v", elapsed, timeout)
	}
}

func TestFetchParentDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := New(Options{Timeout: 5 * time.Second}).Fetch(ctx, srv.URL)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want context.DeadlineExceeded", err)
	}
	if _, typed := failure.As(err); typed {
		t.Fatalf("parent deadline should not be classified by the fetcher: %v", err)
	}
}

func TestFetchNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(Options{}).Fetch(context.Background(), srv.URL)
	fe, ok := failure.As(err)
	if !ok || fe.Kind != failure.KindUpstream {
		t.Fatalf("err = %v, want upstream failure", err)
	}
	if fe.Status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", fe.Status)
	}
}

func TestFetchEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := New(Options{}).Fetch(context.Background(), srv.URL)
	if !failure.Is(err, failure.KindEmptyResult) {
		t.Fatalf("err = %v, want empty result", err)
	}
}

func TestFetchSizeCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	_, err := New(Options{MaxBytes: 16}).Fetch(context.Background(), srv.URL)
	if !failure.Is(err, failure.KindUpstream) {
		t.Fatalf("err = %v, want upstream failure", err)
	}
}

func TestFetchInvalidURLMakesNoRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	_, err := New(Options{}).Fetch(context.Background(), strings.TrimPrefix(srv.URL, "http://"))
	if !failure.Is(err, failure.KindInvalidInput) {
		t.Fatalf("err = %v, want invalid input", err)
	}
	if called {
		t.Fatal("server was contacted for an invalid URL")
	}
}
