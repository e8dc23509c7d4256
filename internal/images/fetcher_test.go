package images

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFetch(t *testing.T) {
	payload := []byte("\x89PNG fake image bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := NewFetcher(dir, time.Second)

	path, err := f.Fetch(context.Background(), srv.URL+"/a.jpg", "42")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if path != filepath.Join(dir, "image_42.png") {
		t.Errorf("Unexpected path %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read downloaded file: %v", err)
	}
	if string(data) != string(payload) {
		t.Errorf("Expected %q, got %q", payload, data)
	}

	// Same key overwrites rather than accumulating.
	if _, err := f.Fetch(context.Background(), srv.URL+"/b.jpg", "42"); err != nil {
		t.Fatalf("second Fetch failed: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected 1 file after refetch, got %d", len(entries))
	}
}

func TestFetchBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir(), time.Second)
	_, err := f.Fetch(context.Background(), srv.URL, "1")
	if !errors.Is(err, ErrBadStatus) {
		t.Fatalf("Expected ErrBadStatus, got %v", err)
	}
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	f := NewFetcher(t.TempDir(), 50*time.Millisecond)
	if _, err := f.Fetch(context.Background(), srv.URL, "1"); err == nil {
		t.Fatal("Expected timeout error")
	}
}

func TestFetchConnectionError(t *testing.T) {
	f := NewFetcher(t.TempDir(), time.Second)
	if _, err := f.Fetch(context.Background(), "http://127.0.0.1:1/none.png", "1"); err == nil {
		t.Fatal("Expected connection error")
	}
}

func TestPathForSanitizesKey(t *testing.T) {
	f := NewFetcher("/tmp/images", 0)

	tests := []struct {
		key      string
		expected string
	}{
		{"7", "/tmp/images/image_7.png"},
		{"../etc/passwd", "/tmp/images/image_.._etc_passwd.png"},
		{"", "/tmp/images/image__.png"},
	}
	for _, tt := range tests {
		if got := f.PathFor(tt.key); got != tt.expected {
			t.Errorf("PathFor(%q) = %s, expected %s", tt.key, got, tt.expected)
		}
	}
	if f.HTTPClient.Timeout != DefaultTimeout {
		t.Errorf("Expected default timeout %v, got %v", DefaultTimeout, f.HTTPClient.Timeout)
	}
}
