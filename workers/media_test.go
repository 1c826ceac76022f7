package workers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"grorent/models"
	"grorent/storage"
)

func TestGuessExtension(t *testing.T) {
	cases := []struct {
		url         string
		contentType string
		want        string
	}{
		{"https://cdn.example/foto-01.jpg", "", ".jpg"},
		{"https://cdn.example/foto-01.WEBP", "", ".webp"},
		{"https://images.unsplash.com/photo-1545324418?w=400&fit=crop", "image/png", ".png"},
		{"https://cdn.example/foto", "image/webp", ".webp"},
		{"https://cdn.example/foto", "", ".jpg"},
	}
	for _, tc := range cases {
		if got := guessExtension(tc.url, tc.contentType); got != tc.want {
			t.Fatalf("guessExtension(%q, %q) = %q, want %q", tc.url, tc.contentType, got, tc.want)
		}
	}
}

func TestMirrorProducesContentHashKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("fake-jpeg-bytes"))
	}))
	defer srv.Close()

	w := NewMediaWorker(nil, storage.NoOpUploader{})
	asset := &models.MediaAsset{ID: 1, OriginalURL: srv.URL + "/foto-01.jpg"}

	key, err := w.mirror(context.Background(), asset)
	if err != nil {
		t.Fatalf("mirror: %v", err)
	}
	if !strings.HasPrefix(key, "listings/") || !strings.HasSuffix(key, ".jpg") {
		t.Fatalf("unexpected key %q", key)
	}

	// Same bytes, same key.
	again, err := w.mirror(context.Background(), asset)
	if err != nil {
		t.Fatalf("mirror: %v", err)
	}
	if key != again {
		t.Fatalf("hash key not stable: %q vs %q", key, again)
	}
}

func TestMirrorRejectsMissingImage(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	w := NewMediaWorker(nil, storage.NoOpUploader{})
	asset := &models.MediaAsset{ID: 1, OriginalURL: srv.URL + "/gone.jpg"}

	if _, err := w.mirror(context.Background(), asset); err == nil {
		t.Fatal("expected error for missing image")
	}
}
