package workers

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"net/http"
	"path"
	"strings"
	"time"

	"grorent/httputil"
	"grorent/models"
	"grorent/storage"
)

// MediaWorker mirrors scraped listing photos to object storage. Agency
// sites recycle image URLs; keeping our own copy preserves what the
// listing looked like when we saw it.
type MediaWorker struct {
	store      *storage.PostgresStore
	httpClient *http.Client
	uploader   storage.Uploader
	triggerCh  chan struct{}
	logFunc    LogFunc
}

func NewMediaWorker(store *storage.PostgresStore, uploader storage.Uploader) *MediaWorker {
	return &MediaWorker{
		store: store,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		uploader:  uploader,
		triggerCh: make(chan struct{}, 1),
		logFunc:   NoOpLogger,
	}
}

func (w *MediaWorker) SetLogger(fn LogFunc) {
	w.logFunc = fn
}

// Trigger causes the worker to run a batch immediately.
func (w *MediaWorker) Trigger() {
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}

// Run starts the mirror loop.
func (w *MediaWorker) Run(ctx context.Context, batchSize int, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Media worker stopping")
			return
		case <-ticker.C:
			w.processBatch(ctx, batchSize)
		case <-w.triggerCh:
			w.processBatch(ctx, batchSize)
		}
	}
}

func (w *MediaWorker) processBatch(ctx context.Context, batchSize int) {
	assets, err := w.store.GetPendingMedia(ctx, batchSize)
	if err != nil {
		log.Printf("Media worker: query error: %v", err)
		return
	}
	if len(assets) == 0 {
		return
	}

	log.Printf("Media worker: processing %d items", len(assets))

	var mirrored, failed int
	for i := range assets {
		m := &assets[i]

		key, err := w.mirror(ctx, m)
		if err != nil {
			log.Printf("Media worker: failed %s: %v", m.OriginalURL, err)
			if err := w.store.MarkMediaFailed(ctx, m.ID); err != nil {
				log.Printf("Media worker: mark failed %d: %v", m.ID, err)
			}
			failed++
			continue
		}

		if err := w.store.MarkMediaMirrored(ctx, m.ID, key); err != nil {
			log.Printf("Media worker: mark mirrored %d: %v", m.ID, err)
			failed++
			continue
		}
		mirrored++
	}

	w.logFunc(models.LogLevelInfo,
		fmt.Sprintf("media batch: %d mirrored, %d failed", mirrored, failed), "")
}

// mirror downloads one image, hashes it, and uploads under a content-hash
// key. Returns the S3 key.
func (w *MediaWorker) mirror(ctx context.Context, m *models.MediaAsset) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.OriginalURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", httputil.UserAgent)
	req.Header.Set("Accept", "image/*,*/*")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 20*1024*1024))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	hash := sha256.Sum256(data)
	hashHex := hex.EncodeToString(hash[:])
	ext := guessExtension(m.OriginalURL, resp.Header.Get("Content-Type"))
	key := fmt.Sprintf("listings/%s/%s%s", hashHex[:2], hashHex, ext)

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	if _, err := w.uploader.Upload(ctx, key, bytes.NewReader(data), contentType); err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}

	return key, nil
}

func guessExtension(rawURL, contentType string) string {
	ext := strings.ToLower(path.Ext(rawURL))
	if i := strings.IndexByte(ext, '?'); i >= 0 {
		ext = ext[:i]
	}
	if isImageExt(ext) {
		return ext
	}

	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

func isImageExt(ext string) bool {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return true
	}
	return false
}
