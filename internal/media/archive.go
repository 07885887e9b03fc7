// Package media archives inbound product images in object storage so drafts
// and catalog rows hold stable public URLs instead of provider media ids.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/garyellow/storebot/internal/metrics"
	"github.com/google/uuid"
)

// MaxImageBytes bounds one archived image.
const MaxImageBytes = 10 << 20

var (
	// ErrNotImage is returned for content that is not an image.
	ErrNotImage = errors.New("media: content is not an image")
	// ErrTooLarge is returned for images above MaxImageBytes.
	ErrTooLarge = errors.New("media: image too large")
)

// ObjectStore is the subset of r2client.Client the archive uses.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	PublicURL(key string) string
}

// Archiver copies images into object storage.
type Archiver struct {
	store   ObjectStore
	metrics *metrics.Metrics
}

// NewArchiver creates an archiver over store.
func NewArchiver(store ObjectStore, m *metrics.Metrics) *Archiver {
	return &Archiver{store: store, metrics: m}
}

// Archive reads body, stores it under images/<store>/ and returns the public
// URL. contentType may be empty; it is then sniffed from the bytes.
func (a *Archiver) Archive(ctx context.Context, channel string, storeID int64, body io.Reader, contentType string) (string, error) {
	url, err := a.archive(ctx, storeID, body, contentType)
	status := "success"
	if err != nil {
		status = "error"
	}
	a.metrics.RecordMediaArchived(channel, status)
	return url, err
}

func (a *Archiver) archive(ctx context.Context, storeID int64, body io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(io.LimitReader(body, MaxImageBytes+1))
	if err != nil {
		return "", fmt.Errorf("media: read image: %w", err)
	}
	if len(data) > MaxImageBytes {
		return "", ErrTooLarge
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	contentType, _, _ = strings.Cut(contentType, ";")
	if !strings.HasPrefix(contentType, "image/") {
		return "", ErrNotImage
	}

	key := fmt.Sprintf("images/%d/%s%s", storeID, uuid.NewString(), extension(contentType))
	if _, err := a.store.Put(ctx, key, bytes.NewReader(data), contentType); err != nil {
		return "", fmt.Errorf("media: store image: %w", err)
	}
	return a.store.PublicURL(key), nil
}

func extension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ""
	}
}
