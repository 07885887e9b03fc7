// Package snapshot backs up the SQLite database to R2 as zstd-compressed
// copies and restores the latest one.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/garyellow/storebot/internal/logger"
	"github.com/garyellow/storebot/internal/metrics"
	"github.com/garyellow/storebot/internal/r2client"
	"github.com/klauspost/compress/zstd"
)

// ErrNotFound is returned by Restore when no snapshot exists.
var ErrNotFound = errors.New("snapshot: no snapshot found")

const keySuffix = ".db.zst"

// Source produces a consistent copy of the database (storage.DB).
type Source interface {
	CreateSnapshot(ctx context.Context, destPath string) error
}

// ObjectStore is the subset of r2client.Client used for snapshots.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	List(ctx context.Context, prefix string) ([]r2client.Object, error)
	Delete(ctx context.Context, key string) error
}

// Config holds snapshot settings.
type Config struct {
	Prefix  string // object key prefix, e.g. "snapshots/"
	Keep    int    // snapshots retained after an upload (0 = 7)
	TempDir string // directory for intermediate files (default: os.TempDir())
}

// Manager uploads and restores snapshots.
type Manager struct {
	store   ObjectStore
	config  Config
	metrics *metrics.Metrics
	logger  *logger.Logger
	now     func() time.Time
}

// New creates a snapshot manager.
func New(store ObjectStore, cfg Config, m *metrics.Metrics, log *logger.Logger) *Manager {
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	if cfg.Keep <= 0 {
		cfg.Keep = 7
	}
	return &Manager{
		store:   store,
		config:  cfg,
		metrics: m,
		logger:  log.WithModule("snapshot"),
		now:     time.Now,
	}
}

// Upload snapshots src, compresses it and stores it under a timestamped key.
// Older snapshots beyond Config.Keep are deleted afterwards.
func (m *Manager) Upload(ctx context.Context, src Source) (string, error) {
	key, err := m.upload(ctx, src)
	if err != nil {
		m.metrics.RecordSnapshot("error")
		return "", err
	}
	m.metrics.RecordSnapshot("success")

	if err := m.prune(ctx); err != nil {
		m.logger.WithError(err).WarnContext(ctx, "Failed to prune old snapshots")
	}
	return key, nil
}

func (m *Manager) upload(ctx context.Context, src Source) (string, error) {
	stamp := m.now().UTC().Format("20060102T150405.000Z")
	rawPath := filepath.Join(m.config.TempDir, "storebot-"+stamp+".db")
	if err := src.CreateSnapshot(ctx, rawPath); err != nil {
		return "", fmt.Errorf("create snapshot: %w", err)
	}
	defer func() { _ = os.Remove(rawPath) }()

	compressedPath := rawPath + ".zst"
	if err := compressFile(rawPath, compressedPath); err != nil {
		return "", err
	}
	defer func() { _ = os.Remove(compressedPath) }()

	f, err := os.Open(compressedPath)
	if err != nil {
		return "", fmt.Errorf("open compressed snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()

	key := m.config.Prefix + "storebot-" + stamp + keySuffix
	if _, err := m.store.Put(ctx, key, f, "application/zstd"); err != nil {
		return "", fmt.Errorf("upload snapshot: %w", err)
	}
	return key, nil
}

// Restore downloads the newest snapshot and writes the decompressed database
// to destPath. It returns the key restored.
func (m *Manager) Restore(ctx context.Context, destPath string) (string, error) {
	keys, err := m.keys(ctx)
	if err != nil {
		return "", err
	}
	if len(keys) == 0 {
		return "", ErrNotFound
	}
	key := keys[len(keys)-1]

	body, _, err := m.store.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("download snapshot %s: %w", key, err)
	}
	defer func() { _ = body.Close() }()

	if err := decompressStream(body, destPath); err != nil {
		return "", err
	}
	return key, nil
}

// Run uploads a snapshot every interval until ctx is canceled.
func (m *Manager) Run(ctx context.Context, src Source, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			key, err := m.Upload(ctx, src)
			if err != nil {
				m.logger.WithError(err).ErrorContext(ctx, "Snapshot upload failed")
				continue
			}
			m.logger.WithField("key", key).
				WithField("duration_ms", time.Since(start).Milliseconds()).
				InfoContext(ctx, "Snapshot uploaded")
		}
	}
}

// keys lists snapshot keys oldest first. Timestamped names sort chronologically.
func (m *Manager) keys(ctx context.Context) ([]string, error) {
	objects, err := m.store.List(ctx, m.config.Prefix)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	keys := make([]string, 0, len(objects))
	for _, o := range objects {
		if strings.HasSuffix(o.Key, keySuffix) {
			keys = append(keys, o.Key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *Manager) prune(ctx context.Context) error {
	keys, err := m.keys(ctx)
	if err != nil {
		return err
	}
	if len(keys) <= m.config.Keep {
		return nil
	}
	var errs []error
	for _, key := range keys[:len(keys)-m.config.Keep] {
		if err := m.store.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// compressFile writes a zstd-compressed copy of srcPath to dstPath.
func compressFile(srcPath, dstPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("compress: open source: %w", err)
	}
	defer func() { _ = src.Close() }()

	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("compress: create dest: %w", err)
	}
	defer func() { _ = dst.Close() }()

	encoder, err := zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return fmt.Errorf("compress: create encoder: %w", err)
	}
	if _, err := io.Copy(encoder, src); err != nil {
		_ = encoder.Close()
		return fmt.Errorf("compress: copy: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("compress: close encoder: %w", err)
	}
	return nil
}

// decompressStream streams a zstd payload into dstPath.
func decompressStream(r io.Reader, dstPath string) error {
	decoder, err := zstd.NewReader(r)
	if err != nil {
		return fmt.Errorf("decompress: create decoder: %w", err)
	}
	defer decoder.Close()

	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return fmt.Errorf("decompress: create dest dir: %w", err)
	}
	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("decompress: create dest: %w", err)
	}
	defer func() { _ = dst.Close() }()

	if _, err := io.Copy(dst, decoder); err != nil {
		return fmt.Errorf("decompress: copy: %w", err)
	}
	return nil
}
