package ratelimit

import (
	"sync"
	"time"
)

// KeyedConfig configures a KeyedLimiter instance.
type KeyedConfig struct {
	// Name identifies this limiter in metrics (e.g. "identity").
	Name string

	Burst      float64 // Maximum tokens (burst capacity)
	RefillRate float64 // Tokens refilled per second

	// CleanupPeriod is how often idle buckets are dropped.
	CleanupPeriod time.Duration

	// Optional metrics callbacks
	OnDrop   func(name string)
	OnActive func(name string, count int)
}

// KeyedLimiter keeps one token bucket per key (conversation identity)
// and drops buckets that have refilled completely.
type KeyedLimiter struct {
	mu      sync.Mutex
	entries map[string]*Limiter
	config  KeyedConfig
	stopCh  chan struct{}
	once    sync.Once
}

// NewKeyedLimiter creates a per-key rate limiter. Call Stop when done.
func NewKeyedLimiter(cfg KeyedConfig) *KeyedLimiter {
	if cfg.CleanupPeriod <= 0 {
		cfg.CleanupPeriod = 5 * time.Minute
	}
	kl := &KeyedLimiter{
		entries: make(map[string]*Limiter),
		config:  cfg,
		stopCh:  make(chan struct{}),
	}
	go kl.cleanupLoop()
	return kl
}

// Allow reports whether a request for key may proceed, consuming a token.
// An empty key is always allowed.
func (kl *KeyedLimiter) Allow(key string) bool {
	if key == "" {
		return true
	}

	kl.mu.Lock()
	limiter, ok := kl.entries[key]
	if !ok {
		limiter = New(kl.config.Burst, kl.config.RefillRate)
		kl.entries[key] = limiter
	}
	kl.mu.Unlock()

	if limiter.Allow() {
		return true
	}
	if kl.config.OnDrop != nil {
		kl.config.OnDrop(kl.config.Name)
	}
	return false
}

// ActiveCount returns the number of tracked keys.
func (kl *KeyedLimiter) ActiveCount() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	return len(kl.entries)
}

func (kl *KeyedLimiter) cleanupLoop() {
	ticker := time.NewTicker(kl.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-kl.stopCh:
			return
		case <-ticker.C:
			kl.cleanup()
		}
	}
}

func (kl *KeyedLimiter) cleanup() {
	kl.mu.Lock()
	for key, limiter := range kl.entries {
		if limiter.IsFull() {
			delete(kl.entries, key)
		}
	}
	count := len(kl.entries)
	kl.mu.Unlock()

	if kl.config.OnActive != nil {
		kl.config.OnActive(kl.config.Name, count)
	}
}

// Stop stops the cleanup goroutine. Safe to call multiple times.
func (kl *KeyedLimiter) Stop() {
	kl.once.Do(func() { close(kl.stopCh) })
}
