package webhook

import (
	"time"

	"github.com/garyellow/storebot/internal/config"
)

// options are the optional settings shared by the channel handlers.
type options struct {
	archiver    ImageArchiver
	timeout     time.Duration
	concurrency int
	globalRPS   float64
}

func defaultOptions() options {
	return options{
		timeout:     config.WebhookProcessing,
		concurrency: 8,
		globalRPS:   100,
	}
}

// HandlerOption is a functional option for configuring a channel handler.
type HandlerOption func(*options)

// WithArchiver stores inbound images through a.
func WithArchiver(a ImageArchiver) HandlerOption {
	return func(o *options) {
		if a != nil {
			o.archiver = a
		}
	}
}

// WithTimeout bounds the processing of one inbound event.
func WithTimeout(timeout time.Duration) HandlerOption {
	return func(o *options) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithConcurrency sets how many senders of one delivery are processed at once.
func WithConcurrency(n int) HandlerOption {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithGlobalRateLimit sets the outbound request rate for the LINE API.
func WithGlobalRateLimit(rps float64) HandlerOption {
	return func(o *options) {
		if rps > 0 {
			o.globalRPS = rps
		}
	}
}

func applyOptions(opts []HandlerOption) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
