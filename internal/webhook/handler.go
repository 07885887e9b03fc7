// Package webhook receives operator messages from the WhatsApp Cloud API and
// the LINE Messaging API, runs them through the turn processor and delivers
// the replies through the originating channel.
package webhook

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/garyellow/storebot/internal/bot"
	"github.com/garyellow/storebot/internal/catalog"
	"github.com/garyellow/storebot/internal/conversation"
	"github.com/garyellow/storebot/internal/i18n"
	"github.com/garyellow/storebot/internal/logger"
	"github.com/garyellow/storebot/internal/metrics"
)

// TurnProcessor runs conversation turns (bot.Processor).
type TurnProcessor interface {
	Process(ctx context.Context, in bot.Inbound) (bot.Outcome, error)
	Unauthorized() []conversation.Message
}

// ImageArchiver copies inbound images to permanent storage (media.Archiver).
type ImageArchiver interface {
	Archive(ctx context.Context, channel string, storeID int64, body io.Reader, contentType string) (string, error)
}

// dispatcher holds what both channel handlers share: turn processing, async
// bookkeeping and the reply texts used outside a turn.
type dispatcher struct {
	channel   string
	directory catalog.OperatorDirectory
	processor TurnProcessor
	catalog   *i18n.Catalog
	archiver  ImageArchiver
	metrics   *metrics.Metrics
	logger    *logger.Logger
	timeout   time.Duration
	wg        sync.WaitGroup // async event processing
}

func newDispatcher(channel string, directory catalog.OperatorDirectory, processor TurnProcessor,
	cat *i18n.Catalog, m *metrics.Metrics, log *logger.Logger, opts options,
) *dispatcher {
	return &dispatcher{
		channel:   channel,
		directory: directory,
		processor: processor,
		catalog:   cat,
		archiver:  opts.archiver,
		metrics:   m,
		logger:    log.WithModule(channel),
		timeout:   opts.timeout,
	}
}

// async runs fn in the background, tracked for Shutdown.
func (d *dispatcher) async(fn func()) {
	d.wg.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				d.logger.WithField("panic", r).Error("Panic in async event processing")
			}
		}()
		fn()
	})
}

// turn runs one authorized inbound event and returns the messages to send and
// the conversation language.
func (d *dispatcher) turn(ctx context.Context, identity string, op *catalog.Operator, in conversation.Input) ([]conversation.Message, string) {
	start := time.Now()
	out, err := d.processor.Process(ctx, bot.Inbound{
		Identity: identity,
		Channel:  d.channel,
		Operator: *op,
		Input:    in,
	})
	if err != nil {
		d.logger.WithError(err).ErrorContext(ctx, "Failed to process turn")
		d.metrics.RecordWebhook(d.channel, "error", time.Since(start).Seconds())
		lang := d.catalog.Normalize(op.Language)
		return []conversation.Message{{Text: d.catalog.Resolve(lang, "generic_error", nil)}}, lang
	}
	d.metrics.RecordWebhook(d.channel, "success", time.Since(start).Seconds())
	return out.Messages, out.Record.Context.Language
}

// unauthorized returns the reply for an unknown sender.
func (d *dispatcher) unauthorized(ctx context.Context, address string) []conversation.Message {
	d.logger.WithField("sender", address).WarnContext(ctx, "Message from unregistered sender")
	d.metrics.RecordWebhook(d.channel, "unauthorized", 0)
	return d.processor.Unauthorized()
}

// Shutdown waits for all async event processing to complete.
// It returns an error if the context is canceled before completion.
func (d *dispatcher) Shutdown(ctx context.Context) error {
	c := make(chan struct{})
	go func() {
		defer close(c)
		d.wg.Wait()
	}()

	select {
	case <-c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
