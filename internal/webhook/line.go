package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/garyellow/storebot/internal/catalog"
	"github.com/garyellow/storebot/internal/config"
	"github.com/garyellow/storebot/internal/conversation"
	"github.com/garyellow/storebot/internal/ctxutil"
	"github.com/garyellow/storebot/internal/i18n"
	"github.com/garyellow/storebot/internal/lineutil"
	"github.com/garyellow/storebot/internal/logger"
	"github.com/garyellow/storebot/internal/metrics"
	"github.com/garyellow/storebot/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
)

// maxEventsPerWebhook bounds the events processed from one delivery.
const maxEventsPerWebhook = 100

// LineReplier sends reply messages (messaging_api.MessagingApiAPI).
type LineReplier interface {
	ReplyMessage(req *messaging_api.ReplyMessageRequest) (*messaging_api.ReplyMessageResponse, error)
}

// LineContentFetcher downloads message content (messaging_api.MessagingApiBlobAPI).
type LineContentFetcher interface {
	GetMessageContent(messageID string) (*http.Response, error)
}

// LineConfig holds the dependencies of a LineHandler.
type LineConfig struct {
	ChannelSecret string
	Replier       LineReplier
	Blob          LineContentFetcher
	Directory     catalog.OperatorDirectory
	Processor     TurnProcessor
	Catalog       *i18n.Catalog
	Metrics       *metrics.Metrics
	Logger        *logger.Logger
}

// LineHandler handles LINE webhook events.
type LineHandler struct {
	*dispatcher
	channelSecret string
	replier       LineReplier
	blob          LineContentFetcher
	rateLimiter   *ratelimit.Limiter // global limit for reply API calls
}

// NewLineClients creates the messaging and blob API clients for token.
func NewLineClients(token string) (*messaging_api.MessagingApiAPI, *messaging_api.MessagingApiBlobAPI, error) {
	client, err := messaging_api.NewMessagingApiAPI(token)
	if err != nil {
		return nil, nil, fmt.Errorf("create messaging API client: %w", err)
	}
	blob, err := messaging_api.NewMessagingApiBlobAPI(token)
	if err != nil {
		return nil, nil, fmt.Errorf("create blob API client: %w", err)
	}
	return client, blob, nil
}

// NewLineHandler creates a LINE webhook handler.
func NewLineHandler(cfg LineConfig, opts ...HandlerOption) *LineHandler {
	o := applyOptions(opts)
	return &LineHandler{
		dispatcher:    newDispatcher("line", cfg.Directory, cfg.Processor, cfg.Catalog, cfg.Metrics, cfg.Logger, o),
		channelSecret: cfg.ChannelSecret,
		replier:       cfg.Replier,
		blob:          cfg.Blob,
		rateLimiter:   ratelimit.New(o.globalRPS, o.globalRPS),
	}
}

// Handle is the Gin handler for the LINE webhook endpoint.
func (h *LineHandler) Handle(c *gin.Context) {
	cb, err := webhook.ParseRequest(h.channelSecret, c.Request)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			h.logger.Warn("Invalid webhook signature")
			h.metrics.RecordHTTPError("invalid_signature", "line")
			c.Status(http.StatusBadRequest)
		} else {
			h.logger.WithError(err).Error("Failed to parse webhook request")
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	// Return 200 OK immediately (LINE requirement)
	c.Status(http.StatusOK)

	if len(cb.Events) == 0 {
		return
	}
	h.metrics.RecordWebhook("line", "received", 0)
	if len(cb.Events) > maxEventsPerWebhook {
		h.logger.WithField("event_count", len(cb.Events)).Warn("Too many events in webhook batch; truncating")
		cb.Events = cb.Events[:maxEventsPerWebhook]
	}

	// Copy events to avoid race condition after HTTP response completes
	events := make([]webhook.EventInterface, len(cb.Events))
	copy(events, cb.Events)

	base := ctxutil.PreserveTracing(c.Request.Context())
	h.async(func() {
		for _, event := range events {
			h.processEvent(base, event)
		}
	})
}

// lineEvent is the part of a LINE event the bot uses.
type lineEvent struct {
	id         string
	replyToken string
	userID     string
	input      conversation.Input
	messageID  string // image content id
}

// normalize extracts the sender and input of supported events.
func normalize(event webhook.EventInterface) (lineEvent, bool) {
	switch e := event.(type) {
	case webhook.MessageEvent:
		ev := lineEvent{id: e.WebhookEventId, replyToken: e.ReplyToken, userID: userID(e.Source)}
		switch m := e.Message.(type) {
		case webhook.TextMessageContent:
			ev.input = conversation.TextInput(m.Text)
		case webhook.ImageMessageContent:
			ev.messageID = m.Id
			ev.input = conversation.ImageInput("line:" + m.Id)
		default:
			return lineEvent{}, false
		}
		return ev, ev.userID != ""
	case webhook.PostbackEvent:
		if e.Postback == nil {
			return lineEvent{}, false
		}
		ev := lineEvent{
			id:         e.WebhookEventId,
			replyToken: e.ReplyToken,
			userID:     userID(e.Source),
			input:      conversation.TextInput(e.Postback.Data),
		}
		return ev, ev.userID != ""
	default:
		return lineEvent{}, false
	}
}

// userID returns the user of a one-to-one chat; group and room chats are not served.
func userID(source webhook.SourceInterface) string {
	if s, ok := source.(webhook.UserSource); ok {
		return s.UserId
	}
	return ""
}

func (h *LineHandler) processEvent(base context.Context, event webhook.EventInterface) {
	ev, ok := normalize(event)
	if !ok {
		h.logger.WithField("event_type", fmt.Sprintf("%T", event)).Debug("Unsupported event type")
		return
	}

	ctx := base
	if ev.id != "" {
		ctx = ctxutil.WithRequestID(ctx, ev.id)
	}
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	op, err := h.directory.FindOperatorByLineUser(ctx, ev.userID)
	if err != nil {
		h.logger.WithError(err).ErrorContext(ctx, "Failed to look up operator")
		return
	}
	if op == nil {
		h.reply(ctx, ev.replyToken, h.unauthorized(ctx, ev.userID))
		return
	}

	if ev.messageID != "" {
		if url := h.archiveImage(ctx, op.StoreID, ev.messageID); url != "" {
			ev.input.Image = url
		}
	}

	replies, _ := h.turn(ctx, "line-"+ev.userID, op, ev.input)
	h.reply(ctx, ev.replyToken, replies)
}

// archiveImage fetches the content of an image message and archives it.
// It returns "" when archiving is off or fails.
func (h *LineHandler) archiveImage(ctx context.Context, storeID int64, messageID string) string {
	if h.archiver == nil || h.blob == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, config.MediaTransfer)
	defer cancel()

	resp, err := h.blob.GetMessageContent(messageID)
	if err != nil {
		h.logger.WithError(err).WarnContext(ctx, "Failed to fetch LINE message content")
		return ""
	}
	defer func() { _ = resp.Body.Close() }()

	url, err := h.archiver.Archive(ctx, "line", storeID, resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		h.logger.WithError(err).WarnContext(ctx, "Failed to archive LINE image")
		return ""
	}
	return url
}

// reply sends msgs with the event's reply token. LINE accepts at most five
// messages per reply; extra ones are merged into the last.
func (h *LineHandler) reply(ctx context.Context, replyToken string, msgs []conversation.Message) {
	if replyToken == "" || len(msgs) == 0 {
		return
	}

	if !h.rateLimiter.Allow() {
		h.logger.WarnContext(ctx, "Global rate limit exceeded; waiting")
		h.metrics.RecordRateLimiterDrop("line")
		if err := h.rateLimiter.Wait(ctx); err != nil {
			h.metrics.RecordOutbound("line", "error")
			return
		}
	}

	start := time.Now()
	_, err := h.replier.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages:   lineutil.BuildReply(msgs, lineutil.MaxMessagesPerReply),
	})
	if err != nil {
		log := h.logger.WithError(err).WithField("duration_ms", time.Since(start).Milliseconds())
		if strings.Contains(err.Error(), "Invalid reply token") {
			log.DebugContext(ctx, "Reply token already used or invalid")
		} else {
			log.ErrorContext(ctx, "Failed to send reply")
		}
		h.metrics.RecordOutbound("line", "error")
		return
	}
	h.metrics.RecordOutbound("line", "success")
}
