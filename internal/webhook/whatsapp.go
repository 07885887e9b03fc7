package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/garyellow/storebot/internal/catalog"
	"github.com/garyellow/storebot/internal/config"
	"github.com/garyellow/storebot/internal/conversation"
	"github.com/garyellow/storebot/internal/ctxutil"
	"github.com/garyellow/storebot/internal/i18n"
	"github.com/garyellow/storebot/internal/logger"
	"github.com/garyellow/storebot/internal/metrics"
	"github.com/garyellow/storebot/internal/whatsapp"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// maxWhatsAppBody bounds a webhook delivery.
const maxWhatsAppBody = 1 << 20

// WhatsAppClient sends replies and fetches media (whatsapp.Client).
type WhatsAppClient interface {
	Send(ctx context.Context, to string, m conversation.Message, listLabel string) error
	Download(ctx context.Context, mediaID string) (io.ReadCloser, string, error)
}

// WhatsAppConfig holds the dependencies of a WhatsAppHandler.
type WhatsAppConfig struct {
	VerifyToken string
	AppSecret   string // empty disables signature verification
	Client      WhatsAppClient
	Directory   catalog.OperatorDirectory
	Processor   TurnProcessor
	Catalog     *i18n.Catalog
	Metrics     *metrics.Metrics
	Logger      *logger.Logger
}

// WhatsAppHandler handles WhatsApp Cloud API webhooks.
type WhatsAppHandler struct {
	*dispatcher
	verifyToken string
	appSecret   string
	client      WhatsAppClient
	concurrency int
}

// NewWhatsAppHandler creates a WhatsApp webhook handler.
func NewWhatsAppHandler(cfg WhatsAppConfig, opts ...HandlerOption) *WhatsAppHandler {
	o := applyOptions(opts)
	return &WhatsAppHandler{
		dispatcher:  newDispatcher("whatsapp", cfg.Directory, cfg.Processor, cfg.Catalog, cfg.Metrics, cfg.Logger, o),
		verifyToken: cfg.VerifyToken,
		appSecret:   cfg.AppSecret,
		client:      cfg.Client,
		concurrency: o.concurrency,
	}
}

// Verify answers the subscription handshake (GET).
func (h *WhatsAppHandler) Verify(c *gin.Context) {
	if c.Query("hub.mode") != "subscribe" || c.Query("hub.verify_token") != h.verifyToken {
		h.logger.Warn("WhatsApp verification rejected")
		c.Status(http.StatusForbidden)
		return
	}
	c.String(http.StatusOK, c.Query("hub.challenge"))
}

// Handle is the Gin handler for webhook deliveries (POST).
func (h *WhatsAppHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWhatsAppBody+1))
	if err != nil || len(body) > maxWhatsAppBody {
		h.logger.Warn("Unreadable or oversized WhatsApp payload")
		c.Status(http.StatusBadRequest)
		return
	}
	if h.appSecret != "" && !whatsapp.VerifySignature(h.appSecret, body, c.GetHeader(whatsapp.SignatureHeader)) {
		h.logger.Warn("Invalid webhook signature")
		h.metrics.RecordHTTPError("invalid_signature", "whatsapp")
		c.Status(http.StatusUnauthorized)
		return
	}

	var payload whatsapp.Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.logger.WithError(err).Warn("Malformed WhatsApp payload")
		h.metrics.RecordHTTPError("malformed_payload", "whatsapp")
		c.Status(http.StatusBadRequest)
		return
	}

	// Acknowledge first; the Cloud API retries slow deliveries.
	c.Status(http.StatusOK)

	msgs := payload.Messages()
	if len(msgs) == 0 {
		return
	}
	h.metrics.RecordWebhook("whatsapp", "received", 0)

	// Messages of one sender stay in order; senders run concurrently.
	var senders []string
	bySender := make(map[string][]whatsapp.Message)
	for _, m := range msgs {
		if _, ok := bySender[m.From]; !ok {
			senders = append(senders, m.From)
		}
		bySender[m.From] = append(bySender[m.From], m)
	}

	base := ctxutil.PreserveTracing(c.Request.Context())
	h.async(func() {
		var g errgroup.Group
		g.SetLimit(h.concurrency)
		for _, from := range senders {
			g.Go(func() error {
				for _, m := range bySender[from] {
					h.processMessage(base, m)
				}
				return nil
			})
		}
		_ = g.Wait()
	})
}

func (h *WhatsAppHandler) processMessage(base context.Context, m whatsapp.Message) {
	ctx, cancel := context.WithTimeout(ctxutil.WithRequestID(base, m.ID), h.timeout)
	defer cancel()
	log := h.logger.WithRequestID(m.ID)

	in, ok := m.Input()
	if !ok {
		log.WithField("type", m.Type).DebugContext(ctx, "Unsupported message type")
		h.metrics.RecordWebhook("whatsapp", "ignored", 0)
		return
	}

	op, err := h.directory.FindOperatorByPhone(ctx, m.From)
	if err != nil {
		log.WithError(err).ErrorContext(ctx, "Failed to look up operator")
		return
	}
	if op == nil {
		h.send(ctx, m.From, h.unauthorized(ctx, m.From), "")
		return
	}

	if in.Kind == conversation.InputImage {
		in.Image = h.archiveImage(ctx, op.StoreID, in.Image)
	}

	replies, lang := h.turn(ctx, "wa-"+m.From, op, in)
	h.send(ctx, m.From, replies, h.catalog.Resolve(lang, "btn_options", nil))
}

// archiveImage returns the archived URL of a media id, or the id itself when
// archiving is off or fails.
func (h *WhatsAppHandler) archiveImage(ctx context.Context, storeID int64, mediaID string) string {
	if h.archiver == nil {
		return mediaID
	}
	ctx, cancel := context.WithTimeout(ctx, config.MediaTransfer)
	defer cancel()

	body, contentType, err := h.client.Download(ctx, mediaID)
	if err != nil {
		h.logger.WithError(err).WarnContext(ctx, "Failed to download WhatsApp media")
		return mediaID
	}
	defer func() { _ = body.Close() }()

	url, err := h.archiver.Archive(ctx, "whatsapp", storeID, body, contentType)
	if err != nil {
		h.logger.WithError(err).WarnContext(ctx, "Failed to archive WhatsApp media")
		return mediaID
	}
	return url
}

// send delivers replies in order and stops at the first failure. Delivery
// errors never roll back the conversation.
func (h *WhatsAppHandler) send(ctx context.Context, to string, msgs []conversation.Message, listLabel string) {
	for _, msg := range msgs {
		sendCtx, cancel := context.WithTimeout(ctx, config.OutboundRequest)
		start := time.Now()
		err := h.client.Send(sendCtx, to, msg, listLabel)
		cancel()
		if err != nil {
			h.logger.WithError(err).
				WithField("duration_ms", time.Since(start).Milliseconds()).
				ErrorContext(ctx, "Failed to send WhatsApp message")
			h.metrics.RecordOutbound("whatsapp", "error")
			return
		}
		h.metrics.RecordOutbound("whatsapp", "success")
	}
}
