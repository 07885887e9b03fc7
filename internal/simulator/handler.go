// Package simulator serves a browser chat that drives the conversation engine
// without a messaging provider. Replies are returned in the HTTP response
// instead of being sent anywhere.
package simulator

import (
	"context"
	_ "embed"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/garyellow/storebot/internal/bot"
	"github.com/garyellow/storebot/internal/catalog"
	"github.com/garyellow/storebot/internal/config"
	"github.com/garyellow/storebot/internal/conversation"
	"github.com/garyellow/storebot/internal/logger"
	"github.com/garyellow/storebot/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Channel is the channel name of simulator turns.
const Channel = "web"

// maxMessageRunes bounds one simulated message.
const maxMessageRunes = 4096

//go:embed static/index.html
var page []byte

// TurnProcessor runs conversation turns (bot.Processor).
type TurnProcessor interface {
	Process(ctx context.Context, in bot.Inbound) (bot.Outcome, error)
}

// ConversationLoader reads stored conversations (storage.DB).
type ConversationLoader interface {
	LoadConversation(ctx context.Context, identity string) (*conversation.Record, error)
}

// OperatorFinder resolves operator ids (storage.DB).
type OperatorFinder interface {
	FindOperator(ctx context.Context, id int64) (*catalog.Operator, error)
}

// Config holds the dependencies of a Handler.
type Config struct {
	JWTSecret     string
	Processor     TurnProcessor
	Conversations ConversationLoader
	Operators     OperatorFinder
	Metrics       *metrics.Metrics
	Logger        *logger.Logger
	Timeout       time.Duration // per message; defaults to config.WebhookProcessing
}

// Handler serves the simulator routes.
type Handler struct {
	secret        string
	processor     TurnProcessor
	conversations ConversationLoader
	operators     OperatorFinder
	metrics       *metrics.Metrics
	logger        *logger.Logger
	timeout       time.Duration
}

// NewHandler creates a simulator handler.
func NewHandler(cfg Config) *Handler {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.WebhookProcessing
	}
	return &Handler{
		secret:        cfg.JWTSecret,
		processor:     cfg.Processor,
		conversations: cfg.Conversations,
		operators:     cfg.Operators,
		metrics:       cfg.Metrics,
		logger:        cfg.Logger.WithModule("simulator"),
		timeout:       timeout,
	}
}

// Register mounts the simulator routes on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/simulator", h.Page)
	api := r.Group("/simulator", authMiddleware(h.secret))
	api.POST("/message", h.Message)
	api.GET("/history", h.History)
}

// Identity returns the conversation identity of a simulator operator.
func Identity(operatorID int64) string {
	return "web-" + strconv.FormatInt(operatorID, 10)
}

type messageRequest struct {
	Message string `json:"message"`
	Image   string `json:"image,omitempty"` // image URL standing in for an upload
}

type buttonResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type replyResponse struct {
	Text    string           `json:"text"`
	Buttons []buttonResponse `json:"buttons"`
}

type messageResponse struct {
	Responses []replyResponse `json:"responses"`
}

// Message runs one turn for the authenticated operator and returns the replies.
func (h *Handler) Message(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var in conversation.Input
	switch {
	case req.Image != "":
		in = conversation.ImageInput(req.Image)
	case strings.TrimSpace(req.Message) != "":
		if len([]rune(req.Message)) > maxMessageRunes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "message too long"})
			return
		}
		in = conversation.TextInput(req.Message)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	op, ok := h.operator(ctx, c)
	if !ok {
		return
	}

	start := time.Now()
	out, err := h.processor.Process(ctx, bot.Inbound{
		Identity: Identity(op.ID),
		Channel:  Channel,
		Operator: *op,
		Input:    in,
	})
	if err != nil {
		h.logger.WithError(err).ErrorContext(ctx, "Failed to process simulator turn")
		h.metrics.RecordWebhook(Channel, "error", time.Since(start).Seconds())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process message"})
		return
	}
	h.metrics.RecordWebhook(Channel, "success", time.Since(start).Seconds())

	c.JSON(http.StatusOK, toResponse(out.Messages))
}

// History returns the stored conversation record of the authenticated operator.
func (h *Handler) History(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	op, ok := h.operator(ctx, c)
	if !ok {
		return
	}

	rec, err := h.conversations.LoadConversation(ctx, Identity(op.ID))
	if err != nil {
		h.logger.WithError(err).ErrorContext(ctx, "Failed to load conversation")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversation"})
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no conversation"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Page serves the embedded chat page.
func (h *Handler) Page(c *gin.Context) {
	c.Header("Content-Security-Policy",
		"default-src 'none'; script-src 'unsafe-inline'; style-src 'unsafe-inline'; connect-src 'self'; img-src https: data:")
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

// operator resolves the token subject. It writes the error response and
// returns false when the operator no longer exists.
func (h *Handler) operator(ctx context.Context, c *gin.Context) (*catalog.Operator, bool) {
	id := operatorID(c)
	op, err := h.operators.FindOperator(ctx, id)
	if err != nil {
		h.logger.WithError(err).ErrorContext(ctx, "Failed to look up operator")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up operator"})
		return nil, false
	}
	if op == nil {
		h.metrics.RecordWebhook(Channel, "unauthorized", 0)
		c.JSON(http.StatusForbidden, gin.H{"error": "operator not found"})
		return nil, false
	}
	return op, true
}

func toResponse(msgs []conversation.Message) messageResponse {
	resp := messageResponse{Responses: make([]replyResponse, 0, len(msgs))}
	for _, m := range msgs {
		buttons := make([]buttonResponse, 0, len(m.Buttons))
		for _, b := range m.Buttons {
			buttons = append(buttons, buttonResponse{ID: b.ID, Title: b.Title})
		}
		resp.Responses = append(resp.Responses, replyResponse{Text: m.Text, Buttons: buttons})
	}
	return resp
}
