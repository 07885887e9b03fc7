package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"strings"
	"sync/atomic"
	"time"

	"github.com/garyellow/storebot/internal/conversation"
	"github.com/garyellow/storebot/internal/ratelimit"
)

// Config holds Cloud API credentials and transport settings.
type Config struct {
	Token         string
	PhoneNumberID string
	APIBase       string       // e.g. https://graph.facebook.com/v21.0
	HTTPClient    *http.Client // optional
	MaxRetries    int
	RetryDelay    time.Duration
	RateLimit     float64 // outbound requests per second (0 = 80)
}

// Client sends messages and fetches media through the Cloud API.
// It is safe for concurrent use.
type Client struct {
	httpClient    *http.Client
	apiBase       string
	phoneNumberID string
	token         string
	limiter       *ratelimit.Limiter
	maxRetries    int
	retryDelay    time.Duration
}

// APIError is a non-2xx Cloud API response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whatsapp: status %d: %s", e.StatusCode, e.Body)
}

// NewClient creates a Cloud API client.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	rate := cfg.RateLimit
	if rate <= 0 {
		rate = 80
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 500 * time.Millisecond
	}
	return &Client{
		httpClient:    httpClient,
		apiBase:       strings.TrimRight(cfg.APIBase, "/"),
		phoneNumberID: cfg.PhoneNumberID,
		token:         cfg.Token,
		limiter:       ratelimit.New(rate, rate),
		maxRetries:    cfg.MaxRetries,
		retryDelay:    retryDelay,
	}
}

// Send delivers one message to the recipient phone number. listLabel is the
// caption of the list opener used when the message has four or more buttons.
//
// POST /messages is not idempotent, so a send is retried only when the API
// answered 429 or the request never reached the wire. Server errors and
// transport failures after the body was written are returned as is.
func (c *Client) Send(ctx context.Context, to string, m conversation.Message, listLabel string) error {
	body, err := json.Marshal(buildRequest(to, m, listLabel))
	if err != nil {
		return fmt.Errorf("whatsapp: encode message: %w", err)
	}
	url := fmt.Sprintf("%s/%s/messages", c.apiBase, c.phoneNumberID)

	return retryWithBackoff(ctx, c.maxRetries, c.retryDelay, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return &permanentError{err: err}
		}
		var wrote atomic.Bool
		traceCtx := httptrace.WithClientTrace(ctx, &httptrace.ClientTrace{
			WroteRequest: func(httptrace.WroteRequestInfo) { wrote.Store(true) },
		})
		req, err := http.NewRequestWithContext(traceCtx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return &permanentError{err: fmt.Errorf("whatsapp: create request: %w", err)}
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := c.do(req)
		if err != nil {
			return sendRetryable(err, wrote.Load())
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return nil
	})
}

// sendRetryable marks a failed send permanent unless it is a 429 or a
// transport error raised before the request was written.
func sendRetryable(err error, wrote bool) error {
	var permErr *permanentError
	if errors.As(err, &permErr) {
		return err
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests {
			return err
		}
		return &permanentError{err: err}
	}
	if wrote {
		return &permanentError{err: err}
	}
	return err
}

// mediaInfo is the response of GET /{media-id}.
type mediaInfo struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
}

// Download fetches the bytes of an inbound media object. The caller closes
// the returned reader.
func (c *Client) Download(ctx context.Context, mediaID string) (io.ReadCloser, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+"/"+mediaID, nil)
	if err != nil {
		return nil, "", fmt.Errorf("whatsapp: create media request: %w", err)
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, "", fmt.Errorf("whatsapp: resolve media %s: %w", mediaID, err)
	}
	var info mediaInfo
	err = json.NewDecoder(resp.Body).Decode(&info)
	_ = resp.Body.Close()
	if err != nil {
		return nil, "", fmt.Errorf("whatsapp: decode media %s: %w", mediaID, err)
	}
	if info.URL == "" {
		return nil, "", fmt.Errorf("whatsapp: media %s has no url", mediaID)
	}

	req, err = http.NewRequestWithContext(ctx, http.MethodGet, info.URL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("whatsapp: create download request: %w", err)
	}
	resp, err = c.do(req)
	if err != nil {
		return nil, "", fmt.Errorf("whatsapp: download media %s: %w", mediaID, err)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = info.MimeType
	}
	return resp.Body, contentType, nil
}

// do sends an authorized request. Non-2xx responses are closed and returned
// as *APIError; client errors other than 429 are wrapped as permanent.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: request failed: %w", err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	_ = resp.Body.Close()
	apiErr := &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
		return nil, &permanentError{err: apiErr}
	}
	return nil, apiErr
}
