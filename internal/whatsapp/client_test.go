package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/garyellow/storebot/internal/conversation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	return NewClient(Config{
		Token:         "tok",
		PhoneNumberID: "1065",
		APIBase:       url + "/",
		MaxRetries:    2,
		RetryDelay:    time.Millisecond,
	})
}

func TestClient_Send(t *testing.T) {
	t.Parallel()
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/1065/messages", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.out"}]}`))
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).Send(context.Background(), "972501234567", conversation.Message{
		Text:    "Publish?",
		Buttons: []conversation.Button{{ID: "publish", Title: "Publish"}, {ID: "cancel", Title: "Cancel"}},
	}, "Options")

	require.NoError(t, err)
	assert.Equal(t, "972501234567", got.To)
	require.NotNil(t, got.Interactive)
	assert.Equal(t, "button", got.Interactive.Type)
	assert.Len(t, got.Interactive.Action.Buttons, 2)
}

func TestClient_SendRetriesRateLimit(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).Send(context.Background(), "1", conversation.Message{Text: "hi"}, "")

	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_SendDoesNotRetryServerErrors(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).Send(context.Background(), "1", conversation.Message{Text: "hi"}, "")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_SendDoesNotRetryAfterBodyWritten(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.Copy(io.Discard, r.Body)
		conn, _, err := w.(http.Hijacker).Hijack()
		if assert.NoError(t, err) {
			_ = conn.Close()
		}
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).Send(context.Background(), "1", conversation.Message{Text: "hi"}, "")

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestClient_SendRetriesUnsentRequest(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var attempts atomic.Int32
	transport := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if attempts.Add(1) == 1 {
			return nil, errors.New("dial tcp: connection refused")
		}
		return http.DefaultTransport.RoundTrip(r)
	})
	client := NewClient(Config{
		Token:         "tok",
		PhoneNumberID: "1065",
		APIBase:       srv.URL,
		HTTPClient:    &http.Client{Transport: transport},
		MaxRetries:    2,
		RetryDelay:    time.Millisecond,
	})

	err := client.Send(context.Background(), "1", conversation.Message{Text: "hi"}, "")

	require.NoError(t, err)
	assert.Equal(t, int32(2), attempts.Load())
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_SendDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid parameter"}}`))
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).Send(context.Background(), "1", conversation.Message{Text: "hi"}, "")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "Invalid parameter")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Download(t *testing.T) {
	t.Parallel()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/media-77":
			_, _ = w.Write([]byte(`{"url":"` + srv.URL + `/blob/77","mime_type":"image/jpeg"}`))
		case "/blob/77":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("PNGDATA"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()
	c := newTestClient(srv.URL)

	body, contentType, err := c.Download(context.Background(), "media-77")
	require.NoError(t, err)
	defer func() { _ = body.Close() }()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "PNGDATA", string(data))
	assert.Equal(t, "image/png", contentType)

	_, _, err = c.Download(context.Background(), "missing")
	assert.Error(t, err)
}
