package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/kopiyka/internal/model"
)

const textUpdate = `{
	"update_id": 77,
	"message": {
		"message_id": 5,
		"date": 1700000000,
		"chat": {"id": 42, "type": "private"},
		"from": {"id": 42, "is_bot": false, "first_name": "Оля"},
		"text": "кава 55"
	}
}`

type recordingHandler struct {
	panicWith any
	received  []model.Inbound
	ctxErrs   []error
	mu        sync.Mutex
}

func (h *recordingHandler) Handle(ctx context.Context, in model.Inbound) {
	h.mu.Lock()
	h.received = append(h.received, in)
	h.ctxErrs = append(h.ctxErrs, ctx.Err())
	h.mu.Unlock()
	if h.panicWith != nil {
		panic(h.panicWith)
	}
}

type fakeRegistrar struct {
	err  error
	urls []string
}

func (f *fakeRegistrar) SetWebhook(_ context.Context, url string) error {
	f.urls = append(f.urls, url)
	return f.err
}

func newTestServer(config Config, handler UpdateHandler, admin WebhookRegistrar) *Server {
	return New(config, handler, admin, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func do(t *testing.T, s *Server, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestWebhookAlwaysAcknowledges(t *testing.T) {
	tests := []struct {
		handler      *recordingHandler
		name         string
		body         string
		wantReceived int
	}{
		{name: "text message", handler: &recordingHandler{}, body: textUpdate, wantReceived: 1},
		{name: "malformed json", handler: &recordingHandler{}, body: "{not json"},
		{name: "update without message", handler: &recordingHandler{}, body: `{"update_id": 1, "edited_message": {"message_id": 1}}`},
		{name: "handler panics", handler: &recordingHandler{panicWith: "boom"}, body: textUpdate, wantReceived: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(DefaultConfig(), tt.handler, nil)

			rec := do(t, s, http.MethodPost, "/webhook", tt.body, nil)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "ok", rec.Body.String())
			assert.Len(t, tt.handler.received, tt.wantReceived)
		})
	}
}

func TestWebhookConvertsUpdate(t *testing.T) {
	handler := &recordingHandler{}
	s := newTestServer(DefaultConfig(), handler, nil)

	do(t, s, http.MethodPost, "/webhook", textUpdate, nil)

	require.Len(t, handler.received, 1)
	in := handler.received[0]
	assert.Equal(t, int64(42), in.ChatID)
	assert.Equal(t, 77, in.UpdateID)
	assert.Equal(t, "Оля", in.SenderName)
	assert.Equal(t, model.TextContent{Text: "кава 55"}, in.Content)
	assert.NoError(t, handler.ctxErrs[0])
}

func TestWebhookSecret(t *testing.T) {
	tests := []struct {
		name         string
		secret       string
		header       map[string]string
		wantCode     int
		wantReceived int
	}{
		{name: "matching secret", secret: "hook-secret", header: map[string]string{WebhookSecretHeader: "hook-secret"}, wantCode: http.StatusOK, wantReceived: 1},
		{name: "missing header", secret: "hook-secret", wantCode: http.StatusUnauthorized},
		{name: "wrong secret", secret: "hook-secret", header: map[string]string{WebhookSecretHeader: "guess"}, wantCode: http.StatusUnauthorized},
		{name: "no secret configured", wantCode: http.StatusOK, wantReceived: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := &recordingHandler{}
			config := DefaultConfig()
			config.WebhookSecret = tt.secret
			s := newTestServer(config, handler, nil)

			rec := do(t, s, http.MethodPost, "/webhook", textUpdate, tt.header)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Len(t, handler.received, tt.wantReceived)
		})
	}
}

func TestCustomWebhookPath(t *testing.T) {
	handler := &recordingHandler{}
	cfg := DefaultConfig()
	cfg.WebhookPath = "/tg/secret-path"
	s := newTestServer(cfg, handler, nil)

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodPost, "/webhook", textUpdate, nil).Code)
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/tg/secret-path", textUpdate, nil).Code)
	assert.Len(t, handler.received, 1)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(DefaultConfig(), &recordingHandler{}, nil)

	rec := do(t, s, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestAdminWebhook(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AdminToken = "s3cret"
	cfg.WebhookURL = "https://bot.example.com/webhook"

	tests := []struct {
		registrar *fakeRegistrar
		header    map[string]string
		name      string
		body      string
		wantURLs  []string
		wantCode  int
	}{
		{
			name:      "missing token",
			registrar: &fakeRegistrar{},
			wantCode:  http.StatusUnauthorized,
		},
		{
			name:      "wrong token",
			registrar: &fakeRegistrar{},
			header:    map[string]string{AdminTokenHeader: "nope"},
			wantCode:  http.StatusUnauthorized,
		},
		{
			name:      "configured url",
			registrar: &fakeRegistrar{},
			header:    map[string]string{AdminTokenHeader: "s3cret"},
			wantCode:  http.StatusOK,
			wantURLs:  []string{"https://bot.example.com/webhook"},
		},
		{
			name:      "url from body",
			registrar: &fakeRegistrar{},
			header:    map[string]string{AdminTokenHeader: "s3cret"},
			body:      `{"url": "https://other.example.com/hook"}`,
			wantCode:  http.StatusOK,
			wantURLs:  []string{"https://other.example.com/hook"},
		},
		{
			name:      "bad body",
			registrar: &fakeRegistrar{},
			header:    map[string]string{AdminTokenHeader: "s3cret"},
			body:      `{"url":`,
			wantCode:  http.StatusBadRequest,
		},
		{
			name:      "telegram rejects",
			registrar: &fakeRegistrar{err: errors.New("bad webhook: HTTPS url must be provided")},
			header:    map[string]string{AdminTokenHeader: "s3cret"},
			wantCode:  http.StatusBadGateway,
			wantURLs:  []string{"https://bot.example.com/webhook"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(cfg, &recordingHandler{}, tt.registrar)

			rec := do(t, s, http.MethodPost, "/admin/webhook", tt.body, tt.header)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantURLs, tt.registrar.urls)

			var resp setWebhookResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.wantCode == http.StatusOK, resp.OK)
		})
	}
}

func TestAdminWebhookWithoutURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AdminToken = "s3cret"
	registrar := &fakeRegistrar{}
	s := newTestServer(cfg, &recordingHandler{}, registrar)

	rec := do(t, s, http.MethodPost, "/admin/webhook", "", map[string]string{AdminTokenHeader: "s3cret"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, registrar.urls)
}

func TestAdminDisabledWithoutToken(t *testing.T) {
	registrar := &fakeRegistrar{}
	s := newTestServer(DefaultConfig(), &recordingHandler{}, registrar)

	rec := do(t, s, http.MethodPost, "/admin/webhook", "", map[string]string{AdminTokenHeader: ""})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, registrar.urls)
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	s := newTestServer(cfg, &recordingHandler{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	assert.NoError(t, <-done)
}
