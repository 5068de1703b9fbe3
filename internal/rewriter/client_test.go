package rewriter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-reminder-bot/internal/calendar"
	"telegram-reminder-bot/internal/models"
	"telegram-reminder-bot/internal/splitter"
)

var window = calendar.BuildWindow(time.Date(2026, time.January, 7, 9, 0, 0, 0, time.UTC))

func newClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL + "/", APIKey: "test-key", Model: "test-model", Separator: "|", Timeout: 2 * time.Second}, zerolog.Nop())
}

func reply(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"choices": []any{
			map[string]any{
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
	})
}

func TestRewrite_Success(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, 0.7, req.Temperature)
		assert.Equal(t, 500, req.MaxTokens)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Contains(t, req.Messages[0].Content, "Current date: Wednesday, January 07, 2026")
		assert.Contains(t, req.Messages[0].Content, `separated by "|"`)
		assert.Equal(t, "order meds, tax report by the 15th", req.Messages[1].Content)

		reply(w, "  Order the meds\n|\nMake tax report\n\ndo by January 15, 2026 \n")
	})

	got, err := c.Rewrite(context.Background(), "order meds, tax report by the 15th", window)
	require.NoError(t, err)
	assert.Equal(t, "Order the meds\n|\nMake tax report\n\ndo by January 15, 2026", got)
}

func TestNew_DefaultsFollowSplitter(t *testing.T) {
	c := New(Config{}, zerolog.Nop())
	assert.Equal(t, splitter.DefaultSeparator, c.cfg.Separator)
	assert.Contains(t, SystemPrompt(window, c.cfg.Separator), `separated by "`+splitter.DefaultSeparator+`"`)
}

func TestRewrite_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		reason  string
	}{
		{
			name: "status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":{"type":"rate_limit","message":"slow down"}}`))
			},
			reason: "status 429",
		},
		{
			name: "empty",
			handler: func(w http.ResponseWriter, r *http.Request) {
				reply(w, "   ")
			},
			reason: "empty reply",
		},
		{
			name: "no choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"choices":[]}`))
			},
			reason: "no choices in response",
		},
		{
			name: "garbage",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`<html>`))
			},
			reason: "decode response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newClient(t, tt.handler).Rewrite(context.Background(), "x", window)
			var rw *models.RewriteError
			require.True(t, errors.As(err, &rw), "got %v", err)
			assert.Equal(t, tt.reason, rw.Reason)
		})
	}
}

func TestRewrite_StatusMessage(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"type":"auth","message":"bad key"}}`))
	})

	_, err := c.Rewrite(context.Background(), "x", window)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad key")
}

func TestRewrite_ContextCancelled(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Rewrite(ctx, "x", window)
	var rw *models.RewriteError
	require.ErrorAs(t, err, &rw)
	assert.Equal(t, "request", rw.Reason)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSystemPrompt(t *testing.T) {
	p := SystemPrompt(window, "---")

	assert.Contains(t, p, "Next week:\n  Monday: January 12, 2026")
	assert.Contains(t, p, "Order the meds\n---\nMake tax report")
	assert.NotContains(t, p, "{{")
	assert.True(t, strings.HasPrefix(p, "You are a helpful assistant"))
}
