package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"telegram-reminder-bot/internal/calendar"
	"telegram-reminder-bot/internal/metrics"
	"telegram-reminder-bot/internal/models"
	"telegram-reminder-bot/internal/splitter"
	"telegram-reminder-bot/internal/tracker"
)

// Transport is the chat side of the bot.
type Transport interface {
	PostReminder(ctx context.Context, chatID int64, text string, actions []models.Action) (models.MessageRef, error)
	DeleteMessage(ctx context.Context, ref models.MessageRef) error
	SendText(ctx context.Context, chatID int64, text string) error
	AnswerAction(ctx context.Context, callbackID, text string) error
}

// Rewriter turns a raw message into delimited reminder statements.
type Rewriter interface {
	Rewrite(ctx context.Context, raw string, w calendar.Window) (string, error)
}

// SettingsStore keeps per-chat timezones.
type SettingsStore interface {
	Timezone(chatID int64, fallback *time.Location) (*time.Location, error)
	SetTimezone(chatID int64, tz string) error
	ClearChat(chatID int64) error
}

type Deps struct {
	Transport Transport
	Rewriter  Rewriter
	Tracker   *tracker.Tracker
	Splitter  *splitter.Splitter
	Settings  SettingsStore
	Metrics   *metrics.Metrics
	Logger    zerolog.Logger

	DefaultTZ        *time.Location
	RewriteTimeout   time.Duration
	TransportTimeout time.Duration
	Now              func() time.Time
}

type Handler struct {
	transport Transport
	rewriter  Rewriter
	tracker   *tracker.Tracker
	splitter  *splitter.Splitter
	settings  SettingsStore
	metrics   *metrics.Metrics
	log       zerolog.Logger

	defaultTZ        *time.Location
	rewriteTimeout   time.Duration
	transportTimeout time.Duration
	now              func() time.Time

	actions chan models.ActionEvent
}

const actionQueue = 64

func New(d Deps) *Handler {
	h := &Handler{
		transport:        d.Transport,
		rewriter:         d.Rewriter,
		tracker:          d.Tracker,
		splitter:         d.Splitter,
		settings:         d.Settings,
		metrics:          d.Metrics,
		log:              d.Logger,
		defaultTZ:        d.DefaultTZ,
		rewriteTimeout:   d.RewriteTimeout,
		transportTimeout: d.TransportTimeout,
		now:              d.Now,
		actions:          make(chan models.ActionEvent, actionQueue),
	}
	if h.tracker == nil {
		h.tracker = tracker.New()
	}
	if h.splitter == nil {
		h.splitter = splitter.New(splitter.DefaultSeparator)
	}
	if h.defaultTZ == nil {
		h.defaultTZ = time.UTC
	}
	if h.rewriteTimeout <= 0 {
		h.rewriteTimeout = 30 * time.Second
	}
	if h.transportTimeout <= 0 {
		h.transportTimeout = 15 * time.Second
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// Serve reads updates until the channel closes or ctx ends. Each message is
// handled in its own goroutine; button presses go to the dispatcher queue,
// so RunDispatcher must be running as well.
func (h *Handler) Serve(ctx context.Context, updates <-chan models.Update) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			switch {
			case upd.Message != nil:
				msg := *upd.Message
				wg.Add(1)
				go func() {
					defer wg.Done()
					if err := h.HandleMessage(ctx, msg); err != nil {
						h.log.Warn().Err(err).
							Int64("chat_id", msg.Ref.ChatID).
							Int("msg_id", msg.Ref.MessageID).
							Msg("message not turned into reminders")
					}
				}()
			case upd.Action != nil:
				h.HandleCallback(ctx, *upd.Action)
			}
		}
	}
}

// location returns the chat's timezone, falling back to the default.
func (h *Handler) location(chatID int64) *time.Location {
	if h.settings == nil {
		return h.defaultTZ
	}
	loc, err := h.settings.Timezone(chatID, h.defaultTZ)
	if err != nil {
		h.log.Warn().Err(err).Int64("chat_id", chatID).Msg("read chat timezone")
		return h.defaultTZ
	}
	return loc
}

// send delivers a plain notice; failures are logged only.
func (h *Handler) send(ctx context.Context, chatID int64, text string) {
	ctx, cancel := context.WithTimeout(ctx, h.transportTimeout)
	defer cancel()
	if err := h.transport.SendText(ctx, chatID, text); err != nil {
		h.metrics.IncTransportFailure("send")
		h.log.Warn().Err(err).Int64("chat_id", chatID).Msg("send text")
	}
}

// deleteMessage removes ref with a bounded timeout.
func (h *Handler) deleteMessage(ctx context.Context, ref models.MessageRef) error {
	ctx, cancel := context.WithTimeout(ctx, h.transportTimeout)
	defer cancel()
	if err := h.transport.DeleteMessage(ctx, ref); err != nil {
		h.metrics.IncTransportFailure("delete")
		return transportErr("delete", ref, err)
	}
	return nil
}
