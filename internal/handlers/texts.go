package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"telegram-reminder-bot/internal/calendar"
	"telegram-reminder-bot/internal/messages"
	"telegram-reminder-bot/internal/models"
)

// HandleText turns a free-form message into posted reminders. The user's
// message is never deleted here: it goes only once a reminder is resolved,
// so a failed rewrite or post loses nothing.
func (h *Handler) HandleText(ctx context.Context, msg models.Inbound) error {
	raw := strings.TrimSpace(msg.Text)
	if raw == "" {
		return nil
	}
	chatID := msg.Ref.ChatID
	log := h.log.With().Int64("chat_id", chatID).Int("msg_id", msg.Ref.MessageID).Logger()

	window := calendar.BuildWindow(h.now().In(h.location(chatID)))

	rctx, cancel := context.WithTimeout(ctx, h.rewriteTimeout)
	started := time.Now()
	reply, err := h.rewriter.Rewrite(rctx, raw, window)
	cancel()
	if err != nil {
		h.metrics.ObserveRewrite("error", time.Since(started))
		log.Warn().Err(err).Msg("rewrite failed")
		h.send(ctx, chatID, messages.RewriteFailed)
		return err
	}
	h.metrics.ObserveRewrite("ok", time.Since(started))

	var posted, failed int
	var lastErr error
	h.tracker.HoldSource(msg.Ref)
	for st := range h.splitter.Split(reply, window) {
		if err := h.postReminder(ctx, msg.Ref, st); err != nil {
			log.Warn().Err(err).Msg("post reminder")
			failed++
			lastErr = err
			continue
		}
		posted++
	}
	// The raw message is the only record of reminders that were not posted.
	h.tracker.ReleaseSource(msg.Ref, failed > 0)

	switch {
	case posted == 0 && failed == 0:
		log.Warn().Str("reply", reply).Msg("rewrite reply has no reminders")
		h.send(ctx, chatID, messages.NothingFound)
		return &models.RewriteError{Reason: "no reminders in reply"}
	case failed > 0:
		h.send(ctx, chatID, messages.PostFailed(failed))
		return fmt.Errorf("%d of %d reminders not posted: %w", failed, posted+failed, lastErr)
	}
	log.Debug().Int("reminders", posted).Msg("message handled")
	return nil
}
