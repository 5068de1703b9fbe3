package handlers

import (
	"context"
	"time"
)

const (
	// sweepGrace leaves fresh resolutions to the dispatcher.
	sweepGrace = time.Minute
	// Telegram refuses to delete messages older than 48 hours.
	deleteWindow = 48 * time.Hour
)

// Sweep retries deleting reminder messages whose deletion failed after
// resolution and evicts them once gone. It also retries raw messages whose
// delete failed. Anything older than Telegram's deletion window is dropped
// regardless.
func (h *Handler) Sweep(ctx context.Context) {
	now := h.now()
	h.sweepSources(ctx, now)
	for _, e := range h.tracker.Terminal(now.Add(-sweepGrace)) {
		if ctx.Err() != nil {
			return
		}
		log := h.log.With().Str("entry_id", e.ID).Int64("chat_id", e.Ref.ChatID).Int("msg_id", e.Ref.MessageID).Logger()

		if err := h.deleteMessage(ctx, e.Ref); err != nil {
			attempts := h.tracker.MarkDeleteFailed(e.Ref)
			if now.Sub(e.CreatedAt) < deleteWindow {
				log.Debug().Err(err).Int("attempts", attempts).Msg("retry delete later")
				continue
			}
			log.Warn().Err(err).Int("attempts", attempts).Msg("giving up on delete")
		}
		if err := h.tracker.Evict(e.Ref); err != nil {
			log.Warn().Err(err).Msg("evict")
		}
	}
	h.metrics.SetPending(h.tracker.Pending())
}

func (h *Handler) sweepSources(ctx context.Context, now time.Time) {
	for _, r := range h.tracker.SourceRetries() {
		if ctx.Err() != nil {
			return
		}
		log := h.log.With().Int64("chat_id", r.Ref.ChatID).Int("msg_id", r.Ref.MessageID).Logger()

		if err := h.deleteMessage(ctx, r.Ref); err != nil {
			attempts := h.tracker.RetrySource(r.Ref)
			if now.Sub(r.Since) < deleteWindow {
				log.Debug().Err(err).Int("attempts", attempts).Msg("retry original message delete later")
				continue
			}
			log.Warn().Err(err).Int("attempts", attempts).Msg("giving up on original message delete")
		}
		h.tracker.ForgetSource(r.Ref)
	}
}
