package handlers

import (
	"context"
	"errors"

	"telegram-reminder-bot/internal/messages"
	"telegram-reminder-bot/internal/models"
	"telegram-reminder-bot/internal/tracker"
)

// HandleCallback queues a button press for the dispatcher.
func (h *Handler) HandleCallback(ctx context.Context, ev models.ActionEvent) {
	select {
	case h.actions <- ev:
	case <-ctx.Done():
	}
}

// RunDispatcher is the single consumer of button presses. It returns when
// ctx ends.
func (h *Handler) RunDispatcher(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-h.actions:
			if err := h.HandleAction(ctx, ev); err != nil {
				h.log.Warn().Err(err).
					Int64("chat_id", ev.Ref.ChatID).
					Int("msg_id", ev.Ref.MessageID).
					Msg("action not completed")
			}
		}
	}
}

// HandleAction resolves the reminder behind ev, then deletes the reminder
// and the user's original message, and evicts the entry once the reminder
// message is gone. Duplicate presses are answered and otherwise ignored.
func (h *Handler) HandleAction(ctx context.Context, ev models.ActionEvent) error {
	log := h.log.With().
		Int64("chat_id", ev.Ref.ChatID).
		Int("msg_id", ev.Ref.MessageID).
		Str("action", string(ev.Action)).
		Logger()

	outcome, ok := ev.Action.Outcome()
	if !ok {
		h.metrics.IncRejected("unknown_action")
		h.answer(ctx, ev.CallbackID, "")
		log.Debug().Msg("unknown action")
		return nil
	}

	e, err := h.tracker.Resolve(ev.Ref, outcome)
	var already *tracker.AlreadyResolvedError
	switch {
	case errors.Is(err, tracker.ErrNotFound):
		// Posted before a restart: nothing to track, just clear it.
		h.metrics.IncRejected("not_found")
		h.answer(ctx, ev.CallbackID, "")
		log.Debug().Msg("action for untracked message")
		return h.deleteMessage(ctx, ev.Ref)
	case errors.As(err, &already):
		h.metrics.IncRejected("already_resolved")
		h.answer(ctx, ev.CallbackID, "")
		log.Debug().Stringer("state", already.State).Msg("duplicate action ignored")
		return nil
	case err != nil:
		h.answer(ctx, ev.CallbackID, "")
		return err
	}

	log = log.With().Str("entry_id", e.ID).Stringer("outcome", e.State).Logger()
	h.metrics.IncResolved(e.State.String())
	h.answer(ctx, ev.CallbackID, messages.Answer(e.State))

	if !e.Source.IsZero() && h.tracker.ClaimSource(e.Source) {
		if err := h.deleteMessage(ctx, e.Source); err != nil {
			attempts := h.tracker.RetrySource(e.Source)
			log.Debug().Err(err).Int("attempts", attempts).Msg("delete original message")
		}
	}

	if err := h.deleteMessage(ctx, ev.Ref); err != nil {
		h.tracker.MarkDeleteFailed(ev.Ref)
		return err
	}
	if err := h.tracker.Evict(ev.Ref); err != nil {
		return err
	}
	h.metrics.SetPending(h.tracker.Pending())
	log.Info().Msg("reminder resolved")
	return nil
}

func (h *Handler) answer(ctx context.Context, callbackID, text string) {
	if callbackID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, h.transportTimeout)
	defer cancel()
	if err := h.transport.AnswerAction(ctx, callbackID, text); err != nil {
		h.metrics.IncTransportFailure("answer")
		h.log.Debug().Err(err).Msg("answer callback")
	}
}
