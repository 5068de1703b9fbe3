package handlers

import (
	"context"
	"errors"

	"telegram-reminder-bot/internal/messages"
	"telegram-reminder-bot/internal/models"
	"telegram-reminder-bot/internal/tracker"
)

// HandleMessage routes commands and plain text.
func (h *Handler) HandleMessage(ctx context.Context, msg models.Inbound) error {
	if msg.Command != "" {
		h.HandleCommand(ctx, msg)
		return nil
	}
	return h.HandleText(ctx, msg)
}

// postReminder posts st under two buttons and registers it. Nothing is
// registered when the post fails.
func (h *Handler) postReminder(ctx context.Context, source models.MessageRef, st models.Statement) error {
	pctx, cancel := context.WithTimeout(ctx, h.transportTimeout)
	defer cancel()

	ref, err := h.transport.PostReminder(pctx, source.ChatID, messages.Reminder(st), models.ReminderActions)
	if err != nil {
		h.metrics.IncTransportFailure("post")
		return transportErr("post", source, err)
	}

	e, err := h.tracker.Register(st, ref, source)
	var dup *tracker.DuplicateRefError
	switch {
	case errors.As(err, &dup):
		h.log.Debug().Err(err).Msg("reminder already registered")
		return nil
	case err != nil:
		return err
	}

	h.metrics.IncRegistered()
	h.metrics.SetPending(h.tracker.Pending())
	h.log.Info().
		Str("entry_id", e.ID).
		Int64("chat_id", ref.ChatID).
		Int("msg_id", ref.MessageID).
		Bool("dated", st.ResolvedDate != nil).
		Bool("ambiguous", st.Ambiguous).
		Msg("reminder posted")
	return nil
}

func transportErr(op string, ref models.MessageRef, err error) error {
	var te *models.TransportError
	if errors.As(err, &te) {
		return err
	}
	return &models.TransportError{Op: op, Ref: ref, Err: err}
}
