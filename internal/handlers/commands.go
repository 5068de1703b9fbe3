package handlers

import (
	"context"
	"strings"
	"time"

	"telegram-reminder-bot/internal/messages"
	"telegram-reminder-bot/internal/models"
)

func (h *Handler) HandleCommand(ctx context.Context, msg models.Inbound) {
	switch msg.Command {
	case "start":
		h.HandleStart(ctx, msg.Ref.ChatID)
	case "timezone":
		h.HandleTimezone(ctx, msg.Ref.ChatID, msg.Args)
	default:
		h.send(ctx, msg.Ref.ChatID, messages.Help)
	}
}

// ---------------- /start --------------------
func (h *Handler) HandleStart(ctx context.Context, chatID int64) {
	h.send(ctx, chatID, messages.Welcome)
}

// ---------------- /timezone -----------------
func (h *Handler) HandleTimezone(ctx context.Context, chatID int64, args string) {
	name := strings.TrimSpace(args)
	if name == "" {
		h.send(ctx, chatID, messages.TimezoneCurrent(h.location(chatID), h.now()))
		return
	}

	if strings.EqualFold(name, "reset") {
		h.resetTimezone(ctx, chatID)
		return
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		h.send(ctx, chatID, messages.TimezoneUnknown(name))
		return
	}
	if h.settings == nil {
		h.send(ctx, chatID, messages.TimezoneSaveFailed)
		return
	}
	if err := h.settings.SetTimezone(chatID, loc.String()); err != nil {
		h.log.Error().Err(err).Int64("chat_id", chatID).Msg("save timezone")
		h.send(ctx, chatID, messages.TimezoneSaveFailed)
		return
	}
	h.log.Info().Int64("chat_id", chatID).Str("tz", loc.String()).Msg("timezone changed")
	h.send(ctx, chatID, messages.TimezoneSet(loc, h.now()))
}

func (h *Handler) resetTimezone(ctx context.Context, chatID int64) {
	if h.settings == nil {
		h.send(ctx, chatID, messages.TimezoneSaveFailed)
		return
	}
	if err := h.settings.ClearChat(chatID); err != nil {
		h.log.Error().Err(err).Int64("chat_id", chatID).Msg("clear chat settings")
		h.send(ctx, chatID, messages.TimezoneSaveFailed)
		return
	}
	h.send(ctx, chatID, messages.TimezoneSet(h.defaultTZ, h.now()))
}
