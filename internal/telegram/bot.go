// Package telegram adapts the Bot API to the handlers' Transport and feeds
// incoming updates to the handler as models.Update values.
package telegram

import (
	"context"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-reminder-bot/internal/messages"
	"telegram-reminder-bot/internal/models"
)

// pollTimeout is the long-poll duration sent to getUpdates.
const pollTimeout = 60

type Bot struct {
	api    *tgbotapi.BotAPI // bounded client for sends and deletes
	poller *tgbotapi.BotAPI // long-poll client
	log    zerolog.Logger
}

// New connects twice: once with a client bounded by timeout for outgoing
// calls, and once with a client that outlives a long poll.
func New(token string, timeout time.Duration, logger zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, err
	}
	poller, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint,
		&http.Client{Timeout: (pollTimeout + 10) * time.Second})
	if err != nil {
		return nil, err
	}
	logger.Info().Str("username", api.Self.UserName).Msg("authorized")
	return &Bot{api: api, poller: poller, log: logger}, nil
}

// Keyboard builds one row with a button per action. The callback data is
// the action itself.
func Keyboard(actions []models.Action) tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(actions))
	for _, a := range actions {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(messages.ActionLabel(a), string(a)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

func (b *Bot) PostReminder(ctx context.Context, chatID int64, text string, actions []models.Action) (models.MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return models.MessageRef{}, err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = Keyboard(actions)
	sent, err := b.api.Send(msg)
	if err != nil {
		return models.MessageRef{}, err
	}
	return models.MessageRef{ChatID: sent.Chat.ID, MessageID: sent.MessageID}, nil
}

func (b *Bot) DeleteMessage(ctx context.Context, ref models.MessageRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := b.api.Request(tgbotapi.NewDeleteMessage(ref.ChatID, ref.MessageID))
	return err
}

func (b *Bot) SendText(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (b *Bot) AnswerAction(ctx context.Context, callbackID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := b.api.Request(tgbotapi.NewCallback(callbackID, text))
	return err
}

// Updates starts long polling and converts what arrives. The returned
// channel is closed when ctx ends.
func (b *Bot) Updates(ctx context.Context) <-chan models.Update {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = pollTimeout
	cfg.AllowedUpdates = []string{"message", "callback_query"}
	in := b.poller.GetUpdatesChan(cfg)

	out := make(chan models.Update)
	go func() {
		defer close(out)
		defer b.poller.StopReceivingUpdates()
		for {
			select {
			case <-ctx.Done():
				return
			case upd, ok := <-in:
				if !ok {
					return
				}
				u, ok := Convert(upd)
				if !ok {
					continue
				}
				select {
				case out <- u:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Convert maps a Bot API update to a models.Update. Updates the bot does
// not act on report false.
func Convert(upd tgbotapi.Update) (models.Update, bool) {
	switch {
	case upd.CallbackQuery != nil:
		cq := upd.CallbackQuery
		if cq.Message == nil || cq.Message.Chat == nil {
			return models.Update{}, false
		}
		return models.Update{Action: &models.ActionEvent{
			Ref:        models.MessageRef{ChatID: cq.Message.Chat.ID, MessageID: cq.Message.MessageID},
			Action:     models.Action(cq.Data),
			CallbackID: cq.ID,
		}}, true
	case upd.Message != nil:
		m := upd.Message
		if m.Chat == nil || m.Text == "" {
			return models.Update{}, false
		}
		in := &models.Inbound{
			Ref:  models.MessageRef{ChatID: m.Chat.ID, MessageID: m.MessageID},
			Text: m.Text,
		}
		if m.IsCommand() {
			in.Command = m.Command()
			in.Args = m.CommandArguments()
		}
		return models.Update{Message: in}, true
	}
	return models.Update{}, false
}
