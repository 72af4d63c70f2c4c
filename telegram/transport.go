// Package telegram adapts Telegram updates to the transport-agnostic event
// model and delivers outgoing messages, keyboards, and chart images.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"nutricoach"
	"nutricoach/commands"
)

// Bot polls Telegram for updates and forwards them to the event handler.
type Bot struct {
	api     *tgbotapi.BotAPI
	handler nutricoach.EventHandler
}

// New authorizes against the Telegram API.
func New(token string, handler nutricoach.EventHandler, debug bool) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	api.Debug = debug

	slog.Info("TELEGRAM: Authorized", "username", api.Self.UserName)

	return &Bot{api: api, handler: handler}, nil
}

// RegisterCommands publishes the command menu shown by Telegram clients.
func (b *Bot) RegisterCommands(registry *commands.Registry) error {
	specs := registry.All()
	cmds := make([]tgbotapi.BotCommand, 0, len(specs))
	for _, s := range specs {
		cmds = append(cmds, tgbotapi.BotCommand{Command: s.Name, Description: s.Description})
	}

	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(cmds...)); err != nil {
		return fmt.Errorf("failed to register bot commands: %w", err)
	}
	return nil
}

// Run polls for updates until the context is canceled. Each update is
// handled on its own goroutine; per-user ordering is the handler's concern.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		cb := update.CallbackQuery

		// Acknowledge the press so the client stops its spinner.
		if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			slog.Error("TELEGRAM: Failed to answer callback", "error", err)
		}
		if cb.Message == nil {
			return
		}

		event := nutricoach.Event{
			UserID: strconv.FormatInt(cb.From.ID, 10),
			Kind:   nutricoach.EventButtonPress,
			Text:   cb.Data,
		}
		b.deliver(cb.Message.Chat.ID, b.handler.HandleEvent(ctx, event))

	case update.Message != nil:
		msg := update.Message

		event := nutricoach.Event{
			UserID: strconv.FormatInt(msg.From.ID, 10),
			Kind:   nutricoach.EventText,
			Text:   msg.Text,
		}
		b.deliver(msg.Chat.ID, b.handler.HandleEvent(ctx, event))
	}
}

func (b *Bot) deliver(chatID int64, msgs []nutricoach.Message) {
	for _, m := range msgs {
		var err error
		switch m.Kind {
		case nutricoach.MessageImage:
			photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: m.ImageName, Bytes: m.Image})
			photo.Caption = m.Text
			_, err = b.api.Send(photo)
		default:
			out := tgbotapi.NewMessage(chatID, m.Text)
			if len(m.Buttons) > 0 {
				out.ReplyMarkup = inlineKeyboard(m.Buttons)
			}
			_, err = b.api.Send(out)
		}
		if err != nil {
			slog.Error("TELEGRAM: Failed to send message", "chat_id", chatID, "error", err)
		}
	}
}

// inlineKeyboard lays out one button per row; candidate labels are long
// enough that stacking reads better than wrapping.
func inlineKeyboard(buttons []nutricoach.Button) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, btn := range buttons {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btn.Label, btn.Data),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
