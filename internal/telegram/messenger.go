package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Messenger adapts the go-telegram/bot client to the outbound transport
// interface consumed by the router, the handlers, and the notifier.
type Messenger struct {
	logger *slog.Logger
	bot    *bot.Bot
}

// NewMessenger creates a messenger backed by the given bot instance.
func NewMessenger(logger *slog.Logger, b *bot.Bot) *Messenger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Messenger{
		logger: logger.With("component", "messenger"),
		bot:    b,
	}
}

// Send delivers a new message to the chat.
func (m *Messenger) Send(ctx context.Context, chatID int64, text string, kb *models.InlineKeyboardMarkup) error {
	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}
	if kb != nil {
		params.ReplyMarkup = kb
	}

	if _, err := m.bot.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("failed to send message to chat %d: %w", chatID, err)
	}
	return nil
}

// Edit rewrites an existing message in place. When the target message is gone
// or unchanged, it degrades: unchanged content is treated as success, a
// missing message falls back to sending a new one so the user still gets the
// screen they asked for.
func (m *Messenger) Edit(ctx context.Context, chatID int64, messageID int, text string, kb *models.InlineKeyboardMarkup) error {
	params := &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
	}
	if kb != nil {
		params.ReplyMarkup = kb
	}

	_, err := m.bot.EditMessageText(ctx, params)
	if err == nil {
		return nil
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "message is not modified") {
		return nil
	}
	if strings.Contains(msg, "message to edit not found") || strings.Contains(msg, "message can't be edited") {
		m.logger.Debug("Edit target gone, sending new message",
			"chat_id", chatID, "message_id", messageID, "error", err)
		return m.Send(ctx, chatID, text, kb)
	}

	return fmt.Errorf("failed to edit message %d in chat %d: %w", messageID, chatID, err)
}

// Answer acknowledges a callback query. Stale queries that Telegram has
// already expired are not an error worth surfacing.
func (m *Messenger) Answer(ctx context.Context, interactionID string, text string) error {
	params := &bot.AnswerCallbackQueryParams{
		CallbackQueryID: interactionID,
	}
	if text != "" {
		params.Text = text
	}

	ok, err := m.bot.AnswerCallbackQuery(ctx, params)
	if err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "query is too old") || strings.Contains(msg, "query id is invalid") {
			m.logger.Debug("Callback query already expired upstream", "interaction_id", interactionID)
			return nil
		}
		return fmt.Errorf("failed to answer callback query: %w", err)
	}
	if !ok {
		return fmt.Errorf("callback query answer was rejected")
	}
	return nil
}
