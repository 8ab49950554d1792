package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"vazifabot/internal/ui"
)

// NewHelpHandler returns a handler for the /help command.
func NewHelpHandler(deps *HandlerDeps) bot.HandlerFunc {
	return helpHandler{deps}.Handle
}

type helpHandler struct {
	deps *HandlerDeps
}

func (h helpHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "help")

	if update.Message == nil || update.Message.From == nil {
		return
	}

	h.deps.Repo.EnsureUser(update.Message.From.ID)

	err := h.deps.Messenger.Send(ctx, update.Message.Chat.ID, ui.Help(), ui.BackToMainKB(h.deps.Codec))
	if err != nil {
		log.ErrorContext(ctx, "Failed to send help message", "error", err, "chat_id", update.Message.Chat.ID)
	}
}
