package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"vazifabot/internal/ui"
)

// NewStatsHandler returns a handler for the admin-only /stats command.
func NewStatsHandler(deps *HandlerDeps) bot.HandlerFunc {
	return statsHandler{deps}.Handle
}

type statsHandler struct {
	deps *HandlerDeps
}

func (h statsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "stats")

	if update.Message == nil || update.Message.From == nil {
		return
	}

	stats := h.deps.Repo.Stats()
	err := h.deps.Messenger.Send(ctx, update.Message.Chat.ID, ui.StatsReport(stats), nil)
	if err != nil {
		log.ErrorContext(ctx, "Failed to send stats report", "error", err, "chat_id", update.Message.Chat.ID)
	}
}
