package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"vazifabot/internal/ui"
)

// NewStartHandler returns a handler for the /start command.
func NewStartHandler(deps *HandlerDeps) bot.HandlerFunc {
	return startHandler{deps}.Handle
}

// startHandler processes the /start command using injected dependencies.
type startHandler struct {
	deps *HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "start")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Start handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	from := update.Message.From
	log.InfoContext(ctx, "Handling /start command", "chat_id", update.Message.Chat.ID, "user_id", from.ID)

	h.deps.Repo.EnsureUser(from.ID)
	h.deps.Repo.UpdateIdentity(from.ID, from.FirstName, from.LastName, from.Username)
	h.deps.State.Clear(from.ID)

	if err := h.deps.Repo.Save(ctx); err != nil {
		log.ErrorContext(ctx, "Failed to persist user registration", "user_id", from.ID, "error", err)
	}

	err := h.deps.Messenger.Send(ctx, update.Message.Chat.ID,
		ui.MainMenu(from.FirstName), ui.MainMenuKB(h.deps.Codec))
	if err != nil {
		log.ErrorContext(ctx, "Failed to send main menu", "error", err, "chat_id", update.Message.Chat.ID)
	}
}
