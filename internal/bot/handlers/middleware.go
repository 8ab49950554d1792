// Package handlers contains Telegram bot command, callback, and message
// handlers, along with their registration logic and middleware.
package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// AdminOnly creates a middleware that checks if the message sender is the
// configured admin user. Non-admin senders get no reply; the command simply
// does not exist for them.
func AdminOnly(deps *HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			if update.Message == nil || update.Message.From == nil {
				next(ctx, bot, update)
				return
			}

			if update.Message.From.ID != deps.Config.Telegram.AdminUserID {
				deps.Logger.WarnContext(ctx, "Unauthorized admin command attempt",
					"user_id", update.Message.From.ID, "chat_id", update.Message.Chat.ID)
				return
			}

			next(ctx, bot, update)
		}
	}
}
