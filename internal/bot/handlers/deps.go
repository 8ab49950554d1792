package handlers

import (
	"log/slog"
	"time"

	botpkg "vazifabot/internal/bot"
	"vazifabot/internal/callback"
	"vazifabot/internal/config"
	"vazifabot/internal/prayer"
	"vazifabot/internal/repo"
	"vazifabot/internal/state"
)

// HandlerDeps provides dependencies for Telegram command and callback
// handlers. Messenger and Router are assigned after the bot instance exists;
// both are in place before the first update is processed.
type HandlerDeps struct {
	Logger    *slog.Logger
	Config    *config.Config
	Repo      *repo.Repository
	State     *state.Store
	Codec     *callback.Codec
	Prayer    *prayer.Client
	Messenger botpkg.Messenger
	Router    *botpkg.Router
	Now       func() time.Time
}
