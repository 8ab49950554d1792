package handlers

import (
	"context"

	botpkg "vazifabot/internal/bot"
	"vazifabot/internal/ui"
)

func (a actions) startFresh(ctx context.Context, req *botpkg.Request) error {
	a.deps.State.Clear(req.UserID)
	user := a.deps.Repo.UserSnapshot(req.UserID)
	return a.respond(ctx, req, ui.MainMenu(user.FirstName), ui.MainMenuKB(a.deps.Codec))
}

func (a actions) viewProfile(ctx context.Context, req *botpkg.Request) error {
	user := a.deps.Repo.UserSnapshot(req.UserID)
	return a.respond(ctx, req, ui.Profile(user), ui.BackToMainKB(a.deps.Codec))
}

func (a actions) showHelp(ctx context.Context, req *botpkg.Request) error {
	return a.respond(ctx, req, ui.Help(), ui.BackToMainKB(a.deps.Codec))
}

// staleMenu answers tokens whose stored payload has been evicted.
func (a actions) staleMenu(ctx context.Context, req *botpkg.Request) error {
	return a.respond(ctx, req, ui.MsgStaleMenu, ui.RestartKB(a.deps.Codec))
}

func (a actions) unknownAction(ctx context.Context, req *botpkg.Request) error {
	return a.respond(ctx, req, ui.MsgUnknownCommand, ui.RestartKB(a.deps.Codec))
}
