package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	botpkg "vazifabot/internal/bot"
	"vazifabot/internal/callback"
	"vazifabot/internal/repo"
	"vazifabot/internal/state"
	"vazifabot/internal/ui"
)

func (a actions) showTeamFeatures(ctx context.Context, req *botpkg.Request) error {
	user := a.deps.Repo.UserSnapshot(req.UserID)

	teams := make([]repo.Team, 0, len(user.Teams))
	for _, teamID := range user.Teams {
		if team, ok := a.deps.Repo.Team(teamID); ok {
			teams = append(teams, team)
		}
	}

	text := "👥 **JAMOA**\n\nJamoa yarating yoki kod bilan qo'shiling."
	if len(teams) > 0 {
		text = fmt.Sprintf("👥 **JAMOALARIM** (%d ta)\n\nJamoani tanlang:", len(teams))
	}
	return a.respond(ctx, req, text, ui.TeamMenuKB(a.deps.Codec, teams))
}

func (a actions) createTeamPrompt(ctx context.Context, req *botpkg.Request) error {
	a.deps.State.Set(req.UserID, state.AwaitingTeamName, nil)
	return a.respond(ctx, req, ui.MsgAskTeamName, ui.BackToMainKB(a.deps.Codec))
}

func (a actions) joinTeamPrompt(ctx context.Context, req *botpkg.Request) error {
	a.deps.State.Set(req.UserID, state.AwaitingTeamCode, nil)
	return a.respond(ctx, req, ui.MsgAskTeamCode, ui.BackToMainKB(a.deps.Codec))
}

func (a actions) teamFromRequest(req *botpkg.Request) (repo.Team, bool) {
	teamID, _ := callback.String(req.Data, "team_id")
	return a.deps.Repo.Team(teamID)
}

func (a actions) showTeam(ctx context.Context, req *botpkg.Request) error {
	team, ok := a.teamFromRequest(req)
	if !ok {
		return a.respond(ctx, req, ui.MsgTeamNotFound, ui.BackToMainKB(a.deps.Codec))
	}
	return a.respond(ctx, req,
		ui.TeamOverview(team, team.Admin == req.UserID), ui.TeamDetailKB(a.deps.Codec, team.ID, team.Admin == req.UserID))
}

func (a actions) showTeamTasks(ctx context.Context, req *botpkg.Request) error {
	team, ok := a.teamFromRequest(req)
	if !ok {
		return a.respond(ctx, req, ui.MsgTeamNotFound, ui.BackToMainKB(a.deps.Codec))
	}
	return a.respond(ctx, req, ui.TeamTaskList(team), ui.TeamTaskListKB(a.deps.Codec, team))
}

// addTeamTask starts the shared creation flow, tagging the conversation with
// the team so the confirmation lands in the team list.
func (a actions) addTeamTask(ctx context.Context, req *botpkg.Request) error {
	team, ok := a.teamFromRequest(req)
	if !ok {
		return a.respond(ctx, req, ui.MsgTeamNotFound, ui.BackToMainKB(a.deps.Codec))
	}

	a.deps.State.Set(req.UserID, state.AwaitingTaskName, map[string]any{"team_id": team.ID})
	return a.respond(ctx, req, ui.MsgAskTaskName, ui.BackToMainKB(a.deps.Codec))
}

func (a actions) completeTeamTask(ctx context.Context, req *botpkg.Request) error {
	teamID, _ := callback.String(req.Data, "team_id")
	taskID, okID := callback.Int64(req.Data, "task_id")
	if !okID {
		return a.staleMenu(ctx, req)
	}

	teamTask, err := a.deps.Repo.CompleteTeamTask(teamID, taskID, req.UserID, "")
	switch {
	case errors.Is(err, repo.ErrTeamNotFound):
		return a.respond(ctx, req, ui.MsgTeamNotFound, ui.BackToMainKB(a.deps.Codec))
	case errors.Is(err, repo.ErrTaskNotFound):
		return a.respond(ctx, req, ui.MsgTaskNotFound, ui.BackToMainKB(a.deps.Codec))
	case err != nil:
		return err
	}

	if err := a.deps.Repo.Save(ctx); err != nil {
		return err
	}

	team, _ := a.deps.Repo.Team(teamID)
	if err := a.deps.Messenger.Send(ctx, req.ChatID, ui.TaskCompleted(teamTask.Task), nil); err != nil {
		return err
	}
	return a.respond(ctx, req, ui.TeamTaskList(team), ui.TeamTaskListKB(a.deps.Codec, team))
}

func (a actions) showTeamMembers(ctx context.Context, req *botpkg.Request) error {
	team, ok := a.teamFromRequest(req)
	if !ok {
		return a.respond(ctx, req, ui.MsgTeamNotFound, ui.BackToMainKB(a.deps.Codec))
	}
	return a.respond(ctx, req, ui.TeamMembers(team), ui.TeamDetailKB(a.deps.Codec, team.ID, team.Admin == req.UserID))
}

// showTeamAdmin is the management page for the team admin. Non-admins who
// somehow hold the button get the regular team page.
func (a actions) showTeamAdmin(ctx context.Context, req *botpkg.Request) error {
	team, ok := a.teamFromRequest(req)
	if !ok {
		return a.respond(ctx, req, ui.MsgTeamNotFound, ui.BackToMainKB(a.deps.Codec))
	}
	if team.Admin != req.UserID {
		return a.showTeam(ctx, req)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "⚙️ **%s BOSHQARUVI**\n\n", team.Name)
	fmt.Fprintf(&b, "🔑 **Kod:** `%s`\n🙋 **A'zolar:** %d\n\n", team.ID, len(team.Members))
	b.WriteString("Jamoadan chiqsangiz, adminlik eng birinchi qo'shilgan a'zoga o'tadi.")
	return a.respond(ctx, req, b.String(), ui.TeamDetailKB(a.deps.Codec, team.ID, true))
}

func (a actions) shareTeamCode(ctx context.Context, req *botpkg.Request) error {
	team, ok := a.teamFromRequest(req)
	if !ok {
		return a.respond(ctx, req, ui.MsgTeamNotFound, ui.BackToMainKB(a.deps.Codec))
	}

	// A fresh message, so the user can forward it without losing the menu.
	if err := a.deps.Messenger.Send(ctx, req.ChatID, ui.ShareTeamCode(team), nil); err != nil {
		return err
	}
	return nil
}

func (a actions) leaveTeam(ctx context.Context, req *botpkg.Request) error {
	teamID, _ := callback.String(req.Data, "team_id")

	deleted, err := a.deps.Repo.LeaveTeam(teamID, req.UserID)
	if errors.Is(err, repo.ErrTeamNotFound) || errors.Is(err, repo.ErrNotMember) {
		return a.respond(ctx, req, ui.MsgTeamNotFound, ui.BackToMainKB(a.deps.Codec))
	}
	if err != nil {
		return err
	}

	if err := a.deps.Repo.Save(ctx); err != nil {
		return err
	}

	text := ui.MsgTeamLeft
	if deleted {
		text = ui.MsgTeamDeleted
	}
	return a.respond(ctx, req, text, ui.BackToMainKB(a.deps.Codec))
}
