package handlers

import (
	"context"

	"github.com/go-telegram/bot/models"

	botpkg "vazifabot/internal/bot"
	"vazifabot/internal/callback"
)

// RegisterCallbackRoutes wires every callback action into the router. Exact
// routes win over patterns; patterns are checked in the order listed here.
func RegisterCallbackRoutes(deps *HandlerDeps) {
	a := actions{deps}
	r := deps.Router

	r.Handle("start_fresh", a.startFresh)
	r.Handle("view_profile", a.viewProfile)
	r.Handle("show_help", a.showHelp)
	r.Handle("detailed_stats", a.viewProfile)

	r.Handle("back_to_main_tasks", a.showTasks)
	r.Handle("add_task", a.addTask)
	r.Handle("confirm_task", a.confirmTask)

	r.Handle("show_prayer_times", a.showPrayerTimes)
	r.Handle("change_prayer_region", a.changePrayerRegion)
	r.Handle("disable_prayer_notifications", a.disablePrayerNotifications)

	r.Handle("simple_settings", a.showSettings)
	r.Handle("notification_settings", a.showNotificationSettings)
	r.Handle("toggle_prayer_notifications", a.togglePrayerNotifications)
	r.Handle("toggle_general_notifications", a.toggleTaskNotifications)

	r.Handle("show_team_features", a.showTeamFeatures)
	r.Handle("create_team_quick", a.createTeamPrompt)
	r.Handle("join_team_quick", a.joinTeamPrompt)

	r.Handle(callback.ActionExpired, a.staleMenu)
	r.Handle(callback.ActionUnknown, a.unknownAction)

	r.HandlePattern(`^complete_task_(?P<task_id>\d+)$`, a.completeTask)
	r.HandlePattern(`^delete_task_(?P<task_id>\d+)$`, a.deleteTask)
	r.HandlePattern(`^select_date_(?P<date>\d{4}-\d{2}-\d{2})$`, a.selectDate)
	r.HandlePattern(`^select_time_(?P<date>\d{4}-\d{2}-\d{2})_(?P<time>\d{2}:\d{2})$`, a.selectTime)
	r.HandlePattern(`^set_region_(?P<region>.+)$`, a.setRegion)
	r.HandlePattern(`^add_team_task_(?P<team_id>[A-Z0-9]{6})$`, a.addTeamTask)
	r.HandlePattern(`^complete_team_task_(?P<team_id>[A-Z0-9]{6})_(?P<task_id>\d+)$`, a.completeTeamTask)
	r.HandlePattern(`^show_team_(?P<team_id>[A-Z0-9]{6})$`, a.showTeam)
	r.HandlePattern(`^team_tasks_(?P<team_id>[A-Z0-9]{6})$`, a.showTeamTasks)
	r.HandlePattern(`^team_members_(?P<team_id>[A-Z0-9]{6})$`, a.showTeamMembers)
	r.HandlePattern(`^team_admin_(?P<team_id>[A-Z0-9]{6})$`, a.showTeamAdmin)
	r.HandlePattern(`^share_team_code_(?P<team_id>[A-Z0-9]{6})$`, a.shareTeamCode)
	r.HandlePattern(`^leave_team_(?P<team_id>[A-Z0-9]{6})$`, a.leaveTeam)
}

// actions implements the callback route handlers over the shared deps.
type actions struct {
	deps *HandlerDeps
}

// respond edits the originating message in place when it is still accessible,
// otherwise sends a fresh one.
func (a actions) respond(ctx context.Context, req *botpkg.Request, text string, kb *models.InlineKeyboardMarkup) error {
	if req.MessageID != 0 {
		return a.deps.Messenger.Edit(ctx, req.ChatID, req.MessageID, text, kb)
	}
	return a.deps.Messenger.Send(ctx, req.ChatID, text, kb)
}
