package handlers

import (
	"context"

	botpkg "vazifabot/internal/bot"
	"vazifabot/internal/ui"
)

func (a actions) showSettings(ctx context.Context, req *botpkg.Request) error {
	return a.respond(ctx, req, "⚙️ **SOZLAMALAR**\n\nNimani o'zgartiramiz?", ui.SettingsKB(a.deps.Codec))
}

func (a actions) showNotificationSettings(ctx context.Context, req *botpkg.Request) error {
	user := a.deps.Repo.UserSnapshot(req.UserID)
	return a.respond(ctx, req, "🔔 **BILDIRISHNOMALAR**\n\nHolatni tugma orqali o'zgartiring:",
		ui.NotificationSettingsKB(a.deps.Codec, user.Prefs.PrayerAlerts, user.Prefs.TaskAlerts))
}

func (a actions) togglePrayerNotifications(ctx context.Context, req *botpkg.Request) error {
	a.deps.Repo.TogglePrayerAlerts(req.UserID)
	if err := a.deps.Repo.Save(ctx); err != nil {
		return err
	}
	return a.showNotificationSettings(ctx, req)
}

func (a actions) toggleTaskNotifications(ctx context.Context, req *botpkg.Request) error {
	a.deps.Repo.ToggleTaskAlerts(req.UserID)
	if err := a.deps.Repo.Save(ctx); err != nil {
		return err
	}
	return a.showNotificationSettings(ctx, req)
}
