package handlers

import (
	"context"

	botpkg "vazifabot/internal/bot"
	"vazifabot/internal/callback"
	"vazifabot/internal/ui"
)

func (a actions) showPrayerTimes(ctx context.Context, req *botpkg.Request) error {
	user := a.deps.Repo.UserSnapshot(req.UserID)

	times, err := a.deps.Prayer.TimesForRegion(ctx, user.Prefs.PrayerRegion)
	if err != nil {
		return err
	}

	return a.respond(ctx, req,
		ui.PrayerTable(times, user.Prefs.PrayerRegion, a.deps.Now()), ui.PrayerTimesKB(a.deps.Codec))
}

func (a actions) changePrayerRegion(ctx context.Context, req *botpkg.Request) error {
	return a.respond(ctx, req, "📍 Hududingizni tanlang:", ui.RegionsKB(a.deps.Codec, a.deps.Prayer.Regions()))
}

func (a actions) setRegion(ctx context.Context, req *botpkg.Request) error {
	region, _ := callback.String(req.Data, "region")
	if !a.deps.Prayer.IsRegion(region) {
		return a.unknownAction(ctx, req)
	}

	a.deps.Repo.SetRegion(req.UserID, region)
	if err := a.deps.Repo.Save(ctx); err != nil {
		return err
	}

	return a.showPrayerTimes(ctx, req)
}

func (a actions) disablePrayerNotifications(ctx context.Context, req *botpkg.Request) error {
	a.deps.Repo.DisablePrayerAlerts(req.UserID)
	if err := a.deps.Repo.Save(ctx); err != nil {
		return err
	}
	return a.respond(ctx, req, ui.MsgPrayerAlertsOff, ui.BackToMainKB(a.deps.Codec))
}
