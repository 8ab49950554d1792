package ui_test

import (
	"strings"
	"testing"
	"time"

	"github.com/go-telegram/bot/models"

	"vazifabot/internal/callback"
	"vazifabot/internal/prayer"
	"vazifabot/internal/repo"
	"vazifabot/internal/ui"
)

func checkTokenLimits(t *testing.T, name string, kb *models.InlineKeyboardMarkup) {
	t.Helper()
	for _, row := range kb.InlineKeyboard {
		for _, b := range row {
			if len(b.CallbackData) > callback.MaxTokenLen {
				t.Errorf("%s: button %q token is %d bytes, limit %d",
					name, b.Text, len(b.CallbackData), callback.MaxTokenLen)
			}
		}
	}
}

// Every keyboard must produce callback_data within Telegram's 64-byte limit,
// even with worst-case inputs.
func TestKeyboardTokenLimits(t *testing.T) {
	t.Parallel()
	c := callback.NewCodec(nil)
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	longName := strings.Repeat("juda uzun vazifa nomi ", 10)
	tasks := []*repo.Task{
		{ID: 922337203685477580, Name: longName, Due: now, Priority: repo.PriorityHigh},
	}
	team := repo.Team{ID: "AB12CD", Name: "loyiha", Admin: 1, Members: []int64{1},
		SharedTasks: []*repo.TeamTask{{Task: repo.Task{ID: 7, Name: longName, Due: now}}}}

	kbs := map[string]*models.InlineKeyboardMarkup{
		"main_menu":       ui.MainMenuKB(c),
		"task_list":       ui.TaskListKB(c, tasks),
		"task_reminder":   ui.TaskReminderKB(c, tasks[0].ID),
		"prayer_reminder": ui.PrayerReminderKB(c),
		"prayer_times":    ui.PrayerTimesKB(c),
		"regions":         ui.RegionsKB(c, []string{"Toshkent", "Qoraqalpog'iston"}),
		"settings":        ui.SettingsKB(c),
		"notifications":   ui.NotificationSettingsKB(c, true, false),
		"team_menu":       ui.TeamMenuKB(c, []repo.Team{team}),
		"team_detail":     ui.TeamDetailKB(c, team.ID, true),
		"team_tasks":      ui.TeamTaskListKB(c, team),
		"team_created":    ui.TeamCreatedKB(c, team.ID),
		"date_picker":     ui.DatePickerKB(c, now),
		"time_picker":     ui.TimePickerKB(c, "2026-09-01"),
		"confirm_task":    ui.ConfirmTaskKB(c, map[string]any{"name": longName, "date": "2026-09-01", "time": "14:00"}),
		"task_created":    ui.TaskCreatedKB(c),
		"task_completed":  ui.TaskCompletedKB(c),
		"restart":         ui.RestartKB(c),
		"back_to_main":    ui.BackToMainKB(c),
	}
	for name, kb := range kbs {
		checkTokenLimits(t, name, kb)
	}
}

func TestConfirmTaskKBRoundTrips(t *testing.T) {
	t.Parallel()
	c := callback.NewCodec(nil)

	longName := strings.Repeat("nom ", 40)
	kb := ui.ConfirmTaskKB(c, map[string]any{"name": longName, "date": "2026-09-01", "time": "14:00"})

	decoded := c.Decode(kb.InlineKeyboard[0][0].CallbackData)
	if decoded.Action != "confirm_task" {
		t.Fatalf("Action = %q, want confirm_task", decoded.Action)
	}
	if name, _ := callback.String(decoded.Data, "name"); name != longName {
		t.Error("long task name lost through the codec")
	}
}

func TestFormatTimeRemaining(t *testing.T) {
	t.Parallel()

	tests := []struct {
		minutes int
		want    string
	}{
		{-5, "Vaqt tugadi"},
		{0, "Vaqt tugadi"},
		{45, "45 daqiqa"},
		{60, "1 soat"},
		{90, "1 soat 30 daqiqa"},
		{1440, "1 kun"},
		{1500, "1 kun 1 soat"},
	}
	for _, tt := range tests {
		if got := ui.FormatTimeRemaining(tt.minutes); got != tt.want {
			t.Errorf("FormatTimeRemaining(%d) = %q, want %q", tt.minutes, got, tt.want)
		}
	}
}

func TestPrayerTableHighlightsNext(t *testing.T) {
	t.Parallel()

	times := prayer.Times{Fajr: "04:30", Dhuhr: "12:30", Asr: "17:00", Maghrib: "19:30", Isha: "21:00"}
	now := time.Date(2026, 8, 31, 13, 0, 0, 0, time.UTC)

	out := ui.PrayerTable(times, "Toshkent", now)
	if !strings.Contains(out, "▶️ **🌇 Asr**") {
		t.Errorf("next prayer not highlighted:\n%s", out)
	}
	if !strings.Contains(out, "Toshkent") {
		t.Error("region missing from table")
	}
}

func TestTaskListEmpty(t *testing.T) {
	t.Parallel()

	out := ui.TaskList(nil)
	if !strings.Contains(out, "vazifalar yo'q") {
		t.Errorf("empty list text unexpected:\n%s", out)
	}
}

func TestTaskReminderDue(t *testing.T) {
	t.Parallel()

	task := repo.TaskView{Name: "report", Due: time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC), Priority: repo.PriorityHigh}

	due := ui.TaskReminder(task, "due", 0)
	if !strings.Contains(due, "VAQTI KELDI") {
		t.Errorf("due text unexpected:\n%s", due)
	}

	lead := ui.TaskReminder(task, "15min", 14)
	if !strings.Contains(lead, "14 daqiqa") {
		t.Errorf("lead text missing remaining time:\n%s", lead)
	}
}
