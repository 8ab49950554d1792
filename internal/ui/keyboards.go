package ui

import (
	"fmt"
	"time"

	"github.com/go-telegram/bot/models"

	"vazifabot/internal/callback"
	"vazifabot/internal/repo"
)

func btn(text, token string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{Text: text, CallbackData: token}
}

func kb(rows ...[]models.InlineKeyboardButton) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// MainMenuKB is the home screen keyboard.
func MainMenuKB(c *callback.Codec) *models.InlineKeyboardMarkup {
	return kb(
		[]models.InlineKeyboardButton{
			btn("📋 Vazifalarim", c.Encode("back_to_main_tasks", nil)),
			btn("👥 Jamoa", c.Encode("show_team_features", nil)),
		},
		[]models.InlineKeyboardButton{
			btn("👤 Profil", c.Encode("view_profile", nil)),
			btn("❓ Yordam", c.Encode("show_help", nil)),
		},
		[]models.InlineKeyboardButton{
			btn("🕌 Namaz vaqtlari", c.Encode("show_prayer_times", nil)),
			btn("⚙️ Sozlamalar", c.Encode("simple_settings", nil)),
		},
	)
}

// TaskListKB shows completion buttons for open tasks plus list actions.
func TaskListKB(c *callback.Codec, tasks []*repo.Task) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton
	for _, t := range tasks {
		if t.Completed {
			continue
		}
		name := t.Name
		if len(name) > 20 {
			name = name[:20] + "..."
		}
		rows = append(rows, []models.InlineKeyboardButton{
			btn("✅ "+name, c.Encode(fmt.Sprintf("complete_task_%d", t.ID), nil)),
			btn("🗑", c.Encode(fmt.Sprintf("delete_task_%d", t.ID), nil)),
		})
	}
	rows = append(rows,
		[]models.InlineKeyboardButton{
			btn("➕ Yangi vazifa", c.Encode("add_task", nil)),
			btn("🔄 Yangilash", c.Encode("back_to_main_tasks", nil)),
		},
		[]models.InlineKeyboardButton{
			btn("🏠 Bosh sahifa", c.Encode("start_fresh", nil)),
		},
	)
	return kb(rows...)
}

// TaskReminderKB is attached to task notifications.
func TaskReminderKB(c *callback.Codec, taskID int64) *models.InlineKeyboardMarkup {
	return kb([]models.InlineKeyboardButton{
		btn("✅ Bajarildi", c.Encode(fmt.Sprintf("complete_task_%d", taskID), nil)),
		btn("📋 Vazifalar", c.Encode("back_to_main_tasks", nil)),
	})
}

// PrayerReminderKB is attached to prayer notifications.
func PrayerReminderKB(c *callback.Codec) *models.InlineKeyboardMarkup {
	return kb([]models.InlineKeyboardButton{
		btn("🕌 Namaz vaqtlari", c.Encode("show_prayer_times", nil)),
		btn("🔕 O'chirish", c.Encode("disable_prayer_notifications", nil)),
	})
}

// PrayerTimesKB follows the daily schedule page.
func PrayerTimesKB(c *callback.Codec) *models.InlineKeyboardMarkup {
	return kb(
		[]models.InlineKeyboardButton{
			btn("🔄 Hududni o'zgartirish", c.Encode("change_prayer_region", nil)),
			btn("⚙️ Bildirishnoma sozlash", c.Encode("notification_settings", nil)),
		},
		[]models.InlineKeyboardButton{
			btn("⬅️ Orqaga", c.Encode("start_fresh", nil)),
		},
	)
}

// RegionsKB lists selectable prayer regions, two per row.
func RegionsKB(c *callback.Codec, regions []string) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton
	var row []models.InlineKeyboardButton
	for _, region := range regions {
		row = append(row, btn(region, c.Encode("set_region_"+region, nil)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, []models.InlineKeyboardButton{
		btn("⬅️ Orqaga", c.Encode("show_prayer_times", nil)),
	})
	return kb(rows...)
}

// SettingsKB is the settings entry page.
func SettingsKB(c *callback.Codec) *models.InlineKeyboardMarkup {
	return kb(
		[]models.InlineKeyboardButton{
			btn("🔔 Bildirishnomalar", c.Encode("notification_settings", nil)),
			btn("📊 Batafsil statistika", c.Encode("detailed_stats", nil)),
		},
		[]models.InlineKeyboardButton{
			btn("⬅️ Bosh sahifa", c.Encode("start_fresh", nil)),
		},
	)
}

// NotificationSettingsKB renders the two notification toggles with their
// current state.
func NotificationSettingsKB(c *callback.Codec, prayerOn, tasksOn bool) *models.InlineKeyboardMarkup {
	prayerLabel := "🕌 Namaz: yoqish"
	if prayerOn {
		prayerLabel = "🕌 Namaz: o'chirish"
	}
	taskLabel := "📝 Vazifa: yoqish"
	if tasksOn {
		taskLabel = "📝 Vazifa: o'chirish"
	}
	return kb(
		[]models.InlineKeyboardButton{
			btn(prayerLabel, c.Encode("toggle_prayer_notifications", nil)),
			btn(taskLabel, c.Encode("toggle_general_notifications", nil)),
		},
		[]models.InlineKeyboardButton{
			btn("⬅️ Orqaga", c.Encode("show_prayer_times", nil)),
		},
	)
}

// TeamMenuKB is the team features entry page.
func TeamMenuKB(c *callback.Codec, teams []repo.Team) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton
	for _, t := range teams {
		rows = append(rows, []models.InlineKeyboardButton{
			btn("👥 "+t.Name, c.Encode("show_team_"+t.ID, nil)),
		})
	}
	rows = append(rows,
		[]models.InlineKeyboardButton{
			btn("➕ Jamoa yaratish", c.Encode("create_team_quick", nil)),
			btn("🔑 Jamoaga qo'shilish", c.Encode("join_team_quick", nil)),
		},
		[]models.InlineKeyboardButton{
			btn("⬅️ Orqaga", c.Encode("start_fresh", nil)),
		},
	)
	return kb(rows...)
}

// TeamDetailKB is shown under one team's page.
func TeamDetailKB(c *callback.Codec, teamID string, isAdmin bool) *models.InlineKeyboardMarkup {
	rows := [][]models.InlineKeyboardButton{
		{
			btn("📝 Vazifalar", c.Encode("team_tasks_"+teamID, nil)),
			btn("👥 A'zolar", c.Encode("team_members_"+teamID, nil)),
		},
		{
			btn("📤 Kodni ulashish", c.Encode("share_team_code_"+teamID, nil)),
			btn("👋 Chiqish", c.Encode("leave_team_"+teamID, nil)),
		},
	}
	if isAdmin {
		rows = append(rows, []models.InlineKeyboardButton{
			btn("⚙️ Boshqarish", c.Encode("team_admin_"+teamID, nil)),
		})
	}
	rows = append(rows, []models.InlineKeyboardButton{
		btn("⬅️ Orqaga", c.Encode("show_team_features", nil)),
	})
	return kb(rows...)
}

// TeamCreatedKB follows the creation confirmation.
func TeamCreatedKB(c *callback.Codec, teamID string) *models.InlineKeyboardMarkup {
	return kb(
		[]models.InlineKeyboardButton{
			btn("👥 Jamoa ma'lumoti", c.Encode("show_team_"+teamID, nil)),
			btn("📤 Kodni ulashish", c.Encode("share_team_code_"+teamID, nil)),
		},
		[]models.InlineKeyboardButton{
			btn("🏠 Bosh sahifa", c.Encode("start_fresh", nil)),
		},
	)
}

// DatePickerKB offers today, tomorrow, and the next five days.
func DatePickerKB(c *callback.Codec, now time.Time) *models.InlineKeyboardMarkup {
	rows := [][]models.InlineKeyboardButton{
		{
			btn("📅 Bugun", c.Encode("select_date_"+now.Format("2006-01-02"), nil)),
			btn("📅 Ertaga", c.Encode("select_date_"+now.AddDate(0, 0, 1).Format("2006-01-02"), nil)),
		},
	}
	var row []models.InlineKeyboardButton
	for i := 2; i < 7; i++ {
		d := now.AddDate(0, 0, i)
		row = append(row, btn(d.Format("02.01"), c.Encode("select_date_"+d.Format("2006-01-02"), nil)))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, []models.InlineKeyboardButton{
		btn("⬅️ Orqaga", c.Encode("back_to_main_tasks", nil)),
	})
	return kb(rows...)
}

// TimePickerKB offers hour slots for the chosen date.
func TimePickerKB(c *callback.Codec, date string) *models.InlineKeyboardMarkup {
	slots := []string{"08:00", "10:00", "12:00", "14:00", "16:00", "18:00", "20:00", "22:00"}
	var rows [][]models.InlineKeyboardButton
	var row []models.InlineKeyboardButton
	for _, slot := range slots {
		row = append(row, btn(slot, c.Encode(fmt.Sprintf("select_time_%s_%s", date, slot), nil)))
		if len(row) == 4 {
			rows = append(rows, row)
			row = nil
		}
	}
	rows = append(rows, []models.InlineKeyboardButton{
		btn("⬅️ Orqaga", c.Encode("add_task", nil)),
	})
	return kb(rows...)
}

// ConfirmTaskKB carries the collected task fields through the codec; long
// names overflow the inline strategies and exercise the stored fallback.
func ConfirmTaskKB(c *callback.Codec, data map[string]any) *models.InlineKeyboardMarkup {
	return kb([]models.InlineKeyboardButton{
		btn("✅ Saqlash", c.Encode("confirm_task", data)),
		btn("❌ Bekor qilish", c.Encode("back_to_main_tasks", nil)),
	})
}

// TeamTaskListKB shows completion buttons for a team's open shared tasks.
func TeamTaskListKB(c *callback.Codec, team repo.Team) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton
	for _, t := range team.SharedTasks {
		if t.Completed {
			continue
		}
		name := t.Name
		if len(name) > 20 {
			name = name[:20] + "..."
		}
		rows = append(rows, []models.InlineKeyboardButton{
			btn("✅ "+name, c.Encode(fmt.Sprintf("complete_team_task_%s_%d", team.ID, t.ID), nil)),
		})
	}
	rows = append(rows,
		[]models.InlineKeyboardButton{
			btn("➕ Vazifa qo'shish", c.Encode("add_team_task_"+team.ID, nil)),
		},
		[]models.InlineKeyboardButton{
			btn("⬅️ Orqaga", c.Encode("show_team_"+team.ID, nil)),
		},
	)
	return kb(rows...)
}

// TaskCreatedKB follows the creation confirmation.
func TaskCreatedKB(c *callback.Codec) *models.InlineKeyboardMarkup {
	return kb(
		[]models.InlineKeyboardButton{
			btn("📋 Barcha vazifalar", c.Encode("back_to_main_tasks", nil)),
			btn("➕ Yana qo'shish", c.Encode("add_task", nil)),
		},
		[]models.InlineKeyboardButton{
			btn("🏠 Bosh sahifa", c.Encode("start_fresh", nil)),
		},
	)
}

// TaskCompletedKB follows the completion confirmation.
func TaskCompletedKB(c *callback.Codec) *models.InlineKeyboardMarkup {
	return kb([]models.InlineKeyboardButton{
		btn("📋 Vazifalar", c.Encode("back_to_main_tasks", nil)),
		btn("🏠 Bosh sahifa", c.Encode("start_fresh", nil)),
	})
}

// RestartKB is attached to generic error replies.
func RestartKB(c *callback.Codec) *models.InlineKeyboardMarkup {
	return kb([]models.InlineKeyboardButton{
		btn("🔄 Qayta boshlash", c.Encode("start_fresh", nil)),
	})
}

// BackToMainKB is a single back button.
func BackToMainKB(c *callback.Codec) *models.InlineKeyboardMarkup {
	return kb([]models.InlineKeyboardButton{
		btn("🏠 Bosh sahifa", c.Encode("start_fresh", nil)),
	})
}
