// Package ui renders the bot's message texts and inline keyboards. Texts
// follow the original Uzbek interface; keyboards are built through the
// callback codec so every button payload respects Telegram's 64-byte limit.
package ui

import (
	"fmt"
	"strings"
	"time"

	"vazifabot/internal/prayer"
	"vazifabot/internal/repo"
)

var prayerNames = map[string]string{
	"Fajr":    "🌅 Bomdod",
	"Dhuhr":   "🌞 Peshin",
	"Asr":     "🌇 Asr",
	"Maghrib": "🌆 Shom",
	"Isha":    "🌃 Xufton",
}

// PriorityEmoji returns the marker used before task names.
func PriorityEmoji(p repo.Priority) string {
	switch p {
	case repo.PriorityHigh:
		return "🔴"
	case repo.PriorityMedium:
		return "🟡"
	case repo.PriorityLow:
		return "🟢"
	default:
		return "⚪"
	}
}

// FormatDate renders a point in time for display.
func FormatDate(t time.Time) string {
	return t.Format("02.01.2006 15:04")
}

// FormatTimeRemaining renders a minute count as days/hours/minutes.
func FormatTimeRemaining(minutes int) string {
	if minutes <= 0 {
		return "Vaqt tugadi"
	}
	if minutes < 60 {
		return fmt.Sprintf("%d daqiqa", minutes)
	}
	hours := minutes / 60
	rem := minutes % 60
	if hours < 24 {
		if rem > 0 {
			return fmt.Sprintf("%d soat %d daqiqa", hours, rem)
		}
		return fmt.Sprintf("%d soat", hours)
	}
	days := hours / 24
	remHours := hours % 24
	if remHours > 0 {
		return fmt.Sprintf("%d kun %d soat", days, remHours)
	}
	return fmt.Sprintf("%d kun", days)
}

// MainMenu is the home screen text.
func MainMenu(firstName string) string {
	name := firstName
	if name == "" {
		name = "do'stim"
	}
	return fmt.Sprintf(
		"🏠 **BOSH SAHIFA**\n\nAssalomu alaykum, %s!\n\nNima qilamiz?", name)
}

// TaskList renders the user's open tasks.
func TaskList(tasks []*repo.Task) string {
	open := make([]*repo.Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.Completed {
			open = append(open, t)
		}
	}
	if len(open) == 0 {
		return "📋 **VAZIFALARIM**\n\nHozircha vazifalar yo'q.\n\n➕ Birinchi vazifangizni qo'shing!"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📋 **VAZIFALARIM** (%d ta)\n\n", len(open))
	for i, t := range open {
		fmt.Fprintf(&b, "%d. %s **%s**\n", i+1, PriorityEmoji(t.Priority), t.Name)
		fmt.Fprintf(&b, "   📅 %s\n", FormatDate(t.Due))
		if t.Category != "" {
			fmt.Fprintf(&b, "   📁 %s\n", t.Category)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// TaskCreated confirms a new task.
func TaskCreated(t repo.Task) string {
	return fmt.Sprintf(
		"✅ **VAZIFA QO'SHILDI**\n\n%s **%s**\n\n📅 **Sana:** %s\n📁 **Kategoriya:** %s",
		PriorityEmoji(t.Priority), t.Name, FormatDate(t.Due), orDefault(t.Category, "Umumiy"))
}

// ConfirmTask summarizes the collected fields before saving.
func ConfirmTask(name, date, timeSlot string) string {
	return fmt.Sprintf(
		"📝 **VAZIFANI TASDIQLANG**\n\n**Nomi:** %s\n📅 **Sana:** %s\n🕐 **Vaqt:** %s\n\nSaqlaymizmi?",
		name, date, timeSlot)
}

// TaskCompleted confirms completion.
func TaskCompleted(t repo.Task) string {
	return fmt.Sprintf("🎉 **BAJARILDI!**\n\n✅ **%s**\n\nAjoyib ish! Davom eting! 💪", t.Name)
}

// TaskReminder is the task notification text for one lead interval.
func TaskReminder(t repo.TaskView, intervalID string, minutesLeft int) string {
	if intervalID == "due" {
		return fmt.Sprintf(
			"⏰ **VAZIFA VAQTI KELDI!**\n\n%s **%s**\n\n📅 **Sana:** %s\n📁 **Kategoriya:** %s\n\n🎯 Hozir bajarish vaqti!",
			PriorityEmoji(t.Priority), t.Name, FormatDate(t.Due), orDefault(t.Category, "Umumiy"))
	}
	remaining := minutesLeft
	if remaining < 0 {
		remaining = 0
	}
	return fmt.Sprintf(
		"⏰ **VAZIFA ESLATMASI**\n\n%s **%s**\n\n📅 **Sana:** %s\n⏳ **Qolgan vaqt:** %s\n📁 **Kategoriya:** %s\n\n💡 Tayyorgarlik ko'ring!",
		PriorityEmoji(t.Priority), t.Name, FormatDate(t.Due), FormatTimeRemaining(remaining), orDefault(t.Category, "Umumiy"))
}

// PrayerReminder is the prayer notification text.
func PrayerReminder(prayerName, at string, minutesBefore int, region string) string {
	name := prayerNames[prayerName]
	if name == "" {
		name = prayerName
	}
	return fmt.Sprintf(
		"🕌 **NAMAZ VAQTI ESLATMASI**\n\n%s namazi %d daqiqadan keyin\n\n⏰ **Vaqt:** %s\n📍 **Hudud:** %s\n\n🤲 Tahorat oling va tayyorgarlik ko'ring!",
		name, minutesBefore, at, region)
}

// PrayerTable renders the daily prayer schedule with the next prayer
// highlighted.
func PrayerTable(times prayer.Times, region string, now time.Time) string {
	var b strings.Builder
	b.WriteString("🕌 **NAMAZ VAQTLARI**\n\n")
	fmt.Fprintf(&b, "📍 **Hudud:** %s\n", region)
	fmt.Fprintf(&b, "📅 **Sana:** %s\n", now.Format("02.01.2006"))
	fmt.Fprintf(&b, "🕐 **Hozir:** %s\n\n", now.Format("15:04"))

	current := now.Hour()*60 + now.Minute()
	next := ""
	for _, e := range times.Ordered() {
		if toMinutes(e.At) > current {
			next = e.Name
			break
		}
	}
	if next == "" {
		next = "Fajr"
	}

	for _, e := range times.Ordered() {
		name := prayerNames[e.Name]
		if e.Name == next {
			fmt.Fprintf(&b, "▶️ **%s**: `%s`\n", name, e.At)
		} else {
			fmt.Fprintf(&b, "   %s: %s\n", name, e.At)
		}
	}

	nextAt := ""
	for _, e := range times.Ordered() {
		if e.Name == next {
			nextAt = e.At
			break
		}
	}
	until := toMinutes(nextAt) - current
	if until <= 0 {
		until += 24 * 60
	}
	fmt.Fprintf(&b, "\n⏰ **Keyingi namaz:** %s\n", prayerNames[next])
	fmt.Fprintf(&b, "⏳ **Qolgan vaqt:** %s\n", FormatTimeRemaining(until))
	b.WriteString("\n🤲 **Allah panohida bo'ling!**")
	return b.String()
}

// Profile renders the user's statistics page.
func Profile(u repo.User) string {
	open := 0
	for _, t := range u.Tasks {
		if !t.Completed {
			open++
		}
	}
	return fmt.Sprintf(
		"👤 **PROFIL**\n\n📋 **Faol vazifalar:** %d\n✅ **Bajarilgan:** %d\n➕ **Jami yaratilgan:** %d\n👥 **Jamoalar:** %d\n📆 **Ro'yxatdan o'tgan:** %s",
		open, u.Activity.TasksCompleted, u.Activity.TasksCreated, len(u.Teams),
		u.Activity.RegisteredAt.Format("02.01.2006"))
}

// Help is the help page.
func Help() string {
	return "📚 **YORDAM**\n\n" +
		"📋 **Vazifalar**: shaxsiy vazifalar ro'yxati, eslatmalar bilan\n" +
		"👥 **Jamoa**: 6 belgili kod orqali umumiy vazifalar\n" +
		"🕌 **Namaz vaqtlari**: hududingiz bo'yicha kunlik jadval\n" +
		"🔔 **Bildirishnomalar**: 1 kun, 1 soat, 15 daqiqa oldin va vaqtida\n\n" +
		"Savollar uchun: /help"
}

// StatsReport renders the /stats summary.
func StatsReport(s repo.Stats) string {
	return fmt.Sprintf(
		"📊 **STATISTIKA**\n\n👤 **Foydalanuvchilar:** %d (bloklangan: %d)\n📋 **Vazifalar:** %d (bajarilgan: %d)\n👥 **Jamoalar:** %d",
		s.TotalUsers, s.BlockedUsers, s.TotalTasks, s.CompletedTasks, s.TotalTeams)
}

// TeamOverview renders one team's page.
func TeamOverview(team repo.Team, isAdmin bool) string {
	openTasks := 0
	for _, t := range team.SharedTasks {
		if !t.Completed {
			openTasks++
		}
	}
	role := "a'zo"
	if isAdmin {
		role = "admin"
	}
	return fmt.Sprintf(
		"👥 **%s**\n\n🔑 **Kod:** `%s`\n👤 **Sizning rolingiz:** %s\n🙋 **A'zolar:** %d\n📝 **Faol vazifalar:** %d",
		team.Name, team.ID, role, len(team.Members), openTasks)
}

// TeamTaskList renders a team's shared tasks.
func TeamTaskList(team repo.Team) string {
	open := make([]*repo.TeamTask, 0, len(team.SharedTasks))
	for _, t := range team.SharedTasks {
		if !t.Completed {
			open = append(open, t)
		}
	}
	if len(open) == 0 {
		return fmt.Sprintf("📝 **%s VAZIFALARI**\n\nHozircha umumiy vazifalar yo'q.", team.Name)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📝 **%s VAZIFALARI** (%d ta)\n\n", team.Name, len(open))
	for i, t := range open {
		fmt.Fprintf(&b, "%d. %s **%s**\n   📅 %s\n", i+1, PriorityEmoji(t.Priority), t.Name, FormatDate(t.Due))
		switch t.AssignedTo {
		case "", repo.AssignAnyone:
			b.WriteString("   🙋 Hamma uchun\n")
		default:
			fmt.Fprintf(&b, "   🙋 Biriktirilgan: %s\n", t.AssignedTo)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// TeamMembers lists a team's members.
func TeamMembers(team repo.Team) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👥 **%s A'ZOLARI** (%d ta)\n\n", team.Name, len(team.Members))
	for i, m := range team.Members {
		marker := "👤"
		if m == team.Admin {
			marker = "👑"
		}
		fmt.Fprintf(&b, "%d. %s %d\n", i+1, marker, m)
	}
	return b.String()
}

// TeamCreated confirms team creation and shows the join code.
func TeamCreated(team repo.Team) string {
	return fmt.Sprintf(
		"🎉 **JAMOA YARATILDI!**\n\n👥 **Nomi:** %s\n🔑 **Kod:** `%s`\n\nKodni ulashing, a'zolar shu kod bilan qo'shiladi.",
		team.Name, team.ID)
}

// ShareTeamCode is the shareable invite text.
func ShareTeamCode(team repo.Team) string {
	return fmt.Sprintf(
		"📤 **TAKLIF**\n\n\"%s\" jamoasiga qo'shiling!\n\n🔑 Kod: `%s`\n\nBotda \"Jamoaga qo'shilish\" tugmasini bosib kodni kiriting.",
		team.Name, team.ID)
}

// Fixed reply texts.
const (
	MsgStaleMenu       = "⚠️ Bu menyu eskirgan. Yangilash uchun /start buyrug'ini yuboring."
	MsgUnknownCommand  = "🤔 Bu buyruqni tushunmadim. /start bilan qayta boshlang."
	MsgGeneralError    = "❌ Xatolik yuz berdi. Qaytadan urinib ko'ring."
	MsgAskTaskName     = "📝 Yangi vazifa nomini yozing:"
	MsgAskTaskDate     = "📅 Sanani tanlang:"
	MsgAskTaskTime     = "🕐 Vaqtni tanlang:"
	MsgAskTeamName     = "👥 Jamoa nomini yozing:"
	MsgAskTeamCode     = "🔑 6 belgili jamoa kodini yuboring:"
	MsgTeamNotFound    = "❌ Bunday kodli jamoa topilmadi. Kodni tekshirib qayta yuboring."
	MsgAlreadyInTeam   = "ℹ️ Siz allaqachon bu jamoadasiz."
	MsgTaskNotFound    = "❌ Vazifa topilmadi, ehtimol allaqachon o'chirilgan."
	MsgPrayerAlertsOff = "🔕 Namaz eslatmalari o'chirildi."
	MsgTeamLeft        = "👋 Jamoadan chiqdingiz."
	MsgTeamDeleted     = "🗑 Jamoada a'zo qolmadi, jamoa o'chirildi."
)

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func toMinutes(hhmm string) int {
	var h, m int
	if _, err := fmt.Sscanf(hhmm, "%d:%d", &h, &m); err != nil {
		return 0
	}
	return h*60 + m
}
