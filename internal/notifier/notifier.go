// Package notifier implements the periodic notification sweep: task due-date
// reminders at fixed lead intervals and daily prayer-time alerts. One sweep
// evaluates every user exactly once; sent flags are monotonic so an interval
// never fires twice for the same item.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/go-telegram/bot/models"

	"vazifabot/internal/callback"
	"vazifabot/internal/prayer"
	"vazifabot/internal/repo"
	"vazifabot/internal/ui"
)

// Messenger sends notification messages. Implemented by the telegram adapter
// in production and by fakes in tests.
type Messenger interface {
	Send(ctx context.Context, chatID int64, text string, kb *models.InlineKeyboardMarkup) error
}

// TimesProvider returns prayer times for a region, degrading internally so
// the sweep can treat it as always-available.
type TimesProvider interface {
	TimesForRegion(ctx context.Context, region string) (prayer.Times, error)
}

type interval struct {
	id   string
	lead int // minutes before due
}

// Task lead intervals, checked in this order within one sweep.
var taskIntervals = []interval{
	{"1day", 24 * 60},
	{"1hour", 60},
	{"15min", 15},
	{"due", 0},
}

// Prayer lead intervals.
var prayerIntervals = []interval{
	{"15min", 15},
	{"5min", 5},
}

// Firing windows in minutes. An interval fires while
// lead-window < minutesUntil <= lead. The sweep cadence must stay below the
// window or boundary crossings can be missed; the prayer window leaves a
// single qualifying tick at the default 1-minute cadence.
const (
	DefaultTaskWindow   = 5
	DefaultPrayerWindow = 2
)

type outcome int

const (
	outcomeSent outcome = iota
	outcomeBlocked
	outcomeTransient
	outcomeUnknown
)

// Service runs notification sweeps.
type Service struct {
	logger       *slog.Logger
	repo         *repo.Repository
	messenger    Messenger
	times        TimesProvider
	codec        *callback.Codec
	taskWindow   int
	prayerWindow int
}

// NewService creates a sweep service. Zero windows select the defaults.
func NewService(logger *slog.Logger, r *repo.Repository, m Messenger, tp TimesProvider, codec *callback.Codec, taskWindow, prayerWindow int) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if taskWindow <= 0 {
		taskWindow = DefaultTaskWindow
	}
	if prayerWindow <= 0 {
		prayerWindow = DefaultPrayerWindow
	}
	return &Service{
		logger:       logger.With("component", "notifier"),
		repo:         r,
		messenger:    m,
		times:        tp,
		codec:        codec,
		taskWindow:   taskWindow,
		prayerWindow: prayerWindow,
	}
}

// Sweep runs one evaluation pass over all users at the given instant. Each
// recipient is isolated: one user's failure never aborts the rest of the
// pass. A single save is triggered at the end when anything was sent or a
// user was reclassified as blocked.
func (s *Service) Sweep(ctx context.Context, now time.Time) error {
	sent, blocked, failed := 0, 0, 0

	for _, user := range s.repo.NotificationTargets() {
		if user.Blocked {
			continue
		}

		userSent, userBlocked, userFailed := s.sweepUser(ctx, user, now)
		sent += userSent
		failed += userFailed
		if userBlocked {
			blocked++
		}

		if ctx.Err() != nil {
			break
		}
	}

	if sent > 0 || blocked > 0 {
		s.logger.Info("Notification sweep delivered messages",
			"sent", sent, "blocked_users", blocked, "failed", failed)
		if err := s.repo.Save(ctx); err != nil {
			return fmt.Errorf("failed to save after sweep: %w", err)
		}
	}
	return nil
}

// sweepUser evaluates one user's tasks and prayers sequentially, so the
// flag-check-then-set ordering holds per item. Returns (sent, blocked,
// failed) counts for the user.
func (s *Service) sweepUser(ctx context.Context, user repo.UserView, now time.Time) (int, bool, int) {
	sent, failed := 0, 0

	if user.TaskAlerts {
		for _, task := range user.Tasks {
			minutesUntil := int(task.Due.Sub(now).Minutes())
			for _, iv := range taskIntervals {
				if !inWindow(minutesUntil, iv.lead, s.taskWindow) || reminderSent(task.Reminders, iv.id) {
					continue
				}

				text := ui.TaskReminder(task, iv.id, minutesUntil)
				kb := ui.TaskReminderKB(s.codec, task.ID)
				switch s.deliver(ctx, user.ID, text, kb) {
				case outcomeSent:
					s.repo.MarkTaskReminder(user.ID, task.ID, iv.id)
					sent++
					s.logger.Info("Task reminder sent",
						"user_id", user.ID, "task_id", task.ID, "interval", iv.id)
				case outcomeBlocked:
					return sent, true, failed
				default:
					failed++
				}
			}
		}
	}

	if user.PrayerAlerts && user.PrayerRegion != "" {
		blocked := false
		sent, failed, blocked = s.sweepPrayers(ctx, user, now, sent, failed)
		if blocked {
			return sent, true, failed
		}
	}

	return sent, false, failed
}

func (s *Service) sweepPrayers(ctx context.Context, user repo.UserView, now time.Time, sent, failed int) (int, int, bool) {
	times, err := s.times.TimesForRegion(ctx, user.PrayerRegion)
	if err != nil {
		s.logger.Warn("Prayer times unavailable", "user_id", user.ID, "region", user.PrayerRegion, "error", err)
		return sent, failed, false
	}

	day := now.Format("2006-01-02")
	for _, entry := range times.Ordered() {
		prayerAt, ok := atTimeOfDay(entry.At, now)
		if !ok {
			continue
		}
		minutesUntil := int(prayerAt.Sub(now).Minutes())

		for _, iv := range prayerIntervals {
			key := entry.Name + "_" + iv.id
			if !inWindow(minutesUntil, iv.lead, s.prayerWindow) || s.repo.PrayerSentAlready(user.ID, day, key) {
				continue
			}

			text := ui.PrayerReminder(entry.Name, entry.At, iv.lead, user.PrayerRegion)
			switch s.deliver(ctx, user.ID, text, ui.PrayerReminderKB(s.codec)) {
			case outcomeSent:
				s.repo.MarkPrayerSent(user.ID, day, key)
				sent++
				s.logger.Info("Prayer reminder sent",
					"user_id", user.ID, "prayer", entry.Name, "interval", iv.id)
			case outcomeBlocked:
				return sent, failed, true
			default:
				failed++
			}
		}
	}
	return sent, failed, false
}

// deliver sends one message and classifies the outcome. Transient and
// unknown failures leave the sent flag untouched, so the same interval
// re-qualifies on the next sweep while its window is still open.
func (s *Service) deliver(ctx context.Context, chatID int64, text string, kb *models.InlineKeyboardMarkup) outcome {
	err := s.messenger.Send(ctx, chatID, text, kb)
	if err == nil {
		return outcomeSent
	}

	switch {
	case IsBlockedError(err):
		s.repo.MarkBlocked(chatID)
		s.logger.Info("Recipient permanently unreachable, quarantined", "user_id", chatID, "error", err)
		return outcomeBlocked
	case IsTransientError(err):
		s.logger.Warn("Transient send failure, will retry within window", "user_id", chatID, "error", err)
		return outcomeTransient
	default:
		s.logger.Error("Send failed with unclassified error", "user_id", chatID, "error", err)
		return outcomeUnknown
	}
}

// inWindow reports whether minutesUntil falls in the half-open firing window
// (lead-window, lead].
func inWindow(minutesUntil, lead, window int) bool {
	return minutesUntil <= lead && minutesUntil > lead-window
}

func reminderSent(r repo.Reminders, intervalID string) bool {
	switch intervalID {
	case "1day":
		return r.Sent1Day
	case "1hour":
		return r.Sent1Hour
	case "15min":
		return r.Sent15Min
	case "due":
		return r.SentDue
	default:
		return true
	}
}

// atTimeOfDay places an HH:MM string onto the date of ref, in ref's location.
func atTimeOfDay(hhmm string, ref time.Time) (time.Time, bool) {
	parsed, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(ref.Year(), ref.Month(), ref.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, ref.Location()), true
}

var blockedSignals = []string{
	"bot was blocked by the user",
	"user is deactivated",
	"chat not found",
	"bot is not a member",
}

var transientSignals = []string{
	"too many requests",
	"retry after",
	"timeout",
	"temporarily unavailable",
	"bad gateway",
	"connection reset",
}

// IsBlockedError reports whether the send failure means the recipient is
// permanently unreachable.
func IsBlockedError(err error) bool {
	return matchesAny(err, blockedSignals)
}

// IsTransientError reports whether the send failure is worth retrying on a
// later sweep.
func IsTransientError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return matchesAny(err, transientSignals)
}

func matchesAny(err error, signals []string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, signal := range signals {
		if strings.Contains(msg, signal) {
			return true
		}
	}
	return false
}
