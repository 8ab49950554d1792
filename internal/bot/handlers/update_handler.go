package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"vazifabot/internal/repo"
	"vazifabot/internal/state"
	"vazifabot/internal/ui"
)

const maxTaskNameLen = 100

// NewUpdateHandler returns the default handler for updates that no command
// handler claimed: callback queries are dispatched through the action router,
// free text feeds the active conversation flow.
func NewUpdateHandler(deps *HandlerDeps) bot.HandlerFunc {
	return updateHandler{deps}.Handle
}

type updateHandler struct {
	deps *HandlerDeps
}

func (h updateHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	switch {
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.From != nil:
		h.handleText(ctx, update.Message)
	}
}

func (h updateHandler) handleCallback(ctx context.Context, q *models.CallbackQuery) {
	var chatID int64
	var messageID int
	if q.Message.Message.Date != 0 {
		chatID = q.Message.Message.Chat.ID
		messageID = q.Message.Message.ID
	} else {
		chatID = q.Message.InaccessibleMessage.Chat.ID
	}

	h.deps.Router.Dispatch(ctx, q.Data, q.From.ID, chatID, messageID, q.ID)
}

// handleText routes a free-text message by the sender's conversation state.
func (h updateHandler) handleText(ctx context.Context, msg *models.Message) {
	log := h.deps.Logger.With("handler", "text")
	userID := msg.From.ID
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	h.deps.Repo.EnsureUser(userID)
	h.deps.Repo.UpdateIdentity(userID, msg.From.FirstName, msg.From.LastName, msg.From.Username)

	current, data := h.deps.State.Get(userID)

	var err error
	switch current {
	case state.AwaitingTaskName:
		err = h.taskNameEntered(ctx, userID, chatID, text, data)
	case state.AwaitingTaskDate:
		err = h.taskDateEntered(ctx, userID, chatID, text, data)
	case state.AwaitingTaskTime:
		err = h.taskTimeEntered(ctx, chatID, text, data)
	case state.AwaitingTeamName:
		err = h.teamNameEntered(ctx, userID, chatID, text)
	case state.AwaitingTeamCode:
		err = h.teamCodeEntered(ctx, userID, chatID, text)
	default:
		err = h.deps.Messenger.Send(ctx, chatID, ui.MsgUnknownCommand, ui.RestartKB(h.deps.Codec))
	}

	if err != nil {
		log.ErrorContext(ctx, "Text flow handler failed",
			"user_id", userID, "state", current, "error", err)
		if sendErr := h.deps.Messenger.Send(ctx, chatID, ui.MsgGeneralError, ui.RestartKB(h.deps.Codec)); sendErr != nil {
			log.ErrorContext(ctx, "Failed to send error reply", "user_id", userID, "error", sendErr)
		}
	}
}

func (h updateHandler) taskNameEntered(ctx context.Context, userID, chatID int64, text string, data map[string]any) error {
	if text == "" || strings.HasPrefix(text, "/") {
		return h.deps.Messenger.Send(ctx, chatID, ui.MsgAskTaskName, nil)
	}
	if len(text) > maxTaskNameLen {
		text = text[:maxTaskNameLen]
	}

	next := map[string]any{"name": text}
	if teamID, ok := data["team_id"].(string); ok {
		next["team_id"] = teamID
	}
	h.deps.State.Set(userID, state.AwaitingTaskDate, next)
	return h.deps.Messenger.Send(ctx, chatID, ui.MsgAskTaskDate, ui.DatePickerKB(h.deps.Codec, h.deps.Now()))
}

// taskDateEntered accepts a typed date for users who ignore the picker.
func (h updateHandler) taskDateEntered(ctx context.Context, userID, chatID int64, text string, data map[string]any) error {
	date, ok := parseDateInput(text, h.deps.Now())
	if !ok {
		return h.deps.Messenger.Send(ctx, chatID, ui.MsgAskTaskDate, ui.DatePickerKB(h.deps.Codec, h.deps.Now()))
	}

	name, _ := data["name"].(string)
	next := map[string]any{"name": name, "date": date}
	if teamID, ok := data["team_id"].(string); ok {
		next["team_id"] = teamID
	}
	h.deps.State.Set(userID, state.AwaitingTaskTime, next)
	return h.deps.Messenger.Send(ctx, chatID, ui.MsgAskTaskTime, ui.TimePickerKB(h.deps.Codec, date))
}

// taskTimeEntered accepts a typed HH:MM and shows the confirmation screen.
func (h updateHandler) taskTimeEntered(ctx context.Context, chatID int64, text string, data map[string]any) error {
	if _, err := time.Parse("15:04", text); err != nil {
		date, _ := data["date"].(string)
		return h.deps.Messenger.Send(ctx, chatID, ui.MsgAskTaskTime, ui.TimePickerKB(h.deps.Codec, date))
	}

	name, _ := data["name"].(string)
	date, _ := data["date"].(string)
	payload := map[string]any{"name": name, "date": date, "time": text}
	if teamID, ok := data["team_id"].(string); ok {
		payload["team_id"] = teamID
	}
	return h.deps.Messenger.Send(ctx, chatID,
		ui.ConfirmTask(name, date, text), ui.ConfirmTaskKB(h.deps.Codec, payload))
}

func (h updateHandler) teamNameEntered(ctx context.Context, userID, chatID int64, text string) error {
	if text == "" || strings.HasPrefix(text, "/") {
		return h.deps.Messenger.Send(ctx, chatID, ui.MsgAskTeamName, nil)
	}

	team := h.deps.Repo.CreateTeam(text, userID)
	h.deps.State.Clear(userID)

	if err := h.deps.Repo.Save(ctx); err != nil {
		return err
	}
	return h.deps.Messenger.Send(ctx, chatID, ui.TeamCreated(team), ui.TeamCreatedKB(h.deps.Codec, team.ID))
}

func (h updateHandler) teamCodeEntered(ctx context.Context, userID, chatID int64, text string) error {
	code := strings.ToUpper(strings.TrimSpace(text))
	if len(code) != 6 {
		return h.deps.Messenger.Send(ctx, chatID, ui.MsgAskTeamCode, nil)
	}

	team, err := h.deps.Repo.JoinTeam(code, userID)
	switch {
	case errors.Is(err, repo.ErrTeamNotFound):
		return h.deps.Messenger.Send(ctx, chatID, ui.MsgTeamNotFound, nil)
	case errors.Is(err, repo.ErrAlreadyMember):
		h.deps.State.Clear(userID)
		team, _ := h.deps.Repo.Team(code)
		return h.deps.Messenger.Send(ctx, chatID, ui.MsgAlreadyInTeam,
			ui.TeamDetailKB(h.deps.Codec, team.ID, team.Admin == userID))
	case err != nil:
		return err
	}

	h.deps.State.Clear(userID)
	if err := h.deps.Repo.Save(ctx); err != nil {
		return err
	}
	return h.deps.Messenger.Send(ctx, chatID,
		ui.TeamOverview(team, team.Admin == userID), ui.TeamDetailKB(h.deps.Codec, team.ID, team.Admin == userID))
}

// parseDateInput accepts ISO dates and the local DD.MM.YYYY form, returning
// the ISO form used by the picker callbacks.
func parseDateInput(text string, now time.Time) (string, bool) {
	for _, layout := range []string{"2006-01-02", "02.01.2006"} {
		if d, err := time.ParseInLocation(layout, text, now.Location()); err == nil {
			return d.Format("2006-01-02"), true
		}
	}
	return "", false
}
