package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	botpkg "vazifabot/internal/bot"
	"vazifabot/internal/callback"
	"vazifabot/internal/repo"
	"vazifabot/internal/state"
	"vazifabot/internal/ui"
)

func (a actions) showTasks(ctx context.Context, req *botpkg.Request) error {
	user := a.deps.Repo.UserSnapshot(req.UserID)
	return a.respond(ctx, req, ui.TaskList(user.Tasks), ui.TaskListKB(a.deps.Codec, user.Tasks))
}

func (a actions) addTask(ctx context.Context, req *botpkg.Request) error {
	a.deps.State.Set(req.UserID, state.AwaitingTaskName, nil)
	return a.respond(ctx, req, ui.MsgAskTaskName, ui.BackToMainKB(a.deps.Codec))
}

// selectDate advances the creation flow to the time picker, carrying the
// already-collected name through the conversation state.
func (a actions) selectDate(ctx context.Context, req *botpkg.Request) error {
	date, _ := callback.String(req.Data, "date")

	current, data := a.deps.State.Get(req.UserID)
	if current != state.AwaitingTaskDate && current != state.AwaitingTaskTime {
		return a.staleMenu(ctx, req)
	}

	name, _ := data["name"].(string)
	next := map[string]any{"name": name, "date": date}
	if teamID, ok := data["team_id"].(string); ok {
		next["team_id"] = teamID
	}
	a.deps.State.Set(req.UserID, state.AwaitingTaskTime, next)
	return a.respond(ctx, req, ui.MsgAskTaskTime, ui.TimePickerKB(a.deps.Codec, date))
}

func (a actions) selectTime(ctx context.Context, req *botpkg.Request) error {
	date, _ := callback.String(req.Data, "date")
	timeSlot, _ := callback.String(req.Data, "time")

	if !a.deps.State.IsIn(req.UserID, state.AwaitingTaskTime) {
		return a.staleMenu(ctx, req)
	}
	_, data := a.deps.State.Get(req.UserID)
	name, _ := data["name"].(string)
	payload := map[string]any{"name": name, "date": date, "time": timeSlot}
	if teamID, ok := data["team_id"].(string); ok {
		payload["team_id"] = teamID
	}

	return a.respond(ctx, req,
		ui.ConfirmTask(name, date, timeSlot), ui.ConfirmTaskKB(a.deps.Codec, payload))
}

// confirmTask creates the task from the fields carried in the callback
// payload, so confirmation survives a lost conversation state.
func (a actions) confirmTask(ctx context.Context, req *botpkg.Request) error {
	name, okName := callback.String(req.Data, "name")
	date, okDate := callback.String(req.Data, "date")
	timeSlot, okTime := callback.String(req.Data, "time")
	if !okName || !okDate || !okTime {
		return a.staleMenu(ctx, req)
	}

	due, err := time.ParseInLocation("2006-01-02 15:04", date+" "+timeSlot, a.deps.Now().Location())
	if err != nil {
		return fmt.Errorf("invalid due date %q %q: %w", date, timeSlot, err)
	}

	a.deps.State.Clear(req.UserID)

	if teamID, ok := callback.String(req.Data, "team_id"); ok && teamID != "" {
		teamTask, err := a.deps.Repo.AddTeamTask(teamID, req.UserID, name, due, repo.PriorityMedium, repo.AssignAnyone)
		if errors.Is(err, repo.ErrTeamNotFound) {
			return a.respond(ctx, req, ui.MsgTeamNotFound, ui.BackToMainKB(a.deps.Codec))
		}
		if err != nil {
			return err
		}
		if err := a.deps.Repo.Save(ctx); err != nil {
			return err
		}
		team, _ := a.deps.Repo.Team(teamID)
		return a.respond(ctx, req, ui.TaskCreated(teamTask.Task), ui.TeamTaskListKB(a.deps.Codec, team))
	}

	task := a.deps.Repo.AddTask(req.UserID, name, due, "", repo.PriorityMedium, "")
	if err := a.deps.Repo.Save(ctx); err != nil {
		return err
	}
	return a.respond(ctx, req, ui.TaskCreated(task), ui.TaskCreatedKB(a.deps.Codec))
}

func (a actions) completeTask(ctx context.Context, req *botpkg.Request) error {
	taskID, ok := callback.Int64(req.Data, "task_id")
	if !ok {
		return a.staleMenu(ctx, req)
	}

	task, err := a.deps.Repo.CompleteTask(req.UserID, taskID)
	if errors.Is(err, repo.ErrTaskNotFound) {
		return a.respond(ctx, req, ui.MsgTaskNotFound, ui.TaskCompletedKB(a.deps.Codec))
	}
	if err != nil {
		return err
	}

	if err := a.deps.Repo.Save(ctx); err != nil {
		return err
	}
	return a.respond(ctx, req, ui.TaskCompleted(task), ui.TaskCompletedKB(a.deps.Codec))
}

func (a actions) deleteTask(ctx context.Context, req *botpkg.Request) error {
	taskID, ok := callback.Int64(req.Data, "task_id")
	if !ok {
		return a.staleMenu(ctx, req)
	}

	err := a.deps.Repo.DeleteTask(req.UserID, taskID)
	if err != nil && !errors.Is(err, repo.ErrTaskNotFound) {
		return err
	}
	if err == nil {
		if err := a.deps.Repo.Save(ctx); err != nil {
			return err
		}
	}

	return a.showTasks(ctx, req)
}
