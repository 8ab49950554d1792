// Package main contains the entrypoint for the Telegram bot application.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"

	"vazifabot/internal/bot"
	"vazifabot/internal/bot/handlers"
	"vazifabot/internal/bot/tasks"
	"vazifabot/internal/callback"
	"vazifabot/internal/config"
	"vazifabot/internal/database"
	"vazifabot/internal/logger"
	"vazifabot/internal/notifier"
	"vazifabot/internal/prayer"
	"vazifabot/internal/repo"
	"vazifabot/internal/state"
	"vazifabot/internal/telegram"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes and starts all application components, handles graceful
// shutdown, and returns an exit code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON)
	log.Info("Logger initialized", "level", cfg.Log.Level, "json", cfg.Log.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	repository := repo.New(log, store)
	repository.SetDefaultRegion(cfg.Prayer.DefaultRegion)
	if err := repository.Load(ctx); err != nil {
		log.Error("Failed to load persisted state", "error", err)
		return 1
	}

	codec := callback.NewCodec(log)
	states := state.NewStore(log)
	prayerClient := prayer.NewClient(log, cfg.Prayer.BaseURL)

	hDeps := &handlers.HandlerDeps{
		Logger: log,
		Config: cfg,
		Repo:   repository,
		State:  states,
		Codec:  codec,
		Prayer: prayerClient,
		Now:    time.Now,
	}

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(handlers.NewUpdateHandler(hDeps)),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	messenger := telegram.NewMessenger(log, tg)
	router := bot.NewRouter(log, codec, repository, messenger)
	hDeps.Messenger = messenger
	hDeps.Router = router
	handlers.RegisterCallbackRoutes(hDeps)

	cmdHandlers := handlers.RegisterAllCommands(hDeps)
	if err := telegram.RegisterHandlers(tg, log, cmdHandlers); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	sweeper := notifier.NewService(log, repository, messenger, prayerClient, codec,
		cfg.Notifications.TaskWindow, cfg.Notifications.PrayerWindow)

	tDeps := tasks.TaskDeps{
		Logger:   log,
		Notifier: sweeper,
		Codec:    codec,
		State:    states,
		Store:    store,
		Repo:     repository,
		Now:      time.Now,
	}

	sched := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	app := bot.NewBot(log, cfg, repository, tg, sched)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}
