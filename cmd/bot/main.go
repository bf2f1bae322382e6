// Package main contains the entrypoint for the summarygram Telegram bot.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/derogab/summarygram/internal/bot"
	"github.com/derogab/summarygram/internal/bot/handlers"
	"github.com/derogab/summarygram/internal/bot/tasks"
	"github.com/derogab/summarygram/internal/config"
	"github.com/derogab/summarygram/internal/llm"
	"github.com/derogab/summarygram/internal/logger"
	"github.com/derogab/summarygram/internal/store"
	"github.com/derogab/summarygram/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes and starts all application components (config, logger, store,
// language models, bot, scheduler), handles graceful shutdown, and returns an
// exit code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	st, err := store.NewStore(ctx, cfg.Store, log)
	if err != nil {
		log.Error("Failed to connect to history store", "driver", cfg.Store.Driver, "error", err)
		return 1
	}
	// The bot closes the store on shutdown; until it takes over, close it here.
	storeOwned := true
	defer func() {
		if !storeOwned {
			return
		}
		if err := st.Close(); err != nil {
			log.Error("Error closing history store", "error", err)
		}
	}()

	summarizer, err := llm.NewSummarizer(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize summarizer", "error", err)
		return 1
	}
	transcriber, err := llm.NewTranscriber(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize transcriber", "error", err)
		return 1
	}

	messenger := telegram.NewMessenger(cfg.Telegram.Token, cfg.Telegram.RequestTimeout, log)

	hDeps := handlers.HandlerDeps{
		Logger:      log,
		Config:      cfg,
		Store:       st,
		Summarizer:  summarizer,
		Transcriber: transcriber,
		Messenger:   messenger,
	}
	tDeps := tasks.TaskDeps{
		Logger:     log,
		Config:     cfg,
		Store:      st,
		Summarizer: summarizer,
		Messenger:  messenger,
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
	messenger.Attach(tg)

	// Retrieve bot info and store it in the config for runtime use
	cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}
	log.Info("Retrieved bot info", "bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)

	cmdHandlers := handlers.RegisterAllCommands(hDeps)
	if err := telegram.RegisterHandlers(tg, log, cmdHandlers); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}
	if err := telegram.SetCommands(ctx, tg, cmdHandlers); err != nil {
		// The command menu is cosmetic; commands work without it.
		log.Warn("Failed to publish command menu", "error", err)
	}

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}
	app := bot.NewBot(log, tg, sched, st)
	storeOwned = false

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished.")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		// Allow logs to flush before exiting on error
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	return 0
}
