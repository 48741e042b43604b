// Package app wires configuration into the runner, store, watcher and server.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"go-afriwork-autoapply/internal/afriwork"
	"go-afriwork-autoapply/internal/ai"
	"go-afriwork-autoapply/internal/config"
	"go-afriwork-autoapply/internal/dedup"
	"go-afriwork-autoapply/internal/logger"
	"go-afriwork-autoapply/internal/metrics"
	"go-afriwork-autoapply/internal/server"
	"go-afriwork-autoapply/internal/store"
	"go-afriwork-autoapply/internal/telegram"
	"go-afriwork-autoapply/internal/workflow"
)

type App struct {
	Config  *config.Config
	Log     *slog.Logger
	Metrics *metrics.Metrics
	Store   store.Store
	Runner  *workflow.Runner
	Writer  ai.CoverLetterWriter
}

// New builds every shared component. Close the App when done.
func New(ctx context.Context, cfg *config.Config, logOut io.Writer) (*App, error) {
	if err := cfg.ValidateApply(); err != nil {
		return nil, err
	}

	a := &App{
		Config:  cfg,
		Log:     logger.New(cfg.LogLevel, logOut),
		Metrics: metrics.New(),
	}

	st, err := store.Open(ctx, store.Options{
		Driver:      cfg.Store.Driver,
		Dir:         cfg.Store.Dir,
		DatabaseURL: cfg.Store.DatabaseURL,
		RedisAddr:   cfg.Store.RedisAddr,
		RedisPrefix: cfg.Store.RedisPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
	}
	a.Store = st

	opts := []workflow.Option{
		workflow.WithStore(st),
		workflow.WithRecorder(a.Metrics),
		workflow.WithLogger(logger.Named(a.Log, "workflow")),
		workflow.WithPlatformName(cfg.Afriwork.PlatformName),
		workflow.AllowMalformedIdentity(cfg.Afriwork.AllowMalformedIdentity),
	}
	if cfg.AI.APIKey != "" {
		a.Writer = ai.NewGrokClient(cfg.AI.APIKey,
			ai.WithModel(cfg.AI.Model),
			ai.WithPrompt(cfg.AI.Prompt),
			ai.WithExpertise(cfg.AI.Expertise),
		)
		opts = append(opts, workflow.WithCoverLetterWriter(a.Writer))
	} else {
		a.Log.Warn("GROQ_API_KEY not set, generated cover letters fall back to the default text")
	}

	a.Runner = workflow.NewRunner(cfg.Afriwork.InitData, a.BackendFactory(), opts...)
	return a, nil
}

// BackendFactory returns a factory making one afriwork client per run.
func (a *App) BackendFactory() workflow.BackendFactory {
	cfg := a.Config.Afriwork
	log := logger.Named(a.Log, "afriwork")
	return func() workflow.Backend {
		return afriwork.New(afriwork.Options{
			APIURL:             cfg.APIURL,
			AuthURL:            cfg.AuthURL,
			Origin:             cfg.Origin,
			UserAgent:          cfg.UserAgent,
			Timeout:            cfg.RequestTimeout,
			InsecureSkipVerify: cfg.InsecureSkipVerify,
			Logger:             log,
			Observe:            a.Metrics.ObserveGraphQL,
		})
	}
}

// Server builds the HTTP API.
func (a *App) Server() *server.Server {
	return server.New(a.Runner, a.Store,
		server.WithLogger(logger.Named(a.Log, "server")),
		server.WithMetrics(a.Metrics.Handler()),
		server.WithHandle(a.Config.Telegram.Username),
	)
}

// Serve runs the HTTP API until ctx is done.
func (a *App) Serve(ctx context.Context) error {
	return a.Server().Run(ctx, ":"+a.Config.Server.Port)
}

// Watch listens to the configured job channel until ctx is done.
func (a *App) Watch(ctx context.Context) error {
	if err := a.Config.ValidateWatch(); err != nil {
		return err
	}
	channelID, err := telegram.ParseChannelID(a.Config.Telegram.ChannelID)
	if err != nil {
		return err
	}

	bot, err := telegram.NewBotAPI(a.Config.Telegram.BotToken)
	if err != nil {
		return err
	}
	a.Log.Info("authorized on telegram", "bot", bot.Self.UserName)

	log := logger.Named(a.Log, "watcher")
	opts := []telegram.WatcherOption{
		telegram.WithStore(a.Store),
		telegram.WithNotifier(telegram.NewNotifier(bot, a.Config.Telegram.ChatID, log)),
		telegram.WithSeenCache(dedup.NewJobCache(a.Config.CachePath, nil, log)),
		telegram.WithCounter(a.Metrics),
		telegram.WithLogger(log),
	}
	if a.Writer != nil {
		opts = append(opts, telegram.WithCoverLetterWriter(a.Writer))
	}
	watcher := telegram.NewWatcher(telegram.WatcherConfig{
		ChannelID:      channelID,
		Keywords:       a.Config.Filter.Keywords,
		MinimumMatches: a.Config.Filter.MinimumMatches,
		AutoApply:      a.Config.AutoApplyEnabled(),
		Handle:         a.Config.Telegram.Username,
	}, a.Runner, opts...)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"channel_post"}
	updates := bot.GetUpdatesChan(u)
	defer bot.StopReceivingUpdates()

	err = watcher.Run(ctx, updates)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	return a.Store.Close()
}
