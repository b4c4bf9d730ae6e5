package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"classpublisher/internal/bot"
	"classpublisher/internal/history"
	"classpublisher/internal/infra"
	"classpublisher/internal/ops"
	"classpublisher/internal/providers/vimeo"
	"classpublisher/internal/providers/wordpress"
	"classpublisher/internal/publish"
	"classpublisher/internal/scheduler"
)

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	botCfg, err := infra.LoadBotConfig(cfg.BotConfigPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load bot config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	vimeoClient, err := vimeo.NewClient(vimeo.Options{
		AccessToken: cfg.VimeoAccessToken,
		Logger:      &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure vimeo client")
	}

	wpClient, err := wordpress.NewClient(wordpress.Options{
		BaseURL:     cfg.WordPressURL,
		Username:    cfg.WordPressUsername,
		Password:    cfg.WordPressPassword,
		PostType:    cfg.WordPressCPT,
		OptionsSlug: cfg.WordPressOptionsSlug,
		Logger:      &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure wordpress client")
	}

	transport, err := bot.NewTransport(bot.TransportOptions{
		BotToken: cfg.TelegramBotToken,
		ChatID:   cfg.TelegramChatID,
		Logger:   &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure telegram transport")
	}

	broker := bot.NewBroker(bot.BrokerOptions{
		Sender:       transport,
		Config:       wpClient,
		TrainerNames: botCfg.Trainers,
		Timeout:      cfg.InteractionTimeout,
		Logger:       &logger,
	})

	// Run history is optional: without DATABASE_URL runs simply go
	// unrecorded.
	var store *history.Store
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		store = history.NewStore(pool, logger)
		if err := store.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare history schema")
		}
	}

	pipelineDeps := publish.Deps{
		Videos:  vimeoClient,
		Content: wpClient,
		Config:  wpClient,
		Logger:  &logger,
	}
	if store != nil {
		pipelineDeps.History = store
	}
	pipeline := publish.New(pipelineDeps)

	classBot := bot.New(bot.Options{
		Transport:        transport,
		Broker:           broker,
		Videos:           vimeoClient,
		Posts:            wpClient,
		Publisher:        pipeline,
		AuthorizedChatID: cfg.TelegramChatID,
		Logger:           &logger,
	})

	sched, err := scheduler.New(botCfg.Schedule, logger, func(ctx context.Context) {
		if err := classBot.PublishLatest(ctx); err != nil {
			logger.Error().Err(err).Msg("scheduled publish failed")
		}
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure scheduler")
	}
	sched.Start(ctx)

	var runReader ops.RunReader
	if store != nil {
		runReader = store
	}
	opsApp := ops.NewApp(broker, runReader, logger)
	server := infra.NewHTTPServer(cfg, ops.NewRouter(opsApp, logger))

	go func() {
		logger.Info().Msgf("ops listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("ops server failed")
		}
	}()

	go func() {
		if err := classBot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("bot loop stopped")
		}
	}()

	logger.Info().
		Strs("schedule", botCfg.Schedule.Times).
		Str("timezone", botCfg.Schedule.Timezone).
		Msg("class publisher bot started")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown ops server")
	}
	logger.Info().Msg("stopped")
}
