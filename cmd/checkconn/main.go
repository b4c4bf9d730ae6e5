package main

import (
	"context"
	"time"

	"classpublisher/internal/infra"
	"classpublisher/internal/providers/vimeo"
	"classpublisher/internal/providers/wordpress"
)

// Verifies that both external systems are reachable with the configured
// credentials before a deploy goes live.
func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

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
	if _, err := wpClient.GetOptionsConfig(ctx); err != nil {
		logger.Fatal().Err(err).Msg("wordpress connection failed")
	}
	logger.Info().Msg("wordpress connection ok")

	vimeoClient, err := vimeo.NewClient(vimeo.Options{
		AccessToken: cfg.VimeoAccessToken,
		Logger:      &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure vimeo client")
	}
	page, err := vimeoClient.GetVideos(ctx, vimeo.VideoFilters{PerPage: 1, Sort: "date", Direction: "desc"})
	if err != nil {
		logger.Fatal().Err(err).Msg("vimeo connection failed")
	}
	logger.Info().Int("total_videos", page.Total).Msg("vimeo connection ok")
}
