package main

import (
	"context"
	"os"
	"strconv"

	"classpublisher/internal/domain"
	"classpublisher/internal/infra"
	"classpublisher/internal/providers/vimeo"
	"classpublisher/internal/providers/wordpress"
	"classpublisher/internal/publish"
)

// Usage: publish [dayNumber] [videoId]
//
// Runs one publish attempt from the command line with forcePublish set,
// without the bot in the loop. Day defaults to today; video defaults to
// the most recent upload.
func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	var day domain.DayNumber
	if len(os.Args) > 1 {
		parsed, err := strconv.Atoi(os.Args[1])
		if err != nil || !domain.DayNumber(parsed).Valid() {
			logger.Fatal().Str("arg", os.Args[1]).Msg("day number must be between 1 and 6")
		}
		day = domain.DayNumber(parsed)
	}
	var videoID string
	if len(os.Args) > 2 {
		videoID = os.Args[2]
	}

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

	pipeline := publish.New(publish.Deps{
		Videos:  vimeoClient,
		Content: wpClient,
		Config:  wpClient,
		Logger:  &logger,
	})

	result, err := pipeline.Run(context.Background(), publish.Options{
		Day:          day,
		VideoID:      videoID,
		ForcePublish: true,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("publish failed")
	}

	logger.Info().
		Int("post_id", result.PostID).
		Str("title", result.Title).
		Str("category", result.Category.Name).
		Str("status", string(result.Status)).
		Str("url", result.PostURL).
		Msg("publish complete")
}
