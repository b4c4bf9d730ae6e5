package publish

import (
	"context"
	"io"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"classpublisher/internal/domain"
	"classpublisher/internal/infra"
	"classpublisher/internal/providers/vimeo"
	"classpublisher/internal/providers/wordpress"
)

// VideoGateway is the slice of the video host the pipeline drives.
type VideoGateway interface {
	GetLatestVideo(ctx context.Context) (*vimeo.Video, error)
	GetVideoByID(ctx context.Context, videoID string) (*vimeo.Video, error)
	SetVideoEmbedOnly(ctx context.Context, videoID string) (*vimeo.Video, error)
}

// ContentGateway is the slice of the content site the pipeline drives.
type ContentGateway interface {
	CreatePost(ctx context.Context, data wordpress.CreatePostData) (*wordpress.Post, error)
}

// ConfigProvider resolves per-day publishing configuration.
type ConfigProvider interface {
	DayConfig(ctx context.Context, day domain.DayNumber) (*domain.DayConfig, error)
}

// RunRecorder receives the audit record of each completed run.
type RunRecorder interface {
	RecordRun(ctx context.Context, record domain.RunRecord) error
}

// Deps wires the gateways into the pipeline.
type Deps struct {
	Videos  VideoGateway
	Content ContentGateway
	Config  ConfigProvider
	History RunRecorder
	Logger  *infra.Logger
	Now     func() time.Time
}

// Options selects what one run publishes. A zero Day means "today"
// (Sunday folded onto Monday); an empty VideoID means the most recent
// video on the account.
type Options struct {
	Day          domain.DayNumber
	VideoID      string
	ThumbnailID  string
	ForcePublish bool
}

// Pipeline sequences one publish attempt: resolve day, fetch config,
// resolve video, restrict its privacy, compose, create the post. Steps run
// in that fixed order and any failure aborts the remainder; there is no
// retry and no rollback of the privacy mutation.
type Pipeline struct {
	videos  VideoGateway
	content ContentGateway
	config  ConfigProvider
	history RunRecorder
	logger  *infra.Logger
	now     func() time.Time

	running atomic.Bool
}

// New constructs the pipeline.
func New(deps Deps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		videos:  deps.Videos,
		content: deps.Content,
		config:  deps.Config,
		history: deps.History,
		logger:  logger,
		now:     now,
	}
}

// Run executes one publish attempt. Runs are single-flight: a second
// concurrent call fails immediately with ErrRunInProgress rather than
// risking a duplicate post or a double privacy mutation.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*domain.PublishResult, error) {
	if !p.running.CompareAndSwap(false, true) {
		return nil, domain.ErrRunInProgress
	}
	defer p.running.Store(false)

	started := p.now()
	record := domain.RunRecord{
		ID:        uuid.NewString(),
		VideoID:   opts.VideoID,
		StartedAt: started,
	}

	result, err := p.run(ctx, opts, started, &record)

	record.FinishedAt = p.now()
	if err != nil {
		record.Status = domain.RunFailed
		record.Error = err.Error()
	} else {
		record.Status = domain.RunSucceeded
		record.PostID = result.PostID
	}
	if p.history != nil {
		if recErr := p.history.RecordRun(ctx, record); recErr != nil {
			p.logger.Warn().Err(recErr).Str("run_id", record.ID).Msg("pipeline: failed to record run")
		}
	}
	return result, err
}

func (p *Pipeline) run(ctx context.Context, opts Options, started time.Time, record *domain.RunRecord) (*domain.PublishResult, error) {
	// Step 1: effective day, validated before anything leaves the process.
	day := opts.Day
	if day == 0 {
		day = domain.EffectiveDay(started)
	}
	if !day.Valid() {
		return nil, domain.ValidationError("day number must be between %d and %d, got %d", domain.MinDay, domain.MaxDay, day)
	}
	record.Day = day

	// Step 2: day configuration. Missing entry and missing category are
	// both configuration errors, not transient ones.
	cfg, err := p.config.DayConfig(ctx, day)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, domain.ConfigurationError("no configuration entry for day %d", day)
	}
	if cfg.Category == nil {
		return nil, domain.ConfigurationError("day %d has no category assigned", day)
	}

	// Step 3: the video, explicit or most recent.
	var video *vimeo.Video
	if opts.VideoID != "" {
		video, err = p.videos.GetVideoByID(ctx, opts.VideoID)
		if err != nil {
			return nil, err
		}
	} else {
		video, err = p.videos.GetLatestVideo(ctx)
		if err != nil {
			return nil, err
		}
		if video == nil {
			return nil, domain.NotFoundError("no videos found on the account")
		}
	}
	record.VideoID = video.ID()
	p.logger.Info().Str("video", video.Name).Str("video_id", video.ID()).Msg("pipeline: video resolved")

	// Step 4: restrict the video to embed-only playback. Deliberately
	// unconditional and without rollback: if post creation fails later the
	// video stays restricted.
	if _, err := p.videos.SetVideoEmbedOnly(ctx, video.ID()); err != nil {
		return nil, err
	}
	p.logger.Info().Str("video_id", video.ID()).Msg("pipeline: privacy set to embed-only")

	// Step 5: compose title and body.
	title := ComposeTitle(cfg.Category.Name, started)
	content := ComposeContent(video.Embed.HTML, video.Description)

	// Step 6: create the post.
	status := domain.StatusDraft
	if opts.ForcePublish {
		status = domain.StatusPublish
	}
	featuredMedia := 0
	if opts.ThumbnailID != "" {
		id, convErr := strconv.Atoi(opts.ThumbnailID)
		if convErr != nil {
			p.logger.Warn().Str("thumbnail_id", opts.ThumbnailID).Msg("pipeline: thumbnail id is not numeric, skipping featured media")
		} else {
			featuredMedia = id
		}
	}
	post, err := p.content.CreatePost(ctx, wordpress.CreatePostData{
		Title:         title,
		Content:       content,
		Status:        string(status),
		ClassCategory: []int{cfg.Category.TermID},
		FeaturedMedia: featuredMedia,
		Meta: wordpress.PostMeta{
			VideoID:       video.ID(),
			VideoURL:      video.Link,
			VideoDuration: video.Duration,
			DayNumber:     int(day),
			Trainers:      strings.Join(cfg.Trainers.SlotKeys(), ", "),
		},
	})
	if err != nil {
		return nil, err
	}

	// Step 7: hand the result to the caller.
	result := &domain.PublishResult{
		PostID:   post.ID,
		PostURL:  post.Link,
		Title:    title,
		Day:      day,
		Category: *cfg.Category,
		Status:   status,
	}
	p.logger.Info().
		Int("post_id", post.ID).
		Str("title", title).
		Str("category", cfg.Category.Name).
		Str("status", string(status)).
		Str("url", post.Link).
		Msg("pipeline: post created")
	return result, nil
}
