package publish

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"classpublisher/internal/domain"
	"classpublisher/internal/providers/vimeo"
	"classpublisher/internal/providers/wordpress"
)

type fakeVideos struct {
	mu        sync.Mutex
	latest    *vimeo.Video
	byID      map[string]vimeo.Video
	embedOnly []string
	calls     int
	block     chan struct{}
}

func (f *fakeVideos) GetLatestVideo(ctx context.Context) (*vimeo.Video, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.latest, nil
}

func (f *fakeVideos) GetVideoByID(ctx context.Context, videoID string) (*vimeo.Video, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	video, ok := f.byID[videoID]
	if !ok {
		return nil, domain.NotFoundError("vimeo: /videos/%s", videoID)
	}
	return &video, nil
}

func (f *fakeVideos) SetVideoEmbedOnly(ctx context.Context, videoID string) (*vimeo.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.embedOnly = append(f.embedOnly, videoID)
	video := f.byID[videoID]
	return &video, nil
}

func (f *fakeVideos) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeContent struct {
	mu      sync.Mutex
	created []wordpress.CreatePostData
	posts   map[int]wordpress.Post
	nextID  int
}

func (f *fakeContent) CreatePost(ctx context.Context, data wordpress.CreatePostData) (*wordpress.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, data)
	f.nextID++
	post := wordpress.Post{
		ID:            f.nextID,
		Status:        data.Status,
		Link:          fmt.Sprintf("https://example.com/?p=%d", f.nextID),
		Title:         wordpress.RenderedField{Rendered: data.Title},
		ClassCategory: data.ClassCategory,
		ACF: map[string]any{
			"video_id":   data.Meta.VideoID,
			"day_number": data.Meta.DayNumber,
		},
	}
	if f.posts == nil {
		f.posts = map[int]wordpress.Post{}
	}
	f.posts[post.ID] = post
	return &post, nil
}

func (f *fakeContent) GetPost(postID int) (wordpress.Post, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	post, ok := f.posts[postID]
	return post, ok
}

func (f *fakeContent) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

type fakeDayConfigs struct {
	mu      sync.Mutex
	entries map[domain.DayNumber]*domain.DayConfig
	calls   int
}

func (f *fakeDayConfigs) DayConfig(ctx context.Context, day domain.DayNumber) (*domain.DayConfig, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	entry, ok := f.entries[day]
	if !ok {
		return nil, domain.ConfigurationError("no configuration entry for day %d", day)
	}
	return entry, nil
}

func cardioConfig() *domain.DayConfig {
	return &domain.DayConfig{
		Category: &domain.Category{TermID: 7, Name: "Cardio"},
		Trainers: domain.DayTrainers{
			Trainer1: domain.TrainerImages{ImagePrimary: 101},
			Trainer2: domain.TrainerImages{ImagePrimary: 102},
			Trainer3: domain.TrainerImages{ImagePrimary: 103},
		},
	}
}

func video999() vimeo.Video {
	return vimeo.Video{
		URI:         "/videos/999",
		Name:        "Cardio intenso",
		Description: "Clase de cardio de 45 minutos",
		Link:        "https://vimeo.com/999",
		Duration:    2700,
		Embed:       vimeo.Embed{HTML: `<iframe src="https://player.vimeo.com/video/999"></iframe>`},
	}
}

func testDeps(videos *fakeVideos, content *fakeContent, config *fakeDayConfigs, now time.Time) Deps {
	return Deps{
		Videos:  videos,
		Content: content,
		Config:  config,
		Now:     func() time.Time { return now },
	}
}

func TestRunRejectsDayOutOfRangeBeforeAnyCall(t *testing.T) {
	for _, day := range []int{-1, 7, 8, 100} {
		videos := &fakeVideos{}
		content := &fakeContent{}
		config := &fakeDayConfigs{entries: map[domain.DayNumber]*domain.DayConfig{}}
		pipeline := New(testDeps(videos, content, config, time.Now()))

		_, err := pipeline.Run(context.Background(), Options{Day: domain.DayNumber(day)})
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("day %d: error = %v, want ErrValidation", day, err)
		}
		if videos.callCount() != 0 || content.callCount() != 0 || config.calls != 0 {
			t.Fatalf("day %d: external calls made before validation", day)
		}
	}
}

func TestEffectiveDayResolution(t *testing.T) {
	// 2026-08-30 is a Sunday; the following days cover Monday..Saturday.
	sunday := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	for offset := 0; offset < 7; offset++ {
		now := sunday.AddDate(0, 0, offset)
		want := int(now.Weekday())
		if want == 0 {
			want = 1
		}
		if got := domain.EffectiveDay(now); int(got) != want {
			t.Fatalf("EffectiveDay(%s) = %d, want %d", now.Weekday(), got, want)
		}
	}
}

func TestRunDefaultsToEffectiveDay(t *testing.T) {
	sunday := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	videos := &fakeVideos{latest: ptr(video999()), byID: map[string]vimeo.Video{"999": video999()}}
	content := &fakeContent{}
	config := &fakeDayConfigs{entries: map[domain.DayNumber]*domain.DayConfig{1: cardioConfig()}}
	pipeline := New(testDeps(videos, content, config, sunday))

	result, err := pipeline.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Day != 1 {
		t.Fatalf("sunday run resolved day %d, want 1", result.Day)
	}
}

func TestRunPublishScenario(t *testing.T) {
	now := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	videos := &fakeVideos{byID: map[string]vimeo.Video{"999": video999()}}
	content := &fakeContent{}
	config := &fakeDayConfigs{entries: map[domain.DayNumber]*domain.DayConfig{3: cardioConfig()}}
	pipeline := New(testDeps(videos, content, config, now))

	result, err := pipeline.Run(context.Background(), Options{
		Day:          3,
		VideoID:      "999",
		ThumbnailID:  "101",
		ForcePublish: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(videos.embedOnly) != 1 || videos.embedOnly[0] != "999" {
		t.Fatalf("embed-only calls = %v, want [999]", videos.embedOnly)
	}
	if len(content.created) != 1 {
		t.Fatalf("created posts = %d, want 1", len(content.created))
	}
	created := content.created[0]
	if created.Status != "publish" {
		t.Fatalf("status = %q, want publish", created.Status)
	}
	if len(created.ClassCategory) != 1 || created.ClassCategory[0] != 7 {
		t.Fatalf("categories = %v, want [7]", created.ClassCategory)
	}
	if !strings.Contains(created.Title, "Cardio") {
		t.Fatalf("title %q missing category name", created.Title)
	}
	if !strings.Contains(created.Title, "4 de Marzo 2026") {
		t.Fatalf("title %q missing current date", created.Title)
	}
	if created.Meta.DayNumber != 3 {
		t.Fatalf("meta day_number = %d, want 3", created.Meta.DayNumber)
	}
	if created.Meta.VideoID != "999" || created.Meta.VideoURL != "https://vimeo.com/999" {
		t.Fatalf("meta video fields wrong: %+v", created.Meta)
	}
	if created.Meta.Trainers != "trainer_1, trainer_2, trainer_3" {
		t.Fatalf("meta trainers = %q", created.Meta.Trainers)
	}
	if created.FeaturedMedia != 101 {
		t.Fatalf("featured media = %d, want 101", created.FeaturedMedia)
	}
	if result.Status != domain.StatusPublish || result.Category.TermID != 7 {
		t.Fatalf("result = %+v", result)
	}
}

func TestRunFailsOnMissingCategoryWithoutContentCalls(t *testing.T) {
	now := time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)
	videos := &fakeVideos{byID: map[string]vimeo.Video{"999": video999()}}
	content := &fakeContent{}
	config := &fakeDayConfigs{entries: map[domain.DayNumber]*domain.DayConfig{
		2: {Trainers: cardioConfig().Trainers}, // entry exists, category missing
	}}
	pipeline := New(testDeps(videos, content, config, now))

	_, err := pipeline.Run(context.Background(), Options{Day: 2, VideoID: "999"})
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("error = %v, want ErrConfiguration", err)
	}
	if content.callCount() != 0 {
		t.Fatalf("content gateway called despite configuration error")
	}
	if len(videos.embedOnly) != 0 {
		t.Fatalf("privacy mutated despite configuration error")
	}
}

func TestRunFailsOnMissingDayEntry(t *testing.T) {
	videos := &fakeVideos{}
	content := &fakeContent{}
	config := &fakeDayConfigs{entries: map[domain.DayNumber]*domain.DayConfig{}}
	pipeline := New(testDeps(videos, content, config, time.Now()))

	_, err := pipeline.Run(context.Background(), Options{Day: 4})
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("error = %v, want ErrConfiguration", err)
	}
	if content.callCount() != 0 {
		t.Fatalf("content gateway called despite missing day entry")
	}
}

func TestRunFailsWhenNoVideosExist(t *testing.T) {
	videos := &fakeVideos{latest: nil}
	content := &fakeContent{}
	config := &fakeDayConfigs{entries: map[domain.DayNumber]*domain.DayConfig{5: cardioConfig()}}
	pipeline := New(testDeps(videos, content, config, time.Date(2026, 3, 6, 9, 0, 0, 0, time.UTC)))

	_, err := pipeline.Run(context.Background(), Options{Day: 5})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if content.callCount() != 0 {
		t.Fatalf("content gateway called despite missing video")
	}
}

func TestRunRoundTripsCategoryAndDayMetadata(t *testing.T) {
	now := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	videos := &fakeVideos{byID: map[string]vimeo.Video{"999": video999()}}
	content := &fakeContent{}
	config := &fakeDayConfigs{entries: map[domain.DayNumber]*domain.DayConfig{3: cardioConfig()}}
	pipeline := New(testDeps(videos, content, config, now))

	result, err := pipeline.Run(context.Background(), Options{Day: 3, VideoID: "999", ForcePublish: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fetched, ok := content.GetPost(result.PostID)
	if !ok {
		t.Fatalf("created post %d not fetchable", result.PostID)
	}
	if len(fetched.ClassCategory) != 1 || fetched.ClassCategory[0] != result.Category.TermID {
		t.Fatalf("category did not round-trip: %v vs %d", fetched.ClassCategory, result.Category.TermID)
	}
	if day, _ := fetched.ACF["day_number"].(int); day != int(result.Day) {
		t.Fatalf("day_number did not round-trip: %v vs %d", fetched.ACF["day_number"], result.Day)
	}
}

func TestRunSingleFlight(t *testing.T) {
	now := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	block := make(chan struct{})
	videos := &fakeVideos{byID: map[string]vimeo.Video{"999": video999()}, block: block}
	content := &fakeContent{}
	config := &fakeDayConfigs{entries: map[domain.DayNumber]*domain.DayConfig{3: cardioConfig()}}
	pipeline := New(testDeps(videos, content, config, now))

	firstDone := make(chan error, 1)
	go func() {
		_, err := pipeline.Run(context.Background(), Options{Day: 3, VideoID: "999"})
		firstDone <- err
	}()

	// Wait until the first run is inside the video fetch.
	for videos.callCount() == 0 {
		time.Sleep(time.Millisecond)
	}

	_, err := pipeline.Run(context.Background(), Options{Day: 3, VideoID: "999"})
	if !errors.Is(err, domain.ErrRunInProgress) {
		t.Fatalf("concurrent run error = %v, want ErrRunInProgress", err)
	}

	close(block)
	if err := <-firstDone; err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if content.callCount() != 1 {
		t.Fatalf("created posts = %d, want 1", content.callCount())
	}
}

type recordingHistory struct {
	mu      sync.Mutex
	records []domain.RunRecord
}

func (r *recordingHistory) RecordRun(ctx context.Context, record domain.RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return nil
}

func TestRunRecordsHistory(t *testing.T) {
	now := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	videos := &fakeVideos{byID: map[string]vimeo.Video{"999": video999()}}
	content := &fakeContent{}
	config := &fakeDayConfigs{entries: map[domain.DayNumber]*domain.DayConfig{3: cardioConfig()}}
	recorder := &recordingHistory{}

	deps := testDeps(videos, content, config, now)
	deps.History = recorder
	pipeline := New(deps)

	if _, err := pipeline.Run(context.Background(), Options{Day: 3, VideoID: "999"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := pipeline.Run(context.Background(), Options{Day: 9}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation failure, got %v", err)
	}

	if len(recorder.records) != 2 {
		t.Fatalf("recorded runs = %d, want 2", len(recorder.records))
	}
	if recorder.records[0].Status != domain.RunSucceeded || recorder.records[0].PostID == 0 {
		t.Fatalf("first record = %+v", recorder.records[0])
	}
	if recorder.records[1].Status != domain.RunFailed || recorder.records[1].Error == "" {
		t.Fatalf("second record = %+v", recorder.records[1])
	}
}

func ptr(v vimeo.Video) *vimeo.Video {
	return &v
}
