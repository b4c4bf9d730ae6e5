package wordpress

import "classpublisher/internal/domain"

// RenderedField is WordPress's rendered-content envelope.
type RenderedField struct {
	Rendered string `json:"rendered"`
}

// Post is a post resource of the configured custom post type.
type Post struct {
	ID            int            `json:"id"`
	Date          string         `json:"date"`
	Slug          string         `json:"slug"`
	Status        string         `json:"status"`
	Type          string         `json:"type"`
	Link          string         `json:"link"`
	Title         RenderedField  `json:"title"`
	Content       RenderedField  `json:"content"`
	FeaturedMedia int            `json:"featured_media"`
	ClassCategory []int          `json:"categoria_de_clase_grabada"`
	ACF           map[string]any `json:"acf"`
}

// PostMeta is the structured metadata block attached to a created post.
type PostMeta struct {
	VideoID       string `json:"video_id"`
	VideoURL      string `json:"video_url"`
	VideoDuration int    `json:"video_duration"`
	DayNumber     int    `json:"day_number"`
	Trainers      string `json:"trainers"`
}

// CreatePostData is the payload for creating or updating a post.
type CreatePostData struct {
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Status        string   `json:"status"`
	ClassCategory []int    `json:"categoria_de_clase_grabada"`
	FeaturedMedia int      `json:"featured_media,omitempty"`
	Meta          PostMeta `json:"acf"`
}

// CategoryTerm is a taxonomy term resource.
type CategoryTerm struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// OptionsConfig is the day-indexed configuration blob stored on the
// content site's options page.
type OptionsConfig struct {
	Day1 *domain.DayConfig `json:"config_day_1"`
	Day2 *domain.DayConfig `json:"config_day_2"`
	Day3 *domain.DayConfig `json:"config_day_3"`
	Day4 *domain.DayConfig `json:"config_day_4"`
	Day5 *domain.DayConfig `json:"config_day_5"`
	Day6 *domain.DayConfig `json:"config_day_6"`
}

// Day resolves the entry for a DayNumber; nil when absent.
func (o OptionsConfig) Day(day domain.DayNumber) *domain.DayConfig {
	switch day {
	case 1:
		return o.Day1
	case 2:
		return o.Day2
	case 3:
		return o.Day3
	case 4:
		return o.Day4
	case 5:
		return o.Day5
	case 6:
		return o.Day6
	}
	return nil
}
