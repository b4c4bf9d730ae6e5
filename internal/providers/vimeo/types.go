package vimeo

import "strings"

// Video is an immutable snapshot of one Vimeo video for the duration of a
// pipeline run.
type Video struct {
	URI          string   `json:"uri"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Link         string   `json:"link"`
	Duration     int      `json:"duration"`
	Width        int      `json:"width"`
	Height       int      `json:"height"`
	Embed        Embed    `json:"embed"`
	CreatedTime  string   `json:"created_time"`
	ModifiedTime string   `json:"modified_time"`
	Privacy      Privacy  `json:"privacy"`
	Pictures     Pictures `json:"pictures"`
}

// ID extracts the numeric video id from the resource URI ("/videos/123").
func (v Video) ID() string {
	parts := strings.Split(v.URI, "/")
	return parts[len(parts)-1]
}

// Embed carries the embeddable markup Vimeo renders for the video.
type Embed struct {
	HTML string `json:"html"`
}

// Privacy is the canonical privacy state of a video.
type Privacy struct {
	View     string `json:"view"`
	Embed    string `json:"embed"`
	Download bool   `json:"download"`
	Comments string `json:"comments"`
}

// Pictures lists the thumbnail renditions of a video.
type Pictures struct {
	Sizes []PictureSize `json:"sizes"`
}

// PictureSize is a single thumbnail rendition.
type PictureSize struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Link   string `json:"link"`
}

// VideoFilters narrows a listing request.
type VideoFilters struct {
	Page             int
	PerPage          int
	Query            string
	Sort             string
	Direction        string
	FilterEmbeddable bool
}

// VideoPage is one page of a listing response.
type VideoPage struct {
	Total   int     `json:"total"`
	Page    int     `json:"page"`
	PerPage int     `json:"per_page"`
	Data    []Video `json:"data"`
}

// PrivacyUpdate is a partial privacy mutation.
type PrivacyUpdate struct {
	View     string `json:"view,omitempty"`
	Embed    string `json:"embed,omitempty"`
	Download *bool  `json:"download,omitempty"`
	Add      *bool  `json:"add,omitempty"`
	Comments string `json:"comments,omitempty"`
}

// VideoUpdate is the PATCH payload for a video resource.
type VideoUpdate struct {
	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	Privacy     *PrivacyUpdate `json:"privacy,omitempty"`
}
