package vimeo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"classpublisher/internal/domain"
	"classpublisher/internal/infra"
)

// ErrMissingAccessToken indicates that the client was configured without credentials.
var ErrMissingAccessToken = errors.New("vimeo: access token is required")

// Options configures the Vimeo API client.
type Options struct {
	AccessToken    string
	BaseURL        string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls against the Vimeo REST API.
type Client struct {
	accessToken string
	baseURL     string
	httpClient  *http.Client
	logger      *infra.Logger
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.AccessToken) == "" {
		return nil, ErrMissingAccessToken
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.vimeo.com"
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		accessToken: strings.TrimSpace(opts.AccessToken),
		baseURL:     baseURL,
		httpClient:  httpClient,
		logger:      logger,
	}, nil
}

// GetVideos lists the account's videos with the given filters applied.
func (c *Client) GetVideos(ctx context.Context, filters VideoFilters) (*VideoPage, error) {
	q := url.Values{}
	if filters.Page > 0 {
		q.Set("page", strconv.Itoa(filters.Page))
	}
	if filters.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(filters.PerPage))
	}
	if filters.Query != "" {
		q.Set("query", filters.Query)
	}
	if filters.Sort != "" {
		q.Set("sort", filters.Sort)
	}
	if filters.Direction != "" {
		q.Set("direction", filters.Direction)
	}
	if filters.FilterEmbeddable {
		q.Set("filter_embeddable", "true")
	}

	var page VideoPage
	if err := c.do(ctx, http.MethodGet, "/me/videos", q, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetLatestVideo returns the most recently created video, or nil when the
// account has none.
func (c *Client) GetLatestVideo(ctx context.Context) (*Video, error) {
	page, err := c.GetVideos(ctx, VideoFilters{
		PerPage:   1,
		Sort:      "date",
		Direction: "desc",
	})
	if err != nil {
		return nil, err
	}
	if len(page.Data) == 0 {
		return nil, nil
	}
	return &page.Data[0], nil
}

// GetVideoByID fetches a single video by its numeric id.
func (c *Client) GetVideoByID(ctx context.Context, videoID string) (*Video, error) {
	var video Video
	if err := c.do(ctx, http.MethodGet, "/videos/"+url.PathEscape(videoID), nil, nil, &video); err != nil {
		return nil, err
	}
	return &video, nil
}

// UpdateVideoPrivacy applies a partial update to the video resource.
func (c *Client) UpdateVideoPrivacy(ctx context.Context, videoID string, update VideoUpdate) (*Video, error) {
	var video Video
	if err := c.do(ctx, http.MethodPatch, "/videos/"+url.PathEscape(videoID), nil, update, &video); err != nil {
		return nil, err
	}
	c.logger.Debug().Str("video_id", videoID).Msg("vimeo: privacy updated")
	return &video, nil
}

// SetVideoEmbedOnly restricts the video to embedded playback: no public
// view, no download, comments disabled.
func (c *Client) SetVideoEmbedOnly(ctx context.Context, videoID string) (*Video, error) {
	no := false
	return c.UpdateVideoPrivacy(ctx, videoID, VideoUpdate{
		Privacy: &PrivacyUpdate{
			View:     "disable",
			Embed:    "whitelist",
			Download: &no,
			Add:      &no,
			Comments: "nobody",
		},
	})
}

// SetVideoPublic reopens public viewing while keeping downloads and
// comments off.
func (c *Client) SetVideoPublic(ctx context.Context, videoID string) (*Video, error) {
	no := false
	return c.UpdateVideoPrivacy(ctx, videoID, VideoUpdate{
		Privacy: &PrivacyUpdate{
			View:     "anybody",
			Embed:    "public",
			Download: &no,
			Add:      &no,
			Comments: "nobody",
		},
	})
}

// IsVideoEmbedOnly reports whether the video is already in the restricted
// embed-only state.
func (c *Client) IsVideoEmbedOnly(ctx context.Context, videoID string) (bool, error) {
	video, err := c.GetVideoByID(ctx, videoID)
	if err != nil {
		return false, err
	}
	return video.Privacy.View == "disable" && video.Privacy.Embed == "whitelist", nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("vimeo: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("vimeo: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/vnd.vimeo.*+json;version=3.4")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: vimeo %s %s: %v", domain.ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("vimeo: read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return domain.NotFoundError("vimeo: %s", path)
	}
	if resp.StatusCode >= 300 {
		c.logger.Error().Int("status", resp.StatusCode).Str("path", path).Msg("vimeo: request failed")
		return domain.TransportError("vimeo "+method+" "+path, resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("vimeo: decode response: %w", err)
		}
	}
	return nil
}
