package wordpress

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"classpublisher/internal/domain"
	"classpublisher/internal/infra"
)

// ErrMissingCredentials indicates an unusable client configuration.
var ErrMissingCredentials = errors.New("wordpress: url, username and password are required")

// Options configures the WordPress REST client.
type Options struct {
	BaseURL        string
	Username       string
	Password       string
	PostType       string
	OptionsSlug    string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls against the WordPress REST API using basic
// auth. It doubles as the pipeline's config provider: the day-indexed
// publishing configuration lives on an ACF options page of the same site.
type Client struct {
	baseURL     string
	authHeader  string
	postType    string
	optionsSlug string
	httpClient  *http.Client
	logger      *infra.Logger
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" || opts.Username == "" || opts.Password == "" {
		return nil, ErrMissingCredentials
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	postType := opts.PostType
	if postType == "" {
		postType = "posts"
	}
	optionsSlug := opts.OptionsSlug
	if optionsSlug == "" {
		optionsSlug = "options"
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	creds := base64.StdEncoding.EncodeToString([]byte(opts.Username + ":" + opts.Password))
	return &Client{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		authHeader:  "Basic " + creds,
		postType:    postType,
		optionsSlug: optionsSlug,
		httpClient:  httpClient,
		logger:      logger,
	}, nil
}

type optionsEnvelope struct {
	ACF *OptionsConfig `json:"acf"`
}

// GetOptionsConfig fetches the full day-indexed configuration blob.
func (c *Client) GetOptionsConfig(ctx context.Context) (*OptionsConfig, error) {
	var envelope optionsEnvelope
	path := "/wp-json/acf/v3/options/" + url.PathEscape(c.optionsSlug)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &envelope); err != nil {
		return nil, err
	}
	if envelope.ACF == nil {
		return nil, domain.ConfigurationError("options page %q has no acf payload", c.optionsSlug)
	}
	return envelope.ACF, nil
}

// DayConfig resolves the configuration entry for one day. An unreachable
// site surfaces as a transport error; an absent day entry as a
// configuration error. Category completeness is the caller's check.
func (c *Client) DayConfig(ctx context.Context, day domain.DayNumber) (*domain.DayConfig, error) {
	cfg, err := c.GetOptionsConfig(ctx)
	if err != nil {
		return nil, err
	}
	entry := cfg.Day(day)
	if entry == nil {
		return nil, domain.ConfigurationError("no configuration entry for day %d", day)
	}
	return entry, nil
}

// CreatePost creates a post of the configured custom post type.
func (c *Client) CreatePost(ctx context.Context, data CreatePostData) (*Post, error) {
	payload := struct {
		CreatePostData
		Type string `json:"type"`
	}{CreatePostData: data, Type: c.postType}

	var post Post
	if err := c.doJSON(ctx, http.MethodPost, c.postPath(""), payload, &post); err != nil {
		return nil, err
	}
	c.logger.Info().Int("post_id", post.ID).Str("status", post.Status).Msg("wordpress: post created")
	return &post, nil
}

// UpdatePost applies a partial update to an existing post.
func (c *Client) UpdatePost(ctx context.Context, postID int, data CreatePostData) (*Post, error) {
	payload := struct {
		CreatePostData
		Type string `json:"type"`
	}{CreatePostData: data, Type: c.postType}

	var post Post
	if err := c.doJSON(ctx, http.MethodPost, c.postPath(strconv.Itoa(postID)), payload, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// PublishPost flips an existing post to published.
func (c *Client) PublishPost(ctx context.Context, postID int) (*Post, error) {
	var post Post
	payload := map[string]string{"status": "publish"}
	if err := c.doJSON(ctx, http.MethodPost, c.postPath(strconv.Itoa(postID)), payload, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// GetPost fetches one post by id.
func (c *Client) GetPost(ctx context.Context, postID int) (*Post, error) {
	var post Post
	if err := c.doJSON(ctx, http.MethodGet, c.postPath(strconv.Itoa(postID)), nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// DeletePost removes a post permanently.
func (c *Client) DeletePost(ctx context.Context, postID int) error {
	path := c.postPath(strconv.Itoa(postID)) + "?force=true"
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// ListRecentPosts returns the newest n posts, newest first.
func (c *Client) ListRecentPosts(ctx context.Context, n int) ([]Post, error) {
	if n <= 0 {
		n = 5
	}
	q := url.Values{}
	q.Set("per_page", strconv.Itoa(n))
	q.Set("orderby", "date")
	q.Set("order", "desc")

	var posts []Post
	if err := c.doJSON(ctx, http.MethodGet, c.postPath("")+"?"+q.Encode(), nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetCategory fetches a taxonomy term by id.
func (c *Client) GetCategory(ctx context.Context, categoryID int) (*CategoryTerm, error) {
	var term CategoryTerm
	path := "/wp-json/wp/v2/categories/" + strconv.Itoa(categoryID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &term); err != nil {
		return nil, err
	}
	return &term, nil
}

// UploadMediaFromURL downloads an image and uploads it to the media
// library, returning the new attachment id.
func (c *Client) UploadMediaFromURL(ctx context.Context, imageURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return 0, fmt.Errorf("wordpress: build download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: download image: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return 0, domain.TransportError("download image", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("wordpress: read image: %w", err)
	}

	filename := "image.jpg"
	if parts := strings.Split(imageURL, "/"); len(parts) > 0 && parts[len(parts)-1] != "" {
		filename = parts[len(parts)-1]
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return 0, fmt.Errorf("wordpress: build form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return 0, fmt.Errorf("wordpress: write form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return 0, fmt.Errorf("wordpress: close form: %w", err)
	}

	uploadReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/wp-json/wp/v2/media", &buf)
	if err != nil {
		return 0, fmt.Errorf("wordpress: build upload request: %w", err)
	}
	uploadReq.Header.Set("Authorization", c.authHeader)
	uploadReq.Header.Set("Content-Type", writer.FormDataContentType())
	uploadReq.Header.Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	uploadResp, err := c.httpClient.Do(uploadReq)
	if err != nil {
		return 0, fmt.Errorf("%w: upload media: %v", domain.ErrTransport, err)
	}
	defer uploadResp.Body.Close()
	raw, err := io.ReadAll(uploadResp.Body)
	if err != nil {
		return 0, fmt.Errorf("wordpress: read upload response: %w", err)
	}
	if uploadResp.StatusCode >= 300 {
		return 0, domain.TransportError("upload media", uploadResp.StatusCode)
	}

	var media struct {
		ID int `json:"id"`
	}
	if err := json.Unmarshal(raw, &media); err != nil {
		return 0, fmt.Errorf("wordpress: decode upload response: %w", err)
	}
	return media.ID, nil
}

func (c *Client) postPath(id string) string {
	path := "/wp-json/wp/v2/" + url.PathEscape(c.postType)
	if id != "" {
		path += "/" + id
	}
	return path
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("wordpress: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("wordpress: build request: %w", err)
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: wordpress %s %s: %v", domain.ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("wordpress: read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return domain.NotFoundError("wordpress: %s", path)
	}
	if resp.StatusCode >= 300 {
		c.logger.Error().Int("status", resp.StatusCode).Str("path", path).Msg("wordpress: request failed")
		return domain.TransportError("wordpress "+method+" "+path, resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("wordpress: decode response: %w", err)
		}
	}
	return nil
}
