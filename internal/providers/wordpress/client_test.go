package wordpress

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"classpublisher/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Options{
		BaseURL:     server.URL,
		Username:    "publisher",
		Password:    "app-password",
		PostType:    "clases",
		OptionsSlug: "clases-config",
		HTTPClient:  server.Client(),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func optionsFixture() map[string]any {
	return map[string]any{
		"acf": map[string]any{
			"config_day_3": map[string]any{
				"category": map[string]any{"term_id": 7, "name": "Cardio", "slug": "cardio"},
				"trainers": map[string]any{
					"trainer_1": map[string]any{"image_1": 101, "image_2": 102},
				},
			},
		},
	}
}

func TestDayConfigResolvesConfiguredDay(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wp-json/acf/v3/options/clases-config" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(optionsFixture())
	})

	cfg, err := client.DayConfig(context.Background(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Category == nil || cfg.Category.Name != "Cardio" || cfg.Category.TermID != 7 {
		t.Fatalf("category = %+v", cfg.Category)
	}
	slot, ok := cfg.Trainers.Slot("trainer_1")
	if !ok || slot.ImagePrimary != 101 || slot.ImageSecondary != 102 {
		t.Fatalf("trainer slot = %+v", slot)
	}
}

func TestDayConfigMissingDayIsConfigurationError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(optionsFixture())
	})

	_, err := client.DayConfig(context.Background(), 5)
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("error = %v, want ErrConfiguration", err)
	}
}

func TestGetOptionsConfigWithoutACFPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"acf": nil})
	})

	_, err := client.GetOptionsConfig(context.Background())
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("error = %v, want ErrConfiguration", err)
	}
}

func TestCreatePostSendsTypeAndAuth(t *testing.T) {
	var body map[string]any
	var auth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/wp-json/wp/v2/clases" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		_ = json.NewEncoder(w).Encode(Post{ID: 321, Status: "publish"})
	})

	post, err := client.CreatePost(context.Background(), CreatePostData{
		Title:         "Cardio - 4 de Marzo 2026",
		Status:        "publish",
		ClassCategory: []int{7},
		Meta:          PostMeta{VideoID: "999", DayNumber: 3},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if post.ID != 321 {
		t.Fatalf("post id = %d", post.ID)
	}
	if body["type"] != "clases" {
		t.Fatalf("type = %v, want clases", body["type"])
	}
	if body["status"] != "publish" {
		t.Fatalf("status = %v", body["status"])
	}
	if auth == "" || auth[:6] != "Basic " {
		t.Fatalf("authorization = %q", auth)
	}
	acf, _ := body["acf"].(map[string]any)
	if acf["video_id"] != "999" {
		t.Fatalf("acf payload = %v", acf)
	}
}

func TestListRecentPostsQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("per_page") != "5" || q.Get("orderby") != "date" || q.Get("order") != "desc" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode([]Post{
			{ID: 2, Title: RenderedField{Rendered: "Piernas - 3 de Marzo 2026"}},
			{ID: 1, Title: RenderedField{Rendered: "Cardio - 2 de Marzo 2026"}},
		})
	})

	posts, err := client.ListRecentPosts(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(posts) != 2 || posts[0].ID != 2 {
		t.Fatalf("posts = %+v", posts)
	}
}

func TestDeletePostForcesRemoval(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/wp-json/wp/v2/clases/321" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(map[string]any{"deleted": true})
	})

	if err := client.DeletePost(context.Background(), 321); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuery != "force=true" {
		t.Fatalf("query = %q", gotQuery)
	}
}

func TestGetPostNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetPost(context.Background(), 9999)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestUnreachableSiteIsTransportError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.DayConfig(context.Background(), 3)
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("error = %v, want ErrTransport", err)
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(Options{BaseURL: "https://example.com"})
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("error = %v, want ErrMissingCredentials", err)
	}
}
