package ops

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"classpublisher/internal/domain"
	"classpublisher/internal/infra"
)

// InteractionStatus exposes the broker's outstanding request kinds.
type InteractionStatus interface {
	PendingKinds() []string
}

// RunReader lists recent publish-run records.
type RunReader interface {
	RecentRuns(ctx context.Context, n int) ([]domain.RunRecord, error)
}

// App is the ops handler container.
type App struct {
	status    InteractionStatus
	runs      RunReader
	logger    infra.Logger
	startedAt time.Time
}

// NewApp constructs the container. runs may be nil when the history store
// is disabled.
func NewApp(status InteractionStatus, runs RunReader, logger infra.Logger) *App {
	return &App{
		status:    status,
		runs:      runs,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Health reports liveness.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Status reports uptime and the interaction kinds awaiting an answer.
func (a *App) Status(w http.ResponseWriter, r *http.Request) {
	pending := []string{}
	if a.status != nil {
		pending = a.status.PendingKinds()
	}
	a.json(w, http.StatusOK, map[string]any{
		"uptime_seconds":       int(time.Since(a.startedAt).Seconds()),
		"pending_interactions": pending,
		"history_enabled":      a.runs != nil,
	})
}

// Runs lists recent publish runs from the history store.
func (a *App) Runs(w http.ResponseWriter, r *http.Request) {
	if a.runs == nil {
		a.json(w, http.StatusNotFound, map[string]string{"error": "history store disabled"})
		return
	}
	n := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 100 {
			n = parsed
		}
	}
	records, err := a.runs.RecentRuns(r.Context(), n)
	if err != nil {
		a.logger.Error().Err(err).Msg("ops: list runs failed")
		a.json(w, http.StatusInternalServerError, map[string]string{"error": "failed to list runs"})
		return
	}
	type runView struct {
		ID         string `json:"id"`
		Day        int    `json:"day_number"`
		VideoID    string `json:"video_id"`
		PostID     int    `json:"post_id,omitempty"`
		Status     string `json:"status"`
		Error      string `json:"error,omitempty"`
		StartedAt  string `json:"started_at"`
		FinishedAt string `json:"finished_at"`
	}
	views := make([]runView, 0, len(records))
	for _, record := range records {
		views = append(views, runView{
			ID:         record.ID,
			Day:        int(record.Day),
			VideoID:    record.VideoID,
			PostID:     record.PostID,
			Status:     string(record.Status),
			Error:      record.Error,
			StartedAt:  record.StartedAt.Format(time.RFC3339),
			FinishedAt: record.FinishedAt.Format(time.RFC3339),
		})
	}
	a.json(w, http.StatusOK, map[string]any{"runs": views})
}

func (a *App) json(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.logger.Warn().Err(err).Msg("ops: encode response failed")
	}
}
