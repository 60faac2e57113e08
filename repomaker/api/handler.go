package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	gocache "github.com/patrickmn/go-cache"
	"github.com/repoforge/repomaker/repomaker/loader"
	"github.com/repoforge/repomaker/repomaker/repo"
	"github.com/repoforge/repomaker/repomaker/schema"
	"github.com/repoforge/repomaker/repomaker/store"
	"github.com/repoforge/repomaker/repomaker/tasks"
	"github.com/sirupsen/logrus"
)

// PublishFunc runs a publish of one repo to all of its storages.
type PublishFunc func(ctx context.Context, repoName string) (*repo.PublishResult, error)

type Handler struct {
	store     *store.Store
	file      *schema.File
	queue     *tasks.Queue
	Scheduler *tasks.Scheduler
	publish   PublishFunc
	logger    *logrus.Logger
	cache     *gocache.Cache
}

func NewHandler(st *store.Store, file *schema.File, queue *tasks.Queue, scheduler *tasks.Scheduler, publish PublishFunc, logger *logrus.Logger) *Handler {
	return &Handler{
		store:     st,
		file:      file,
		queue:     queue,
		Scheduler: scheduler,
		publish:   publish,
		logger:    logger,
		cache:     gocache.New(30*time.Second, time.Minute),
	}
}

type repoResponse struct {
	Name            string   `json:"name"`
	DisplayName     string   `json:"display_name"`
	URL             string   `json:"url"`
	Fingerprint     string   `json:"fingerprint"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at,omitempty"`
	PublishedAt     string   `json:"published_at,omitempty"`
	UpdateScheduled bool     `json:"update_scheduled"`
	IsUpdating      bool     `json:"is_updating"`
	Storages        []string `json:"storages"`
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListRepos(w http.ResponseWriter, r *http.Request) {
	if cached, ok := h.cache.Get("repos"); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	records, err := h.store.ListRepos()
	if err != nil {
		h.serverError(w, "failed to list repos", err)
		return
	}

	repos := make([]repoResponse, 0, len(records))
	for _, rec := range records {
		repos = append(repos, h.repoResponse(rec))
	}

	h.cache.Set("repos", repos, gocache.DefaultExpiration)
	writeJSON(w, http.StatusOK, repos)
}

func (h *Handler) GetRepo(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	rec, err := h.store.GetRepo(name)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "repo not found")
		return
	}
	if err != nil {
		h.serverError(w, "failed to load repo", err)
		return
	}

	writeJSON(w, http.StatusOK, h.repoResponse(*rec))
}

func (h *Handler) TriggerUpdate(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	scheduled, err := h.queue.Enqueue(name)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "repo not found")
		return
	}
	if err != nil {
		h.serverError(w, "failed to schedule update", err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"repo":      name,
		"scheduled": scheduled,
	})
}

func (h *Handler) TriggerPublish(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	rec, err := h.store.GetRepo(name)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "repo not found")
		return
	} else if err != nil {
		h.serverError(w, "failed to load repo", err)
		return
	}
	if rec.IsUpdating {
		writeError(w, http.StatusConflict, "update in progress")
		return
	}

	result, err := h.publish(r.Context(), name)
	if errors.Is(err, repo.ErrUpdateInProgress) {
		writeError(w, http.StatusConflict, "update in progress")
		return
	}
	if err != nil {
		resp := map[string]any{"repo": name, "error": err.Error()}
		if result != nil {
			resp["run_id"] = result.RunID
			resp["failed_storage"] = result.FailedStorage
		}
		writeJSON(w, http.StatusBadGateway, resp)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"repo":     name,
		"run_id":   result.RunID,
		"duration": result.EndTime.Sub(result.StartTime).String(),
	})
}

func (h *Handler) ListApps(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if _, err := h.store.GetRepo(name); errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "repo not found")
		return
	} else if err != nil {
		h.serverError(w, "failed to load repo", err)
		return
	}

	apps, err := h.store.AppsForRepo(name)
	if err != nil {
		h.serverError(w, "failed to list apps", err)
		return
	}

	list := make([]store.AppRecord, 0, len(apps))
	for _, app := range apps {
		list = append(list, app)
	}
	writeJSON(w, http.StatusOK, list)
}

// PutApp creates or replaces curated metadata for one app. The merged
// metadata shows up in the index on the next update.
func (h *Handler) PutApp(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	name, packageID := vars["name"], vars["package_id"]

	if _, err := h.store.GetRepo(name); errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "repo not found")
		return
	} else if err != nil {
		h.serverError(w, "failed to load repo", err)
		return
	}

	var body struct {
		Name        string `json:"name"`
		Summary     string `json:"summary"`
		Description string `json:"description"`
		Category    string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec := store.AppRecord{
		Repo:        name,
		PackageID:   packageID,
		Name:        body.Name,
		Summary:     body.Summary,
		Description: body.Description,
		Category:    body.Category,
	}
	if err := h.store.UpsertApp(rec); err != nil {
		h.serverError(w, "failed to store app metadata", err)
		return
	}

	apps, err := h.store.AppsForRepo(name)
	if err != nil {
		h.serverError(w, "failed to load app metadata", err)
		return
	}
	writeJSON(w, http.StatusOK, apps[packageID])
}

// DeleteApp removes curated metadata for one app.
func (h *Handler) DeleteApp(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	name, packageID := vars["name"], vars["package_id"]

	if _, err := h.store.GetRepo(name); errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "repo not found")
		return
	} else if err != nil {
		h.serverError(w, "failed to load repo", err)
		return
	}

	err := h.store.DeleteApp(name, packageID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "app not found")
		return
	}
	if err != nil {
		h.serverError(w, "failed to delete app metadata", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListStorages(w http.ResponseWriter, r *http.Request) {
	type storageResponse struct {
		Name  string   `json:"name"`
		Type  string   `json:"type"`
		Repos []string `json:"repos"`
	}

	storages := make([]storageResponse, 0, len(h.file.Storages))
	for name, cfg := range h.file.Storages {
		storages = append(storages, storageResponse{
			Name:  name,
			Type:  cfg.Type,
			Repos: cfg.Repos,
		})
	}
	writeJSON(w, http.StatusOK, storages)
}

func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Scheduler.Jobs())
}

func (h *Handler) repoResponse(rec store.RepoRecord) repoResponse {
	resp := repoResponse{
		Name:            rec.Name,
		Fingerprint:     rec.Fingerprint,
		CreatedAt:       rec.CreatedAt.Format(time.RFC3339),
		UpdateScheduled: rec.UpdateScheduled,
		IsUpdating:      rec.IsUpdating,
		Storages:        loader.StoragesForRepo(h.file, rec.Name),
	}
	if cfg, ok := h.file.Repos[rec.Name]; ok {
		resp.DisplayName = cfg.Name
		resp.URL = cfg.URL
	}
	if !rec.UpdatedAt.IsZero() {
		resp.UpdatedAt = rec.UpdatedAt.Format(time.RFC3339)
	}
	if !rec.PublishedAt.IsZero() {
		resp.PublishedAt = rec.PublishedAt.Format(time.RFC3339)
	}
	return resp
}

func (h *Handler) serverError(w http.ResponseWriter, msg string, err error) {
	h.logger.Errorf("%s: %v", msg, err)
	writeError(w, http.StatusInternalServerError, msg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
