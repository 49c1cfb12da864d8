package v1beta1

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/goto/salt/log"

	"github.com/goto/changelogger/core/changelog"
	"github.com/goto/changelogger/core/changelog/service"
	"github.com/goto/changelogger/internal/errors"
)

const maxRequestBodyBytes = 8 << 20

type ComparisonService interface {
	Compare(ctx context.Context, req service.CompareRequest) (*changelog.ComparisonResult, error)
}

type ChangelogService interface {
	Publish(ctx context.Context, entry *changelog.Entry, files []*changelog.FileChange) error
	GetPublished(ctx context.Context, owner, repo, term string) ([]*changelog.Entry, error)
}

type ChangelogHandler struct {
	l          log.Logger
	comparison ComparisonService
	changelogs ChangelogService
}

type publishRequest struct {
	Owner       string                  `json:"owner"`
	Repo        string                  `json:"repo"`
	Version     string                  `json:"version"`
	Content     string                  `json:"content"`
	Files       []*changelog.FileChange `json:"files"`
	Changes     []changelog.Change      `json:"changes"`
	IsPublished bool                    `json:"isPublished"`
	Date        time.Time               `json:"date"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Register adds the changelog routes to mux.
func (h *ChangelogHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/compare", h.Compare)
	mux.HandleFunc("POST /api/changelog", h.Publish)
	mux.HandleFunc("GET /api/changelog/{owner}/{repo}", h.ListPublished)
}

// Compare compares two refs of a repository and returns the changed files with a generated changelog.
func (h *ChangelogHandler) Compare(w http.ResponseWriter, r *http.Request) {
	var req service.CompareRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.l.Error("error decoding compare request", "error", err.Error())
		h.writeError(w, err, "unable to compare refs")
		return
	}

	result, err := h.comparison.Compare(r.Context(), req)
	if err != nil {
		h.l.Error("error comparing refs", "owner", req.Owner, "repo", req.Repo, "base", req.BaseRef, "head", req.HeadRef, "error", err.Error())
		h.writeError(w, err, "unable to compare refs")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Publish stores a changelog entry, replacing the one with the same version.
func (h *ChangelogHandler) Publish(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.l.Error("error decoding publish request", "error", err.Error())
		h.writeError(w, err, "unable to publish changelog")
		return
	}

	for _, file := range req.Files {
		if err := file.Validate(); err != nil {
			h.l.Error("error validating changed file", "error", err.Error())
			h.writeError(w, err, "unable to publish changelog")
			return
		}
	}

	entry := &changelog.Entry{
		Owner:       req.Owner,
		Repo:        req.Repo,
		Version:     req.Version,
		Content:     req.Content,
		Changes:     req.Changes,
		IsPublished: req.IsPublished,
		Date:        req.Date,
	}
	if err := h.changelogs.Publish(r.Context(), entry, req.Files); err != nil {
		h.l.Error("error publishing changelog", "owner", req.Owner, "repo", req.Repo, "version", req.Version, "error", err.Error())
		h.writeError(w, err, "unable to publish changelog")
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

// ListPublished returns the published entries of a repository, newest first, as a bare JSON array.
func (h *ChangelogHandler) ListPublished(w http.ResponseWriter, r *http.Request) {
	owner, repo := r.PathValue("owner"), r.PathValue("repo")

	entries, err := h.changelogs.GetPublished(r.Context(), owner, repo, r.URL.Query().Get("q"))
	if err != nil {
		h.l.Error("error getting changelogs", "owner", owner, "repo", repo, "error", err.Error())
		h.writeError(w, err, "unable to get changelogs")
		return
	}

	if entries == nil {
		entries = []*changelog.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *ChangelogHandler) writeError(w http.ResponseWriter, err error, msg string) {
	status := errors.HTTPStatus(err)
	message := msg + ": " + err.Error()
	if status >= http.StatusInternalServerError {
		// internal details stay in the logs
		message = msg
	}
	writeJSON(w, status, errorResponse{Error: message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return errors.InvalidArgument(changelog.EntityChangelog, "invalid request body: "+err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func NewChangelogHandler(l log.Logger, comparison ComparisonService, changelogs ChangelogService) *ChangelogHandler {
	return &ChangelogHandler{
		l:          l,
		comparison: comparison,
		changelogs: changelogs,
	}
}
