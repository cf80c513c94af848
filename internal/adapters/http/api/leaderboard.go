package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	service "github.com/okian/podium/internal/app"
	"github.com/okian/podium/pkg/logger"
)

const maxBodyBytes = 1 << 16

// LeaderboardDependencies defines the interface for leaderboard operations.
type LeaderboardDependencies interface {
	SubmitRequest(ctx context.Context, sub service.Submission) (Entry, error)
	Category(ctx context.Context, category string) ([]Entry, error)
	Unified(ctx context.Context) ([]Entry, error)
}

// submitRequest mirrors the body of POST /leaderboard.
type submitRequest struct {
	Name       string   `json:"name"`
	Score      *float64 `json:"score"`
	Difficulty string   `json:"difficulty"`
}

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps   LeaderboardDependencies
	logger logger.Logger
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies, log logger.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps, logger: log}
}

// HandleLeaderboard dispatches /leaderboard by method.
func (h *LeaderboardHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handlePost(w, r)
	case http.MethodGet:
		h.handleGet(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		err := NewKind("api.leaderboard", ErrMethodNotAllowed)
		h.logger.Debug(r.Context(), "rejected method", logger.String("method", r.Method), logger.Error(err))
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handlePost handles POST /leaderboard.
func (h *LeaderboardHandler) handlePost(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_leaderboard"
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	var req submitRequest
	if err := dec.Decode(&req); err != nil {
		h.logger.Debug(ctx, "malformed submission", logger.Error(WrapKind(op, ErrBadRequest, err)))
		writeError(w, http.StatusBadRequest, decodeMessage(err))
		return
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		h.logger.Debug(ctx, "trailing data after submission", logger.Error(NewKind(op, ErrBadRequest)))
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	entry, err := h.deps.SubmitRequest(ctx, service.Submission{
		Name:     req.Name,
		Score:    req.Score,
		Category: req.Difficulty,
	})
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, submitResponse{Success: true, Data: entry})
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, clientMessage(err))
	default:
		h.logger.Error(ctx, "failed to save score", logger.Error(Wrap(op, err)))
		writeError(w, http.StatusInternalServerError, "failed to save score")
	}
}

// handleGet handles GET /leaderboard and GET /leaderboard?difficulty=x.
func (h *LeaderboardHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	ctx := r.Context()

	var (
		entries []Entry
		err     error
	)
	if difficulty := r.URL.Query().Get("difficulty"); difficulty != "" {
		entries, err = h.deps.Category(ctx, difficulty)
	} else {
		entries, err = h.deps.Unified(ctx)
	}

	switch {
	case err == nil:
		if entries == nil {
			entries = []Entry{}
		}
		writeJSON(w, http.StatusOK, entries)
	case errors.Is(err, service.ErrUnifiedDisabled):
		writeError(w, http.StatusBadRequest, "difficulty is required")
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, clientMessage(err))
	default:
		h.logger.Error(ctx, "failed to load leaderboard", logger.Error(Wrap(op, err)))
		writeError(w, http.StatusInternalServerError, "failed to load leaderboard")
	}
}

// decodeMessage explains a body that could not be decoded.
func decodeMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return typeErr.Field + " has the wrong type"
	case errors.As(err, &maxErr):
		return "request body too large"
	default:
		return "invalid JSON body"
	}
}

// clientMessage strips the sentinel prefix from a validation error.
func clientMessage(err error) string {
	msg := err.Error()
	prefix := service.ErrValidation.Error() + ": "
	if i := strings.Index(msg, prefix); i >= 0 {
		return msg[i+len(prefix):]
	}
	return msg
}
