package handler

import (
	"log/slog"
	"net/http"

	"subway/internal/domain"
	"subway/internal/service"
)

type PathHandler struct {
	paths  *service.PathService
	logger *slog.Logger
}

func NewPathHandler(paths *service.PathService, logger *slog.Logger) *PathHandler {
	return &PathHandler{paths: paths, logger: logger.With("component", "path_handler")}
}

// FindPath handles GET /v1/paths?source=1&target=4&type=DURATION.
func (h *PathHandler) FindPath(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	source, err := parseID("source", q.Get("source"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	target, err := parseID("target", q.Get("target"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	pathType, err := domain.ParsePathType(q.Get("type"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	result, err := h.paths.FindPath(r.Context(), domain.PathRequest{
		Source: source,
		Target: target,
		Type:   pathType,
	})
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
