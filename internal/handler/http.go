package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"subway/internal/domain"
	"subway/internal/fare"
	"subway/internal/pathfinder"
	"subway/internal/service"
	"subway/internal/store"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

// respondServiceError maps service and domain errors onto HTTP statuses.
// Unexpected errors are logged and hidden from the client.
func respondServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
		respondError(w, status, "internal error")
		return
	}
	respondError(w, status, err.Error())
}

func statusFor(err error) int {
	var pathErr *pathfinder.PathError
	var fareErr *fare.FareError
	switch {
	case errors.Is(err, pathfinder.ErrNoRoute):
		return http.StatusNotFound
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDuplicateName),
		errors.Is(err, store.ErrStationInUse),
		errors.Is(err, service.ErrNetworkNotEmpty):
		return http.StatusConflict
	case domain.IsTopologyError(err),
		errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, domain.ErrInvalidPathType),
		errors.As(err, &pathErr),
		errors.As(err, &fareErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", service.ErrInvalidRequest, err)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	return parseID(name, r.PathValue(name))
}

func parseID(name, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", service.ErrInvalidRequest, name, raw)
	}
	return id, nil
}
