package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"subway/internal/service"
)

type LineHandler struct {
	lines  *service.LineService
	logger *slog.Logger
}

func NewLineHandler(lines *service.LineService, logger *slog.Logger) *LineHandler {
	return &LineHandler{lines: lines, logger: logger.With("component", "line_handler")}
}

type LinesResponse struct {
	Lines []*service.LineDetail `json:"lines"`
	Count int                   `json:"count"`
}

func (h *LineHandler) CreateLine(w http.ResponseWriter, r *http.Request) {
	var req service.CreateLineRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	line, err := h.lines.CreateLine(r.Context(), req)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	w.Header().Set("Location", "/v1/lines/"+itoa(line.ID))
	respondJSON(w, http.StatusCreated, line)
}

func (h *LineHandler) ListLines(w http.ResponseWriter, r *http.Request) {
	lines, err := h.lines.ListLines(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, LinesResponse{Lines: lines, Count: len(lines)})
}

func (h *LineHandler) GetLine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	line, err := h.lines.GetLine(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, line)
}

func (h *LineHandler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	var req service.UpdateLineRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	line, err := h.lines.UpdateLine(r.Context(), id, req)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, line)
}

func (h *LineHandler) DeleteLine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if err := h.lines.DeleteLine(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LineHandler) AddSection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	var req service.SectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	line, err := h.lines.AddSection(r.Context(), id, req)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, line)
}

// RemoveStation handles DELETE /v1/lines/{id}/sections?stationId=N.
func (h *LineHandler) RemoveStation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	stationID, err := parseID("stationId", r.URL.Query().Get("stationId"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	line, err := h.lines.RemoveStation(r.Context(), id, stationID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, line)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
