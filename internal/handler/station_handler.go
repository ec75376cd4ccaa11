package handler

import (
	"log/slog"
	"net/http"

	"subway/internal/domain"
	"subway/internal/service"
)

type StationHandler struct {
	stations *service.StationService
	logger   *slog.Logger
}

func NewStationHandler(stations *service.StationService, logger *slog.Logger) *StationHandler {
	return &StationHandler{stations: stations, logger: logger.With("component", "station_handler")}
}

type createStationRequest struct {
	Name string `json:"name"`
}

type StationsResponse struct {
	Stations []domain.Station `json:"stations"`
	Count    int              `json:"count"`
}

func (h *StationHandler) CreateStation(w http.ResponseWriter, r *http.Request) {
	var req createStationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	st, err := h.stations.CreateStation(r.Context(), req.Name)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	w.Header().Set("Location", "/v1/stations/"+itoa(st.ID))
	respondJSON(w, http.StatusCreated, st)
}

func (h *StationHandler) ListStations(w http.ResponseWriter, r *http.Request) {
	stations, err := h.stations.ListStations(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, StationsResponse{Stations: stations, Count: len(stations)})
}

func (h *StationHandler) GetStation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	st, err := h.stations.GetStation(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, st)
}

func (h *StationHandler) DeleteStation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if err := h.stations.DeleteStation(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
