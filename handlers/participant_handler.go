package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/soridam/contest-system/middleware"
	"github.com/soridam/contest-system/services"
)

type ParticipantHandler struct {
	participantService *services.ParticipantService
}

func NewParticipantHandler(ps *services.ParticipantService) *ParticipantHandler {
	return &ParticipantHandler{participantService: ps}
}

// AddHandler обрабатывает POST /contests/{contestID}/participants
func (h *ParticipantHandler) AddHandler(w http.ResponseWriter, r *http.Request) {
	contestID := chi.URLParam(r, "contestID")

	var input struct {
		Nickname string `json:"nickname"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participant, err := h.participantService.AddParticipant(r.Context(), contestID, input.Nickname)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"participant": participant}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler обрабатывает GET /contests/{contestID}/participants
func (h *ParticipantHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	contestID := chi.URLParam(r, "contestID")

	participants, err := h.participantService.ListParticipants(r.Context(), contestID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"participants": participants}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RemoveHandler обрабатывает DELETE /contests/{contestID}/participants/{participantID}
func (h *ParticipantHandler) RemoveHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	contestID := chi.URLParam(r, "contestID")
	participantID := chi.URLParam(r, "participantID")

	if err := h.participantService.RemoveParticipant(r.Context(), caller, contestID, participantID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
