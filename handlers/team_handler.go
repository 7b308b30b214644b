package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/soridam/contest-system/services"
)

type TeamHandler struct {
	teamService *services.TeamService
}

func NewTeamHandler(ts *services.TeamService) *TeamHandler {
	return &TeamHandler{teamService: ts}
}

// FormHandler обрабатывает POST /contests/{contestID}/teams
func (h *TeamHandler) FormHandler(w http.ResponseWriter, r *http.Request) {
	contestID := chi.URLParam(r, "contestID")

	var input struct {
		ParticipantAID string `json:"participant_a_id"`
		ParticipantBID string `json:"participant_b_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, err := h.teamService.FormTeam(r.Context(), contestID, input.ParticipantAID, input.ParticipantBID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler обрабатывает GET /contests/{contestID}/teams
func (h *TeamHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	contestID := chi.URLParam(r, "contestID")

	teams, err := h.teamService.ListTeams(r.Context(), contestID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"teams": teams}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RenameHandler обрабатывает PATCH /teams/{teamID}
func (h *TeamHandler) RenameHandler(w http.ResponseWriter, r *http.Request) {
	teamID := chi.URLParam(r, "teamID")

	var input struct {
		Name string `json:"name"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, err := h.teamService.RenameTeam(r.Context(), teamID, input.Name)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DissolveHandler обрабатывает DELETE /teams/{teamID}
func (h *TeamHandler) DissolveHandler(w http.ResponseWriter, r *http.Request) {
	teamID := chi.URLParam(r, "teamID")

	if err := h.teamService.DissolveTeam(r.Context(), teamID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
