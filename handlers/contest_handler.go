package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/soridam/contest-system/middleware"
	"github.com/soridam/contest-system/services"
)

type ContestHandler struct {
	contestService *services.ContestService
}

func NewContestHandler(cs *services.ContestService) *ContestHandler {
	return &ContestHandler{contestService: cs}
}

// CreateHandler обрабатывает POST /contests
func (h *ContestHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to create contest")
		return
	}

	var input services.CreateContestInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	contest, err := h.contestService.CreateContest(r.Context(), caller, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"contest": contest}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler обрабатывает GET /contests/{contestID}
func (h *ContestHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	contestID := chi.URLParam(r, "contestID")

	contest, err := h.contestService.GetContest(r.Context(), contestID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"contest": contest}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler обрабатывает GET /contests
func (h *ContestHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	limit := 20
	offset := 0
	query := r.URL.Query()
	if limitStr := query.Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	contests, err := h.contestService.ListContests(r.Context(), limit, offset)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"contests": contests}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// StartHandler обрабатывает POST /contests/{contestID}/start
func (h *ContestHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	contestID := chi.URLParam(r, "contestID")

	contest, err := h.contestService.StartContest(r.Context(), caller, contestID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"contest": contest}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CloseHandler обрабатывает POST /contests/{contestID}/close
func (h *ContestHandler) CloseHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	contestID := chi.URLParam(r, "contestID")

	contest, err := h.contestService.CloseContest(r.Context(), caller, contestID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"contest": contest}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteHandler обрабатывает DELETE /contests/{contestID}.
// Удаление необратимо и каскадно; подтверждение спрашивает интерфейс.
func (h *ContestHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	contestID := chi.URLParam(r, "contestID")

	if err := h.contestService.DeleteContest(r.Context(), caller, contestID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ResultsHandler обрабатывает GET /contests/{contestID}/results
func (h *ContestHandler) ResultsHandler(w http.ResponseWriter, r *http.Request) {
	contestID := chi.URLParam(r, "contestID")

	contest, err := h.contestService.GetContest(r.Context(), contestID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"top_results": contest.TopResults}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
