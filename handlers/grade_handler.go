package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/soridam/contest-system/middleware"
	"github.com/soridam/contest-system/services"
)

type GradeHandler struct {
	gradeService *services.GradeService
}

func NewGradeHandler(gs *services.GradeService) *GradeHandler {
	return &GradeHandler{gradeService: gs}
}

// SubmitHandler обрабатывает POST /contests/{contestID}/grades
func (h *GradeHandler) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to submit a grade")
		return
	}
	contestID := chi.URLParam(r, "contestID")

	var input services.SubmitGradeInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	grade, err := h.gradeService.SubmitGrade(r.Context(), caller, contestID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"grade":              grade,
		"suggested_category": services.SuggestedCategory(grade.Score),
	}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler обрабатывает GET /contests/{contestID}/grades
func (h *GradeHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	contestID := chi.URLParam(r, "contestID")

	grades, err := h.gradeService.ListGrades(r.Context(), contestID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"grades": grades}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UngradedHandler обрабатывает GET /contests/{contestID}/ungraded —
// производный список целей, которые вызывающий ещё не оценил.
func (h *GradeHandler) UngradedHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	contestID := chi.URLParam(r, "contestID")

	targets, err := h.gradeService.ListUngradedTargets(r.Context(), caller, contestID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"targets": targets}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
