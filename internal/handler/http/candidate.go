package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ukmik/membership-service/pkg/httputil"

	"github.com/ukmik/membership-service/internal/service"
)

// CandidateHandler handles HTTP requests for recruitment candidates.
type CandidateHandler struct {
	service *service.CandidateService
	logger  *slog.Logger
}

// NewCandidateHandler creates a new candidate HTTP handler.
func NewCandidateHandler(svc *service.CandidateService, logger *slog.Logger) *CandidateHandler {
	return &CandidateHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// CreateCandidateRequest is the JSON request body for candidate registration.
type CreateCandidateRequest struct {
	Name         string `json:"name" validate:"required,min=1,max=100"`
	StudentID    string `json:"student_id" validate:"required,min=1,max=20"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone" validate:"omitempty,max=20"`
	Gender       string `json:"gender" validate:"omitempty,max=20"`
	Religion     string `json:"religion" validate:"omitempty,max=50"`
	Faculty      string `json:"faculty" validate:"omitempty,max=100"`
	StudyProgram string `json:"study_program" validate:"omitempty,max=100"`
	Image        string `json:"image" validate:"omitempty,url"`
	Cohort       string `json:"cohort" validate:"omitempty,max=10"`
	Description  string `json:"description" validate:"omitempty,max=500"`
}

// UpdateCandidateRequest is the JSON request body for a partial candidate update.
type UpdateCandidateRequest struct {
	Name         *string  `json:"name" validate:"omitempty,min=1,max=100"`
	StudentID    *string  `json:"student_id" validate:"omitempty,min=1,max=20"`
	Email        *string  `json:"email" validate:"omitempty,email"`
	Phone        *string  `json:"phone" validate:"omitempty,max=20"`
	Gender       *string  `json:"gender" validate:"omitempty,max=20"`
	Religion     *string  `json:"religion" validate:"omitempty,max=50"`
	Faculty      *string  `json:"faculty" validate:"omitempty,max=100"`
	StudyProgram *string  `json:"study_program" validate:"omitempty,max=100"`
	Image        *string  `json:"image" validate:"omitempty,url"`
	Cohort       *string  `json:"cohort" validate:"omitempty,max=10"`
	Description  *string  `json:"description" validate:"omitempty,max=500"`
	LK1          *float64 `json:"lk1" validate:"omitempty,min=0,max=100"`
	LK2          *float64 `json:"lk2" validate:"omitempty,min=0,max=100"`
	SC           *float64 `json:"sc" validate:"omitempty,min=0,max=100"`
	Activity     *float64 `json:"activity" validate:"omitempty,min=0,max=100"`
}

// DecideCandidateRequest is the JSON request body for the accept/reject decision.
type DecideCandidateRequest struct {
	Approval string `json:"approval" validate:"required,oneof=Accepted Rejected"`
}

// --- Handlers ---

// Create handles POST /api/v1/candidates
func (h *CandidateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCandidateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	candidate, err := h.service.Create(r.Context(), service.CreateCandidateInput{
		Name:         req.Name,
		StudentID:    req.StudentID,
		Email:        req.Email,
		Phone:        req.Phone,
		Gender:       req.Gender,
		Religion:     req.Religion,
		Faculty:      req.Faculty,
		StudyProgram: req.StudyProgram,
		Image:        req.Image,
		Cohort:       req.Cohort,
		Description:  req.Description,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: candidate})
}

// List handles GET /api/v1/candidates
func (h *CandidateHandler) List(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: candidates})
}

// Get handles GET /api/v1/candidates/{id}
func (h *CandidateHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	candidate, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: candidate})
}

// Update handles PATCH /api/v1/candidates/{id}
func (h *CandidateHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateCandidateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	candidate, err := h.service.Update(r.Context(), id, service.UpdateCandidateInput{
		Name:         req.Name,
		StudentID:    req.StudentID,
		Email:        req.Email,
		Phone:        req.Phone,
		Gender:       req.Gender,
		Religion:     req.Religion,
		Faculty:      req.Faculty,
		StudyProgram: req.StudyProgram,
		Image:        req.Image,
		Cohort:       req.Cohort,
		Description:  req.Description,
		LK1:          req.LK1,
		LK2:          req.LK2,
		SC:           req.SC,
		Activity:     req.Activity,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: candidate})
}

// Delete handles DELETE /api/v1/candidates/{id}
func (h *CandidateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Decide handles PATCH /api/v1/candidates/{id}/decision
func (h *CandidateHandler) Decide(w http.ResponseWriter, r *http.Request) {
	var req DecideCandidateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	candidate, err := h.service.Decide(r.Context(), id, req.Approval)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: candidate})
}

// Export handles GET /api/v1/candidates/export
func (h *CandidateHandler) Export(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="candidates.csv"`)

	if err := h.service.ExportCSV(r.Context(), w); err != nil {
		h.logger.ErrorContext(r.Context(), "candidate export failed",
			slog.String("error", err.Error()),
		)
	}
}
