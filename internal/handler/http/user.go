package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ukmik/membership-service/pkg/httputil"

	"github.com/ukmik/membership-service/internal/service"
)

// UserHandler handles HTTP requests for member accounts.
type UserHandler struct {
	service *service.UserService
	logger  *slog.Logger
}

// NewUserHandler creates a new user HTTP handler.
func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// CreateUserRequest is the JSON request body for member creation.
type CreateUserRequest struct {
	Name         string `json:"name" validate:"required,min=1,max=100"`
	StudentID    string `json:"student_id" validate:"required,min=1,max=20"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8"`
	Phone        string `json:"phone" validate:"omitempty,max=20"`
	Gender       string `json:"gender" validate:"omitempty,max=20"`
	Religion     string `json:"religion" validate:"omitempty,max=50"`
	Faculty      string `json:"faculty" validate:"omitempty,max=100"`
	StudyProgram string `json:"study_program" validate:"omitempty,max=100"`
	Image        string `json:"image" validate:"omitempty,url"`
	Cohort       string `json:"cohort" validate:"omitempty,max=10"`
}

// UpdateUserRequest is the JSON request body for a partial member update.
type UpdateUserRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=100"`
	StudentID    *string `json:"student_id" validate:"omitempty,min=1,max=20"`
	Email        *string `json:"email" validate:"omitempty,email"`
	Phone        *string `json:"phone" validate:"omitempty,max=20"`
	Gender       *string `json:"gender" validate:"omitempty,max=20"`
	Religion     *string `json:"religion" validate:"omitempty,max=50"`
	Faculty      *string `json:"faculty" validate:"omitempty,max=100"`
	StudyProgram *string `json:"study_program" validate:"omitempty,max=100"`
	Image        *string `json:"image" validate:"omitempty,url"`
	Cohort       *string `json:"cohort" validate:"omitempty,max=10"`
	Status       *string `json:"status" validate:"omitempty,oneof=Active Inactive"`
}

// --- Handlers ---

// Create handles POST /api/v1/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.service.Create(r.Context(), service.CreateUserInput{
		Name:         req.Name,
		StudentID:    req.StudentID,
		Email:        req.Email,
		Password:     req.Password,
		Phone:        req.Phone,
		Gender:       req.Gender,
		Religion:     req.Religion,
		Faculty:      req.Faculty,
		StudyProgram: req.StudyProgram,
		Image:        req.Image,
		Cohort:       req.Cohort,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: user})
}

// List handles GET /api/v1/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: users})
}

// Get handles GET /api/v1/users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: user})
}

// Update handles PATCH /api/v1/users/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	user, err := h.service.Update(r.Context(), id, service.UpdateUserInput{
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
		Status:       req.Status,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: user})
}

// Delete handles DELETE /api/v1/users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Export handles GET /api/v1/users/export
func (h *UserHandler) Export(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="members.csv"`)

	if err := h.service.ExportCSV(r.Context(), w); err != nil {
		// Headers may already be gone; log and give up on the body.
		h.logger.ErrorContext(r.Context(), "member export failed",
			slog.String("error", err.Error()),
		)
	}
}
