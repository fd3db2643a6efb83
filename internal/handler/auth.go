package handler

import (
	"net/http"

	"github.com/lucifer-699/EduCourseFrontend/internal/lmsapi"
	"github.com/lucifer-699/EduCourseFrontend/internal/session"
	apperrors "github.com/lucifer-699/EduCourseFrontend/pkg/errors"
	"github.com/lucifer-699/EduCourseFrontend/pkg/httputil"
	"github.com/lucifer-699/EduCourseFrontend/pkg/validator"
)

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Next     string `json:"next"`
}

// RegisterRequest is the body of POST /register.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

type loginView struct {
	View string `json:"view"`
	Next string `json:"next,omitempty"`
}

// LoginPage handles GET /login. A signed-in visitor is sent on.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.URL.Query().Get("next"))

	snap := h.sessions.Resolve(r.Context(), session.IDFromContext(r.Context()))
	if snap.Authenticated() {
		target := next
		if target == "" {
			target = homeFor(snap.Identity.Role)
		}
		httputil.Redirect(w, r, target)
		return
	}

	httputil.WriteData(w, http.StatusOK, loginView{View: "login", Next: next})
}

// Login handles POST /login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	id, err := h.sessions.Login(r.Context(), session.IDFromContext(r.Context()), req.Email, req.Password)
	if err != nil {
		h.renderError(w, r, err, "")
		return
	}

	target := safeNext(req.Next)
	if target == "" {
		target = homeFor(id.Role)
	}
	httputil.Redirect(w, r, target)
}

// Register handles POST /register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	id, err := h.sessions.Register(r.Context(), session.IDFromContext(r.Context()), lmsapi.RegisterRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.renderError(w, r, err, "")
		return
	}
	httputil.Redirect(w, r, homeFor(id.Role))
}

// Logout handles POST /logout. It always ends on the login page.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context(), session.IDFromContext(r.Context())); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.Redirect(w, r, "/login")
}

// RefreshSession handles POST /session/refresh.
func (h *Handler) RefreshSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Refresh(r.Context(), session.IDFromContext(r.Context())); err != nil {
		h.renderError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Home handles GET / by sending the user to the landing page of their role.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	httputil.Redirect(w, r, homeFor(identityFrom(r).Role))
}

// Profile handles GET /profile.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, identityFrom(r))
}

// Unauthorized handles GET /unauthorized.
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	httputil.WriteError(w, r, apperrors.Forbidden("You do not have permission to view this page"), h.logger)
}
