// Package handler serves the pages of the LMS web front as JSON documents.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lucifer-699/EduCourseFrontend/internal/domain"
	"github.com/lucifer-699/EduCourseFrontend/internal/gateway"
	"github.com/lucifer-699/EduCourseFrontend/internal/lmsapi"
	"github.com/lucifer-699/EduCourseFrontend/internal/session"
	apperrors "github.com/lucifer-699/EduCourseFrontend/pkg/errors"
	"github.com/lucifer-699/EduCourseFrontend/pkg/httputil"
	"github.com/lucifer-699/EduCourseFrontend/pkg/logger"
)

// Sessions is the session manager as seen by the page handlers.
type Sessions interface {
	Resolve(ctx context.Context, sid string) session.Snapshot
	Login(ctx context.Context, sid, email, password string) (domain.Identity, error)
	Register(ctx context.Context, sid string, req lmsapi.RegisterRequest) (domain.Identity, error)
	Refresh(ctx context.Context, sid string) error
	Logout(ctx context.Context, sid string) error
}

// Handler serves every page.
type Handler struct {
	sessions Sessions
	api      *lmsapi.Client
	logger   *slog.Logger
}

// New creates the page handler set.
func New(sessions Sessions, api *lmsapi.Client, logger *slog.Logger) *Handler {
	return &Handler{sessions: sessions, api: api, logger: logger}
}

// errorDoc turns a failed API call into the error part of a page document.
// The status is what the page itself is served with.
func errorDoc(err error, retry string) (int, *httputil.ErrorResponse) {
	apiErr, ok := gateway.AsAPIError(err)
	if !ok {
		return 0, nil
	}

	switch apiErr.Kind() {
	case gateway.KindNotFound:
		return http.StatusNotFound, &httputil.ErrorResponse{Code: "NOT_FOUND", Message: apiErr.Message}
	case gateway.KindAuth:
		return http.StatusUnauthorized, &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: apiErr.Message}
	case gateway.KindNetwork:
		if apiErr.Message == gateway.MsgUnavailable {
			return http.StatusServiceUnavailable, &httputil.ErrorResponse{Code: "SERVICE_UNAVAILABLE", Message: apiErr.Message, Retry: retry}
		}
		return http.StatusBadGateway, &httputil.ErrorResponse{Code: "NETWORK_ERROR", Message: apiErr.Message, Retry: retry}
	default:
		doc := &httputil.ErrorResponse{Code: "UPSTREAM_ERROR", Message: apiErr.Message}
		if apiErr.Status >= http.StatusInternalServerError {
			doc.Retry = retry
		}
		// A malformed 2xx body is still a failed page.
		if apiErr.Status < http.StatusBadRequest {
			return http.StatusBadGateway, doc
		}
		return apiErr.Status, doc
	}
}

// renderError writes the page for a failed call. Server and network failures
// offer retry as the URL to reload. A canceled request gets no response.
func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error, retry string) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		logger.FromContext(r.Context()).DebugContext(r.Context(), "request abandoned",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		return
	}

	status, doc := errorDoc(err, retry)
	if doc == nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if status >= http.StatusInternalServerError || status == 0 {
		logger.FromContext(r.Context()).WarnContext(r.Context(), "lms api call failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
	doc.RequestID = logger.CorrelationIDFromContext(r.Context())
	httputil.WriteJSON(w, status, httputil.Response{Error: doc})
}

// sectionError is an error embedded in a page that still renders.
func sectionError(err error, retry string) *httputil.ErrorResponse {
	if err == nil {
		return nil
	}
	if _, doc := errorDoc(err, retry); doc != nil {
		return doc
	}
	internal := apperrors.Internal(err)
	return &httputil.ErrorResponse{Code: internal.Code, Message: internal.Message}
}

// retryURL is the current page, offered behind the retry button.
func retryURL(r *http.Request) string {
	if r.Method != http.MethodGet {
		return ""
	}
	return r.URL.RequestURI()
}

// homeFor is where a role lands after signing in.
func homeFor(role domain.Role) string {
	if role == domain.RoleAdmin {
		return "/admin"
	}
	return "/dashboard"
}

// safeNext accepts only local paths as a post-login target.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	return next
}

func identityFrom(r *http.Request) *domain.Identity {
	return session.SnapshotFromContext(r.Context()).Identity
}
