package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/lucifer-699/EduCourseFrontend/internal/domain"
	"github.com/lucifer-699/EduCourseFrontend/internal/lmsapi"
	apperrors "github.com/lucifer-699/EduCourseFrontend/pkg/errors"
	"github.com/lucifer-699/EduCourseFrontend/pkg/httputil"
	"github.com/lucifer-699/EduCourseFrontend/pkg/pagination"
	"github.com/lucifer-699/EduCourseFrontend/pkg/validator"
)

type adminPage struct {
	Identity  *domain.Identity      `json:"identity"`
	Dashboard domain.AdminDashboard `json:"dashboard"`
}

// AdminDashboard handles GET /admin.
func (h *Handler) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	var (
		users   []domain.User
		courses []domain.Course
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		users, err = h.api.Users.List(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		courses, err = h.api.Courses.List(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		h.renderError(w, r, err, retryURL(r))
		return
	}

	httputil.WriteData(w, http.StatusOK, adminPage{
		Identity:  identityFrom(r),
		Dashboard: domain.BuildAdminDashboard(users, courses),
	})
}

// show writes the result of a single fetch.
func show[T any](h *Handler, w http.ResponseWriter, r *http.Request, fetch func(context.Context) (T, error)) {
	v, err := fetch(r.Context())
	if err != nil {
		h.renderError(w, r, err, retryURL(r))
		return
	}
	httputil.WriteData(w, http.StatusOK, v)
}

// save decodes and validates the body, then writes the stored result with
// status.
func save[In, Out any](h *Handler, w http.ResponseWriter, r *http.Request, status int, store func(context.Context, In) (Out, error)) {
	var in In
	if err := validator.DecodeAndValidate(w, r, &in); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	v, err := store(r.Context(), in)
	if err != nil {
		h.renderError(w, r, err, "")
		return
	}
	httputil.WriteData(w, status, v)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request, del func(context.Context, string) error, id string) {
	if err := del(r.Context(), id); err != nil {
		h.renderError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdminCourses handles GET /admin/courses.
func (h *Handler) AdminCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.api.Courses.List(r.Context())
	if err != nil {
		h.renderError(w, r, err, retryURL(r))
		return
	}
	httputil.WriteData(w, http.StatusOK, pagination.Paginate(courses, pagination.FromRequest(r)))
}

// AdminCourse handles GET /admin/courses/{courseId}.
func (h *Handler) AdminCourse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "courseId")
	show(h, w, r, func(ctx context.Context) (domain.Course, error) {
		return h.api.Courses.Get(ctx, id)
	})
}

// CreateCourse handles POST /admin/courses.
func (h *Handler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	save(h, w, r, http.StatusCreated, h.api.Courses.Create)
}

// UpdateCourse handles PUT /admin/courses/{courseId}.
func (h *Handler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "courseId")
	save(h, w, r, http.StatusOK, func(ctx context.Context, in lmsapi.CourseInput) (domain.Course, error) {
		return h.api.Courses.Update(ctx, id, in)
	})
}

// DeleteCourse handles DELETE /admin/courses/{courseId}.
func (h *Handler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.api.Courses.Delete, chi.URLParam(r, "courseId"))
}

// AdminModules handles GET /admin/modules?courseId=.
func (h *Handler) AdminModules(w http.ResponseWriter, r *http.Request) {
	courseID := r.URL.Query().Get("courseId")
	if courseID == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("courseId is required"), h.logger)
		return
	}
	show(h, w, r, func(ctx context.Context) ([]domain.Module, error) {
		return h.api.Modules.ListByCourse(ctx, courseID)
	})
}

// AdminModule handles GET /admin/modules/{moduleId}.
func (h *Handler) AdminModule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "moduleId")
	show(h, w, r, func(ctx context.Context) (domain.Module, error) {
		return h.api.Modules.Get(ctx, id)
	})
}

// CreateModule handles POST /admin/modules.
func (h *Handler) CreateModule(w http.ResponseWriter, r *http.Request) {
	save(h, w, r, http.StatusCreated, h.api.Modules.Create)
}

// UpdateModule handles PUT /admin/modules/{moduleId}.
func (h *Handler) UpdateModule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "moduleId")
	save(h, w, r, http.StatusOK, func(ctx context.Context, in lmsapi.ModuleInput) (domain.Module, error) {
		return h.api.Modules.Update(ctx, id, in)
	})
}

// DeleteModule handles DELETE /admin/modules/{moduleId}.
func (h *Handler) DeleteModule(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.api.Modules.Delete, chi.URLParam(r, "moduleId"))
}

// AdminLessons handles GET /admin/lessons?moduleId=.
func (h *Handler) AdminLessons(w http.ResponseWriter, r *http.Request) {
	moduleID := r.URL.Query().Get("moduleId")
	if moduleID == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("moduleId is required"), h.logger)
		return
	}
	show(h, w, r, func(ctx context.Context) ([]domain.Lesson, error) {
		return h.api.Lessons.ListByModule(ctx, moduleID)
	})
}

// AdminLesson handles GET /admin/lessons/{lessonId}. Administrators see
// quiz answers.
func (h *Handler) AdminLesson(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "lessonId")
	show(h, w, r, func(ctx context.Context) (domain.Lesson, error) {
		return h.api.Lessons.Get(ctx, id)
	})
}

// CreateLesson handles POST /admin/lessons.
func (h *Handler) CreateLesson(w http.ResponseWriter, r *http.Request) {
	save(h, w, r, http.StatusCreated, h.api.Lessons.Create)
}

// UpdateLesson handles PUT /admin/lessons/{lessonId}.
func (h *Handler) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "lessonId")
	save(h, w, r, http.StatusOK, func(ctx context.Context, in lmsapi.LessonInput) (domain.Lesson, error) {
		return h.api.Lessons.Update(ctx, id, in)
	})
}

// DeleteLesson handles DELETE /admin/lessons/{lessonId}.
func (h *Handler) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.api.Lessons.Delete, chi.URLParam(r, "lessonId"))
}

// AdminUsers handles GET /admin/users.
func (h *Handler) AdminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.api.Users.List(r.Context())
	if err != nil {
		h.renderError(w, r, err, retryURL(r))
		return
	}
	httputil.WriteData(w, http.StatusOK, pagination.Paginate(users, pagination.FromRequest(r)))
}

// AdminUser handles GET /admin/users/{userId}.
func (h *Handler) AdminUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "userId")
	show(h, w, r, func(ctx context.Context) (domain.User, error) {
		return h.api.Users.Get(ctx, id)
	})
}

// UpdateUser handles PUT /admin/users/{userId}.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "userId")
	save(h, w, r, http.StatusOK, func(ctx context.Context, in lmsapi.UserUpdate) (domain.User, error) {
		return h.api.Users.Update(ctx, id, in)
	})
}

// DeleteUser handles DELETE /admin/users/{userId}.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.api.Users.Delete, chi.URLParam(r, "userId"))
}
