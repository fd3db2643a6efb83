package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/lucifer-699/EduCourseFrontend/internal/domain"
	apperrors "github.com/lucifer-699/EduCourseFrontend/pkg/errors"
	"github.com/lucifer-699/EduCourseFrontend/pkg/httputil"
	"github.com/lucifer-699/EduCourseFrontend/pkg/logger"
	"github.com/lucifer-699/EduCourseFrontend/pkg/pagination"
	"github.com/lucifer-699/EduCourseFrontend/pkg/validator"
)

// progressFetchLimit bounds concurrent progress lookups on the dashboard.
const progressFetchLimit = 4

type dashboardPage struct {
	Identity  *domain.Identity        `json:"identity"`
	Dashboard domain.StudentDashboard `json:"dashboard"`
}

// Dashboard handles GET /dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	courses, err := h.api.Courses.List(ctx)
	if err != nil {
		h.renderError(w, r, err, retryURL(r))
		return
	}

	// Progress is per user; a failed lookup keeps the course's own figures.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(progressFetchLimit)
	for i := range courses {
		c := &courses[i]
		g.Go(func() error {
			p, err := h.api.Progress.Course(gctx, c.ID)
			if err != nil {
				logger.FromContext(ctx).DebugContext(ctx, "course progress unavailable",
					slog.String("course_id", c.ID),
					slog.String("error", err.Error()),
				)
				return nil
			}
			c.Progress = p.Progress
			c.CompletedModules = p.CompletedModules
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		h.renderError(w, r, err, "")
		return
	}

	httputil.WriteData(w, http.StatusOK, dashboardPage{
		Identity:  identityFrom(r),
		Dashboard: domain.BuildStudentDashboard(courses),
	})
}

// Courses handles GET /courses.
func (h *Handler) Courses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.api.Courses.List(r.Context())
	if err != nil {
		h.renderError(w, r, err, retryURL(r))
		return
	}
	httputil.WriteData(w, http.StatusOK, pagination.Paginate(courses, pagination.FromRequest(r)))
}

type coursePage struct {
	Course       *domain.Course          `json:"course"`
	Modules      []domain.Module         `json:"modules"`
	ModulesError *httputil.ErrorResponse `json:"modulesError,omitempty"`
	Summary      domain.ModuleSummary    `json:"summary"`
}

// CourseDetail handles GET /courses/{courseId}. The course and its modules
// are fetched concurrently; a failed module list still renders the course.
func (h *Handler) CourseDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	courseID := chi.URLParam(r, "courseId")

	var (
		course               domain.Course
		modules              []domain.Module
		courseErr, moduleErr error
		g                    errgroup.Group
	)
	g.Go(func() error {
		course, courseErr = h.api.Courses.Get(ctx, courseID)
		return nil
	})
	g.Go(func() error {
		modules, moduleErr = h.api.Modules.ListByCourse(ctx, courseID)
		return nil
	})
	_ = g.Wait()

	if courseErr != nil {
		h.renderError(w, r, courseErr, retryURL(r))
		return
	}

	page := coursePage{Modules: []domain.Module{}}
	if moduleErr != nil {
		page.ModulesError = sectionError(moduleErr, retryURL(r))
	} else {
		page.Modules = modules
		course.Modules = modules
		course.Recompute()
		page.Summary = domain.SummarizeModules(modules)
	}
	course.Modules = nil
	page.Course = &course

	httputil.WriteData(w, http.StatusOK, page)
}

type modulePage struct {
	Module  *domain.Module       `json:"module"`
	Lessons []lessonView         `json:"lessons"`
	Summary domain.ModuleSummary `json:"summary"`
}

// lessonView is a lesson without its content, so quiz answers never leave
// the server.
type lessonView struct {
	ID        string             `json:"id"`
	ModuleID  string             `json:"moduleId"`
	Title     string             `json:"title"`
	Type      domain.ContentType `json:"type"`
	Completed bool               `json:"completed"`
	Duration  int                `json:"duration,omitempty"`
}

func newLessonView(l domain.Lesson) lessonView {
	return lessonView{
		ID:        l.ID,
		ModuleID:  l.ModuleID,
		Title:     l.Title,
		Type:      l.Type,
		Completed: l.Completed,
		Duration:  l.Duration,
	}
}

// ModuleDetail handles GET /courses/{courseId}/modules/{moduleId}.
func (h *Handler) ModuleDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	courseID := chi.URLParam(r, "courseId")
	moduleID := chi.URLParam(r, "moduleId")

	var (
		module  domain.Module
		lessons []domain.Lesson
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		module, err = h.api.Modules.Get(gctx, moduleID)
		return err
	})
	g.Go(func() error {
		var err error
		lessons, err = h.api.Lessons.ListByModule(gctx, moduleID)
		return err
	})
	if err := g.Wait(); err != nil {
		h.renderError(w, r, err, retryURL(r))
		return
	}

	if module.CourseID != "" && module.CourseID != courseID {
		httputil.WriteError(w, r, apperrors.NotFound("module", moduleID), h.logger)
		return
	}

	module.Lessons = lessons
	module.Recompute()
	summary := domain.SummarizeModules([]domain.Module{module})

	views := make([]lessonView, 0, len(lessons))
	for _, l := range lessons {
		views = append(views, newLessonView(l))
	}
	module.Lessons = nil

	httputil.WriteData(w, http.StatusOK, modulePage{Module: &module, Lessons: views, Summary: summary})
}

type lessonPage struct {
	Lesson       lessonView          `json:"lesson"`
	Content      *domain.ContentView `json:"content"`
	ContentError string              `json:"contentError,omitempty"`
	Next         *lessonView         `json:"next,omitempty"`
}

// LessonDetail handles GET /lessons/{lessonId}.
func (h *Handler) LessonDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	lesson, err := h.api.Lessons.Get(ctx, chi.URLParam(r, "lessonId"))
	if err != nil {
		h.renderError(w, r, err, retryURL(r))
		return
	}

	page := lessonPage{Lesson: newLessonView(lesson)}
	if view, err := domain.SelectContent(lesson); err != nil {
		page.ContentError = err.Error()
	} else {
		page.Content = &view
	}

	if lesson.ModuleID != "" {
		siblings, err := h.api.Lessons.ListByModule(ctx, lesson.ModuleID)
		if err != nil {
			logger.FromContext(ctx).DebugContext(ctx, "sibling lessons unavailable",
				slog.String("module_id", lesson.ModuleID),
				slog.String("error", err.Error()),
			)
		} else {
			m := domain.Module{Lessons: siblings}
			if next, ok := m.NextLesson(lesson.ID); ok {
				v := newLessonView(next)
				page.Next = &v
			}
		}
	}

	httputil.WriteData(w, http.StatusOK, page)
}

type completion struct {
	LessonID  string `json:"lessonId"`
	Completed bool   `json:"completed"`
}

// CompleteLesson handles POST /lessons/{lessonId}/complete.
func (h *Handler) CompleteLesson(w http.ResponseWriter, r *http.Request) {
	lessonID := chi.URLParam(r, "lessonId")
	if err := h.api.Lessons.Complete(r.Context(), lessonID); err != nil {
		h.renderError(w, r, err, "")
		return
	}
	httputil.WriteData(w, http.StatusOK, completion{LessonID: lessonID, Completed: true})
}

// QuizAnswers is the body of POST /lessons/{lessonId}/quiz, keyed by
// question index.
type QuizAnswers struct {
	Answers map[int]int `json:"answers" validate:"required"`
}

type quizPage struct {
	Result        domain.QuizResult `json:"result"`
	Passed        bool              `json:"passed"`
	ProgressSaved bool              `json:"progressSaved"`
}

// SubmitQuiz handles POST /lessons/{lessonId}/quiz. A fully correct
// submission records the lesson as completed.
func (h *Handler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lessonID := chi.URLParam(r, "lessonId")

	var req QuizAnswers
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	lesson, err := h.api.Lessons.Get(ctx, lessonID)
	if err != nil {
		h.renderError(w, r, err, "")
		return
	}
	if lesson.Type != domain.ContentQuiz {
		httputil.WriteError(w, r, apperrors.InvalidInput("lesson is not a quiz"), h.logger)
		return
	}

	result := domain.CheckQuiz(lesson.Content.Questions, req.Answers)
	page := quizPage{Result: result, Passed: result.Total > 0 && result.Correct == result.Total}

	if page.Passed {
		if err := h.api.Progress.UpdateLesson(ctx, lessonID, true); err != nil {
			logger.FromContext(ctx).WarnContext(ctx, "failed to record quiz completion",
				slog.String("lesson_id", lessonID),
				slog.String("error", err.Error()),
			)
		} else {
			page.ProgressSaved = true
		}
	}

	httputil.WriteData(w, http.StatusOK, page)
}
