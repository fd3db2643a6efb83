package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/lucifer-699/EduCourseFrontend/internal/domain"
	"github.com/lucifer-699/EduCourseFrontend/internal/guard"
	"github.com/lucifer-699/EduCourseFrontend/pkg/health"
	pkgmiddleware "github.com/lucifer-699/EduCourseFrontend/pkg/middleware"
)

// RouterConfig carries what the router needs beyond the handlers.
type RouterConfig struct {
	ServiceName         string
	RequestTimeout      time.Duration
	CORS                pkgmiddleware.CORSConfig
	MetricsAllowedCIDRs []string
	// LoginLimit throttles the credential endpoints. Nil disables it.
	LoginLimit func(http.Handler) http.Handler
}

// NewRouter creates a chi router with global middleware, health endpoints,
// and every page route behind the route guard.
func NewRouter(cfg RouterConfig, h *Handler, g *guard.Guard, healthHandler *health.Handler, logger *slog.Logger) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	loginLimit := cfg.LoginLimit
	if loginLimit == nil {
		loginLimit = func(next http.Handler) http.Handler { return next }
	}

	r := chi.NewRouter()

	r.Use(pkgmiddleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(pkgmiddleware.RequestLogging(logger))
	r.Use(pkgmiddleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(pkgmiddleware.Tracing(cfg.ServiceName))
	r.Use(pkgmiddleware.CORS(cfg.CORS))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	pkgmiddleware.RegisterMetrics(r, cfg.MetricsAllowedCIDRs, logger)

	r.Group(func(r chi.Router) {
		r.Use(g.Sessions)
		r.Use(pkgmiddleware.RequestLogger(logger))

		// Public pages.
		r.Get("/login", h.LoginPage)
		r.With(loginLimit).Post("/login", h.Login)
		r.With(loginLimit).Post("/register", h.Register)
		r.Post("/logout", h.Logout)
		r.Get("/unauthorized", h.Unauthorized)

		// Any signed-in user.
		r.Group(func(r chi.Router) {
			r.Use(g.Require())

			r.Get("/", h.Home)
			r.Get("/dashboard", h.Dashboard)
			r.Get("/profile", h.Profile)
			r.Post("/session/refresh", h.RefreshSession)

			r.Get("/courses", h.Courses)
			r.Get("/courses/{courseId}", h.CourseDetail)
			r.Get("/courses/{courseId}/modules/{moduleId}", h.ModuleDetail)
			r.Get("/lessons/{lessonId}", h.LessonDetail)
			r.Post("/lessons/{lessonId}/complete", h.CompleteLesson)
			r.Post("/lessons/{lessonId}/quiz", h.SubmitQuiz)
		})

		// Administrators only.
		r.Route("/admin", func(r chi.Router) {
			r.Use(g.Require(domain.RoleAdmin))

			r.Get("/", h.AdminDashboard)

			r.Get("/courses", h.AdminCourses)
			r.Post("/courses", h.CreateCourse)
			r.Get("/courses/{courseId}", h.AdminCourse)
			r.Put("/courses/{courseId}", h.UpdateCourse)
			r.Delete("/courses/{courseId}", h.DeleteCourse)

			r.Get("/modules", h.AdminModules)
			r.Post("/modules", h.CreateModule)
			r.Get("/modules/{moduleId}", h.AdminModule)
			r.Put("/modules/{moduleId}", h.UpdateModule)
			r.Delete("/modules/{moduleId}", h.DeleteModule)

			r.Get("/lessons", h.AdminLessons)
			r.Post("/lessons", h.CreateLesson)
			r.Get("/lessons/{lessonId}", h.AdminLesson)
			r.Put("/lessons/{lessonId}", h.UpdateLesson)
			r.Delete("/lessons/{lessonId}", h.DeleteLesson)

			r.Get("/users", h.AdminUsers)
			r.Get("/users/{userId}", h.AdminUser)
			r.Put("/users/{userId}", h.UpdateUser)
			r.Delete("/users/{userId}", h.DeleteUser)
		})
	})

	return r
}
