package lmsapi

import (
	"context"
	"net/http"

	"github.com/lucifer-699/EduCourseFrontend/internal/gateway"
)

// CourseProgress is the server's view of a user's course progress.
type CourseProgress struct {
	Progress         int `json:"progress"`
	CompletedModules int `json:"completedModules"`
}

// ModuleProgress is the server's view of a user's module progress.
type ModuleProgress struct {
	Progress         int `json:"progress"`
	CompletedLessons int `json:"completedLessons"`
}

type lessonProgress struct {
	Completed bool `json:"completed"`
}

// ProgressClient calls the /progress endpoints.
type ProgressClient struct {
	s gateway.Sender
}

func (c *ProgressClient) Course(ctx context.Context, courseID string) (CourseProgress, error) {
	return gateway.Get[CourseProgress](ctx, c.s, resourcePath("progress", "course", courseID))
}

func (c *ProgressClient) Module(ctx context.Context, moduleID string) (ModuleProgress, error) {
	return gateway.Get[ModuleProgress](ctx, c.s, resourcePath("progress", "module", moduleID))
}

func (c *ProgressClient) UpdateLesson(ctx context.Context, lessonID string, completed bool) error {
	return gateway.Exec(ctx, c.s, http.MethodPost, resourcePath("progress", "lesson", lessonID), lessonProgress{Completed: completed})
}
