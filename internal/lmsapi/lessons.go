package lmsapi

import (
	"context"
	"net/http"

	"github.com/lucifer-699/EduCourseFrontend/internal/domain"
	"github.com/lucifer-699/EduCourseFrontend/internal/gateway"
)

// LessonInput is the writable part of a lesson.
type LessonInput struct {
	ModuleID string               `json:"moduleId" validate:"required"`
	Title    string               `json:"title" validate:"required,max=200"`
	Type     domain.ContentType   `json:"type" validate:"required,oneof=text video pdf embed quiz"`
	Content  domain.LessonContent `json:"content"`
	Duration int                  `json:"duration,omitempty" validate:"gte=0"`
}

// LessonClient calls the /lessons endpoints.
type LessonClient struct {
	s gateway.Sender
}

func (c *LessonClient) ListByModule(ctx context.Context, moduleID string) ([]domain.Lesson, error) {
	return gateway.Get[[]domain.Lesson](ctx, c.s, withQuery("/lessons", "moduleId", moduleID))
}

func (c *LessonClient) Get(ctx context.Context, id string) (domain.Lesson, error) {
	return gateway.Get[domain.Lesson](ctx, c.s, resourcePath("lessons", id))
}

func (c *LessonClient) Create(ctx context.Context, in LessonInput) (domain.Lesson, error) {
	return gateway.Post[domain.Lesson](ctx, c.s, "/lessons", in)
}

func (c *LessonClient) Update(ctx context.Context, id string, in LessonInput) (domain.Lesson, error) {
	return gateway.Put[domain.Lesson](ctx, c.s, resourcePath("lessons", id), in)
}

func (c *LessonClient) Delete(ctx context.Context, id string) error {
	return gateway.Exec(ctx, c.s, http.MethodDelete, resourcePath("lessons", id), nil)
}

// Complete marks the lesson done for the current user.
func (c *LessonClient) Complete(ctx context.Context, id string) error {
	return gateway.Exec(ctx, c.s, http.MethodPost, resourcePath("lessons", id, "complete"), nil)
}
