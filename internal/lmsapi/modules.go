package lmsapi

import (
	"context"
	"net/http"

	"github.com/lucifer-699/EduCourseFrontend/internal/domain"
	"github.com/lucifer-699/EduCourseFrontend/internal/gateway"
)

// ModuleInput is the writable part of a module.
type ModuleInput struct {
	CourseID   string `json:"courseId" validate:"required"`
	Title      string `json:"title" validate:"required,max=200"`
	Summary    string `json:"summary,omitempty" validate:"max=2000"`
	CoverImage string `json:"coverImage,omitempty" validate:"omitempty,url"`
}

// ModuleClient calls the /modules endpoints.
type ModuleClient struct {
	s gateway.Sender
}

func (c *ModuleClient) ListByCourse(ctx context.Context, courseID string) ([]domain.Module, error) {
	return gateway.Get[[]domain.Module](ctx, c.s, withQuery("/modules", "courseId", courseID))
}

func (c *ModuleClient) Get(ctx context.Context, id string) (domain.Module, error) {
	return gateway.Get[domain.Module](ctx, c.s, resourcePath("modules", id))
}

func (c *ModuleClient) Create(ctx context.Context, in ModuleInput) (domain.Module, error) {
	return gateway.Post[domain.Module](ctx, c.s, "/modules", in)
}

func (c *ModuleClient) Update(ctx context.Context, id string, in ModuleInput) (domain.Module, error) {
	return gateway.Put[domain.Module](ctx, c.s, resourcePath("modules", id), in)
}

func (c *ModuleClient) Delete(ctx context.Context, id string) error {
	return gateway.Exec(ctx, c.s, http.MethodDelete, resourcePath("modules", id), nil)
}
