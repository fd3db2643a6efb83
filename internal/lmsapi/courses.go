package lmsapi

import (
	"context"
	"net/http"

	"github.com/lucifer-699/EduCourseFrontend/internal/domain"
	"github.com/lucifer-699/EduCourseFrontend/internal/gateway"
)

// CourseInput is the writable part of a course.
type CourseInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Thumbnail   string `json:"thumbnail,omitempty" validate:"omitempty,url"`
	CoverImage  string `json:"coverImage,omitempty" validate:"omitempty,url"`
	Instructor  string `json:"instructor,omitempty" validate:"max=200"`
}

// CourseClient calls the /courses endpoints.
type CourseClient struct {
	s gateway.Sender
}

func (c *CourseClient) List(ctx context.Context) ([]domain.Course, error) {
	return gateway.Get[[]domain.Course](ctx, c.s, "/courses")
}

func (c *CourseClient) Get(ctx context.Context, id string) (domain.Course, error) {
	return gateway.Get[domain.Course](ctx, c.s, resourcePath("courses", id))
}

func (c *CourseClient) Create(ctx context.Context, in CourseInput) (domain.Course, error) {
	return gateway.Post[domain.Course](ctx, c.s, "/courses", in)
}

func (c *CourseClient) Update(ctx context.Context, id string, in CourseInput) (domain.Course, error) {
	return gateway.Put[domain.Course](ctx, c.s, resourcePath("courses", id), in)
}

func (c *CourseClient) Delete(ctx context.Context, id string) error {
	return gateway.Exec(ctx, c.s, http.MethodDelete, resourcePath("courses", id), nil)
}
