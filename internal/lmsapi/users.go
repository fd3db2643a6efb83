package lmsapi

import (
	"context"
	"net/http"

	"github.com/lucifer-699/EduCourseFrontend/internal/domain"
	"github.com/lucifer-699/EduCourseFrontend/internal/gateway"
)

// UserUpdate is the writable part of an account.
type UserUpdate struct {
	Name  string      `json:"name" validate:"required,max=200"`
	Email string      `json:"email" validate:"required,email"`
	Role  domain.Role `json:"role" validate:"required,oneof=admin user"`
}

// UserClient calls the /users endpoints. Only administrators are served.
type UserClient struct {
	s gateway.Sender
}

func (c *UserClient) List(ctx context.Context) ([]domain.User, error) {
	return gateway.Get[[]domain.User](ctx, c.s, "/users")
}

func (c *UserClient) Get(ctx context.Context, id string) (domain.User, error) {
	return gateway.Get[domain.User](ctx, c.s, resourcePath("users", id))
}

func (c *UserClient) Update(ctx context.Context, id string, in UserUpdate) (domain.User, error) {
	return gateway.Put[domain.User](ctx, c.s, resourcePath("users", id), in)
}

func (c *UserClient) Delete(ctx context.Context, id string) error {
	return gateway.Exec(ctx, c.s, http.MethodDelete, resourcePath("users", id), nil)
}
