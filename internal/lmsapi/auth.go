package lmsapi

import (
	"context"
	"net/http"

	"github.com/lucifer-699/EduCourseFrontend/internal/gateway"
)

// LoginResponse is what /auth/login and /auth/register return. Role is left
// as a string so the caller can reject unknown values.
type LoginResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

// RegisterRequest is the body of /auth/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenBody struct {
	Token string `json:"token"`
}

// AuthClient calls the /auth endpoints.
type AuthClient struct {
	s gateway.Sender
}

func (c *AuthClient) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	return gateway.Post[LoginResponse](ctx, c.s, "/auth/login", loginRequest{Email: email, Password: password})
}

func (c *AuthClient) Register(ctx context.Context, req RegisterRequest) (LoginResponse, error) {
	return gateway.Post[LoginResponse](ctx, c.s, "/auth/register", req)
}

// Refresh exchanges token for a new one.
func (c *AuthClient) Refresh(ctx context.Context, token string) (string, error) {
	resp, err := gateway.Post[tokenBody](ctx, c.s, "/auth/refresh", tokenBody{Token: token})
	if err != nil {
		return "", err
	}
	return resp.Token, nil
}

// Logout invalidates the credential carried by ctx on the server.
func (c *AuthClient) Logout(ctx context.Context) error {
	return gateway.Exec(ctx, c.s, http.MethodPost, "/auth/logout", nil)
}
