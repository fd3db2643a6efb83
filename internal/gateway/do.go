package gateway

import (
	"context"
	"net/http"
)

// Sender is implemented by *Client. Resource clients depend on it so they
// can be tested against a fake.
type Sender interface {
	Send(ctx context.Context, method, path string, body, out any) error
}

// Do performs a call and decodes a 2xx body into T.
func Do[T any](ctx context.Context, s Sender, method, path string, body any) (T, error) {
	var out T
	if err := s.Send(ctx, method, path, body, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Get is Do with GET and no body.
func Get[T any](ctx context.Context, s Sender, path string) (T, error) {
	return Do[T](ctx, s, http.MethodGet, path, nil)
}

// Post is Do with POST.
func Post[T any](ctx context.Context, s Sender, path string, body any) (T, error) {
	return Do[T](ctx, s, http.MethodPost, path, body)
}

// Put is Do with PUT.
func Put[T any](ctx context.Context, s Sender, path string, body any) (T, error) {
	return Do[T](ctx, s, http.MethodPut, path, body)
}

// Exec performs a call whose response body is ignored.
func Exec(ctx context.Context, s Sender, method, path string, body any) error {
	return s.Send(ctx, method, path, body, nil)
}
