package lmsapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucifer-699/EduCourseFrontend/internal/domain"
	"github.com/lucifer-699/EduCourseFrontend/internal/gateway"
)

type call struct {
	method string
	path   string
	body   any
}

// fakeSender records calls and answers with a canned JSON value or error.
type fakeSender struct {
	calls    []call
	response any
	err      error
}

func (f *fakeSender) Send(_ context.Context, method, path string, body, out any) error {
	f.calls = append(f.calls, call{method: method, path: path, body: body})
	if f.err != nil {
		return f.err
	}
	if out == nil || f.response == nil {
		return nil
	}
	data, err := json.Marshal(f.response)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (f *fakeSender) last(t *testing.T) call {
	t.Helper()
	require.NotEmpty(t, f.calls)
	return f.calls[len(f.calls)-1]
}

func TestRoutes(t *testing.T) {
	ctx := context.Background()
	f := &fakeSender{}
	api := New(f)

	tests := []struct {
		name   string
		invoke func() error
		method string
		path   string
	}{
		{"courses list", func() error { _, err := api.Courses.List(ctx); return err }, http.MethodGet, "/courses"},
		{"course get", func() error { _, err := api.Courses.Get(ctx, "c1"); return err }, http.MethodGet, "/courses/c1"},
		{"course create", func() error { _, err := api.Courses.Create(ctx, CourseInput{Title: "Go"}); return err }, http.MethodPost, "/courses"},
		{"course update", func() error { _, err := api.Courses.Update(ctx, "c1", CourseInput{Title: "Go"}); return err }, http.MethodPut, "/courses/c1"},
		{"course delete", func() error { return api.Courses.Delete(ctx, "c1") }, http.MethodDelete, "/courses/c1"},
		{"modules by course", func() error { _, err := api.Modules.ListByCourse(ctx, "c1"); return err }, http.MethodGet, "/modules?courseId=c1"},
		{"module get", func() error { _, err := api.Modules.Get(ctx, "m1"); return err }, http.MethodGet, "/modules/m1"},
		{"module create", func() error { _, err := api.Modules.Create(ctx, ModuleInput{}); return err }, http.MethodPost, "/modules"},
		{"module update", func() error { _, err := api.Modules.Update(ctx, "m1", ModuleInput{}); return err }, http.MethodPut, "/modules/m1"},
		{"module delete", func() error { return api.Modules.Delete(ctx, "m1") }, http.MethodDelete, "/modules/m1"},
		{"lessons by module", func() error { _, err := api.Lessons.ListByModule(ctx, "m1"); return err }, http.MethodGet, "/lessons?moduleId=m1"},
		{"lesson get", func() error { _, err := api.Lessons.Get(ctx, "l1"); return err }, http.MethodGet, "/lessons/l1"},
		{"lesson create", func() error { _, err := api.Lessons.Create(ctx, LessonInput{}); return err }, http.MethodPost, "/lessons"},
		{"lesson update", func() error { _, err := api.Lessons.Update(ctx, "l1", LessonInput{}); return err }, http.MethodPut, "/lessons/l1"},
		{"lesson delete", func() error { return api.Lessons.Delete(ctx, "l1") }, http.MethodDelete, "/lessons/l1"},
		{"lesson complete", func() error { return api.Lessons.Complete(ctx, "l1") }, http.MethodPost, "/lessons/l1/complete"},
		{"users list", func() error { _, err := api.Users.List(ctx); return err }, http.MethodGet, "/users"},
		{"user get", func() error { _, err := api.Users.Get(ctx, "u1"); return err }, http.MethodGet, "/users/u1"},
		{"user update", func() error { _, err := api.Users.Update(ctx, "u1", UserUpdate{}); return err }, http.MethodPut, "/users/u1"},
		{"user delete", func() error { return api.Users.Delete(ctx, "u1") }, http.MethodDelete, "/users/u1"},
		{"course progress", func() error { _, err := api.Progress.Course(ctx, "c1"); return err }, http.MethodGet, "/progress/course/c1"},
		{"module progress", func() error { _, err := api.Progress.Module(ctx, "m1"); return err }, http.MethodGet, "/progress/module/m1"},
		{"lesson progress", func() error { return api.Progress.UpdateLesson(ctx, "l1", true) }, http.MethodPost, "/progress/lesson/l1"},
		{"login", func() error { _, err := api.Auth.Login(ctx, "a@b.c", "pw"); return err }, http.MethodPost, "/auth/login"},
		{"register", func() error { _, err := api.Auth.Register(ctx, RegisterRequest{}); return err }, http.MethodPost, "/auth/register"},
		{"refresh", func() error { _, err := api.Auth.Refresh(ctx, "tok"); return err }, http.MethodPost, "/auth/refresh"},
		{"logout", func() error { return api.Auth.Logout(ctx) }, http.MethodPost, "/auth/logout"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, tc.invoke())
			got := f.last(t)
			assert.Equal(t, tc.method, got.method)
			assert.Equal(t, tc.path, got.path)
		})
	}
}

func TestAuth_LoginBodyAndResponse(t *testing.T) {
	f := &fakeSender{response: map[string]string{"token": "t-1", "role": "admin"}}
	resp, err := New(f).Auth.Login(context.Background(), "admin@example.com", "secret")
	require.NoError(t, err)

	assert.Equal(t, LoginResponse{Token: "t-1", Role: "admin"}, resp)
	assert.Equal(t, loginRequest{Email: "admin@example.com", Password: "secret"}, f.last(t).body)
}

func TestAuth_RefreshSendsToken(t *testing.T) {
	f := &fakeSender{response: map[string]string{"token": "fresh"}}
	token, err := New(f).Auth.Refresh(context.Background(), "stale")
	require.NoError(t, err)

	assert.Equal(t, "fresh", token)
	assert.Equal(t, tokenBody{Token: "stale"}, f.last(t).body)
}

func TestProgress_UpdateLessonBody(t *testing.T) {
	f := &fakeSender{}
	require.NoError(t, New(f).Progress.UpdateLesson(context.Background(), "l1", false))
	assert.Equal(t, lessonProgress{Completed: false}, f.last(t).body)
}

func TestErrorsPassThroughUnchanged(t *testing.T) {
	apiErr := &gateway.APIError{Status: http.StatusNotFound, Message: "Course not found"}
	f := &fakeSender{err: apiErr}

	_, err := New(f).Courses.Get(context.Background(), "missing")
	assert.Same(t, apiErr, err)

	_, err = New(f).Auth.Refresh(context.Background(), "t")
	assert.Same(t, apiErr, err)
}

func TestCourses_DecodesList(t *testing.T) {
	f := &fakeSender{response: []domain.Course{{ID: "c1", Title: "Go"}, {ID: "c2", Title: "SQL"}}}
	courses, err := New(f).Courses.List(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "SQL", courses[1].Title)
}

func TestEscapingOverTheWire(t *testing.T) {
	var escapedPath, rawQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		escapedPath = r.URL.EscapedPath()
		rawQuery = r.URL.RawQuery
		if r.URL.Query().Has("courseId") {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)

	gw := gateway.New(gateway.Config{BaseURL: srv.URL, Timeout: 5 * time.Second}, nil,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	api := New(gw)

	_, err := api.Modules.ListByCourse(context.Background(), "a&b=c d")
	require.NoError(t, err)
	assert.Equal(t, "/modules", escapedPath)
	assert.Equal(t, "courseId=a%26b%3Dc+d", rawQuery)

	_, err = api.Courses.Get(context.Background(), "x/../y")
	require.NoError(t, err)
	assert.Equal(t, "/courses/x%2F..%2Fy", escapedPath)
}
