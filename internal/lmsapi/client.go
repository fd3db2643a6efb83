// Package lmsapi holds typed clients for the LMS API resources. Every method
// is a thin builder over the gateway; failures are returned exactly as the
// gateway produced them.
package lmsapi

import (
	"net/url"
	"strings"

	"github.com/lucifer-699/EduCourseFrontend/internal/gateway"
)

// Client groups the resource clients that share one gateway.
type Client struct {
	Auth     *AuthClient
	Courses  *CourseClient
	Modules  *ModuleClient
	Lessons  *LessonClient
	Users    *UserClient
	Progress *ProgressClient
}

// New builds every resource client over s.
func New(s gateway.Sender) *Client {
	return &Client{
		Auth:     &AuthClient{s: s},
		Courses:  &CourseClient{s: s},
		Modules:  &ModuleClient{s: s},
		Lessons:  &LessonClient{s: s},
		Users:    &UserClient{s: s},
		Progress: &ProgressClient{s: s},
	}
}

// resourcePath joins escaped segments under a collection,
// e.g. resourcePath("lessons", id, "complete").
func resourcePath(collection string, segments ...string) string {
	var b strings.Builder
	b.WriteString("/")
	b.WriteString(collection)
	for _, s := range segments {
		b.WriteString("/")
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

// withQuery appends a single url-encoded query parameter.
func withQuery(path, key, value string) string {
	return path + "?" + url.Values{key: []string{value}}.Encode()
}
