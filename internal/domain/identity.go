package domain

import (
	"encoding/base64"
	"strings"
)

// Role is the authorization level carried by an Identity.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole accepts exactly "admin" or "user".
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleUser:
		return Role(s), true
	default:
		return "", false
	}
}

// Identity is the cached representation of the logged-in user. Its role is
// authoritative only after a successful login response.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Credential is the opaque bearer token issued by the LMS API.
type Credential struct {
	Token string `json:"token"`
}

// Record is the single persisted value of a browser session. Token and
// identity are written and cleared together.
type Record struct {
	Credential *Credential `json:"credential,omitempty"`
	Identity   *Identity   `json:"identity,omitempty"`
}

// Complete reports whether both a non-empty token and an identity are present.
func (r *Record) Complete() bool {
	return r != nil && r.Credential != nil && r.Credential.Token != "" && r.Identity != nil
}

// Empty reports whether the record holds nothing worth persisting.
func (r *Record) Empty() bool {
	return r == nil || (r.Credential == nil && r.Identity == nil)
}

const derivedIDLen = 8

// DeriveUserID builds a stable local id from an email: the first eight
// alphanumeric characters of its base64 encoding.
func DeriveUserID(email string) string {
	enc := base64.StdEncoding.EncodeToString([]byte(email))
	var b strings.Builder
	for _, c := range enc {
		if b.Len() == derivedIDLen {
			break
		}
		if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// NameFromEmail returns the local part of an email address.
func NameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

// NewIdentity builds the identity cached after a successful login. An id
// cached by an earlier login is kept; otherwise one is derived from the
// email. An empty name falls back to the email's local part.
func NewIdentity(email, name string, role Role, cached *Identity) Identity {
	id := DeriveUserID(email)
	if cached != nil && cached.ID != "" {
		id = cached.ID
	}
	if name == "" {
		name = NameFromEmail(email)
	}
	if role == "" {
		role = RoleUser
	}
	return Identity{ID: id, Name: name, Email: email, Role: role}
}

// User is an account as listed by the admin user endpoints.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}
