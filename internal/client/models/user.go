// Package models defines the data records shared by the session components.
package models

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	defaultDisplayName = "User"
	defaultInitial     = "U"
)

// User identifies the signed-in principal.
//
// A User is never mutated in place: a new record replaces the old one
// wholesale whenever the remote authority returns fresh data.
type User struct {
	ID    string  `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name,omitempty"`
}

// DisplayName returns the user's name, or a generic label when it is absent.
func (u User) DisplayName() string {
	if u.Name != nil && strings.TrimSpace(*u.Name) != "" {
		return *u.Name
	}
	return defaultDisplayName
}

// Initial returns the upper-cased first letter of the name, falling back to
// the email and finally to "U".
func (u User) Initial() string {
	if u.Name != nil {
		if s := firstRune(*u.Name); s != "" {
			return s
		}
	}
	if s := firstRune(u.Email); s != "" {
		return s
	}
	return defaultInitial
}

func firstRune(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r))
}
