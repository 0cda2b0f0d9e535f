// Package auth carries the caller identity through engine entry points.
package auth

import (
	"errors"

	"carkeeper/internal/model"
)

// ErrUnauthenticated is returned before any collaborator is touched when no
// principal was resolved for the caller.
var ErrUnauthenticated = errors.New("unauthenticated")

// Principal identifies the user an operation runs on behalf of.
type Principal struct {
	UserID     uint
	TelegramID int64
}

// FromUser builds a principal for a stored user.
func FromUser(u *model.User) Principal {
	if u == nil {
		return Principal{}
	}
	return Principal{UserID: u.ID, TelegramID: u.TelegramID}
}

// Authenticated reports whether the principal resolved to a stored user.
func (p Principal) Authenticated() bool {
	return p.UserID != 0
}

// Require returns ErrUnauthenticated for an empty principal.
func Require(p Principal) error {
	if !p.Authenticated() {
		return ErrUnauthenticated
	}
	return nil
}
