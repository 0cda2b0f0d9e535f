package auth

import (
	"errors"
	"testing"

	"carkeeper/internal/model"
)

func TestRequire(t *testing.T) {
	if err := Require(Principal{}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	p := FromUser(&model.User{ID: 7, TelegramID: 42})
	if err := Require(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if FromUser(nil).Authenticated() {
		t.Fatal("nil user must not authenticate")
	}
}
