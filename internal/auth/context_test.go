package auth

import (
	"context"
	"testing"
)

func TestWithAuthAndFromContext(t *testing.T) {
	ac := AuthContext{
		UserID:    1,
		AdminID:   2,
		Email:     "a@example.com",
		SessionID: 3,
		Token:     "tok",
	}

	ctx := WithAuth(context.Background(), ac)
	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected AuthContext in context")
	}
	if got != ac {
		t.Errorf("got %+v, want %+v", got, ac)
	}
	if AdminID(ctx) != 2 {
		t.Errorf("AdminID = %d, want 2", AdminID(ctx))
	}
	if UserID(ctx) != 1 {
		t.Errorf("UserID = %d, want 1", UserID(ctx))
	}
}

func TestFromContextMissing(t *testing.T) {
	_, ok := FromContext(context.Background())
	if ok {
		t.Error("expected no AuthContext in empty context")
	}
	if AdminID(context.Background()) != 0 {
		t.Error("expected zero AdminID")
	}
	if UserID(context.Background()) != 0 {
		t.Error("expected zero UserID")
	}
}
