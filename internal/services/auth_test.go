package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/deojon/studio/internal/store"
	"github.com/deojon/studio/types"
)

func validSignup(id string) SignupParams {
	return SignupParams{
		ID:       id,
		Password: "s3cret!",
		Name:     "Kim Deojon",
		Email:    id + "@example.com",
		Phone:    "010-1234-5678",
		Address:  "Seoul",
		Avatar:   "https://example.com/a.png",
	}
}

func TestAuthenticateGeneratesUnregisteredProfile(t *testing.T) {
	auth := NewAuthService(store.NewCollection[Account](), nil)

	user, err := auth.Authenticate(context.Background(), " guest ", "")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if user.ID != "guest" || user.Email != "guest@deojon.com" || user.Role != types.RoleUser {
		t.Fatalf("unexpected generated user %+v", user)
	}

	if _, err := auth.Authenticate(context.Background(), "", "pw"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for empty id, got %v", err)
	}
}

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	auth := NewAuthService(store.NewCollection[Account](), nil)

	if _, err := auth.Register(ctx, validSignup("member")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := auth.Authenticate(ctx, "member", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	user, err := auth.Authenticate(ctx, "member", "s3cret!")
	if err != nil || user.Name != "Kim Deojon" {
		t.Fatalf("expected registered profile, got %+v (%v)", user, err)
	}

	if _, err := auth.Register(ctx, validSignup("member")); !errors.Is(err, ErrIDUnavailable) {
		t.Fatalf("expected ErrIDUnavailable for a taken id, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	auth := NewAuthService(store.NewCollection[Account](), nil)
	ctx := context.Background()

	bad := validSignup("member")
	bad.Email = "not-an-email"
	if _, err := auth.Register(ctx, bad); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for malformed email, got %v", err)
	}

	missing := validSignup("member")
	missing.Phone = " "
	if _, err := auth.Register(ctx, missing); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for missing phone, got %v", err)
	}

	if _, err := auth.Register(ctx, validSignup("abc")); !errors.Is(err, ErrIDUnavailable) {
		t.Fatalf("expected ErrIDUnavailable for a short id, got %v", err)
	}
}

func TestUpdateProfileRequiresCurrentPassword(t *testing.T) {
	ctx := context.Background()
	auth := NewAuthService(store.NewCollection[Account](), nil)
	user, _ := auth.Register(ctx, validSignup("member"))

	name := "Renamed"
	updated, err := auth.UpdateProfile(ctx, user, UpdateProfileParams{Name: &name})
	if err != nil || updated.Name != "Renamed" || updated.ID != "member" {
		t.Fatalf("unexpected update %+v (%v)", updated, err)
	}

	if _, err := auth.UpdateProfile(ctx, user, UpdateProfileParams{NewPassword: "next", CurrentPassword: "nope"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := auth.UpdateProfile(ctx, user, UpdateProfileParams{NewPassword: "next", CurrentPassword: "s3cret!"}); err != nil {
		t.Fatalf("password change failed: %v", err)
	}
	if _, err := auth.Authenticate(ctx, "member", "next"); err != nil {
		t.Fatalf("expected new password to work, got %v", err)
	}

	if resolved, _ := auth.Resolve("member"); resolved.Name != "Renamed" {
		t.Fatalf("expected persisted profile, got %+v", resolved)
	}
}

func TestIssueTempPasswordKeepsOldPasswordWhenMailFails(t *testing.T) {
	ctx := context.Background()
	smtpDown := errors.New("smtp down")
	auth := NewAuthService(store.NewCollection[Account](), failingMailer{err: smtpDown})
	_, _ = auth.Register(ctx, validSignup("kimj"))

	if _, err := auth.IssueTempPassword(ctx, "kimj@example.com"); !errors.Is(err, smtpDown) {
		t.Fatalf("expected mail failure, got %v", err)
	}
	if _, err := auth.Authenticate(ctx, "kimj", "s3cret!"); err != nil {
		t.Fatalf("expected old password to keep working, got %v", err)
	}
}

func TestIssueTempPasswordMailsAccount(t *testing.T) {
	ctx := context.Background()
	mail := &outbox{}
	auth := NewAuthService(store.NewCollection[Account](), mail)
	_, _ = auth.Register(ctx, validSignup("member"))

	temp, err := auth.IssueTempPassword(ctx, "MEMBER@example.com")
	if err != nil {
		t.Fatalf("IssueTempPassword failed: %v", err)
	}
	if len(temp) != 10 || !strings.Contains(mail.body, temp) || mail.to[0] != "MEMBER@example.com" {
		t.Fatalf("unexpected mail %+v for temp %q", mail, temp)
	}
	if _, err := auth.Authenticate(ctx, "member", temp); err != nil {
		t.Fatalf("expected temporary password to work, got %v", err)
	}

	if _, err := auth.IssueTempPassword(ctx, "nobody@example.com"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
