package users

import (
	"context"
	"errors"
	"testing"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemStore())

	u, err := svc.Register(ctx, "ada@example.com", "Ada", "correct horse")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if u.ID == "" {
		t.Error("registered user has no id")
	}
	if u.PasswordHash == "correct horse" {
		t.Error("password stored in the clear")
	}

	got, err := svc.Authenticate(ctx, "ada@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("Authenticate() id = %q, want %q", got.ID, u.ID)
	}
}

func TestAuthenticateRejections(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemStore())

	if _, err := svc.Register(ctx, "ada@example.com", "Ada", "correct horse"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{name: "wrong password", email: "ada@example.com", password: "wrong"},
		{name: "unknown email", email: "nobody@example.com", password: "correct horse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Both cases surface the same error so the login surface
			// does not reveal which emails are registered.
			if _, err := svc.Authenticate(ctx, tt.email, tt.password); !errors.Is(err, ErrBadCredentials) {
				t.Errorf("Authenticate() error = %v, want ErrBadCredentials", err)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemStore())

	if _, err := svc.Register(ctx, "ada@example.com", "Ada", "pw-one"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := svc.Register(ctx, "ada@example.com", "Imposter", "pw-two"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("Register() duplicate error = %v, want ErrEmailTaken", err)
	}
}
