package auth_test

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/bluescreen10/voxara/auth"
)

func hash(t *testing.T, password string) string {
	t.Helper()

	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return string(h)
}

func TestAuthenticate(t *testing.T) {
	accounts, err := auth.ParseStaticAccounts([]string{
		"Ana@Voxara.dev:Ana:" + hash(t, "secret"),
	})
	if err != nil {
		t.Fatal(err)
	}

	id, err := accounts.Authenticate(context.Background(), " ana@voxara.dev", "secret")
	if err != nil {
		t.Fatal(err)
	}

	if id.Email != "ana@voxara.dev" || id.Name != "Ana" || id.UserID == "" {
		t.Fatalf("unexpected identity %+v", id)
	}

	again, _ := accounts.Authenticate(context.Background(), "ana@voxara.dev", "secret")
	if again.UserID != id.UserID {
		t.Fatal("expected stable user id")
	}

	tests := []struct {
		email    string
		password string
	}{
		{"ana@voxara.dev", "wrong"},
		{"bob@voxara.dev", "secret"},
		{"", ""},
	}

	for _, tt := range tests {
		if _, err := accounts.Authenticate(context.Background(), tt.email, tt.password); !errors.Is(err, auth.ErrInvalidCredentials) {
			t.Fatalf("%s: expected ErrInvalidCredentials got '%v'", tt.email, err)
		}
	}
}

func TestAuthenticateCanceled(t *testing.T) {
	accounts, err := auth.ParseStaticAccounts(nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := accounts.Authenticate(ctx, "a@b.c", "x"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled got '%v'", err)
	}
}

func TestParseStaticAccountsInvalid(t *testing.T) {
	h := hash(t, "secret")

	tests := []struct {
		name    string
		entries []string
	}{
		{"missing parts", []string{"ana@voxara.dev:Ana"}},
		{"bad email", []string{"ana:Ana:" + h}},
		{"bad hash", []string{"ana@voxara.dev:Ana:plaintext"}},
		{"duplicate", []string{"ana@voxara.dev:Ana:" + h, "ANA@voxara.dev:Other:" + h}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := auth.ParseStaticAccounts(tt.entries); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
