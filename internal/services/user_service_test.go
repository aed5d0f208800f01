package services

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/serviceinfo/serviceinfo/internal/pkg/errors"
	"github.com/serviceinfo/serviceinfo/internal/pkg/logger"
	"github.com/serviceinfo/serviceinfo/internal/testutil"
)

func newTestUserService() (*testutil.MockUserRepository, *UserService) {
	repo := testutil.NewMockUserRepository()
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	return repo, NewUserService(repo, bcrypt.MinCost, log).(*UserService)
}

func TestUserService_Register(t *testing.T) {
	repo, svc := newTestUserService()
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, "admin@example.com", "secret", true, true); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{name: "successful registration", email: "fred@example.com"},
		{name: "email is normalized", email: "  Joe@Example.com "},
		{name: "pending email is renewed", email: "FRED@example.com"},
		{name: "active email", email: "admin@example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := svc.Register(ctx, tt.email, "foobar")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Register() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if appErr, ok := errors.As(err); !ok || appErr.Code != errors.ErrCodeConflict {
					t.Errorf("Register() error = %v, want conflict", err)
				}
				return
			}
			if u.IsActive {
				t.Error("Register() created an active user")
			}
			if len(u.ActivationKey) != 32 {
				t.Errorf("ActivationKey = %q, want 32 hex chars", u.ActivationKey)
			}
			if u.PasswordHash == "foobar" || u.PasswordHash == "" {
				t.Error("password was not hashed")
			}
		})
	}

	if len(repo.Users) != 3 {
		t.Errorf("users = %d, want 3", len(repo.Users))
	}
}

func TestUserService_RegisterRenewsPendingKey(t *testing.T) {
	_, svc := newTestUserService()
	ctx := context.Background()

	first, err := svc.Register(ctx, "fred@example.com", "foobar")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	firstKey, firstHash := first.ActivationKey, first.PasswordHash

	again, err := svc.Register(ctx, "fred@example.com", "another")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if again.ID != first.ID {
		t.Errorf("ID = %d, want %d", again.ID, first.ID)
	}
	if again.ActivationKey == firstKey || again.PasswordHash == firstHash {
		t.Error("pending registration kept its old key or password")
	}
	if _, _, err := svc.Activate(ctx, firstKey); !errors.IsNotFound(err) {
		t.Errorf("Activate(old key) error = %v, want not found", err)
	}
	if _, changed, err := svc.Activate(ctx, again.ActivationKey); err != nil || !changed {
		t.Errorf("Activate(new key) = %v, %v", changed, err)
	}
}

func TestUserService_Activate(t *testing.T) {
	repo, svc := newTestUserService()
	ctx := context.Background()

	u, err := svc.Register(ctx, "fred@example.com", "foobar")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	activated, changed, err := svc.Activate(ctx, u.ActivationKey)
	if err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if !changed || !activated.IsActive || activated.ActivatedAt == nil {
		t.Errorf("Activate() = %+v changed=%v", activated, changed)
	}

	// replaying the link leaves the account as is
	stored, _ := repo.GetByID(ctx, u.ID)
	firstActivation := *stored.ActivatedAt
	again, changed, err := svc.Activate(ctx, u.ActivationKey)
	if err != nil {
		t.Fatalf("Activate() replay error = %v", err)
	}
	if changed {
		t.Error("Activate() replay reported a state change")
	}
	if !again.ActivatedAt.Equal(firstActivation) {
		t.Error("Activate() replay changed activated_at")
	}

	for _, key := range []string{"", "no-such-key"} {
		if _, _, err := svc.Activate(ctx, key); !errors.IsNotFound(err) {
			t.Errorf("Activate(%q) error = %v, want not found", key, err)
		}
	}
}

func TestUserService_Authenticate(t *testing.T) {
	_, svc := newTestUserService()
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, "joe@example.com", "password", false, true); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if _, err := svc.Register(ctx, "fred@example.com", "foobar"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		wantCode string
	}{
		{name: "valid credentials", email: "joe@example.com", password: "password"},
		{name: "case insensitive email", email: "JOE@example.com", password: "password"},
		{name: "wrong password", email: "joe@example.com", password: "nope", wantCode: errors.ErrCodeUnauthorized},
		{name: "unknown user", email: "ghost@example.com", password: "password", wantCode: errors.ErrCodeUnauthorized},
		{name: "inactive user", email: "fred@example.com", password: "foobar", wantCode: errors.ErrCodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := svc.Authenticate(ctx, tt.email, tt.password)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("Authenticate() error = %v", err)
				}
				if !u.IsSuperuser || !u.IsStaff {
					t.Errorf("Authenticate() = %+v, want superuser staff", u)
				}
				return
			}
			appErr, ok := errors.As(err)
			if !ok || appErr.Code != tt.wantCode {
				t.Errorf("Authenticate() error = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestUserService_Token(t *testing.T) {
	_, svc := newTestUserService()
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, "joe@example.com", "password", false, false)
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	tok, err := svc.Token(ctx, u.ID)
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if len(tok.Key) != 40 {
		t.Errorf("Token() key length = %d, want 40", len(tok.Key))
	}

	again, err := svc.Token(ctx, u.ID)
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if again.Key != tok.Key {
		t.Error("Token() should return the existing token")
	}

	resolved, err := svc.UserForToken(ctx, tok.Key)
	if err != nil {
		t.Fatalf("UserForToken() error = %v", err)
	}
	if resolved.ID != u.ID {
		t.Errorf("UserForToken() = %d, want %d", resolved.ID, u.ID)
	}

	if _, err := svc.UserForToken(ctx, "bogus"); err == nil {
		t.Error("UserForToken() with unknown key should fail")
	}
}
