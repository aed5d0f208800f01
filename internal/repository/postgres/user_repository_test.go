package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/serviceinfo/serviceinfo/internal/domain/user"
	"github.com/serviceinfo/serviceinfo/internal/pkg/errors"
	"github.com/serviceinfo/serviceinfo/internal/repository/postgres"
	"github.com/serviceinfo/serviceinfo/internal/testutil"
)

func TestUserRepository_Create(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(db)

	tests := []struct {
		name    string
		user    *user.User
		wantErr bool
	}{
		{
			name:    "create user successfully",
			user:    &user.User{Email: "test@example.com", PasswordHash: "hash"},
			wantErr: false,
		},
		{
			name:    "create inactive user with activation key",
			user:    &user.User{Email: "another@example.com", ActivationKey: "abc123"},
			wantErr: false,
		},
		{
			name:    "duplicate email",
			user:    &user.User{Email: "test@example.com"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(context.Background(), tt.user)

			if (err != nil) != tt.wantErr {
				t.Errorf("Create() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr && tt.user.ID == 0 {
				t.Error("Create() did not set user ID")
			}
		})
	}
}

func TestUserRepository_GetByID(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(db)
	ctx := context.Background()

	testUser := &user.User{Email: "test@example.com", IsStaff: true}
	if err := repo.Create(ctx, testUser); err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	tests := []struct {
		name    string
		id      int64
		wantErr bool
	}{
		{name: "get existing user", id: testUser.ID},
		{name: "get non-existent user", id: 99999, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.GetByID(ctx, tt.id)

			if (err != nil) != tt.wantErr {
				t.Errorf("GetByID() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				if !errors.IsNotFound(err) {
					t.Errorf("GetByID() error = %v, want not found", err)
				}
				return
			}
			if got.Email != testUser.Email {
				t.Errorf("GetByID() email = %v, want %v", got.Email, testUser.Email)
			}
			if !got.IsStaff {
				t.Error("GetByID() lost is_staff")
			}
		})
	}
}

func TestUserRepository_ActivationKey(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(db)
	ctx := context.Background()

	u := &user.User{Email: "inactive@example.com", ActivationKey: "key-1"}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	// users without a key must not collide on the unique index
	if err := repo.Create(ctx, &user.User{Email: "a@example.com"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Create(ctx, &user.User{Email: "b@example.com"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByActivationKey(ctx, "key-1")
	if err != nil {
		t.Fatalf("GetByActivationKey() error = %v", err)
	}
	if got.ID != u.ID || got.IsActive {
		t.Errorf("GetByActivationKey() = %+v", got)
	}

	now := time.Now()
	got.IsActive = true
	got.ActivatedAt = &now
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	again, err := repo.GetByActivationKey(ctx, "key-1")
	if err != nil {
		t.Fatalf("GetByActivationKey() after activation error = %v", err)
	}
	if !again.IsActive || again.ActivatedAt == nil {
		t.Error("activation was not persisted")
	}

	if _, err := repo.GetByActivationKey(ctx, "unknown"); !errors.IsNotFound(err) {
		t.Errorf("GetByActivationKey(unknown) error = %v, want not found", err)
	}
}

func TestUserRepository_Update(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(db)
	ctx := context.Background()

	u := &user.User{Email: "test@example.com"}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	u.PasswordHash = "new-hash"
	u.IsSuperuser = true
	if err := repo.Update(ctx, u); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := repo.GetByEmail(ctx, "test@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if got.PasswordHash != "new-hash" || !got.IsSuperuser {
		t.Errorf("Update() not persisted: %+v", got)
	}

	missing := &user.User{ID: 4242, Email: "ghost@example.com"}
	if err := repo.Update(ctx, missing); !errors.IsNotFound(err) {
		t.Errorf("Update(missing) error = %v, want not found", err)
	}
}

func TestUserRepository_Tokens(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(db)
	ctx := context.Background()

	u := &user.User{Email: "token@example.com", IsActive: true}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := repo.GetTokenForUser(ctx, u.ID); !errors.IsNotFound(err) {
		t.Fatalf("GetTokenForUser() before create error = %v, want not found", err)
	}

	if err := repo.CreateToken(ctx, &user.APIToken{Key: "k1", UserID: u.ID}); err != nil {
		t.Fatalf("CreateToken() error = %v", err)
	}
	if err := repo.CreateToken(ctx, &user.APIToken{Key: "k2", UserID: u.ID}); err == nil {
		t.Error("CreateToken() second token for same user should fail")
	}

	tok, err := repo.GetToken(ctx, "k1")
	if err != nil {
		t.Fatalf("GetToken() error = %v", err)
	}
	if tok.UserID != u.ID {
		t.Errorf("GetToken() user = %d, want %d", tok.UserID, u.ID)
	}

	byUser, err := repo.GetTokenForUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetTokenForUser() error = %v", err)
	}
	if byUser.Key != "k1" {
		t.Errorf("GetTokenForUser() key = %s, want k1", byUser.Key)
	}
}

func TestUserRepository_List(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(db)
	ctx := context.Background()

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		if err := repo.Create(ctx, &user.User{Email: email}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	users, total, err := repo.List(ctx, 2, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 3 {
		t.Errorf("List() total = %d, want 3", total)
	}
	if len(users) != 2 {
		t.Errorf("List() returned %d users, want 2", len(users))
	}
}
