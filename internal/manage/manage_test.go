package manage

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/serviceinfo/serviceinfo/internal/config"
	"github.com/serviceinfo/serviceinfo/internal/repository/postgres"
	"github.com/serviceinfo/serviceinfo/internal/testutil"
)

func run(t *testing.T, db *postgres.DB, passwords []string, args ...string) (string, error) {
	t.Helper()
	cfg := &config.Config{Auth: config.AuthConfig{BCryptCost: bcrypt.MinCost}}
	read := func(string) (string, error) {
		if len(passwords) == 0 {
			return "", errors.New("no input")
		}
		p := passwords[0]
		passwords = passwords[1:]
		return p, nil
	}

	out := &bytes.Buffer{}
	root := NewRootCmd(cfg, func() (*postgres.DB, error) { return db, nil }, read, testutil.NewTestLogger())
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMigrate_NothingPending(t *testing.T) {
	db := testutil.NewTestDB(t)

	out, err := run(t, db, nil, "migrate", "--noinput")
	require.NoError(t, err)
	assert.Contains(t, out, "No pending migrations")
}

func TestRebuildIndex_Empty(t *testing.T) {
	db := testutil.NewTestDB(t)

	out, err := run(t, db, nil, "rebuild-index")
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed 0 services")
}

func TestChangeSite(t *testing.T) {
	db := testutil.NewTestDB(t)

	_, err := run(t, db, nil, "change-site", "--from", "example.org", "--to", "staging.example.org")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not example.org")

	out, err := run(t, db, nil, "change-site", "--from", "serviceinfo.rescue.org", "--to", "serviceinfo-staging.rescue.org")
	require.NoError(t, err)
	assert.Contains(t, out, "changed from serviceinfo.rescue.org to serviceinfo-staging.rescue.org")

	s, err := postgres.NewSiteRepository(db).Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "serviceinfo-staging.rescue.org", s.Domain)

	_, err = run(t, db, nil, "change-site", "--from", "serviceinfo.rescue.org")
	assert.Error(t, err)
}

func TestCreateSuperuser(t *testing.T) {
	db := testutil.NewTestDB(t)

	out, err := run(t, db, []string{"correct horse", "correct horse"}, "create-superuser", "--email", "Admin@Example.org")
	require.NoError(t, err)
	assert.Contains(t, out, "Superuser admin@example.org created")

	u, err := postgres.NewUserRepository(db).GetByEmail(context.Background(), "admin@example.org")
	require.NoError(t, err)
	assert.True(t, u.IsSuperuser)
	assert.True(t, u.IsStaff)
	assert.True(t, u.IsActive)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("correct horse")))
}

func TestCreateSuperuser_Rejected(t *testing.T) {
	db := testutil.NewTestDB(t)

	tests := []struct {
		name      string
		passwords []string
		args      []string
		want      string
	}{
		{"mismatch", []string{"password-one", "password-two"}, nil, "do not match"},
		{"short", nil, []string{"--password", "short"}, "at least 8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"create-superuser", "--email", "x@example.org"}, tt.args...)
			_, err := run(t, db, tt.passwords, args...)
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.want), err.Error())
		})
	}
}
