package remote

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSudoCommand(t *testing.T) {
	tests := []struct {
		name string
		cmd  string
		user string
		want string
	}{
		{"root", "service salt-master restart", "", "sudo -S -p '' sh -c 'service salt-master restart'"},
		{"as user", "manage.sh migrate", "service_info", "sudo -S -p '' -u service_info sh -c 'manage.sh migrate'"},
		{"quotes", `psql master -c "alter database a rename to b"`, "", `sudo -S -p '' sh -c 'psql master -c "alter database a rename to b"'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SudoCommand(tt.cmd, tt.user))
		})
	}
}

func TestQuoteSplit(t *testing.T) {
	line := Quote("rsync", "-a", "my media/", "host:/tmp/")
	assert.Equal(t, "rsync -a 'my media/' host:/tmp/", line)

	words, err := Split(line)
	require.NoError(t, err)
	assert.Equal(t, []string{"rsync", "-a", "my media/", "host:/tmp/"}, words)
}

func TestCheck(t *testing.T) {
	_, err := Check("web1", "false", Result{ExitCode: 1, Output: "boom"}, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAborted))

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, 1, cmdErr.ExitCode)
	assert.Contains(t, err.Error(), "boom")

	res, err := Check("web1", "false", Result{ExitCode: 1}, Options{WarnOnly: true})
	assert.NoError(t, err)
	assert.False(t, res.Succeeded())
}

func TestLocal_Run(t *testing.T) {
	dir := t.TempDir()
	var streamed strings.Builder
	l := NewLocal(dir, &streamed)
	ctx := context.Background()

	res, err := l.Run(ctx, "echo hello")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", res.Output)
	assert.Equal(t, "hello\n", streamed.String())

	_, err = l.Run(ctx, "exit 3")
	require.ErrorIs(t, err, ErrAborted)

	res, err = l.Run(ctx, "exit 3", WarnOnly())
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)

	_, err = l.Run(ctx, "echo quiet", Quiet())
	require.NoError(t, err)
	assert.NotContains(t, streamed.String(), "quiet")
}

func TestLocal_Files(t *testing.T) {
	dir := t.TempDir()
	l := NewLocal(dir, nil)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("data"), 0o600))

	ok, err := l.Exists(ctx, "a.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Exists(ctx, "missing.txt")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l.Put(ctx, "a.txt", "b.txt", false))
	data, err := os.ReadFile(filepath.Join(dir, "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
}
