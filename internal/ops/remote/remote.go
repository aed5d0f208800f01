// Package remote runs commands and transfers files on deployment hosts.
package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"
)

// ErrAborted is matched by every error that stops an ops task
var ErrAborted = errors.New("aborted")

// Result is the outcome of a command
type Result struct {
	Output   string
	ExitCode int
}

// Succeeded reports whether the command exited with status 0
func (r Result) Succeeded() bool {
	return r.ExitCode == 0
}

// Options control how a command runs
type Options struct {
	// User runs the command as this user (sudo -u)
	User string
	// WarnOnly turns a non-zero exit status into a warning instead of an error
	WarnOnly bool
	// Quiet suppresses streaming of the command output
	Quiet bool
}

// Option configures a command
type Option func(*Options)

// AsUser runs the command as user
func AsUser(user string) Option {
	return func(o *Options) { o.User = user }
}

// WarnOnly tolerates a non-zero exit status
func WarnOnly() Option {
	return func(o *Options) { o.WarnOnly = true }
}

// Quiet keeps command output out of the terminal
func Quiet() Option {
	return func(o *Options) { o.Quiet = true }
}

// Apply folds opts into an Options value
func Apply(opts []Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Runner executes commands on one host
type Runner interface {
	// Host is the address commands run on
	Host() string
	Run(ctx context.Context, cmd string, opts ...Option) (Result, error)
	// Sudo runs cmd through sudo, as root or as the AsUser user
	Sudo(ctx context.Context, cmd string, opts ...Option) (Result, error)
	// Put uploads a local file. With useSudo the file is moved into place as root.
	Put(ctx context.Context, localPath, remotePath string, useSudo bool) error
	// Get downloads a remote file or directory tree
	Get(ctx context.Context, remotePath, localPath string) error
	Exists(ctx context.Context, path string) (bool, error)
	Close() error
}

// Dialer opens a Runner for host
type Dialer func(ctx context.Context, host string) (Runner, error)

// CommandError reports a failed command
type CommandError struct {
	Host     string
	Command  string
	ExitCode int
	Output   string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("[%s] command failed with status %d: %s", e.Host, e.ExitCode, e.Command)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\n" + out
	}
	return msg
}

// Is makes errors.Is(err, ErrAborted) true for command failures
func (e *CommandError) Is(target error) bool {
	return target == ErrAborted
}

// Check converts a failed result into a CommandError unless WarnOnly is set
func Check(host, cmd string, res Result, o Options) (Result, error) {
	if res.Succeeded() || o.WarnOnly {
		return res, nil
	}
	return res, &CommandError{Host: host, Command: cmd, ExitCode: res.ExitCode, Output: res.Output}
}

// SudoCommand wraps cmd for execution through sudo
func SudoCommand(cmd string, user string) string {
	args := []string{"sudo", "-S", "-p", ""}
	if user != "" {
		args = append(args, "-u", user)
	}
	return shellquote.Join(args...) + " " + shellquote.Join("sh", "-c", cmd)
}

// Quote joins args into a single shell-safe command line
func Quote(args ...string) string {
	return shellquote.Join(args...)
}

// Split parses a command line into words, honoring shell quoting
func Split(cmd string) ([]string, error) {
	return shellquote.Split(cmd)
}
