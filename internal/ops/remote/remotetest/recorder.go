// Package remotetest provides a recording Runner for ops tests.
package remotetest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/serviceinfo/serviceinfo/internal/ops/remote"
)

// Call is one recorded Runner invocation
type Call struct {
	Host     string
	Kind     string // run, sudo, put, get, exists
	Command  string
	User     string
	WarnOnly bool
}

// String renders the call for compact assertions, e.g. "sudo[service_info]: migrate"
func (c Call) String() string {
	kind := c.Kind
	if c.User != "" {
		kind += "[" + c.User + "]"
	}
	return kind + ": " + c.Command
}

// Recorder is a fake remote.Runner. Remote files live in Files; Get and Put move them
// to and from the real local filesystem.
type Recorder struct {
	HostName string
	// Files holds remote file contents by path
	Files map[string]string
	// Fail maps a command substring to the exit code it should produce
	Fail map[string]int
	// Output maps a command substring to its output
	Output map[string]string

	mu    sync.Mutex
	calls []Call
	log   *[]Call
}

// New creates a recorder for host
func New(host string) *Recorder {
	return &Recorder{
		HostName: host,
		Files:    map[string]string{},
		Fail:     map[string]int{},
		Output:   map[string]string{},
	}
}

// Shared makes every recorder in rs append to one ordered log, so tests can assert on
// the interleaving of commands across hosts. The log is read with Calls on any of them.
func Shared(rs ...*Recorder) {
	log := &[]Call{}
	for _, r := range rs {
		r.log = log
	}
}

func (r *Recorder) record(c Call) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.Host = r.HostName
	if r.log != nil {
		*r.log = append(*r.log, c)
		return
	}
	r.calls = append(r.calls, c)
}

// Calls returns the recorded calls
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	src := r.calls
	if r.log != nil {
		src = *r.log
	}
	return append([]Call(nil), src...)
}

// Commands returns the recorded calls rendered with Call.String
func (r *Recorder) Commands() []string {
	calls := r.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.String()
	}
	return out
}

func (r *Recorder) Host() string { return r.HostName }

func (r *Recorder) Run(ctx context.Context, cmd string, opts ...remote.Option) (remote.Result, error) {
	return r.exec("run", cmd, remote.Apply(opts))
}

func (r *Recorder) Sudo(ctx context.Context, cmd string, opts ...remote.Option) (remote.Result, error) {
	return r.exec("sudo", cmd, remote.Apply(opts))
}

func (r *Recorder) exec(kind, cmd string, o remote.Options) (remote.Result, error) {
	r.record(Call{Kind: kind, Command: cmd, User: o.User, WarnOnly: o.WarnOnly})

	res := remote.Result{}
	for substr, out := range r.Output {
		if strings.Contains(cmd, substr) {
			res.Output = out
		}
	}
	for substr, code := range r.Fail {
		if strings.Contains(cmd, substr) {
			res.ExitCode = code
		}
	}
	return remote.Check(r.HostName, cmd, res, o)
}

func (r *Recorder) Put(ctx context.Context, localPath, remotePath string, useSudo bool) error {
	r.record(Call{Kind: "put", Command: filepath.Base(localPath) + " -> " + remotePath})
	data, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.Files[remotePath] = string(data)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Get(ctx context.Context, remotePath, localPath string) error {
	r.record(Call{Kind: "get", Command: remotePath + " -> " + filepath.Base(localPath)})
	r.mu.Lock()
	data, ok := r.Files[remotePath]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("[%s] %s: %w", r.HostName, remotePath, os.ErrNotExist)
	}
	return os.WriteFile(localPath, []byte(data), 0o600)
}

func (r *Recorder) Exists(ctx context.Context, path string) (bool, error) {
	r.record(Call{Kind: "exists", Command: path})
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.Files[path]
	return ok, nil
}

func (r *Recorder) Close() error { return nil }

// Dialer returns a remote.Dialer handing out the recorders by host. Unknown hosts fail.
func Dialer(rs ...*Recorder) remote.Dialer {
	byHost := map[string]*Recorder{}
	for _, r := range rs {
		byHost[r.HostName] = r
	}
	return func(ctx context.Context, host string) (remote.Runner, error) {
		r, ok := byHost[host]
		if !ok {
			return nil, fmt.Errorf("no recorder for host %s", host)
		}
		return r, nil
	}
}
