// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package command

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// Call is one invocation recorded by Fake.
type Call struct {
	Name  string
	Args  []string
	Stdin string
}

// Line returns the call as a space-joined command line.
func (c Call) Line() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Fake is a Runner for tests. It records calls and answers them with
// Handler, or succeeds when Handler is nil.
type Fake struct {
	// Bins lists executables that LookPath resolves.
	Bins map[string]bool

	Handler func(call Call, stdout io.Writer) error

	mu    sync.Mutex
	calls []Call
}

func (f *Fake) LookPath(file string) (string, error) {
	if f.Bins[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found: " + file)
}

func (f *Fake) Run(_ context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error {
	call := Call{Name: name, Args: append([]string(nil), args...)}
	if stdin != nil {
		b, _ := io.ReadAll(stdin)
		call.Stdin = string(b)
	}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	if f.Handler == nil {
		return nil
	}
	if stdout == nil {
		stdout = io.Discard
	}
	return f.Handler(call, stdout)
}

// Calls returns a copy of the recorded calls.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}
