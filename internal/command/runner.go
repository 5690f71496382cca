// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package command abstracts external process execution so that components
// driving CLIs (container runtimes, the messaging and mail tools) can be
// tested with a fake.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Runner executes external commands.
type Runner interface {
	// LookPath resolves an executable on PATH.
	LookPath(file string) (string, error)

	// Run executes name with args. stdin and stdout may be nil. A non-zero
	// exit is reported as *ExitError.
	Run(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error
}

// ExitError is a command that ran and exited non-zero.
type ExitError struct {
	Name   string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if len(msg) > 200 {
		msg = msg[:200]
	}
	if msg == "" {
		return fmt.Sprintf("%s exited with status %d", e.Name, e.Code)
	}
	return fmt.Sprintf("%s exited with status %d: %s", e.Name, e.Code, msg)
}

// OS is the production runner backed by os/exec.
type OS struct{}

func (OS) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (OS) Run(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Name: name, Code: exitErr.ExitCode(), Stderr: stderr.String()}
	}
	if err != nil {
		return fmt.Errorf("running %s: %w", name, err)
	}
	return nil
}

// Default is the runner used when a component is given none.
var Default Runner = OS{}
