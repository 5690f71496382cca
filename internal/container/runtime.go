// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container detects a container runtime and runs one-shot filter
// containers (stdin in, stdout out), used to convert PDF decks to text.
package container

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/deal-analyzer/internal/command"
)

const (
	binDocker = "docker"
	binPodman = "podman"
)

// Runtime runs filter containers.
type Runtime interface {
	// Name returns "docker" or "podman".
	Name() string

	// Available reports whether the binary is on PATH and its daemon
	// answers.
	Available(ctx context.Context) bool

	// ImageExists returns nil when the image is present locally.
	ImageExists(ctx context.Context, image string) error

	// Filter runs image with networking disabled, piping stdin to the
	// container and its output to stdout.
	Filter(ctx context.Context, image string, stdin io.Reader, stdout io.Writer) error
}

// runtime implements Runtime for one binary. Docker and Podman differ only
// in the subcommand used to check for an image.
type runtime struct {
	bin           string
	imageCheckCmd []string
	run           command.Runner
}

func (r *runtime) Name() string { return r.bin }

func (r *runtime) Available(ctx context.Context) bool {
	if _, err := r.run.LookPath(r.bin); err != nil {
		return false
	}
	return r.run.Run(ctx, r.bin, []string{"info"}, nil, nil) == nil
}

func (r *runtime) ImageExists(ctx context.Context, image string) error {
	args := append(append([]string(nil), r.imageCheckCmd...), image)
	if err := r.run.Run(ctx, r.bin, args, nil, nil); err != nil {
		return fmt.Errorf("image %s not found in %s: %w", image, r.bin, err)
	}
	return nil
}

func (r *runtime) Filter(ctx context.Context, image string, stdin io.Reader, stdout io.Writer) error {
	args := []string{"run", "--rm", "-i", "--network", "none", image}
	if err := r.run.Run(ctx, r.bin, args, stdin, stdout); err != nil {
		return fmt.Errorf("running %s container %s: %w", r.bin, image, err)
	}
	return nil
}

func newDockerRuntime(run command.Runner) *runtime {
	return &runtime{bin: binDocker, imageCheckCmd: []string{"image", "inspect"}, run: run}
}

func newPodmanRuntime(run command.Runner) *runtime {
	return &runtime{bin: binPodman, imageCheckCmd: []string{"image", "exists"}, run: run}
}

// Detect tries docker first and falls back to podman. A nil runner uses
// command.Default.
func Detect(ctx context.Context, run command.Runner) (Runtime, error) {
	if run == nil {
		run = command.Default
	}
	if docker := newDockerRuntime(run); docker.Available(ctx) {
		return docker, nil
	}
	if podman := newPodmanRuntime(run); podman.Available(ctx) {
		return podman, nil
	}
	return nil, fmt.Errorf(
		"no container runtime available: neither %s nor %s found or operational",
		binDocker, binPodman,
	)
}
