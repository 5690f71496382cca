// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package container

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/pdiddy/deal-analyzer/internal/command"
)

// fakeRunner resolves the given binaries and succeeds only for the listed
// command lines, except "run" which is delegated to filter.
func fakeRunner(bins []string, ok []string, filter func(command.Call, io.Writer) error) *command.Fake {
	binSet := map[string]bool{}
	for _, b := range bins {
		binSet[b] = true
	}
	okSet := map[string]bool{}
	for _, l := range ok {
		okSet[l] = true
	}
	return &command.Fake{
		Bins: binSet,
		Handler: func(call command.Call, stdout io.Writer) error {
			if len(call.Args) > 0 && call.Args[0] == "run" && filter != nil {
				return filter(call, stdout)
			}
			if okSet[call.Line()] {
				return nil
			}
			return errors.New("command failed: " + call.Line())
		},
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		bins     []string
		ok       []string
		wantName string
		wantErr  bool
	}{
		{"docker available", []string{"docker"}, []string{"docker info"}, "docker", false},
		{"podman fallback when docker missing", []string{"podman"}, []string{"podman info"}, "podman", false},
		{"neither available", nil, nil, "", true},
		{"docker on PATH but info fails", []string{"docker", "podman"}, []string{"podman info"}, "podman", false},
		{"both available, docker preferred", []string{"docker", "podman"}, []string{"docker info", "podman info"}, "docker", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, err := Detect(context.Background(), fakeRunner(tt.bins, tt.ok, nil))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), "no container runtime available") {
					t.Errorf("error should mention no runtime available, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rt.Name() != tt.wantName {
				t.Errorf("got runtime %q, want %q", rt.Name(), tt.wantName)
			}
		})
	}
}

func TestImageExists(t *testing.T) {
	const image = "markitdown:latest"
	tests := []struct {
		name    string
		mkRT    func(command.Runner) Runtime
		ok      []string
		wantErr bool
	}{
		{"docker image exists", func(r command.Runner) Runtime { return newDockerRuntime(r) }, []string{"docker image inspect " + image}, false},
		{"docker image missing", func(r command.Runner) Runtime { return newDockerRuntime(r) }, nil, true},
		{"podman image exists", func(r command.Runner) Runtime { return newPodmanRuntime(r) }, []string{"podman image exists " + image}, false},
		{"podman image missing", func(r command.Runner) Runtime { return newPodmanRuntime(r) }, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := tt.mkRT(fakeRunner(nil, tt.ok, nil))
			err := rt.ImageExists(context.Background(), image)
			if tt.wantErr {
				if err == nil || !strings.Contains(err.Error(), image) {
					t.Fatalf("expected error mentioning %s, got %v", image, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestFilter(t *testing.T) {
	var gotArgs []string
	run := fakeRunner(nil, nil, func(call command.Call, stdout io.Writer) error {
		gotArgs = call.Args
		io.WriteString(stdout, "converted: "+call.Stdin)
		return nil
	})

	rt := newDockerRuntime(run)
	var out bytes.Buffer
	if err := rt.Filter(context.Background(), "markitdown:latest", strings.NewReader("%PDF"), &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := out.String(); got != "converted: %PDF" {
		t.Errorf("got output %q", got)
	}
	if want := "run --rm -i --network none markitdown:latest"; strings.Join(gotArgs, " ") != want {
		t.Errorf("got args %q, want %q", strings.Join(gotArgs, " "), want)
	}
}

func TestFilterFailure(t *testing.T) {
	run := fakeRunner(nil, nil, func(command.Call, io.Writer) error {
		return &command.ExitError{Name: "podman", Code: 1}
	})
	err := newPodmanRuntime(run).Filter(context.Background(), "markitdown:latest", strings.NewReader(""), io.Discard)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var exitErr *command.ExitError
	if !errors.As(err, &exitErr) {
		t.Errorf("expected wrapped ExitError, got %v", err)
	}
}

func TestRuntimeName(t *testing.T) {
	run := &command.Fake{}
	if n := newDockerRuntime(run).Name(); n != "docker" {
		t.Errorf("docker runtime name = %q", n)
	}
	if n := newPodmanRuntime(run).Name(); n != "podman" {
		t.Errorf("podman runtime name = %q", n)
	}
}
