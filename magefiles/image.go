//go:build mage

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/sh"
)

const markitdownImage = "markitdown:latest"

const markitdownDockerfile = `FROM python:3.12-slim
RUN pip install --no-cache-dir 'markitdown[pdf]'
ENTRYPOINT ["markitdown"]
`

// Markitdown builds the container image used to convert PDF decks to text.
// Uses podman when available, docker otherwise.
func Markitdown() error {
	runtime := "podman"
	if _, err := sh.Output("podman", "--version"); err != nil {
		runtime = "docker"
	}

	dir, err := os.MkdirTemp("", "markitdown-build-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)
	if err := os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte(markitdownDockerfile), 0o644); err != nil {
		return err
	}

	fmt.Printf("Building %s with %s\n", markitdownImage, runtime)
	return sh.RunV(runtime, "build", "-t", markitdownImage, dir)
}
