// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/pdiddy/deal-analyzer/internal/container"
)

// ImageMarkitdown is the container image used for PDF conversion.
const ImageMarkitdown = "markitdown:latest"

// ErrNoPDFConverter is returned for PDF sources when no converter is
// configured.
var ErrNoPDFConverter = errors.New("no PDF converter configured")

// PDFConverter turns PDF bytes into text.
type PDFConverter interface {
	Convert(ctx context.Context, pdf io.Reader) (string, error)
}

// Markitdown converts PDFs by piping them through the markitdown image.
type Markitdown struct {
	Runtime container.Runtime
}

// NewMarkitdown verifies that the image is present locally.
func NewMarkitdown(ctx context.Context, rt container.Runtime) (*Markitdown, error) {
	if err := rt.ImageExists(ctx, ImageMarkitdown); err != nil {
		return nil, fmt.Errorf("markitdown image not available in %s: %w", rt.Name(), err)
	}
	return &Markitdown{Runtime: rt}, nil
}

func (m *Markitdown) Convert(ctx context.Context, pdf io.Reader) (string, error) {
	var out bytes.Buffer
	if err := m.Runtime.Filter(ctx, ImageMarkitdown, pdf, &out); err != nil {
		return "", fmt.Errorf("converting with markitdown: %w", err)
	}
	if out.Len() == 0 {
		return "", errors.New("markitdown produced empty output")
	}
	return out.String(), nil
}
