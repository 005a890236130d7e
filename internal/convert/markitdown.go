// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

const imageMarkitdown = "markitdown:latest"

// ImageRunner is the part of container.Runtime the converter needs.
type ImageRunner interface {
	Name() string
	ImageExists(image string) error
	Run(image string, stdin io.Reader, stdout io.Writer) error
}

// MarkitdownConverter converts PDF bill drafts by piping them through the
// markitdown container image. Its Markdown output is returned as is; the
// headings and list markers do not disturb segmentation.
type MarkitdownConverter struct {
	runtime ImageRunner
}

// NewMarkitdownConverter creates a converter that uses the given container
// runtime to run the markitdown image. It verifies that the image exists
// locally before returning.
func NewMarkitdownConverter(rt ImageRunner) (*MarkitdownConverter, error) {
	if err := rt.ImageExists(imageMarkitdown); err != nil {
		return nil, fmt.Errorf("markitdown image not available in %s: %w", rt.Name(), err)
	}
	return &MarkitdownConverter{runtime: rt}, nil
}

// Convert implements Converter.
func (m *MarkitdownConverter) Convert(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", path, err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := m.runtime.Run(imageMarkitdown, f, &out); err != nil {
		return "", fmt.Errorf("converting %s with markitdown: %w", path, err)
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("markitdown produced empty output for %s", path)
	}
	return out.String(), nil
}
