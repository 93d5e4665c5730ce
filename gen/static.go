package gen

import (
	"context"
	"fmt"
	"strings"
)

// Static is a deterministic generator that renders a structured digest of
// the request instead of calling a model. Output depends only on the
// request, so pipelines built on it are fully reproducible. It is the
// default backend when no API-backed generator is configured.
type Static struct{}

// NewStatic creates a Static generator.
func NewStatic() *Static { return &Static{} }

// Generate implements Generator. It honors context cancellation so stage
// timeouts behave the same way they do against a remote backend.
func (s *Static) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "_%s_\n\n", req.Role)

	for _, line := range strings.Split(req.Instructions, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fmt.Fprintf(&b, "- %s\n", line)
	}

	return b.String(), nil
}
