// Package export writes project artifacts to the local filesystem.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/xraph/atelier/project"
)

// defaultConcurrency caps parallel file writes.
const defaultConcurrency = 4

// Write exports every artifact of the project snapshot into dir, one file
// per artifact, writing concurrently. The directory is created if needed.
// Returns the number of files written.
func Write(dir string, p *project.Project) (int, error) {
	if p == nil {
		return 0, fmt.Errorf("export: nil project")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("export: create %s: %w", dir, err)
	}

	var g errgroup.Group
	g.SetLimit(defaultConcurrency)

	for _, a := range p.Artifacts {
		g.Go(func() error {
			path := filepath.Join(dir, Filename(a))
			if err := os.WriteFile(path, []byte(a.Content), 0o644); err != nil {
				return fmt.Errorf("export: write %s: %w", path, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(p.Artifacts), nil
}

// Filename returns the on-disk name for an artifact. Artifact names that
// already carry an extension are kept; bare names get one by kind
// (.md documents, .sql code, .mmd diagrams). Path separators are stripped
// so artifacts cannot escape the export directory.
func Filename(a project.Artifact) string {
	name := filepath.Base(strings.ReplaceAll(a.Name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "artifact"
	}
	if filepath.Ext(name) != "" {
		return name
	}

	switch a.Kind {
	case project.KindCode:
		return name + ".sql"
	case project.KindDiagram:
		return name + ".mmd"
	default:
		return name + ".md"
	}
}
