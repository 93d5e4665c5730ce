package export_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xraph/atelier/export"
	"github.com/xraph/atelier/project"
)

func TestWrite(t *testing.T) {
	t.Parallel()

	p := project.New("Build a library catalog")
	p.AddArtifact("business_requirements.md", "# BRD", project.KindDocument, "business_analysis")
	p.AddArtifact("entity_relationship.mmd", "erDiagram", project.KindDiagram, "database_design")
	p.AddArtifact("schema.sql", "CREATE TABLE BOOKS (...);", project.KindCode, "database_implementation")

	dir := t.TempDir()
	n, err := export.Write(dir, p)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 3 {
		t.Errorf("wrote %d files, want 3", n)
	}

	for name, want := range map[string]string{
		"business_requirements.md": "# BRD",
		"entity_relationship.mmd":  "erDiagram",
		"schema.sql":               "CREATE TABLE BOOKS (...);",
	} {
		data, readErr := os.ReadFile(filepath.Join(dir, name))
		if readErr != nil {
			t.Errorf("read %s: %v", name, readErr)
			continue
		}
		if string(data) != want {
			t.Errorf("%s content = %q, want %q", name, string(data), want)
		}
	}
}

func TestWrite_CreatesDirectory(t *testing.T) {
	t.Parallel()

	p := project.New("req")
	p.AddArtifact("notes.md", "notes", project.KindDocument, "business_analysis")

	dir := filepath.Join(t.TempDir(), "nested", "out")
	if _, err := export.Write(dir, p); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.md")); err != nil {
		t.Errorf("exported file missing: %v", err)
	}
}

func TestWrite_NilProject(t *testing.T) {
	t.Parallel()

	if _, err := export.Write(t.TempDir(), nil); err == nil {
		t.Fatal("expected error for nil project")
	}
}

func TestFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a    project.Artifact
		want string
	}{
		{"keeps extension", project.Artifact{Name: "app_theme.css", Kind: project.KindCode}, "app_theme.css"},
		{"document gets md", project.Artifact{Name: "handover", Kind: project.KindDocument}, "handover.md"},
		{"code gets sql", project.Artifact{Name: "migration", Kind: project.KindCode}, "migration.sql"},
		{"diagram gets mmd", project.Artifact{Name: "flow", Kind: project.KindDiagram}, "flow.mmd"},
		{"strips path traversal", project.Artifact{Name: "../../etc/passwd.md", Kind: project.KindDocument}, "passwd.md"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := export.Filename(tt.a); got != tt.want {
				t.Errorf("Filename(%q) = %q, want %q", tt.a.Name, got, tt.want)
			}
		})
	}
}
