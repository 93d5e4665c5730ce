package stage

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/xraph/atelier/gen"
	"github.com/xraph/atelier/project"
)

// ArtifactSummary is the final deliverable index published on completion.
const ArtifactSummary = "project_summary.md"

const roleProjectManager = "Project Manager closing out an Oracle APEX delivery"

// ProjectCompletion writes the closing summary: an index of every artifact
// produced, grouped by stage, with a handover narrative.
type ProjectCompletion struct {
	gen gen.Generator
}

// NewProjectCompletion creates the stage.
func NewProjectCompletion(g gen.Generator) *ProjectCompletion {
	return &ProjectCompletion{gen: g}
}

func (s *ProjectCompletion) Name() string { return NameProjectCompletion }

// Execute implements Stage.
func (s *ProjectCompletion) Execute(ctx context.Context, sc *Context) (*Result, error) {
	handover, err := s.gen.Generate(ctx, gen.Request{
		Stage:        s.Name(),
		Role:         roleProjectManager,
		Instructions: "Write the handover notes for this delivered project:\n" + sc.Requirements,
	})
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(sc.Artifacts))
	for name := range sc.Artifacts {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "# Project Summary: %s\n\n", projectTitle(sc.Requirements))
	b.WriteString("## Deliverables\n\n")
	b.WriteString("| Artifact | Kind | Produced By |\n|---|---|---|\n")
	for _, name := range names {
		a := sc.Artifacts[name]
		fmt.Fprintf(&b, "| %s | %s | %s |\n", a.Name, a.Kind, a.Stage)
	}
	b.WriteString("\n## Handover\n\n")
	b.WriteString(handover)
	b.WriteString("\n")

	return &Result{
		Artifacts: []project.Artifact{
			{Name: ArtifactSummary, Content: b.String(), Kind: project.KindDocument},
		},
		Messages: []string{
			fmt.Sprintf("Project closed out with %d deliverables. Summary published.", len(names)+1),
		},
	}, nil
}
