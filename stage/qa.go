package stage

import (
	"context"
	"fmt"
	"strings"

	"github.com/xraph/atelier/project"
)

// ArtifactTestReport is the report published by the QA stage.
const ArtifactTestReport = "test_report.md"

// QATesting verifies every upstream deliverable is present and produces a
// test report. A missing deliverable is a finding, not a stage failure:
// the report records it and the pipeline continues.
type QATesting struct{}

// NewQATesting creates the stage.
func NewQATesting() *QATesting {
	return &QATesting{}
}

func (s *QATesting) Name() string { return NameQATesting }

// expectedDeliverables maps artifact name to the stage that owes it.
var expectedDeliverables = []struct {
	name  string
	stage string
}{
	{ArtifactBRD, NameBusinessAnalysis},
	{ArtifactProcessFlow, NameBusinessAnalysis},
	{ArtifactDatabaseDesign, NameDatabaseDesign},
	{ArtifactERD, NameDatabaseDesign},
	{ArtifactSchema, NameDatabaseImplementation},
	{ArtifactApexApp, NameApexDevelopment},
	{ArtifactTheme, NameFrontendEnhancement},
	{ArtifactEnhancement, NameFrontendEnhancement},
}

// Execute implements Stage.
func (s *QATesting) Execute(ctx context.Context, sc *Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Test Report: %s\n\n", projectTitle(sc.Requirements))
	b.WriteString("## Deliverable Checks\n\n")
	b.WriteString("| Deliverable | Owner | Result |\n|---|---|---|\n")

	passed, failed := 0, 0
	for _, d := range expectedDeliverables {
		a, ok := sc.Artifact(d.name)
		switch {
		case !ok:
			fmt.Fprintf(&b, "| %s | %s | FAIL: missing |\n", d.name, d.stage)
			failed++
		case strings.TrimSpace(a.Content) == "":
			fmt.Fprintf(&b, "| %s | %s | FAIL: empty |\n", d.name, d.stage)
			failed++
		default:
			fmt.Fprintf(&b, "| %s | %s | PASS |\n", d.name, d.stage)
			passed++
		}
	}

	fmt.Fprintf(&b, "\n## Summary\n\n%d passed, %d failed of %d checks.\n", passed, failed, passed+failed)
	b.WriteString("\nEnvironment: Oracle APEX 24.2, browsers Chrome/Firefox/Safari/Edge, desktop and mobile breakpoints.\n")

	msg := fmt.Sprintf("Testing complete: %d of %d deliverable checks passed.", passed, passed+failed)
	if failed > 0 {
		msg = fmt.Sprintf("Testing complete with findings: %d of %d checks failed. See the test report.", failed, passed+failed)
	}

	return &Result{
		Artifacts: []project.Artifact{
			{Name: ArtifactTestReport, Content: b.String(), Kind: project.KindDocument},
		},
		Messages: []string{msg},
	}, nil
}
