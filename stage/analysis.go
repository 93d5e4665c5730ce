package stage

import (
	"context"
	"fmt"
	"strings"

	"github.com/xraph/atelier/gen"
	"github.com/xraph/atelier/project"
)

// Artifact names published by the business analysis stage.
const (
	ArtifactBRD         = "business_requirements.md"
	ArtifactProcessFlow = "process_flow.mmd"
)

const roleBusinessAnalyst = "Senior Business Analyst specializing in requirements engineering for enterprise web applications"

// BusinessAnalysis turns raw requirements into a business requirements
// document and a mermaid process flow diagram.
type BusinessAnalysis struct {
	gen gen.Generator
}

// NewBusinessAnalysis creates the stage.
func NewBusinessAnalysis(g gen.Generator) *BusinessAnalysis {
	return &BusinessAnalysis{gen: g}
}

func (s *BusinessAnalysis) Name() string { return NameBusinessAnalysis }

// Execute implements Stage.
func (s *BusinessAnalysis) Execute(ctx context.Context, sc *Context) (*Result, error) {
	analysis, err := s.gen.Generate(ctx, gen.Request{
		Stage:        s.Name(),
		Role:         roleBusinessAnalyst,
		Instructions: "Analyze the following requirements and identify objectives, stakeholders and constraints:\n" + sc.Requirements,
	})
	if err != nil {
		return nil, err
	}

	title := projectTitle(sc.Requirements)
	items := requirementItems(sc.Requirements)

	var brd strings.Builder
	fmt.Fprintf(&brd, "# Business Requirements Document: %s\n\n", title)
	brd.WriteString("## Source Requirements\n\n")
	for _, item := range items {
		fmt.Fprintf(&brd, "- %s\n", item)
	}
	brd.WriteString("\n## Analysis\n\n")
	brd.WriteString(analysis)
	brd.WriteString("\n\n## Success Criteria\n\n")
	brd.WriteString("Each requirement above must be traceable to a database entity, an application page, and a test case in the downstream deliverables.\n")

	return &Result{
		Artifacts: []project.Artifact{
			{Name: ArtifactBRD, Content: brd.String(), Kind: project.KindDocument},
			{Name: ArtifactProcessFlow, Content: processFlow(title, items), Kind: project.KindDiagram},
		},
		Messages: []string{
			fmt.Sprintf("Analyzed %d requirements for %q. Business requirements document and process flow are ready.", len(items), title),
		},
	}, nil
}

// processFlow renders the requirements as a mermaid flowchart, one node
// per requirement chained in order.
func processFlow(title string, items []string) string {
	var b strings.Builder
	b.WriteString("flowchart TD\n")
	fmt.Fprintf(&b, "    start([%s])\n", title)

	prev := "start"
	for i, item := range items {
		node := fmt.Sprintf("step%d", i)
		label := item
		if len(label) > 60 {
			label = label[:60]
		}
		fmt.Fprintf(&b, "    %s[%s]\n", node, label)
		fmt.Fprintf(&b, "    %s --> %s\n", prev, node)
		prev = node
	}
	fmt.Fprintf(&b, "    %s --> done([Delivered])\n", prev)
	return b.String()
}
