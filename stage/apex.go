package stage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xraph/atelier/gen"
	"github.com/xraph/atelier/project"
)

// ArtifactApexApp is the application blueprint published by this stage.
const ArtifactApexApp = "apex_application.md"

// ErrMissingSchema is returned when the implementation stage's DDL script
// is not present in the stage context.
var ErrMissingSchema = errors.New("stage: schema artifact missing")

const roleApexDeveloper = "Oracle APEX Developer building data-driven applications on Universal Theme"

// ApexDevelopment consumes the schema script and produces the application
// blueprint: one report and form page pair per table, plus a dashboard.
type ApexDevelopment struct {
	gen gen.Generator
}

// NewApexDevelopment creates the stage.
func NewApexDevelopment(g gen.Generator) *ApexDevelopment {
	return &ApexDevelopment{gen: g}
}

func (s *ApexDevelopment) Name() string { return NameApexDevelopment }

// Execute implements Stage. It fails if the schema script is absent.
func (s *ApexDevelopment) Execute(ctx context.Context, sc *Context) (*Result, error) {
	schema, ok := sc.Artifact(ArtifactSchema)
	if !ok {
		return nil, ErrMissingSchema
	}

	tables := schemaTables(schema.Content)
	if len(tables) == 0 {
		return nil, errors.New("stage: no tables found in schema script")
	}

	notes, err := s.gen.Generate(ctx, gen.Request{
		Stage:        s.Name(),
		Role:         roleApexDeveloper,
		Instructions: "Describe the application structure for tables " + strings.Join(tables, ", ") + " given these requirements:\n" + sc.Requirements,
	})
	if err != nil {
		return nil, err
	}

	title := projectTitle(sc.Requirements)

	var b strings.Builder
	fmt.Fprintf(&b, "# APEX Application: %s\n\n", title)
	b.WriteString("Theme: Universal Theme, side navigation, authentication via APEX accounts.\n\n")
	b.WriteString("## Pages\n\n")
	b.WriteString("| Page | Type | Source |\n|---|---|---|\n")
	b.WriteString("| Home | Dashboard | aggregate queries over all tables |\n")
	page := 2
	for _, table := range tables {
		fmt.Fprintf(&b, "| %s | Interactive Report | %s |\n", pageTitle(table), table)
		fmt.Fprintf(&b, "| %s Detail | Form | %s |\n", pageTitle(table), table)
		page += 2
	}
	fmt.Fprintf(&b, "\n%d pages total.\n", page-1)
	b.WriteString("\n## Developer Notes\n\n")
	b.WriteString(notes)
	b.WriteString("\n")

	return &Result{
		Artifacts: []project.Artifact{
			{Name: ArtifactApexApp, Content: b.String(), Kind: project.KindDocument},
		},
		Messages: []string{
			fmt.Sprintf("Application blueprint drafted: dashboard plus report and form pages for %d tables.", len(tables)),
		},
	}, nil
}

// schemaTables extracts table names from CREATE TABLE statements.
func schemaTables(ddl string) []string {
	var tables []string
	for _, line := range strings.Split(ddl, "\n") {
		line = strings.TrimSpace(line)
		rest, ok := strings.CutPrefix(line, "CREATE TABLE ")
		if !ok {
			continue
		}
		name := strings.TrimSpace(strings.TrimSuffix(rest, "("))
		if name != "" {
			tables = append(tables, name)
		}
	}
	return tables
}

// pageTitle turns APP_USERS into "App Users".
func pageTitle(table string) string {
	words := strings.Split(strings.ToLower(table), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
