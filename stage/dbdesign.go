package stage

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/xraph/atelier/gen"
	"github.com/xraph/atelier/project"
)

// Artifact names published by the database design stage.
const (
	ArtifactDatabaseDesign = "database_design.md"
	ArtifactERD            = "entity_relationship.mmd"
)

const roleDatabaseDesigner = "Oracle Database Architect designing normalized schemas for APEX applications"

// DatabaseDesign derives a logical data model from the requirements: a
// design document and a mermaid entity relationship diagram. Every model
// includes an APP_USERS entity that owns the domain entities discovered in
// the requirement lines.
type DatabaseDesign struct {
	gen gen.Generator
}

// NewDatabaseDesign creates the stage.
func NewDatabaseDesign(g gen.Generator) *DatabaseDesign {
	return &DatabaseDesign{gen: g}
}

func (s *DatabaseDesign) Name() string { return NameDatabaseDesign }

// Execute implements Stage.
func (s *DatabaseDesign) Execute(ctx context.Context, sc *Context) (*Result, error) {
	rationale, err := s.gen.Generate(ctx, gen.Request{
		Stage:        s.Name(),
		Role:         roleDatabaseDesigner,
		Instructions: "Explain the data model decisions for these requirements:\n" + sc.Requirements,
	})
	if err != nil {
		return nil, err
	}

	entities := discoverEntities(sc.Requirements)
	erd := renderERD(entities)

	var doc strings.Builder
	fmt.Fprintf(&doc, "# Database Design: %s\n\n", projectTitle(sc.Requirements))
	doc.WriteString("## Entities\n\n")
	doc.WriteString("| Entity | Purpose |\n|---|---|\n")
	doc.WriteString("| APP_USERS | Application accounts; owner of all domain rows |\n")
	for _, e := range entities {
		fmt.Fprintf(&doc, "| %s | Domain entity derived from the requirements |\n", e)
	}
	doc.WriteString("\n## Design Rationale\n\n")
	doc.WriteString(rationale)
	doc.WriteString("\n\n## Conventions\n\n")
	doc.WriteString("Identity primary keys, audit columns (CREATED_AT, CREATED_BY) on every table, foreign keys to APP_USERS for row ownership.\n")

	return &Result{
		Artifacts: []project.Artifact{
			{Name: ArtifactDatabaseDesign, Content: doc.String(), Kind: project.KindDocument},
			{Name: ArtifactERD, Content: erd, Kind: project.KindDiagram},
		},
		Messages: []string{
			fmt.Sprintf("Data model designed with %d domain entities plus APP_USERS. ERD published.", len(entities)),
		},
	}, nil
}

// discoverEntities derives table names from the requirement lines: the
// last sufficiently long word of each line, upper-cased and pluralized.
// Falls back to a single RECORDS entity when nothing usable is found.
func discoverEntities(requirements string) []string {
	seen := map[string]bool{"APP_USERS": true}
	var entities []string

	for _, item := range requirementItems(requirements) {
		name := lastNoun(item)
		if name == "" {
			continue
		}
		if !strings.HasSuffix(name, "S") {
			name += "S"
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		entities = append(entities, name)
	}

	if len(entities) == 0 {
		entities = []string{"RECORDS"}
	}
	return entities
}

// lastNoun picks the last word of at least four letters, stripped of
// punctuation and upper-cased. Crude, but deterministic.
func lastNoun(line string) string {
	words := strings.Fields(line)
	for i := len(words) - 1; i >= 0; i-- {
		w := strings.TrimFunc(words[i], func(r rune) bool {
			return !unicode.IsLetter(r)
		})
		if len(w) < 4 {
			continue
		}
		return strings.ToUpper(w)
	}
	return ""
}

// renderERD emits a mermaid erDiagram: APP_USERS plus one block per domain
// entity, each owned by a user.
func renderERD(entities []string) string {
	var b strings.Builder
	b.WriteString("erDiagram\n")
	b.WriteString("    APP_USERS {\n")
	b.WriteString("        NUMBER id PK\n")
	b.WriteString("        VARCHAR2 username\n")
	b.WriteString("        VARCHAR2 email\n")
	b.WriteString("        TIMESTAMP created_at\n")
	b.WriteString("    }\n")

	for _, e := range entities {
		fmt.Fprintf(&b, "    %s {\n", e)
		b.WriteString("        NUMBER id PK\n")
		b.WriteString("        VARCHAR2 name\n")
		b.WriteString("        VARCHAR2 description\n")
		b.WriteString("        NUMBER created_by FK\n")
		b.WriteString("        TIMESTAMP created_at\n")
		b.WriteString("    }\n")
		fmt.Fprintf(&b, "    APP_USERS ||--o{ %s : owns\n", e)
	}
	return b.String()
}
