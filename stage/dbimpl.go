package stage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xraph/atelier/project"
)

// ArtifactSchema is the DDL script published by the implementation stage.
const ArtifactSchema = "schema.sql"

// ErrMissingDesign is returned when the design stage's ERD artifact is not
// present in the stage context.
var ErrMissingDesign = errors.New("stage: entity relationship diagram artifact missing")

// DatabaseImplementation turns the ERD from the design stage into an
// Oracle DDL script: tables, comments, and audit triggers. It is fully
// deterministic and needs no generator.
type DatabaseImplementation struct{}

// NewDatabaseImplementation creates the stage.
func NewDatabaseImplementation() *DatabaseImplementation {
	return &DatabaseImplementation{}
}

func (s *DatabaseImplementation) Name() string { return NameDatabaseImplementation }

// Execute implements Stage. It fails if the design stage's ERD is absent.
func (s *DatabaseImplementation) Execute(ctx context.Context, sc *Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	erd, ok := sc.Artifact(ArtifactERD)
	if !ok {
		return nil, ErrMissingDesign
	}

	tables := erdEntities(erd.Content)
	if len(tables) == 0 {
		return nil, errors.New("stage: no entities found in entity relationship diagram")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "-- Schema for %s\n", projectTitle(sc.Requirements))
	b.WriteString("-- Generated from the approved entity relationship diagram.\n\n")

	for _, table := range tables {
		writeTableDDL(&b, table)
	}

	return &Result{
		Artifacts: []project.Artifact{
			{Name: ArtifactSchema, Content: b.String(), Kind: project.KindCode},
		},
		Messages: []string{
			fmt.Sprintf("Implemented %d tables with audit triggers. Schema script ready for review.", len(tables)),
		},
	}, nil
}

// erdEntities parses entity names out of a mermaid erDiagram: lines of the
// form "    NAME {" open an entity block.
func erdEntities(erd string) []string {
	var names []string
	for _, line := range strings.Split(erd, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasSuffix(line, "{") {
			continue
		}
		name := strings.TrimSpace(strings.TrimSuffix(line, "{"))
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	return names
}

func writeTableDDL(b *strings.Builder, table string) {
	fmt.Fprintf(b, "CREATE TABLE %s (\n", table)
	b.WriteString("    ID NUMBER GENERATED ALWAYS AS IDENTITY PRIMARY KEY,\n")
	if table == "APP_USERS" {
		b.WriteString("    USERNAME VARCHAR2(255) NOT NULL UNIQUE,\n")
		b.WriteString("    EMAIL VARCHAR2(255) NOT NULL,\n")
	} else {
		b.WriteString("    NAME VARCHAR2(255) NOT NULL,\n")
		b.WriteString("    DESCRIPTION VARCHAR2(4000),\n")
		b.WriteString("    CREATED_BY NUMBER REFERENCES APP_USERS(ID),\n")
	}
	b.WriteString("    CREATED_AT TIMESTAMP DEFAULT SYSTIMESTAMP NOT NULL,\n")
	b.WriteString("    UPDATED_AT TIMESTAMP\n")
	b.WriteString(");\n\n")

	fmt.Fprintf(b, "COMMENT ON TABLE %s IS '%s';\n\n", table, strings.ReplaceAll(table, "_", " "))

	fmt.Fprintf(b, "CREATE OR REPLACE TRIGGER %s_BIU\n", table)
	fmt.Fprintf(b, "BEFORE UPDATE ON %s\n", table)
	b.WriteString("FOR EACH ROW\nBEGIN\n    :NEW.UPDATED_AT := SYSTIMESTAMP;\nEND;\n/\n\n")
}
