// Package stage defines the pipeline stages a project moves through and
// the contract between a stage and the engine.
//
// A stage receives a read-only [Context] (the project requirements plus a
// snapshot of every artifact produced so far) and returns a [Result] (new
// artifacts and progress messages). Stages never touch the registry or the
// project aggregate directly; the engine merges results atomically after
// each stage returns.
//
// [Default] builds the standard seven-phase delivery pipeline, from
// business analysis through project completion.
package stage

import (
	"context"
	"fmt"
	"strings"

	"github.com/xraph/atelier/gen"
	"github.com/xraph/atelier/project"
)

// Names of the built-in pipeline stages, in execution order.
const (
	NameBusinessAnalysis       = "business_analysis"
	NameDatabaseDesign         = "database_design"
	NameDatabaseImplementation = "database_implementation"
	NameApexDevelopment        = "apex_development"
	NameFrontendEnhancement    = "frontend_enhancement"
	NameQATesting              = "qa_testing"
	NameProjectCompletion      = "project_completion"
)

// Context is the read-only input to a stage: the original requirements and
// a snapshot of all artifacts produced by earlier stages. The maps and
// strings are copies; mutating them has no effect on project state.
type Context struct {
	Requirements string
	Artifacts    map[string]project.Artifact
}

// Artifact returns a prior stage's artifact by name.
func (c *Context) Artifact(name string) (project.Artifact, bool) {
	a, ok := c.Artifacts[name]
	return a, ok
}

// Result is a stage's output. Artifacts carry Name, Content and Kind; the
// engine fills Stage and CreatedAt when merging. Messages are appended to
// the project log with the stage name as sender.
type Result struct {
	Artifacts []project.Artifact
	Messages  []string
}

// Failure wraps a stage error with the stage that produced it. The engine
// records it in the project's terminal message and never lets it escape
// the pipeline goroutine.
type Failure struct {
	Stage string
	Err   error
}

func (f *Failure) Error() string { return fmt.Sprintf("stage %s failed: %v", f.Stage, f.Err) }

func (f *Failure) Unwrap() error { return f.Err }

// Stage is one phase of the delivery pipeline. Implementations hold no
// per-project state and may be shared across concurrently running
// projects.
type Stage interface {
	Name() string
	Execute(ctx context.Context, sc *Context) (*Result, error)
}

// Pipeline is an ordered list of stages. Execution order is the slice
// order; the engine runs it front to back.
type Pipeline []Stage

// Names returns the stage names in execution order.
func (p Pipeline) Names() []string {
	names := make([]string, len(p))
	for i, s := range p {
		names[i] = s.Name()
	}
	return names
}

// Default returns the standard seven-phase pipeline backed by the given
// generator.
func Default(g gen.Generator) Pipeline {
	return Pipeline{
		NewBusinessAnalysis(g),
		NewDatabaseDesign(g),
		NewDatabaseImplementation(),
		NewApexDevelopment(g),
		NewFrontendEnhancement(),
		NewQATesting(),
		NewProjectCompletion(g),
	}
}

// projectTitle derives a short display title from the first non-empty
// requirements line.
func projectTitle(requirements string) string {
	for _, line := range strings.Split(requirements, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) > 80 {
			line = line[:80]
		}
		return strings.TrimSuffix(line, ".")
	}
	return "Untitled Project"
}

// requirementItems extracts the individual requirement lines, stripping
// list markers. Used to seed flowcharts and entity discovery.
func requirementItems(requirements string) []string {
	var items []string
	for _, line := range strings.Split(requirements, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimLeft(line, "-*0123456789. \t")
		if line == "" {
			continue
		}
		items = append(items, line)
	}
	return items
}
