// Package gen provides the text-production backends the pipeline stages
// delegate to. A stage assembles a role and an instruction prompt from the
// project requirements and upstream artifacts; the generator turns that
// into the body text of the stage's deliverables.
//
// Two implementations ship with the engine: [Static], a deterministic
// offline renderer used by default and in tests, and [Gemini], which calls
// the Google Gemini API.
package gen

import "context"

// Request describes one content-production call.
type Request struct {
	// Stage is the name of the pipeline stage issuing the request.
	Stage string
	// Role is the persona the generator should adopt (system instruction).
	Role string
	// Instructions is the task prompt, with project requirements and any
	// upstream artifact content already inlined.
	Instructions string
}

// Generator produces text for a stage deliverable. Implementations must be
// safe for concurrent use; the engine runs one pipeline goroutine per
// project and all of them share a single generator.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Func adapts a function to the Generator interface.
type Func func(ctx context.Context, req Request) (string, error)

// Generate implements Generator.
func (f Func) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
