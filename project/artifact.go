package project

import "time"

// Kind classifies an artifact's content.
type Kind string

const (
	// KindDocument is prose or markdown documentation.
	KindDocument Kind = "document"
	// KindCode is source code (SQL, JavaScript, CSS, …).
	KindCode Kind = "code"
	// KindDiagram is a rendered or renderable diagram (mermaid).
	KindDiagram Kind = "diagram"
)

// Artifact is a named, immutable piece of output produced by exactly one
// stage. Names are unique within a project for its lifetime.
type Artifact struct {
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	Kind      Kind      `json:"kind"`
	Stage     string    `json:"stage"`
	CreatedAt time.Time `json:"created_at"`
}

// AddArtifact inserts an artifact under the given name. If the name
// already exists the call is a no-op and returns false: the first writer
// wins and later duplicates are dropped, not merged.
func (p *Project) AddArtifact(name, content string, kind Kind, stage string) bool {
	if _, exists := p.Artifacts[name]; exists {
		return false
	}
	p.Artifacts[name] = Artifact{
		Name:      name,
		Content:   content,
		Kind:      kind,
		Stage:     stage,
		CreatedAt: time.Now().UTC(),
	}
	return true
}

// Artifact returns the artifact with the given name, if present.
func (p *Project) Artifact(name string) (Artifact, bool) {
	a, ok := p.Artifacts[name]
	return a, ok
}
