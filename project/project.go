package project

import (
	"time"

	"github.com/xraph/atelier/id"
)

// Status represents the lifecycle state of a project.
type Status string

const (
	// StatusInitializing means the project is registered but its pipeline
	// has not started executing yet.
	StatusInitializing Status = "initializing"
	// StatusRunning means the pipeline is currently executing.
	StatusRunning Status = "running"
	// StatusCompleted means every stage finished successfully.
	StatusCompleted Status = "completed"
	// StatusErrored means a stage failed terminally.
	StatusErrored Status = "errored"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusErrored
}

// Well-known message senders. Stage messages use the stage name instead.
const (
	SenderSystem = "System"
	SenderUser   = "User"
)

// Project is a single end-to-end run of the development pipeline. It owns
// its artifact store and message log; both are destroyed with it.
type Project struct {
	ID           id.ProjectID        `json:"id"`
	Requirements string              `json:"requirements"`
	Status       Status              `json:"status"`
	CurrentStage string              `json:"current_stage,omitempty"`
	Progress     int                 `json:"progress"`
	Result       string              `json:"result,omitempty"`
	StartedAt    time.Time           `json:"started_at"`
	CompletedAt  *time.Time          `json:"completed_at,omitempty"`
	Messages     []Message           `json:"messages"`
	Artifacts    map[string]Artifact `json:"artifacts"`
}

// New creates a project in the initializing state with a fresh ID.
// The requirements text is immutable for the project's lifetime.
func New(requirements string) *Project {
	return &Project{
		ID:           id.NewProjectID(),
		Requirements: requirements,
		Status:       StatusInitializing,
		StartedAt:    time.Now().UTC(),
		Artifacts:    make(map[string]Artifact),
	}
}

// SetStatus updates the project status. Entering a terminal state stamps
// CompletedAt; transitions out of a terminal state are ignored.
func (p *Project) SetStatus(s Status) {
	if p.Status.Terminal() {
		return
	}
	p.Status = s
	if s.Terminal() {
		now := time.Now().UTC()
		p.CompletedAt = &now
	}
}

// Terminal reports whether the project reached completed or errored.
func (p *Project) Terminal() bool { return p.Status.Terminal() }

// Clone returns a deep copy of the project. Registry reads hand out
// clones so a caller iterating messages or artifacts never observes a
// state being mutated mid-update.
func (p *Project) Clone() *Project {
	cp := *p

	if p.CompletedAt != nil {
		t := *p.CompletedAt
		cp.CompletedAt = &t
	}

	cp.Messages = make([]Message, len(p.Messages))
	copy(cp.Messages, p.Messages)

	cp.Artifacts = make(map[string]Artifact, len(p.Artifacts))
	for name, a := range p.Artifacts {
		cp.Artifacts[name] = a
	}

	return &cp
}
