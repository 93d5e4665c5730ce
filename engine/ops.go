package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/xraph/atelier"
	"github.com/xraph/atelier/id"
	"github.com/xraph/atelier/project"
)

// ErrEmptyRequirements rejects project submissions with no usable text.
var ErrEmptyRequirements = errors.New("atelier: requirements must not be empty")

// CreateProject registers a new project in the initializing state. The
// pipeline does not run until StartProject is called.
func (e *Engine) CreateProject(requirements string) (*project.Project, error) {
	if strings.TrimSpace(requirements) == "" {
		return nil, ErrEmptyRequirements
	}

	p := project.New(requirements)
	if err := e.registry.Register(p); err != nil {
		return nil, err
	}
	return p.Clone(), nil
}

// StartProject transitions the project to running and launches its
// pipeline in a background goroutine. Each project runs at most once:
// a second call returns ErrProjectAlreadyRuns, and a terminal project
// returns ErrProjectTerminal.
func (e *Engine) StartProject(pid id.ProjectID) error {
	var snap *project.Project
	var startMsg project.Message

	err := e.registry.Mutate(pid, func(p *project.Project) error {
		if p.Status.Terminal() {
			return atelier.ErrProjectTerminal
		}
		if p.Status != project.StatusInitializing {
			return atelier.ErrProjectAlreadyRuns
		}
		// One mutation covers the whole transition: no reader may see
		// a running project without a current stage.
		p.SetStatus(project.StatusRunning)
		p.CurrentStage = e.pipeline[0].Name()
		seq := p.AppendMessage(project.SenderSystem, "Project workflow started.")
		startMsg = p.Messages[seq]
		snap = p.Clone()
		return nil
	})
	if err != nil {
		return err
	}

	e.extensions.EmitProjectStarted(e.ctx, snap)
	e.extensions.EmitMessageAppended(e.ctx, pid, startMsg)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.executeProject(e.ctx, pid)
	}()
	return nil
}

// Submit creates a project and immediately starts its pipeline.
func (e *Engine) Submit(requirements string) (*project.Project, error) {
	p, err := e.CreateProject(requirements)
	if err != nil {
		return nil, err
	}
	if err := e.StartProject(p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

// GetProject returns a snapshot of the project.
func (e *Engine) GetProject(pid id.ProjectID) (*project.Project, error) {
	return e.registry.Get(pid)
}

// Projects returns snapshots of all registered projects.
func (e *Engine) Projects() []*project.Project {
	return e.registry.List()
}

// PostMessage appends a caller message to the project log and returns its
// sequence position. Posting to a terminal project is allowed: the log
// outlives the pipeline, only stages stop.
func (e *Engine) PostMessage(ctx context.Context, pid id.ProjectID, sender, content string) (int, error) {
	if sender == "" {
		sender = project.SenderUser
	}

	var msg project.Message
	err := e.registry.Mutate(pid, func(p *project.Project) error {
		seq := p.AppendMessage(sender, content)
		msg = p.Messages[seq]
		return nil
	})
	if err != nil {
		return 0, err
	}

	e.extensions.EmitMessageAppended(ctx, pid, msg)
	return msg.Seq, nil
}

// Messages returns the project's messages at positions [cursor, end),
// along with the next cursor to poll from.
func (e *Engine) Messages(pid id.ProjectID, cursor int) ([]project.Message, int, error) {
	snap, err := e.registry.Get(pid)
	if err != nil {
		return nil, 0, err
	}
	return snap.MessagesSince(cursor), len(snap.Messages), nil
}

// Artifacts returns all artifacts of the project.
func (e *Engine) Artifacts(pid id.ProjectID) (map[string]project.Artifact, error) {
	snap, err := e.registry.Get(pid)
	if err != nil {
		return nil, err
	}
	return snap.Artifacts, nil
}

// Artifact returns one artifact by name, or ErrArtifactNotFound.
func (e *Engine) Artifact(pid id.ProjectID, name string) (project.Artifact, error) {
	snap, err := e.registry.Get(pid)
	if err != nil {
		return project.Artifact{}, err
	}
	a, ok := snap.Artifact(name)
	if !ok {
		return project.Artifact{}, atelier.ErrArtifactNotFound
	}
	return a, nil
}
