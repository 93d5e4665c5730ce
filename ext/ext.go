// Package ext defines the extension system for Atelier.
// Extensions are notified of lifecycle events (project started, stage
// completed, message appended, etc.) and can react to them — logging,
// metrics, event streaming.
//
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
package ext

import (
	"context"
	"time"

	"github.com/xraph/atelier/id"
	"github.com/xraph/atelier/project"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// Hooks receive deep-copied project snapshots; mutating them has no
// effect on registry state.

// ProjectStarted is called when a project's pipeline begins executing.
type ProjectStarted interface {
	OnProjectStarted(ctx context.Context, p *project.Project) error
}

// StageStarted is called when a pipeline stage begins.
type StageStarted interface {
	OnStageStarted(ctx context.Context, p *project.Project, stageName string) error
}

// StageCompleted is called after a stage's result is merged.
type StageCompleted interface {
	OnStageCompleted(ctx context.Context, p *project.Project, stageName string, elapsed time.Duration) error
}

// StageFailed is called when a stage fails and the pipeline stops.
type StageFailed interface {
	OnStageFailed(ctx context.Context, p *project.Project, stageName string, err error) error
}

// ProjectCompleted is called after every stage finished successfully.
type ProjectCompleted interface {
	OnProjectCompleted(ctx context.Context, p *project.Project, elapsed time.Duration) error
}

// ProjectFailed is called when a project reaches the errored state.
type ProjectFailed interface {
	OnProjectFailed(ctx context.Context, p *project.Project, err error) error
}

// MessageAppended is called after a message lands in a project's log,
// whether appended by a stage, the engine, or an API caller.
type MessageAppended interface {
	OnMessageAppended(ctx context.Context, projectID id.ProjectID, m project.Message) error
}

// ArtifactAdded is called after an artifact is merged into a project.
// Duplicate-name artifacts that lost the first-writer race do not fire.
type ArtifactAdded interface {
	OnArtifactAdded(ctx context.Context, projectID id.ProjectID, a project.Artifact) error
}

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
