package ext

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/atelier/id"
	"github.com/xraph/atelier/project"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time. This avoids type-asserting back to
// Extension inside the emit methods.
type projectStartedEntry struct {
	name string
	hook ProjectStarted
}

type stageStartedEntry struct {
	name string
	hook StageStarted
}

type stageCompletedEntry struct {
	name string
	hook StageCompleted
}

type stageFailedEntry struct {
	name string
	hook StageFailed
}

type projectCompletedEntry struct {
	name string
	hook ProjectCompleted
}

type projectFailedEntry struct {
	name string
	hook ProjectFailed
}

type messageAppendedEntry struct {
	name string
	hook MessageAppended
}

type artifactAddedEntry struct {
	name string
	hook ArtifactAdded
}

type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	// Type-cached slices for each lifecycle hook.
	projectStarted   []projectStartedEntry
	stageStarted     []stageStartedEntry
	stageCompleted   []stageCompletedEntry
	stageFailed      []stageFailedEntry
	projectCompleted []projectCompletedEntry
	projectFailed    []projectFailedEntry
	messageAppended  []messageAppendedEntry
	artifactAdded    []artifactAddedEntry
	shutdown         []shutdownEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(ProjectStarted); ok {
		r.projectStarted = append(r.projectStarted, projectStartedEntry{name, h})
	}
	if h, ok := e.(StageStarted); ok {
		r.stageStarted = append(r.stageStarted, stageStartedEntry{name, h})
	}
	if h, ok := e.(StageCompleted); ok {
		r.stageCompleted = append(r.stageCompleted, stageCompletedEntry{name, h})
	}
	if h, ok := e.(StageFailed); ok {
		r.stageFailed = append(r.stageFailed, stageFailedEntry{name, h})
	}
	if h, ok := e.(ProjectCompleted); ok {
		r.projectCompleted = append(r.projectCompleted, projectCompletedEntry{name, h})
	}
	if h, ok := e.(ProjectFailed); ok {
		r.projectFailed = append(r.projectFailed, projectFailedEntry{name, h})
	}
	if h, ok := e.(MessageAppended); ok {
		r.messageAppended = append(r.messageAppended, messageAppendedEntry{name, h})
	}
	if h, ok := e.(ArtifactAdded); ok {
		r.artifactAdded = append(r.artifactAdded, artifactAddedEntry{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// EmitProjectStarted notifies all extensions that implement ProjectStarted.
func (r *Registry) EmitProjectStarted(ctx context.Context, p *project.Project) {
	for _, e := range r.projectStarted {
		if err := e.hook.OnProjectStarted(ctx, p); err != nil {
			r.logHookError("OnProjectStarted", e.name, err)
		}
	}
}

// EmitStageStarted notifies all extensions that implement StageStarted.
func (r *Registry) EmitStageStarted(ctx context.Context, p *project.Project, stageName string) {
	for _, e := range r.stageStarted {
		if err := e.hook.OnStageStarted(ctx, p, stageName); err != nil {
			r.logHookError("OnStageStarted", e.name, err)
		}
	}
}

// EmitStageCompleted notifies all extensions that implement StageCompleted.
func (r *Registry) EmitStageCompleted(ctx context.Context, p *project.Project, stageName string, elapsed time.Duration) {
	for _, e := range r.stageCompleted {
		if err := e.hook.OnStageCompleted(ctx, p, stageName, elapsed); err != nil {
			r.logHookError("OnStageCompleted", e.name, err)
		}
	}
}

// EmitStageFailed notifies all extensions that implement StageFailed.
func (r *Registry) EmitStageFailed(ctx context.Context, p *project.Project, stageName string, stageErr error) {
	for _, e := range r.stageFailed {
		if err := e.hook.OnStageFailed(ctx, p, stageName, stageErr); err != nil {
			r.logHookError("OnStageFailed", e.name, err)
		}
	}
}

// EmitProjectCompleted notifies all extensions that implement ProjectCompleted.
func (r *Registry) EmitProjectCompleted(ctx context.Context, p *project.Project, elapsed time.Duration) {
	for _, e := range r.projectCompleted {
		if err := e.hook.OnProjectCompleted(ctx, p, elapsed); err != nil {
			r.logHookError("OnProjectCompleted", e.name, err)
		}
	}
}

// EmitProjectFailed notifies all extensions that implement ProjectFailed.
func (r *Registry) EmitProjectFailed(ctx context.Context, p *project.Project, projErr error) {
	for _, e := range r.projectFailed {
		if err := e.hook.OnProjectFailed(ctx, p, projErr); err != nil {
			r.logHookError("OnProjectFailed", e.name, err)
		}
	}
}

// EmitMessageAppended notifies all extensions that implement MessageAppended.
func (r *Registry) EmitMessageAppended(ctx context.Context, projectID id.ProjectID, m project.Message) {
	for _, e := range r.messageAppended {
		if err := e.hook.OnMessageAppended(ctx, projectID, m); err != nil {
			r.logHookError("OnMessageAppended", e.name, err)
		}
	}
}

// EmitArtifactAdded notifies all extensions that implement ArtifactAdded.
func (r *Registry) EmitArtifactAdded(ctx context.Context, projectID id.ProjectID, a project.Artifact) {
	for _, e := range r.artifactAdded {
		if err := e.hook.OnArtifactAdded(ctx, projectID, a); err != nil {
			r.logHookError("OnArtifactAdded", e.name, err)
		}
	}
}

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated — they must not block the pipeline.
func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
