package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/atelier/ext"
	"github.com/xraph/atelier/id"
	"github.com/xraph/atelier/project"
)

// Compile-time interface checks.
var (
	_ ext.Extension        = (*Extension)(nil)
	_ ext.ProjectStarted   = (*Extension)(nil)
	_ ext.ProjectCompleted = (*Extension)(nil)
	_ ext.ProjectFailed    = (*Extension)(nil)
	_ ext.StageStarted     = (*Extension)(nil)
	_ ext.StageCompleted   = (*Extension)(nil)
	_ ext.StageFailed      = (*Extension)(nil)
	_ ext.MessageAppended  = (*Extension)(nil)
	_ ext.ArtifactAdded    = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// Defined locally so the audit package carries no backend dependency —
// callers inject the concrete sink at wiring time.
type Recorder interface {
	// Record persists a fully-formed audit event.
	Record(ctx context.Context, event *Event) error
}

// Event is a structured audit record for one lifecycle occurrence.
type Event struct {
	// What happened
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Category string `json:"category"`

	// Details
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
//
// Example writing JSON lines to a file:
//
//	audit.RecorderFunc(func(ctx context.Context, evt *audit.Event) error {
//	    return json.NewEncoder(f).Encode(evt)
//	})
type RecorderFunc func(ctx context.Context, event *Event) error

func (f RecorderFunc) Record(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// Severity constants.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Outcome constants.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Extension bridges Atelier lifecycle events to an audit trail backend.
// Each lifecycle hook emits a structured audit event through the [Recorder].
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements ext.Extension.
func (e *Extension) Name() string { return "audit" }

// ── Project lifecycle hooks ─────────────────────────

// OnProjectStarted implements ext.ProjectStarted.
func (e *Extension) OnProjectStarted(ctx context.Context, p *project.Project) error {
	return e.record(ctx, ActionProjectStarted, SeverityInfo, OutcomeSuccess,
		ResourceProject, p.ID.String(), CategoryProject, nil,
		"status", string(p.Status),
	)
}

// OnProjectCompleted implements ext.ProjectCompleted.
func (e *Extension) OnProjectCompleted(ctx context.Context, p *project.Project, elapsed time.Duration) error {
	return e.record(ctx, ActionProjectCompleted, SeverityInfo, OutcomeSuccess,
		ResourceProject, p.ID.String(), CategoryProject, nil,
		"artifacts", len(p.Artifacts),
		"messages", len(p.Messages),
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnProjectFailed implements ext.ProjectFailed.
func (e *Extension) OnProjectFailed(ctx context.Context, p *project.Project, projectErr error) error {
	return e.record(ctx, ActionProjectFailed, SeverityCritical, OutcomeFailure,
		ResourceProject, p.ID.String(), CategoryProject, projectErr,
		"stage", p.CurrentStage,
		"progress", p.Progress,
	)
}

// ── Stage lifecycle hooks ───────────────────────────

// OnStageStarted implements ext.StageStarted.
func (e *Extension) OnStageStarted(ctx context.Context, p *project.Project, stageName string) error {
	return e.record(ctx, ActionStageStarted, SeverityInfo, OutcomeSuccess,
		ResourceStage, p.ID.String(), CategoryStage, nil,
		"stage", stageName,
	)
}

// OnStageCompleted implements ext.StageCompleted.
func (e *Extension) OnStageCompleted(ctx context.Context, p *project.Project, stageName string, elapsed time.Duration) error {
	return e.record(ctx, ActionStageCompleted, SeverityInfo, OutcomeSuccess,
		ResourceStage, p.ID.String(), CategoryStage, nil,
		"stage", stageName,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnStageFailed implements ext.StageFailed.
func (e *Extension) OnStageFailed(ctx context.Context, p *project.Project, stageName string, stageErr error) error {
	return e.record(ctx, ActionStageFailed, SeverityWarning, OutcomeFailure,
		ResourceStage, p.ID.String(), CategoryStage, stageErr,
		"stage", stageName,
	)
}

// ── Log hooks ───────────────────────────────────────

// OnMessageAppended implements ext.MessageAppended.
func (e *Extension) OnMessageAppended(ctx context.Context, projectID id.ProjectID, m project.Message) error {
	return e.record(ctx, ActionMessageAppended, SeverityInfo, OutcomeSuccess,
		ResourceMessage, projectID.String(), CategoryLog, nil,
		"sender", m.Sender,
		"seq", m.Seq,
	)
}

// OnArtifactAdded implements ext.ArtifactAdded.
func (e *Extension) OnArtifactAdded(ctx context.Context, projectID id.ProjectID, a project.Artifact) error {
	return e.record(ctx, ActionArtifactAdded, SeverityInfo, OutcomeSuccess,
		ResourceArtifact, projectID.String(), CategoryLog, nil,
		"name", a.Name,
		"kind", string(a.Kind),
		"stage", a.Stage,
	)
}

// ── Internal helpers ────────────────────────────────

// record builds and sends an audit event if the action is enabled.
// The kvPairs argument is a list of key-value pairs added to Metadata.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &Event{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit: failed to record event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
