package audit

// Audit event actions. Each constant corresponds to one ext lifecycle hook
// and becomes the Action field of the audit event.
const (
	ActionProjectStarted   = "project.started"
	ActionProjectCompleted = "project.completed"
	ActionProjectFailed    = "project.failed"
	ActionStageStarted     = "stage.started"
	ActionStageCompleted   = "stage.completed"
	ActionStageFailed      = "stage.failed"
	ActionMessageAppended  = "message.appended"
	ActionArtifactAdded    = "artifact.added"
)

// Audit event categories group related actions.
const (
	CategoryProject = "atelier.project"
	CategoryStage   = "atelier.stage"
	CategoryLog     = "atelier.log"
)

// Resource types used as the Resource field in audit events.
const (
	ResourceProject  = "project"
	ResourceStage    = "stage"
	ResourceMessage  = "message"
	ResourceArtifact = "artifact"
)

// AllActions returns every action this extension can emit.
func AllActions() []string {
	return []string{
		ActionProjectStarted,
		ActionProjectCompleted,
		ActionProjectFailed,
		ActionStageStarted,
		ActionStageCompleted,
		ActionStageFailed,
		ActionMessageAppended,
		ActionArtifactAdded,
	}
}
