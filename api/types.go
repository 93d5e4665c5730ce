package api

import (
	"time"

	"github.com/xraph/atelier/project"
)

// CreateProjectRequest submits new project requirements.
type CreateProjectRequest struct {
	Requirements string `json:"requirements"`
}

// CreateProjectResponse confirms project creation.
type CreateProjectResponse struct {
	ProjectID string `json:"project_id"`
	Status    string `json:"status"`
}

// GetProjectRequest is the path-parameter carrier for project lookups.
type GetProjectRequest struct {
	ProjectID string `path:"projectId" json:"-"`
}

// ProjectStatusResponse is the polling payload for a project.
type ProjectStatusResponse struct {
	ProjectID     string     `json:"project_id"`
	Status        string     `json:"status"`
	CurrentStage  string     `json:"current_stage,omitempty"`
	Progress      int        `json:"progress"`
	Result        string     `json:"result,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	MessageCount  int        `json:"message_count"`
	ArtifactCount int        `json:"artifact_count"`
}

// statusResponse maps a project snapshot to its polling payload.
func statusResponse(p *project.Project) ProjectStatusResponse {
	return ProjectStatusResponse{
		ProjectID:     p.ID.String(),
		Status:        string(p.Status),
		CurrentStage:  p.CurrentStage,
		Progress:      p.Progress,
		Result:        p.Result,
		StartedAt:     p.StartedAt,
		CompletedAt:   p.CompletedAt,
		MessageCount:  len(p.Messages),
		ArtifactCount: len(p.Artifacts),
	}
}

// ListMessagesRequest reads the message log from a cursor position.
type ListMessagesRequest struct {
	Cursor int `query:"cursor" json:"-"`
}

// ListMessagesResponse carries the messages at or past the requested
// cursor, plus the next cursor to poll from.
type ListMessagesResponse struct {
	Messages   []project.Message `json:"messages"`
	NextCursor int               `json:"next_cursor"`
}

// PostMessageRequest appends a message to a project's log.
type PostMessageRequest struct {
	Sender  string `json:"sender,omitempty"`
	Content string `json:"content"`
}

// PostMessageResponse reports the sequence position of the new message.
type PostMessageResponse struct {
	Seq int `json:"seq"`
}

// ArtifactInfo describes an artifact without its content, for listings.
type ArtifactInfo struct {
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Stage     string    `json:"stage"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// artifactInfo maps an artifact to its listing entry.
func artifactInfo(a project.Artifact) ArtifactInfo {
	return ArtifactInfo{
		Name:      a.Name,
		Kind:      string(a.Kind),
		Stage:     a.Stage,
		Size:      len(a.Content),
		CreatedAt: a.CreatedAt,
	}
}
