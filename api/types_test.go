package api

import (
	"testing"
	"time"

	"github.com/xraph/atelier/project"
)

func TestStatusResponse(t *testing.T) {
	t.Parallel()

	p := project.New("Build a billing portal")
	p.SetStatus(project.StatusRunning)
	p.CurrentStage = "database_design"
	p.Progress = 14
	p.AppendMessage(project.SenderSystem, "Project workflow started.")
	p.AddArtifact("business_requirements.md", "# BRD", project.KindDocument, "business_analysis")

	resp := statusResponse(p)
	if resp.ProjectID != p.ID.String() {
		t.Errorf("project_id = %q, want %q", resp.ProjectID, p.ID.String())
	}
	if resp.Status != "running" {
		t.Errorf("status = %q, want %q", resp.Status, "running")
	}
	if resp.CurrentStage != "database_design" {
		t.Errorf("current_stage = %q", resp.CurrentStage)
	}
	if resp.MessageCount != 1 {
		t.Errorf("message_count = %d, want 1", resp.MessageCount)
	}
	if resp.ArtifactCount != 1 {
		t.Errorf("artifact_count = %d, want 1", resp.ArtifactCount)
	}
	if resp.CompletedAt != nil {
		t.Error("completed_at should be nil for a running project")
	}

	p.SetStatus(project.StatusCompleted)
	resp = statusResponse(p)
	if resp.CompletedAt == nil {
		t.Error("completed_at should be set for a completed project")
	}
}

func TestArtifactInfo_OmitsContent(t *testing.T) {
	t.Parallel()

	a := project.Artifact{
		Name:      "schema.sql",
		Content:   "CREATE TABLE PROJECTS (...);",
		Kind:      project.KindCode,
		Stage:     "database_implementation",
		CreatedAt: time.Now().UTC(),
	}

	info := artifactInfo(a)
	if info.Name != a.Name {
		t.Errorf("name = %q, want %q", info.Name, a.Name)
	}
	if info.Size != len(a.Content) {
		t.Errorf("size = %d, want %d", info.Size, len(a.Content))
	}
	if info.Kind != string(project.KindCode) {
		t.Errorf("kind = %q", info.Kind)
	}
}
