package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/xraph/atelier/project"
	"github.com/xraph/atelier/wire"
)

// SubmitResult contains the result of a project submission.
type SubmitResult struct {
	ProjectID string `json:"project_id"`
	Status    string `json:"status"`
}

// Submit sends project requirements to the remote Atelier server and
// starts the pipeline.
func (c *Client) Submit(ctx context.Context, requirements string) (*SubmitResult, error) {
	resp, err := c.request(ctx, wire.MethodProjectSubmit, wire.ProjectSubmitRequest{
		Requirements: requirements,
	})
	if err != nil {
		return nil, err
	}

	var result SubmitResult
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &result, nil
}

// GetProject retrieves a project snapshot by ID.
func (c *Client) GetProject(ctx context.Context, projectID string) (*project.Project, error) {
	resp, err := c.request(ctx, wire.MethodProjectGet, wire.ProjectGetRequest{
		ProjectID: projectID,
	})
	if err != nil {
		return nil, err
	}

	var p project.Project
	if err := json.Unmarshal(resp.Data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal project: %w", err)
	}
	return &p, nil
}

// MessagesResult is the paged view of a project's message log.
type MessagesResult struct {
	Messages   []project.Message `json:"messages"`
	NextCursor int               `json:"next_cursor"`
}

// Messages reads the project's message log from a cursor position.
func (c *Client) Messages(ctx context.Context, projectID string, cursor int) (*MessagesResult, error) {
	resp, err := c.request(ctx, wire.MethodProjectMessages, wire.ProjectMessagesRequest{
		ProjectID: projectID,
		Cursor:    cursor,
	})
	if err != nil {
		return nil, err
	}

	var result MessagesResult
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return nil, fmt.Errorf("unmarshal messages: %w", err)
	}
	return &result, nil
}

// PostMessage appends a message to the project's log and returns its
// sequence position.
func (c *Client) PostMessage(ctx context.Context, projectID, sender, content string) (int, error) {
	resp, err := c.request(ctx, wire.MethodMessagePost, wire.MessagePostRequest{
		ProjectID: projectID,
		Sender:    sender,
		Content:   content,
	})
	if err != nil {
		return 0, err
	}

	var result wire.MessagePostResponse
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return 0, fmt.Errorf("unmarshal response: %w", err)
	}
	return result.Seq, nil
}

// Artifacts retrieves all artifacts of a project, keyed by name.
func (c *Client) Artifacts(ctx context.Context, projectID string) (map[string]project.Artifact, error) {
	resp, err := c.request(ctx, wire.MethodProjectArtifacts, wire.ProjectGetRequest{
		ProjectID: projectID,
	})
	if err != nil {
		return nil, err
	}

	var artifacts map[string]project.Artifact
	if err := json.Unmarshal(resp.Data, &artifacts); err != nil {
		return nil, fmt.Errorf("unmarshal artifacts: %w", err)
	}
	return artifacts, nil
}

// Artifact retrieves one artifact by name.
func (c *Client) Artifact(ctx context.Context, projectID, name string) (*project.Artifact, error) {
	resp, err := c.request(ctx, wire.MethodProjectArtifact, wire.ProjectArtifactRequest{
		ProjectID: projectID,
		Name:      name,
	})
	if err != nil {
		return nil, err
	}

	var artifact project.Artifact
	if err := json.Unmarshal(resp.Data, &artifact); err != nil {
		return nil, fmt.Errorf("unmarshal artifact: %w", err)
	}
	return &artifact, nil
}
