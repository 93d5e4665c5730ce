package api

import (
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/xraph/forge"

	"github.com/xraph/atelier"
	"github.com/xraph/atelier/engine"
	"github.com/xraph/atelier/id"
	"github.com/xraph/atelier/project"
)

func (a *API) createProject(ctx forge.Context, req *CreateProjectRequest) (*CreateProjectResponse, error) {
	if !a.limiter.Allow() {
		return nil, ctx.Status(http.StatusTooManyRequests).JSON(map[string]string{
			"error": "submission rate limit exceeded",
		})
	}

	p, err := a.eng.Submit(req.Requirements)
	if err != nil {
		return nil, respondError(ctx, err)
	}

	resp := CreateProjectResponse{
		ProjectID: p.ID.String(),
		Status:    string(p.Status),
	}
	return &resp, ctx.JSON(http.StatusCreated, resp)
}

func (a *API) listProjects(ctx forge.Context) error {
	projects := a.eng.Projects()
	out := make([]ProjectStatusResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, statusResponse(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProjectID < out[j].ProjectID })
	return ctx.JSON(http.StatusOK, out)
}

func (a *API) getProject(ctx forge.Context, _ *GetProjectRequest) (*ProjectStatusResponse, error) {
	pid, err := parseProjectID(ctx)
	if err != nil {
		return nil, err
	}

	p, err := a.eng.GetProject(pid)
	if err != nil {
		return nil, respondError(ctx, err)
	}

	resp := statusResponse(p)
	return &resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) listMessages(ctx forge.Context, req *ListMessagesRequest) (*ListMessagesResponse, error) {
	pid, err := parseProjectID(ctx)
	if err != nil {
		return nil, err
	}

	msgs, next, err := a.eng.Messages(pid, req.Cursor)
	if err != nil {
		return nil, respondError(ctx, err)
	}
	if msgs == nil {
		msgs = []project.Message{}
	}

	resp := ListMessagesResponse{Messages: msgs, NextCursor: next}
	return &resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) postMessage(ctx forge.Context, req *PostMessageRequest) (*PostMessageResponse, error) {
	pid, err := parseProjectID(ctx)
	if err != nil {
		return nil, err
	}

	if req.Content == "" {
		return nil, forge.BadRequest("content must not be empty")
	}

	seq, err := a.eng.PostMessage(ctx.Context(), pid, req.Sender, req.Content)
	if err != nil {
		return nil, respondError(ctx, err)
	}

	resp := PostMessageResponse{Seq: seq}
	return &resp, ctx.JSON(http.StatusCreated, resp)
}

func (a *API) listArtifacts(ctx forge.Context) error {
	pid, err := parseProjectID(ctx)
	if err != nil {
		return err
	}

	artifacts, err := a.eng.Artifacts(pid)
	if err != nil {
		return respondError(ctx, err)
	}

	out := make([]ArtifactInfo, 0, len(artifacts))
	for _, art := range artifacts {
		out = append(out, artifactInfo(art))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return ctx.JSON(http.StatusOK, out)
}

func (a *API) getArtifact(ctx forge.Context) error {
	pid, err := parseProjectID(ctx)
	if err != nil {
		return err
	}

	art, err := a.eng.Artifact(pid, ctx.Param("name"))
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, art)
}

// parseProjectID extracts and validates the projectId path parameter.
func parseProjectID(ctx forge.Context) (id.ProjectID, error) {
	pid, err := id.ParseProjectID(ctx.Param("projectId"))
	if err != nil {
		return id.Nil, forge.BadRequest(fmt.Sprintf("invalid project ID: %v", err))
	}
	return pid, nil
}

// respondError converts atelier sentinel errors to HTTP responses:
// lookups map to 404, lifecycle conflicts to 409, bad input to 400.
func respondError(ctx forge.Context, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, atelier.ErrProjectNotFound),
		errors.Is(err, atelier.ErrArtifactNotFound):
		return forge.NotFound(err.Error())
	case errors.Is(err, atelier.ErrDuplicateProject),
		errors.Is(err, atelier.ErrProjectTerminal),
		errors.Is(err, atelier.ErrProjectAlreadyRuns):
		return ctx.Status(http.StatusConflict).JSON(map[string]string{"error": err.Error()})
	case errors.Is(err, engine.ErrEmptyRequirements):
		return forge.BadRequest(err.Error())
	default:
		return err
	}
}
