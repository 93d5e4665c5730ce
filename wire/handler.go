package wire

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/xraph/atelier"
	"github.com/xraph/atelier/engine"
	"github.com/xraph/atelier/id"
	"github.com/xraph/atelier/stream"
)

// Handler dispatches wire frames to engine operations.
type Handler struct {
	eng    *engine.Engine
	broker *stream.Broker
	logger *slog.Logger
}

// NewHandler creates a new wire method handler.
func NewHandler(eng *engine.Engine, broker *stream.Broker, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{eng: eng, broker: broker, logger: logger}
}

// Handle processes a single request frame and returns a response.
func (h *Handler) Handle(ctx context.Context, frame *Frame) *Frame {
	switch frame.Method {
	case MethodProjectSubmit:
		return h.handleProjectSubmit(frame)
	case MethodProjectGet:
		return h.handleProjectGet(frame)
	case MethodProjectList:
		return h.handleProjectList(frame)
	case MethodProjectMessages:
		return h.handleProjectMessages(frame)
	case MethodProjectArtifacts:
		return h.handleProjectArtifacts(frame)
	case MethodProjectArtifact:
		return h.handleProjectArtifact(frame)
	case MethodMessagePost:
		return h.handleMessagePost(ctx, frame)
	case MethodSubscribe:
		return h.handleSubscribe(frame)
	case MethodUnsubscribe:
		return h.handleUnsubscribe(frame)
	case MethodStats:
		return h.handleStats(frame)
	default:
		return NewErrorFrame(frame.ID, ErrCodeMethodNotFound, "unknown method: "+frame.Method)
	}
}

// mustResponseFrame creates a response frame, returning an error frame on marshal failure.
func mustResponseFrame(frameID string, data any) *Frame {
	resp, err := NewResponseFrame(frameID, data)
	if err != nil {
		return NewErrorFrame(frameID, ErrCodeInternal, "marshal response: "+err.Error())
	}
	return resp
}

// errCode maps engine errors to wire error codes.
func errCode(err error) int {
	switch {
	case errors.Is(err, atelier.ErrProjectNotFound),
		errors.Is(err, atelier.ErrArtifactNotFound):
		return ErrCodeNotFound
	case errors.Is(err, atelier.ErrDuplicateProject),
		errors.Is(err, atelier.ErrProjectTerminal),
		errors.Is(err, atelier.ErrProjectAlreadyRuns):
		return ErrCodeConflict
	case errors.Is(err, engine.ErrEmptyRequirements):
		return ErrCodeBadRequest
	default:
		return ErrCodeInternal
	}
}

func parseProjectID(frameID, raw string) (id.ProjectID, *Frame) {
	pid, err := id.ParseProjectID(raw)
	if err != nil {
		return id.Nil, NewErrorFrame(frameID, ErrCodeBadRequest, "invalid project ID: "+err.Error())
	}
	return pid, nil
}

func (h *Handler) handleProjectSubmit(frame *Frame) *Frame {
	var req ProjectSubmitRequest
	if err := json.Unmarshal(frame.Data, &req); err != nil {
		return NewErrorFrame(frame.ID, ErrCodeBadRequest, "invalid request: "+err.Error())
	}

	p, err := h.eng.Submit(req.Requirements)
	if err != nil {
		return NewErrorFrame(frame.ID, errCode(err), "submit failed: "+err.Error())
	}

	return mustResponseFrame(frame.ID, ProjectSubmitResponse{
		ProjectID: p.ID.String(),
		Status:    string(p.Status),
	})
}

func (h *Handler) handleProjectGet(frame *Frame) *Frame {
	var req ProjectGetRequest
	if err := json.Unmarshal(frame.Data, &req); err != nil {
		return NewErrorFrame(frame.ID, ErrCodeBadRequest, "invalid request: "+err.Error())
	}

	pid, errFrame := parseProjectID(frame.ID, req.ProjectID)
	if errFrame != nil {
		return errFrame
	}

	p, err := h.eng.GetProject(pid)
	if err != nil {
		return NewErrorFrame(frame.ID, errCode(err), err.Error())
	}

	return mustResponseFrame(frame.ID, p)
}

func (h *Handler) handleProjectList(frame *Frame) *Frame {
	return mustResponseFrame(frame.ID, h.eng.Projects())
}

func (h *Handler) handleProjectMessages(frame *Frame) *Frame {
	var req ProjectMessagesRequest
	if err := json.Unmarshal(frame.Data, &req); err != nil {
		return NewErrorFrame(frame.ID, ErrCodeBadRequest, "invalid request: "+err.Error())
	}

	pid, errFrame := parseProjectID(frame.ID, req.ProjectID)
	if errFrame != nil {
		return errFrame
	}

	msgs, next, err := h.eng.Messages(pid, req.Cursor)
	if err != nil {
		return NewErrorFrame(frame.ID, errCode(err), err.Error())
	}

	return mustResponseFrame(frame.ID, map[string]any{
		"messages":    msgs,
		"next_cursor": next,
	})
}

func (h *Handler) handleProjectArtifacts(frame *Frame) *Frame {
	var req ProjectGetRequest
	if err := json.Unmarshal(frame.Data, &req); err != nil {
		return NewErrorFrame(frame.ID, ErrCodeBadRequest, "invalid request: "+err.Error())
	}

	pid, errFrame := parseProjectID(frame.ID, req.ProjectID)
	if errFrame != nil {
		return errFrame
	}

	artifacts, err := h.eng.Artifacts(pid)
	if err != nil {
		return NewErrorFrame(frame.ID, errCode(err), err.Error())
	}

	return mustResponseFrame(frame.ID, artifacts)
}

func (h *Handler) handleProjectArtifact(frame *Frame) *Frame {
	var req ProjectArtifactRequest
	if err := json.Unmarshal(frame.Data, &req); err != nil {
		return NewErrorFrame(frame.ID, ErrCodeBadRequest, "invalid request: "+err.Error())
	}

	pid, errFrame := parseProjectID(frame.ID, req.ProjectID)
	if errFrame != nil {
		return errFrame
	}

	artifact, err := h.eng.Artifact(pid, req.Name)
	if err != nil {
		return NewErrorFrame(frame.ID, errCode(err), err.Error())
	}

	return mustResponseFrame(frame.ID, artifact)
}

func (h *Handler) handleMessagePost(ctx context.Context, frame *Frame) *Frame {
	var req MessagePostRequest
	if err := json.Unmarshal(frame.Data, &req); err != nil {
		return NewErrorFrame(frame.ID, ErrCodeBadRequest, "invalid request: "+err.Error())
	}

	pid, errFrame := parseProjectID(frame.ID, req.ProjectID)
	if errFrame != nil {
		return errFrame
	}

	if req.Content == "" {
		return NewErrorFrame(frame.ID, ErrCodeBadRequest, "content must not be empty")
	}

	seq, err := h.eng.PostMessage(ctx, pid, req.Sender, req.Content)
	if err != nil {
		return NewErrorFrame(frame.ID, errCode(err), err.Error())
	}

	return mustResponseFrame(frame.ID, MessagePostResponse{Seq: seq})
}

func (h *Handler) handleSubscribe(frame *Frame) *Frame {
	var req SubscribeRequest
	if err := json.Unmarshal(frame.Data, &req); err != nil {
		return NewErrorFrame(frame.ID, ErrCodeBadRequest, "invalid request: "+err.Error())
	}

	if err := stream.ValidateTopic(req.Channel); err != nil {
		return NewErrorFrame(frame.ID, ErrCodeBadRequest, err.Error())
	}

	// Actual subscription is done in the server loop after response is sent.
	return mustResponseFrame(frame.ID, map[string]string{
		"channel": req.Channel,
		"status":  "subscribed",
	})
}

func (h *Handler) handleUnsubscribe(frame *Frame) *Frame {
	var req UnsubscribeRequest
	if err := json.Unmarshal(frame.Data, &req); err != nil {
		return NewErrorFrame(frame.ID, ErrCodeBadRequest, "invalid request: "+err.Error())
	}

	// Actual unsubscription is done in the server loop after response is sent.
	return mustResponseFrame(frame.ID, map[string]string{
		"channel": req.Channel,
		"status":  "unsubscribed",
	})
}

func (h *Handler) handleStats(frame *Frame) *Frame {
	return mustResponseFrame(frame.ID, map[string]any{
		"broker":   h.broker.Stats(),
		"projects": len(h.eng.Projects()),
	})
}
