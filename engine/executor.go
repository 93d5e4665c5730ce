package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/atelier/id"
	"github.com/xraph/atelier/project"
	"github.com/xraph/atelier/stage"
)

// executeProject runs the pipeline for one project, front to back. It is
// the body of the per-project goroutine: all failures are converted into
// the errored state and never escape.
func (e *Engine) executeProject(ctx context.Context, pid id.ProjectID) {
	start := time.Now()
	total := len(e.pipeline)

	for i, s := range e.pipeline {
		// Cooperative cancellation between stages.
		if err := ctx.Err(); err != nil {
			e.failProject(ctx, pid, &stage.Failure{Stage: s.Name(), Err: err})
			return
		}

		snap, err := e.markStageStarted(pid, s.Name())
		if err != nil {
			e.logger.Error("mark stage started",
				slog.String("project_id", pid.String()),
				slog.String("stage", s.Name()),
				slog.String("error", err.Error()),
			)
			return
		}
		e.extensions.EmitStageStarted(ctx, snap, s.Name())

		stageStart := time.Now()
		res, execErr := e.executeStage(ctx, s, &stage.Context{
			Requirements: snap.Requirements,
			Artifacts:    snap.Artifacts,
		})
		elapsed := time.Since(stageStart)

		if execErr != nil {
			e.failProject(ctx, pid, &stage.Failure{Stage: s.Name(), Err: execErr})
			return
		}

		snap = e.mergeResult(ctx, pid, s.Name(), res, i+1, total)
		e.extensions.EmitStageCompleted(ctx, snap, s.Name(), elapsed)

		e.logger.Info("stage completed",
			slog.String("project_id", pid.String()),
			slog.String("stage", s.Name()),
			slog.Int("progress", snap.Progress),
			slog.Duration("elapsed", elapsed),
		)
	}

	snap, err := e.registry.Get(pid)
	if err != nil {
		return
	}
	e.extensions.EmitProjectCompleted(ctx, snap, time.Since(start))

	e.logger.Info("project completed",
		slog.String("project_id", pid.String()),
		slog.Duration("elapsed", time.Since(start)),
	)
}

// executeStage invokes one stage under the per-stage timeout, converting
// panics into errors so a misbehaving stage fails only its own project.
func (e *Engine) executeStage(ctx context.Context, s stage.Stage, sc *stage.Context) (res *stage.Result, err error) {
	stageCtx := ctx
	if e.stageTimeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, e.stageTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return s.Execute(stageCtx, sc)
}

// markStageStarted advances CurrentStage and returns a snapshot to build
// the stage context from.
func (e *Engine) markStageStarted(pid id.ProjectID, name string) (*project.Project, error) {
	var snap *project.Project
	err := e.registry.Mutate(pid, func(p *project.Project) error {
		p.CurrentStage = name
		snap = p.Clone()
		return nil
	})
	return snap, err
}

// mergeResult applies a stage result atomically: artifacts first writer
// wins, messages appended with the stage as sender, progress recomputed.
// The final stage also records the result text and the completed status.
func (e *Engine) mergeResult(ctx context.Context, pid id.ProjectID, stageName string, res *stage.Result, completed, total int) *project.Project {
	var snap *project.Project
	var added []project.Artifact
	var appended []project.Message

	err := e.registry.Mutate(pid, func(p *project.Project) error {
		for _, a := range res.Artifacts {
			if p.AddArtifact(a.Name, a.Content, a.Kind, stageName) {
				added = append(added, p.Artifacts[a.Name])
			}
		}
		for _, content := range res.Messages {
			seq := p.AppendMessage(stageName, content)
			appended = append(appended, p.Messages[seq])
		}

		p.Progress = completed * 100 / total

		if completed == total {
			p.Result = "Project completed successfully."
			seq := p.AppendMessage(project.SenderSystem, p.Result)
			appended = append(appended, p.Messages[seq])
			p.SetStatus(project.StatusCompleted)
		}

		snap = p.Clone()
		return nil
	})
	if err != nil {
		// Registry entries are only removed by eviction; a running
		// pipeline losing its project means shutdown is racing a sweep.
		e.logger.Error("merge stage result",
			slog.String("project_id", pid.String()),
			slog.String("stage", stageName),
			slog.String("error", err.Error()),
		)
		return snap
	}

	for _, a := range added {
		e.extensions.EmitArtifactAdded(ctx, pid, a)
	}
	for _, m := range appended {
		e.extensions.EmitMessageAppended(ctx, pid, m)
	}
	return snap
}

// failProject moves the project to errored, records the failure in the
// log, and notifies extensions. Progress keeps the value of the last
// completed stage.
func (e *Engine) failProject(ctx context.Context, pid id.ProjectID, failure *stage.Failure) {
	var snap *project.Project
	var msg project.Message

	err := e.registry.Mutate(pid, func(p *project.Project) error {
		seq := p.AppendMessage(project.SenderSystem, "Error: "+failure.Error())
		msg = p.Messages[seq]
		p.SetStatus(project.StatusErrored)
		snap = p.Clone()
		return nil
	})
	if err != nil {
		e.logger.Error("mark project errored",
			slog.String("project_id", pid.String()),
			slog.String("error", err.Error()),
		)
		return
	}

	e.extensions.EmitMessageAppended(ctx, pid, msg)
	e.extensions.EmitStageFailed(ctx, snap, failure.Stage, failure.Err)
	e.extensions.EmitProjectFailed(ctx, snap, failure)

	e.logger.Warn("project failed",
		slog.String("project_id", pid.String()),
		slog.String("stage", failure.Stage),
		slog.String("error", failure.Err.Error()),
	)
}
