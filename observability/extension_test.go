package observability_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/metric/noop"

	"github.com/xraph/atelier/observability"
	"github.com/xraph/atelier/project"
)

func TestMetricsExtension_Name(t *testing.T) {
	m := observability.NewMetricsExtension()
	if m.Name() != "observability-metrics" {
		t.Errorf("Name() = %q", m.Name())
	}
}

func TestMetricsExtension_HooksReturnNil(t *testing.T) {
	m := observability.NewMetricsExtensionWithMeter(noop.NewMeterProvider().Meter("test"))
	ctx := context.Background()
	p := project.New("req")

	if err := m.OnProjectStarted(ctx, p); err != nil {
		t.Errorf("OnProjectStarted: %v", err)
	}
	if err := m.OnStageCompleted(ctx, p, "business_analysis", time.Second); err != nil {
		t.Errorf("OnStageCompleted: %v", err)
	}
	if err := m.OnStageFailed(ctx, p, "database_design", errors.New("x")); err != nil {
		t.Errorf("OnStageFailed: %v", err)
	}
	if err := m.OnProjectCompleted(ctx, p, time.Minute); err != nil {
		t.Errorf("OnProjectCompleted: %v", err)
	}
	if err := m.OnProjectFailed(ctx, p, errors.New("y")); err != nil {
		t.Errorf("OnProjectFailed: %v", err)
	}
	if err := m.OnMessageAppended(ctx, p.ID, project.Message{}); err != nil {
		t.Errorf("OnMessageAppended: %v", err)
	}
	if err := m.OnArtifactAdded(ctx, p.ID, project.Artifact{Kind: project.KindCode}); err != nil {
		t.Errorf("OnArtifactAdded: %v", err)
	}
}
