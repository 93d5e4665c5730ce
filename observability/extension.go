// Package observability provides an extension that records pipeline
// lifecycle metrics through OpenTelemetry.
package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/atelier/ext"
	"github.com/xraph/atelier/id"
	"github.com/xraph/atelier/project"
)

// meterName is the instrumentation scope name for atelier metrics.
const meterName = "github.com/xraph/atelier"

// Compile-time interface checks.
var (
	_ ext.Extension        = (*MetricsExtension)(nil)
	_ ext.ProjectStarted   = (*MetricsExtension)(nil)
	_ ext.StageCompleted   = (*MetricsExtension)(nil)
	_ ext.StageFailed      = (*MetricsExtension)(nil)
	_ ext.ProjectCompleted = (*MetricsExtension)(nil)
	_ ext.ProjectFailed    = (*MetricsExtension)(nil)
	_ ext.MessageAppended  = (*MetricsExtension)(nil)
	_ ext.ArtifactAdded    = (*MetricsExtension)(nil)
)

// MetricsExtension records pipeline lifecycle metrics. Register it with
// the engine to track project throughput, per-stage durations, failure
// rates, and artifact and message volumes.
type MetricsExtension struct {
	projectsStarted   metric.Int64Counter
	projectsCompleted metric.Int64Counter
	projectsFailed    metric.Int64Counter
	stageDuration     metric.Float64Histogram
	stagesFailed      metric.Int64Counter
	messagesAppended  metric.Int64Counter
	artifactsAdded    metric.Int64Counter
}

// NewMetricsExtension creates a MetricsExtension using the global OTel
// MeterProvider. If none is configured, noop instruments are used and the
// extension becomes a pass-through.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension with the
// provided meter. This variant allows injecting a specific MeterProvider
// for testing.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	// Instruments are created once here. On error, the OTel API returns
	// noop instruments so the extension degrades gracefully.
	m := &MetricsExtension{}
	m.projectsStarted, _ = meter.Int64Counter(
		"atelier.project.started",
		metric.WithDescription("Total number of project pipelines started"),
		metric.WithUnit("{project}"),
	)
	m.projectsCompleted, _ = meter.Int64Counter(
		"atelier.project.completed",
		metric.WithDescription("Total number of projects completed successfully"),
		metric.WithUnit("{project}"),
	)
	m.projectsFailed, _ = meter.Int64Counter(
		"atelier.project.failed",
		metric.WithDescription("Total number of projects that reached the errored state"),
		metric.WithUnit("{project}"),
	)
	m.stageDuration, _ = meter.Float64Histogram(
		"atelier.stage.duration",
		metric.WithDescription("Duration of stage execution in seconds"),
		metric.WithUnit("s"),
	)
	m.stagesFailed, _ = meter.Int64Counter(
		"atelier.stage.failed",
		metric.WithDescription("Total number of stage failures"),
		metric.WithUnit("{stage}"),
	)
	m.messagesAppended, _ = meter.Int64Counter(
		"atelier.message.appended",
		metric.WithDescription("Total number of messages appended to project logs"),
		metric.WithUnit("{message}"),
	)
	m.artifactsAdded, _ = meter.Int64Counter(
		"atelier.artifact.added",
		metric.WithDescription("Total number of artifacts stored"),
		metric.WithUnit("{artifact}"),
	)
	return m
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnProjectStarted implements ext.ProjectStarted.
func (m *MetricsExtension) OnProjectStarted(ctx context.Context, _ *project.Project) error {
	m.projectsStarted.Add(ctx, 1)
	return nil
}

// OnStageCompleted implements ext.StageCompleted.
func (m *MetricsExtension) OnStageCompleted(ctx context.Context, _ *project.Project, stageName string, elapsed time.Duration) error {
	m.stageDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("stage", stageName),
		attribute.String("status", "ok"),
	))
	return nil
}

// OnStageFailed implements ext.StageFailed.
func (m *MetricsExtension) OnStageFailed(ctx context.Context, _ *project.Project, stageName string, _ error) error {
	m.stagesFailed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", stageName),
	))
	return nil
}

// OnProjectCompleted implements ext.ProjectCompleted.
func (m *MetricsExtension) OnProjectCompleted(ctx context.Context, _ *project.Project, _ time.Duration) error {
	m.projectsCompleted.Add(ctx, 1)
	return nil
}

// OnProjectFailed implements ext.ProjectFailed.
func (m *MetricsExtension) OnProjectFailed(ctx context.Context, _ *project.Project, _ error) error {
	m.projectsFailed.Add(ctx, 1)
	return nil
}

// OnMessageAppended implements ext.MessageAppended.
func (m *MetricsExtension) OnMessageAppended(ctx context.Context, _ id.ProjectID, _ project.Message) error {
	m.messagesAppended.Add(ctx, 1)
	return nil
}

// OnArtifactAdded implements ext.ArtifactAdded.
func (m *MetricsExtension) OnArtifactAdded(ctx context.Context, _ id.ProjectID, a project.Artifact) error {
	m.artifactsAdded.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", string(a.Kind)),
	))
	return nil
}
