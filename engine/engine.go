// Package engine wires all Atelier subsystems together. It creates the
// extension registry, binds the pipeline to the generator, launches one
// background task per project, and provides the project operations.
//
// This package exists to break the import cycle: the root atelier package
// defines the sentinel errors and configuration (imported by registry,
// stage, etc.) and so cannot import those packages back. The engine
// package sits above all subsystem packages and below the application
// layer.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/atelier"
	"github.com/xraph/atelier/ext"
	"github.com/xraph/atelier/gen"
	"github.com/xraph/atelier/observability"
	"github.com/xraph/atelier/registry"
	"github.com/xraph/atelier/stage"
)

// Engine runs project pipelines against the registry. Use Build() to
// create one from an Atelier.
type Engine struct {
	a          *atelier.Atelier
	registry   *registry.Registry
	extensions *ext.Registry
	pipeline   stage.Pipeline
	generator  gen.Generator
	janitor    *registry.Janitor
	logger     *slog.Logger

	stageTimeout time.Duration

	// OpenTelemetry meter provider (optional; nil means use global).
	meterProvider metric.MeterProvider

	// Lifetime of all pipeline goroutines. cancel stops them between
	// stages; wg waits for them during shutdown.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures an Engine.
type Option func(*Engine)

// WithExtension registers an extension with the engine.
func WithExtension(e ext.Extension) Option {
	return func(eng *Engine) {
		eng.extensions.Register(e)
	}
}

// WithPipeline replaces the default seven-phase pipeline.
func WithPipeline(p stage.Pipeline) Option {
	return func(eng *Engine) {
		eng.pipeline = p
	}
}

// WithGenerator sets the content generator backing the default pipeline.
// Ignored when WithPipeline supplies a custom pipeline.
func WithGenerator(g gen.Generator) Option {
	return func(eng *Engine) {
		eng.generator = g
	}
}

// WithMeterProvider sets a custom OTel MeterProvider for the engine's
// observability extension. If not set, the global provider is used.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(eng *Engine) {
		eng.meterProvider = mp
	}
}

// Build creates an Engine from an existing Atelier. The Atelier's
// registry must be the project registry from the registry package.
func Build(a *atelier.Atelier, opts ...Option) (*Engine, error) {
	logger := a.Logger()
	keeper := a.Registry()

	if keeper == nil {
		return nil, atelier.ErrNoRegistry
	}
	reg, ok := keeper.(*registry.Registry)
	if !ok {
		return nil, fmt.Errorf("atelier: registry does not implement project storage")
	}

	ctx, cancel := context.WithCancel(context.Background())
	eng := &Engine{
		a:            a,
		registry:     reg,
		extensions:   ext.NewRegistry(logger),
		logger:       logger,
		stageTimeout: a.Config().StageTimeout,
		ctx:          ctx,
		cancel:       cancel,
	}

	for _, opt := range opts {
		opt(eng)
	}

	if eng.generator == nil {
		eng.generator = gen.NewStatic()
	}
	if eng.pipeline == nil {
		eng.pipeline = stage.Default(eng.generator)
	}
	if len(eng.pipeline) == 0 {
		cancel()
		return nil, atelier.ErrEmptyPipeline
	}

	// Register the observability metrics extension.
	var obsExt *observability.MetricsExtension
	if eng.meterProvider != nil {
		meter := eng.meterProvider.Meter("github.com/xraph/atelier/observability")
		obsExt = observability.NewMetricsExtensionWithMeter(meter)
	} else {
		obsExt = observability.NewMetricsExtension()
	}
	eng.extensions.Register(obsExt)

	// Create the registry janitor when a retention window is configured.
	cfg := a.Config()
	if cfg.EvictAfter > 0 {
		j, err := registry.NewJanitor(reg, cfg.EvictAfter, cfg.EvictSchedule, logger)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("atelier: invalid eviction schedule %q: %w", cfg.EvictSchedule, err)
		}
		eng.janitor = j
	}

	return eng, nil
}

// Extensions returns the engine's extension registry.
func (e *Engine) Extensions() *ext.Registry { return e.extensions }

// Pipeline returns the stage names in execution order.
func (e *Engine) Pipeline() []string { return e.pipeline.Names() }

// Registry returns the project registry.
func (e *Engine) Registry() *registry.Registry { return e.registry }

// Start launches the background subsystems. Pipelines start per project
// via StartProject; Start only brings up the janitor.
func (e *Engine) Start(_ context.Context) error {
	if e.janitor != nil {
		e.janitor.Start()
	}
	e.logger.Info("engine started",
		slog.Int("stages", len(e.pipeline)),
		slog.Duration("stage_timeout", e.stageTimeout),
	)
	return nil
}

// Stop requests cooperative cancellation of every running pipeline, waits
// for them to finish (bounded by the configured shutdown timeout), then
// notifies extensions and stops the janitor.
func (e *Engine) Stop(ctx context.Context) error {
	e.cancel()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	timeout := e.a.Config().ShutdownTimeout
	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	select {
	case <-done:
	case <-ctx.Done():
		e.logger.Warn("shutdown context expired before pipelines drained")
	case <-timer:
		e.logger.Warn("shutdown timeout expired before pipelines drained",
			slog.Duration("timeout", timeout),
		)
	}

	e.extensions.EmitShutdown(ctx)
	if e.janitor != nil {
		e.janitor.Stop()
	}
	e.logger.Info("engine stopped")
	return nil
}
