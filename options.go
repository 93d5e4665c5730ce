package atelier

import (
	"log/slog"
	"time"
)

// Option configures an Atelier.
type Option func(*Atelier) error

// Keeper is the minimal registry interface held by the Atelier.
// The full *registry.Registry is used in layers above (engine, api) that
// don't create import cycles; implementations satisfy both.
type Keeper interface {
	// Len returns the number of registered projects.
	Len() int
}

// Atelier is the central coordinator: it owns the configuration, the
// structured logger, and the project registry. Subsystem wiring (pipeline,
// hooks, stream broker) happens in the engine package, which sits above
// all subsystem packages and below the application layer.
type Atelier struct {
	config   Config
	logger   *slog.Logger
	registry Keeper
}

// New creates a new Atelier with the given options.
func New(opts ...Option) (*Atelier, error) {
	a := &Atelier{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Logger returns the coordinator's logger.
func (a *Atelier) Logger() *slog.Logger { return a.logger }

// Registry returns the coordinator's project registry.
func (a *Atelier) Registry() Keeper { return a.registry }

// Config returns a copy of the coordinator's configuration.
func (a *Atelier) Config() Config { return a.config }

// WithLogger sets the structured logger for the coordinator.
func WithLogger(l *slog.Logger) Option {
	return func(a *Atelier) error {
		a.logger = l
		return nil
	}
}

// WithRegistry sets the project registry for the coordinator.
// The registry must implement Keeper at minimum; typically it will be a
// *registry.Registry, which the engine layer requires.
func WithRegistry(k Keeper) Option {
	return func(a *Atelier) error {
		a.registry = k
		return nil
	}
}

// WithStageTimeout sets the per-stage execution timeout.
func WithStageTimeout(d time.Duration) Option {
	return func(a *Atelier) error {
		a.config.StageTimeout = d
		return nil
	}
}

// WithEviction enables janitor eviction of terminal projects older than
// the given retention, swept on the given cron schedule.
func WithEviction(retain time.Duration, schedule string) Option {
	return func(a *Atelier) error {
		a.config.EvictAfter = retain
		a.config.EvictSchedule = schedule
		return nil
	}
}
