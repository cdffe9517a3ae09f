package api

import "log/slog"

// CoordinatorBuilder is an interface for constructing a Coordinator.
type CoordinatorBuilder interface {
	// Build constructs the Coordinator from the configuration provided to
	// the builder. It returns an error if a required component is missing.
	Build() (Coordinator, error)

	// WithConfig sets the coordinator configuration.
	// If not provided, DefaultConfig will be used.
	WithConfig(*CoordinatorConfig) CoordinatorBuilder

	// WithLogger sets a custom slog.Logger.
	// If not provided, a logger based on the config's Log.Env will be used.
	WithLogger(*slog.Logger) CoordinatorBuilder
}
