// Package config loads and validates the maintenance scheduler's process
// configuration: worker pool size, retry backoff window, eviction grace
// window, and logging options.
package config

// Config is the full configuration document for a maintenanced process.
type Config struct {
	Version string `yaml:"version" validate:"required"`

	// MaintenanceThreadsMax is the worker pool size passed to
	// Scheduler.SetMaintenanceThreadsMax. Zero keeps the scheduler in
	// synchronous-only mode.
	MaintenanceThreadsMax int `yaml:"maintenance_threads_max" validate:"gte=0,lte=4096"`

	// SecondsActionsBlock is the retry-backoff window, in seconds, applied
	// between a non-terminal step and the next attempt on the same action.
	SecondsActionsBlock int `yaml:"seconds_actions_block" validate:"gte=0,lte=86400"`

	// GraceWindowSeconds is how long a terminal action is kept after it
	// finished before eviction may remove it. Zero disables eviction
	// entirely.
	GraceWindowSeconds int `yaml:"grace_window_seconds" validate:"gte=0"`

	Log     LogConfig      `yaml:"log,omitempty"`
	Plugins []PluginConfig `yaml:"plugins,omitempty" validate:"omitempty,dive"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level string `yaml:"level,omitempty" validate:"omitempty,oneof=debug info warn error"`
	JSON  bool   `yaml:"json,omitempty"`
}

// PluginConfig names a plugin the host application is expected to register
// against the scheduler's plugin factory registry before startup completes.
// The scheduler itself never reads this list; cmd/maintenanced uses it to
// decide what to wire.
type PluginConfig struct {
	Name    string         `yaml:"name" validate:"required"`
	Options map[string]any `yaml:"options,omitempty"`
}
