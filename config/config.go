// Package config holds the configuration of the nodegraph runtime. It is not part of the graph state being calculated.
package config

import (
	log "go.arcalot.io/log/v2"
)

// EngineMode selects the calculation strategy.
type EngineMode string

const (
	// EngineModeDependency recalculates the whole graph in dependency order.
	EngineModeDependency EngineMode = "dependency"
	// EngineModeForward propagates changes from the changed node only.
	EngineModeForward EngineMode = "forward"
)

// Config is the main configuration structure of the runtime.
type Config struct {
	// Log configures logging.
	Log log.Config `json:"log" yaml:"log"`
	// Engine configures the calculation engine created for each parsed graph.
	Engine EngineConfig `json:"engine" yaml:"engine"`
}

// EngineConfig configures the calculation engine.
type EngineConfig struct {
	Mode EngineMode `json:"mode" yaml:"mode"`
	// AutoStart starts the engine after parsing, so it recalculates on every change.
	AutoStart bool `json:"auto_start" yaml:"auto_start"`
	// IndependentVisits makes the forward engine calculate a node once per propagated value.
	IndependentVisits bool `json:"independent_visits" yaml:"independent_visits"`
}
