package flowpool

import "runtime"

// Config is the construction-time configuration for a FlowPool. It is
// yaml-tagged so it can be loaded from the same configuration files as the
// rest of the runtime.
type Config struct {
	// NThreads is the number of worker goroutines spawned by New. Values
	// below 1 are clamped to 1: a pool with zero workers can never make
	// progress and Wait would block forever.
	NThreads int `yaml:"n_threads"`
}

// DefaultConfig returns a Config sized to the host's available parallelism.
func DefaultConfig() Config {
	return Config{NThreads: runtime.GOMAXPROCS(0)}
}
