package statecharts

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config tunes the synthesizer bounds and the emitter. A zero value keeps
// every default: bounds derived from the vertex count, no prefix, the C++
// backend, no lock.
type Config struct {
	// MaxCycleLen bounds the simple cycles turned into scenarios. Zero
	// means the vertex count of the graph.
	MaxCycleLen int `yaml:"maxCycleLen"`
	// MaxPathLen bounds the initial-to-sink paths. Zero means twice the
	// vertex count.
	MaxPathLen int `yaml:"maxPathLen"`
	// Prefix is prepended to the machine type and the artifact names.
	Prefix string `yaml:"prefix"`
	// ThreadSafe adds a best-effort per-machine lock taken at event entry
	// and released at quiescence.
	ThreadSafe bool `yaml:"threadSafe"`
	// Backend selects cpp, hpp or go when the CLI does not.
	Backend string `yaml:"backend"`
}

// LoadConfig reads the optional sidecar "<input>.yaml" next to the
// statechart source. A missing sidecar is not an error.
func LoadConfig(input string) (Config, error) {
	var cfg Config
	var data, err = os.ReadFile(input + ".yaml")
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	logger.Debug("sidecar loaded", "file", input+".yaml")
	return cfg, nil
}
