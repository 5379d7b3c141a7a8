// internal/workers/scoring/recalibrate-weights/config.go
package recalibrateweights

import "time"

type Config struct {
	// MinTrainingSamples is the floor below which recalibration is skipped.
	MinTrainingSamples int
	Timeout            time.Duration
}

func LoadConfig() *Config {
	return &Config{
		MinTrainingSamples: 50,
		Timeout:            120 * time.Second,
	}
}
