// internal/workers/scoring/score-deal/config.go
package scoredeal

import "time"

type Config struct {
	DealCacheTTL time.Duration
	Timeout      time.Duration
}

func LoadConfig() *Config {
	return &Config{
		DealCacheTTL: 10 * time.Minute,
		Timeout:      30 * time.Second,
	}
}
