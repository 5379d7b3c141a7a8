// internal/workers/lending/build-scenarios/config.go
package buildscenarios

import "time"

type Config struct {
	WaiverExpiry time.Time
	Timeout      time.Duration
}

func LoadConfig() *Config {
	expiry, _ := time.Parse("2006-01-02", "2027-09-30")
	return &Config{
		WaiverExpiry: expiry,
		Timeout:      30 * time.Second,
	}
}
