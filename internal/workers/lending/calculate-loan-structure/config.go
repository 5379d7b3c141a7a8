// internal/workers/lending/calculate-loan-structure/config.go
package calculateloanstructure

import "time"

type Config struct {
	// WaiverExpiry is the last day the manufacturing guarantee-fee waiver
	// applies. Zero disables the waiver.
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
