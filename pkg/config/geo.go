package config

import (
	"fmt"
	"time"
)

// GeoConfig configures the geolocation provider used to seed the
// initial location selection.
type GeoConfig struct {
	Enabled      bool          `koanf:"enabled"`
	URL          string        `koanf:"url"`
	Timeout      time.Duration `koanf:"timeout"`
	HighAccuracy bool          `koanf:"highAccuracy"`
}

func (c *GeoConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.URL == "" {
		return fmt.Errorf("geolocation provider URL is not configured")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("geolocation timeout is not configured")
	}
	return nil
}
