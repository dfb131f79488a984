package config

import (
	"fmt"
	"strings"
	"time"
)

// RedisConfig configures the connection to the cart mirror store.
// The mirror is optional: with Enabled=false the cart stays local-only.
type RedisConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Addr     string        `koanf:"addr"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"`
	Timeout  time.Duration `koanf:"timeout"`
}

// String returns a string representation of the redis configuration.
func (c *RedisConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Redis ---\n")
	b.WriteString(fmt.Sprintf("  enabled: %t\n", c.Enabled))
	b.WriteString(fmt.Sprintf("  addr: %s\n", c.Addr))
	b.WriteString(fmt.Sprintf("  db: %d\n", c.DB))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	return b.String()
}

func (c *RedisConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Addr == "" {
		return fmt.Errorf("redis is enabled but address is not configured")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("redis operation timeout is not configured")
	}
	return nil
}
