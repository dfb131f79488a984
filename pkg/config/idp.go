package config

import (
	"fmt"
	"time"
)

// IdP configures the identity provider (Keycloak) used for
// registration, sign-in and bearer token verification.
type IdP struct {
	Enabled      bool          `koanf:"enabled"`
	BaseURL      string        `koanf:"baseurl"`
	Realm        string        `koanf:"realm"`
	JwksURL      string        `koanf:"jwksurl"`
	Issuer       string        `koanf:"issuer"`
	ClientID     string        `koanf:"clientid"`
	ClientSecret string        `koanf:"clientsecret"`
	MinInterval  time.Duration `koanf:"mininterval"`
}

func (c *IdP) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.BaseURL == "" {
		return fmt.Errorf("IdP base URL cannot be empty")
	}
	if c.Realm == "" {
		return fmt.Errorf("IdP realm cannot be empty")
	}
	if c.JwksURL == "" {
		return fmt.Errorf("IdP JWKS URL cannot be empty")
	}
	if c.Issuer == "" {
		return fmt.Errorf("IdP issuer cannot be empty")
	}
	if c.ClientID == "" {
		return fmt.Errorf("IdP client ID cannot be empty")
	}
	if c.MinInterval <= 0 {
		return fmt.Errorf("IdP minimum interval must be greater than zero")
	}
	return nil
}
