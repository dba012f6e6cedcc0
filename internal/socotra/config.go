// Package socotra provides the transport gateway to the policy
// administration system.
//
// Two interchangeable transports exist: a direct client that talks to the
// remote API with bearer authentication, and a relay client that forwards
// structured calls through a same-origin proxy endpoint. The quote
// orchestrator is indifferent to which is active.
package socotra

import (
	"fmt"
	"strings"
)

// Config carries the transport settings required before any remote call can
// be made. It is constructed explicitly at startup and validated eagerly so
// missing credentials surface as a startup failure, not a lazy error on the
// first quote.
type Config struct {
	APIURL        string // base URL of the policy administration API
	AccessToken   string // bearer token
	TenantLocator string // tenant path segment
	ProductName   string // insurance product to quote against
	RelayURL      string // optional: when set, requests go through the relay
}

// ConfigurationError reports which required transport settings are absent.
// It is fatal for the whole session.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing required transport configuration: %s", strings.Join(e.Missing, ", "))
}

// Validate checks that every required field is present. RelayURL and
// ProductName are optional at the transport layer; the orchestrator checks
// ProductName separately because the relay transport does not need the rest.
func (c Config) Validate() error {
	var missing []string
	if c.RelayURL != "" {
		// Relay transport: the relay holds the credentials.
		return nil
	}
	if c.APIURL == "" {
		missing = append(missing, "SOCOTRA_API_URL")
	}
	if c.AccessToken == "" {
		missing = append(missing, "SOCOTRA_PAT")
	}
	if c.TenantLocator == "" {
		missing = append(missing, "SOCOTRA_TENANT_LOCATOR")
	}
	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	return nil
}
