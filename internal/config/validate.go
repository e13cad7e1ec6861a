package config

import (
	"fmt"
	"net/url"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Collaborator.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("collaborator.endpoint must be an absolute URL (got %q)", c.Collaborator.Endpoint)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("collaborator.endpoint must use http or https (got %q)", u.Scheme)
	}
	if c.Collaborator.Timeout <= 0 {
		return fmt.Errorf("collaborator.timeout must be positive (got %v)", c.Collaborator.Timeout)
	}
	return nil
}
