package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags and the rules tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	u, err := url.Parse(c.Verse.BaseURL)
	if err != nil {
		return fmt.Errorf("verse.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("verse.base_url must use http or https, got %q", u.Scheme)
	}

	if !strings.Contains(c.Messages.NoMatches, "%") {
		return fmt.Errorf("messages.no_matches must contain a format verb for the search text")
	}

	return nil
}
