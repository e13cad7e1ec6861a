package domain

import (
	"net/url"
	"strings"
)

// ValidateLinkURL checks the one required link field before a draft is
// recorded. Rejections never reach the collaborator.
func ValidateLinkURL(raw string) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return NewValidationError("url", "is required")
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return NewValidationError("url", "is not a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return NewValidationError("url", "must use http or https")
	}
	if u.Host == "" {
		return NewValidationError("url", "is missing a host")
	}

	return nil
}

// ValidateEmail performs the minimal shape check used by the public
// subscribe and submission forms.
func ValidateEmail(email string) error {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return NewValidationError("email", "is required")
	}
	at := strings.Index(trimmed, "@")
	if at <= 0 || at == len(trimmed)-1 {
		return NewValidationError("email", "is not a valid address")
	}
	return nil
}
