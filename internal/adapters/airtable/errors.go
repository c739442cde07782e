package airtable

import "errors"

var (
	// ErrNotConfigured is returned when the base id or API key is missing.
	ErrNotConfigured = errors.New("airtable not configured: base id and api key are required")
	// ErrUpstream wraps non-2xx responses from the Airtable API.
	ErrUpstream = errors.New("airtable upstream error")
)
