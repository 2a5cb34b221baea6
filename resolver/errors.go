package resolver

import "errors"

var (
	errNoIssuer        = errors.New("no query issuer configured")
	errSelectorNoMatch = errors.New("selector did not match any value in the query response")
)
