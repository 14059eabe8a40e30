package readwise

import "errors"

var (
	// ErrUnauthorized indicates a missing or rejected API token.
	ErrUnauthorized = errors.New("readwise: unauthorized")

	// ErrRateLimited indicates the API returned 429.
	ErrRateLimited = errors.New("readwise: rate limited")

	// ErrServer indicates a 5xx response from the API.
	ErrServer = errors.New("readwise: server error")
)
