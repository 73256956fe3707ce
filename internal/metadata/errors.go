package metadata

import "errors"

var (
	ErrNotFound    = errors.New("metadata: not found")
	ErrQueryFailed = errors.New("metadata: query failed")
)
