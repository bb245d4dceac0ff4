package ai

import "errors"

// ErrUpstream indicates the reasoning or embedding service failed or returned
// a malformed response. Not retried automatically; surfaced to the caller of
// the enclosing operation.
var ErrUpstream = errors.New("ai upstream error")
