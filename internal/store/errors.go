package store

import "errors"

// ErrNotFound is returned when a record does not exist or is not visible to
// the requesting tenant. Cross-tenant lookups are indistinguishable from
// absence.
var ErrNotFound = errors.New("record not found")
