package domain

import "errors"

// ErrNotFound is the store-agnostic "no such row" error. Every store
// backend translates its own not-found condition into this value.
var ErrNotFound = errors.New("record not found")
