package domain

import "errors"

// ErrNotFound is returned by stores when a referenced record does not exist.
var ErrNotFound = errors.New("record not found")
