package domain

import "errors"

// ErrNotFound reports that a requested point does not exist in the
// vector store.
var ErrNotFound = errors.New("point not found")
