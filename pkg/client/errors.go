package client

import "errors"

// ErrNotFound is returned when an upstream lookup succeeds but yields nothing.
var ErrNotFound = errors.New("no results found")
