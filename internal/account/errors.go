package account

import "errors"

// ErrAccountNotFound is returned when an account ID resolves to nothing.
var ErrAccountNotFound = errors.New("account not found")
