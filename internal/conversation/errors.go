package conversation

import "errors"

// Validation failures surface to the caller; nothing is persisted.
var (
	ErrTextRequired        = errors.New("message text required")
	ErrCounterpartRequired = errors.New("counterpart id required")
)
