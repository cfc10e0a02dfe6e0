package label

import "errors"

// ErrInvalid indicates a dialect label cannot be used in a clip file name.
var ErrInvalid = errors.New("invalid dialect label")
