package token

import "errors"

// ErrInvalidLength is returned for token lengths outside the supported bounds.
var ErrInvalidLength = errors.New("invalid token length")
