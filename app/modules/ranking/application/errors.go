package rankingservice

import "errors"

var (
	ErrInvalidScopeType = errors.New("invalid scope type")
	ErrInvalidYear      = errors.New("year must be positive")
)
