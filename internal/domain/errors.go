package domain

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidSort = errors.New("invalid sort key")
	ErrBackend     = errors.New("reviews backend error")
)
