package repository

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrPlaceReference = errors.New("place reference does not resolve")
)
