package storage

import "errors"

var (
	// ErrVersionConflict means the profile changed since it was read.
	ErrVersionConflict = errors.New("profile version conflict")
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
)
