package store

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateName = errors.New("duplicate name")
	ErrStationInUse  = errors.New("station is used by a line")
	ErrNotEmpty      = errors.New("store is not empty")
)
