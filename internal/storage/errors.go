package storage

import "errors"

var (
	// ErrNotFound is returned when no record exists for a (user, journal type) pair.
	ErrNotFound = errors.New("streak not found")
	// ErrVersionConflict is returned when a conditional save lost a race.
	ErrVersionConflict = errors.New("streak was modified concurrently")
	// ErrNotLoaded is returned when a store is used before Init or Load.
	ErrNotLoaded = errors.New("storage not loaded")
)
