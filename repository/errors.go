package repository

import "errors"

var (
	// ErrNotFound marks a lookup or mutation that matched no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateUser marks a registration against an existing email.
	ErrDuplicateUser = errors.New("user already exists")
	// ErrDuplicateFavorite marks adding a track already in the favorites set.
	ErrDuplicateFavorite = errors.New("track already in favorites")
	// ErrDuplicateTrack marks adding a track already in a playlist.
	ErrDuplicateTrack = errors.New("track already in playlist")
)
