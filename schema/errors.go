package schema

import "errors"

var (
	// ErrInvalidProfile indicates a malformed connection profile.
	ErrInvalidProfile = errors.New("invalid profile")
	// ErrProfileExists indicates a profile with the same name already exists.
	ErrProfileExists = errors.New("profile already exists")
	// ErrProfileNotFound indicates a requested profile could not be found.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrNoCredentials indicates no stored credentials for the profile.
	ErrNoCredentials = errors.New("no credentials stored")
	// ErrInvalidChord indicates an unparseable key chord.
	ErrInvalidChord = errors.New("invalid key chord")
	// ErrChordBound indicates the chord is already bound to an action.
	ErrChordBound = errors.New("chord already bound")
)
