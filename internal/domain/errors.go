package domain

import "errors"

// Error kinds surfaced by the core. Operations wrap these with context using
// fmt.Errorf("%w: ...") so callers can match them with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrMissingReference  = errors.New("missing exercise type reference")
	ErrUnknownDifficulty = errors.New("unknown difficulty level")
	ErrConflict          = errors.New("conflict")
	ErrForbidden         = errors.New("forbidden")
)
