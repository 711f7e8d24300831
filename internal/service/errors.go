package service

import (
	"errors"
	"fmt"

	"octofit/tracker-api/internal/domain"
	"octofit/tracker-api/internal/repository"
)

// --- Error Definitions ---
var (
	ErrAuthenticationFailed = errors.New("authentication failed: invalid email or password")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")
	ErrUploadsDisabled      = errors.New("file uploads are not configured")
)

// notFound turns repository.ErrNotFound into domain.ErrNotFound, naming what was
// missing. Other errors pass through unchanged.
func notFound(err error, format string, args ...any) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, fmt.Sprintf(format, args...))
	}
	return err
}

func validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrValidation, fmt.Sprintf(format, args...))
}
