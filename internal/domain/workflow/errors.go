package workflow

import (
	"fmt"

	"github.com/projectledger/finance-engine/internal/domain/apperr"
)

var (
	// ErrInvalidTransition is returned when a status change is not allowed.
	// It matches apperr.ErrInvalidState.
	ErrInvalidTransition = fmt.Errorf("invalid status transition: %w", apperr.ErrInvalidState)

	// ErrGuardFailed is returned when a guard condition fails
	ErrGuardFailed = fmt.Errorf("guard condition failed: %w", apperr.ErrInvalidState)
)
