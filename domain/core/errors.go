package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Configuration errors: invalid indices, incompatible declarations, unsupported variants
	ErrConfiguration      = errors.New("invalid analysis configuration")
	ErrIndexOutOfRange    = fmt.Errorf("%w: index out of range", ErrConfiguration)
	ErrTooFewElements     = fmt.Errorf("%w: too few active elements", ErrConfiguration)
	ErrTooFewCategories   = fmt.Errorf("%w: categorical column needs at least 2 categories", ErrConfiguration)
	ErrIncompatibleColumn = fmt.Errorf("%w: column kind not supported here", ErrConfiguration)
	ErrUnsupportedVariant = fmt.Errorf("%w: unsupported analysis combination", ErrConfiguration)
	ErrInvalidGroup       = fmt.Errorf("%w: invalid group declaration", ErrConfiguration)
	ErrDuplicate          = fmt.Errorf("%w: element declared twice", ErrConfiguration)

	// Degeneracy errors: the decomposition has nothing to decompose
	ErrDegeneracy   = errors.New("degenerate table")
	ErrZeroRank     = fmt.Errorf("%w: effective rank is zero", ErrDegeneracy)
	ErrEmptyElement = fmt.Errorf("%w: active element with zero mass", ErrDegeneracy)

	// Result errors
	ErrResultUnavailable = errors.New("result section unavailable")
)

// Error constructors with context
func NewConfigurationError(reason string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(reason, args...))
}

func NewIndexError(role string, index, size int) error {
	return fmt.Errorf("%w: %s index %d not in [0, %d)", ErrIndexOutOfRange, role, index, size)
}

func NewColumnKindError(column, kind, usage string) error {
	return fmt.Errorf("%w: column %q is %s, cannot be used as %s", ErrIncompatibleColumn, column, kind, usage)
}

func NewGroupError(group string, reason string) error {
	return fmt.Errorf("%w: group %q: %s", ErrInvalidGroup, group, reason)
}

func NewDegeneracyError(reason string) error {
	return fmt.Errorf("%w: %s", ErrDegeneracy, reason)
}

func NewResultUnavailableError(section string) error {
	return fmt.Errorf("%w: no %s declared for this fit", ErrResultUnavailable, section)
}

// Error checking helpers
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

func IsDegeneracyError(err error) bool {
	return errors.Is(err, ErrDegeneracy)
}

func IsResultUnavailable(err error) bool {
	return errors.Is(err, ErrResultUnavailable)
}
