package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrOutOfDomain        = errors.New("value out of domain")
	ErrScope              = errors.New("variable not in scope")
	ErrScopeMismatch      = errors.New("scope mismatch")
	ErrDuplicate          = errors.New("duplicate entry")
	ErrDuplicateVariable  = errors.New("duplicate variable")
	ErrUnknownVariable    = errors.New("unknown variable")
	ErrCycle              = errors.New("dependency cycle")
	ErrNotAProbability    = errors.New("not a probability distribution")
	ErrMissingConditional = errors.New("missing conditional distribution")
	ErrEmptyQuery         = errors.New("empty query")
	ErrInvalidEvidence    = errors.New("invalid evidence")
	ErrDegenerate         = errors.New("degenerate distribution")
	ErrModelNotValidated  = errors.New("model not validated")
	ErrInvalidConfig      = errors.New("invalid configuration")
)
