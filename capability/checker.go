package capability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrFacilityDenied is matched by every *DeniedError.
var ErrFacilityDenied = errors.New("facility denied")

// DeniedError reports a call into a facility the session was not granted.
type DeniedError struct {
	Facility string
	Message  string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("facility %s denied: %s", e.Facility, e.Message)
}

// Is matches ErrFacilityDenied.
func (e *DeniedError) Is(target error) bool { return target == ErrFacilityDenied }

// DenialHandler is called when a facility check fails.
// It allows custom logging or auditing.
type DenialHandler func(ctx context.Context, facility, message string)

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithDenialHandler sets the handler for denied facilities.
func WithDenialHandler(handler DenialHandler) CheckerOption {
	return func(c *Checker) { c.denialHandler = handler }
}

// WithCheckerLogger sets the logger used for denials.
func WithCheckerLogger(logger *slog.Logger) CheckerOption {
	return func(c *Checker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Checker checks facility calls against the session's grants.
type Checker struct {
	grants        *GrantSet
	denialHandler DenialHandler
	logger        *slog.Logger
}

// NewChecker creates a checker over a copy of grants.
func NewChecker(grants *GrantSet, opts ...CheckerOption) *Checker {
	c := &Checker{
		grants: grants.Clone(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Granted reports whether facility may be installed, without reporting.
func (c *Checker) Granted(facility string) bool {
	return c.grants.Has(facility)
}

// Grants returns a copy of the checked grants.
func (c *Checker) Grants() *GrantSet {
	return c.grants.Clone()
}

// Check returns a *DeniedError when facility is not granted.
func (c *Checker) Check(ctx context.Context, facility string) error {
	if c.Granted(facility) {
		return nil
	}
	return c.handleDeny(ctx, facility, "not granted for this session")
}

func (c *Checker) handleDeny(ctx context.Context, facility, message string) error {
	c.logger.WarnContext(ctx, "facility denied", "facility", facility, "reason", message)
	if c.denialHandler != nil {
		c.denialHandler(ctx, facility, message)
	}
	return &DeniedError{Facility: facility, Message: message}
}
