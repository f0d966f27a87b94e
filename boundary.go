// Package scripthost holds the pieces shared by every layer of the script host:
// the fault boundary that contains script and callback failures, and the
// generation counter that attributes state to a load cycle.
package scripthost

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// Handler is a unit of work executed inside a Boundary.
type Handler func(ctx context.Context) error

// Middleware is a function that wraps a Handler to add cross-cutting behavior.
// Middleware executes in FIFO order (first registered wraps first, onion model).
//
// Example usage:
//
//	timing := func(next Handler) Handler {
//	    return func(ctx context.Context) error {
//	        start := time.Now()
//	        defer func() { slog.Debug("took", "label", Label(ctx), "d", time.Since(start)) }()
//	        return next(ctx)
//	    }
//	}
type Middleware func(next Handler) Handler

type labelKey struct{}

// WithLabel attaches the name of the guarded operation to ctx.
func WithLabel(ctx context.Context, label string) context.Context {
	return context.WithValue(ctx, labelKey{}, label)
}

// Label returns the operation name attached by WithLabel, or "unknown".
func Label(ctx context.Context) string {
	if v, ok := ctx.Value(labelKey{}).(string); ok && v != "" {
		return v
	}
	return "unknown"
}

// PanicError records a panic recovered inside a Boundary.
type PanicError struct {
	Label string
	Value any
	Stack []byte
}

// NewPanicError builds a PanicError for the recovered value r.
func NewPanicError(label string, r any) *PanicError {
	return &PanicError{Label: label, Value: r, Stack: debug.Stack()}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Label, e.Value)
}

// PanicRecoveryMiddleware returns a middleware that converts panics into a
// *PanicError instead of unwinding into the caller.
func PanicRecoveryMiddleware() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = NewPanicError(Label(ctx), r)
				}
			}()
			return next(ctx)
		}
	}
}

// LoggingMiddleware returns a middleware that logs every guarded invocation at debug level.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context) error {
			label := Label(ctx)
			logger.Debug("invoking guarded operation", "label", label)
			err := next(ctx)
			if err != nil {
				logger.Debug("guarded operation failed", "label", label, "error", err)
			}
			return err
		}
	}
}

// FaultHandler is notified of every error that leaves a guarded operation.
type FaultHandler func(label string, err error)

// Boundary runs handlers so that neither errors nor panics escape to the caller.
// A zero Boundary is not usable; construct one with NewBoundary.
type Boundary struct {
	logger     *slog.Logger
	middleware []Middleware
	onFault    FaultHandler
}

// BoundaryOption configures a Boundary.
type BoundaryOption func(*Boundary)

// WithBoundaryLogger sets the logger used to report faults.
func WithBoundaryLogger(logger *slog.Logger) BoundaryOption {
	return func(b *Boundary) { b.logger = logger }
}

// WithMiddleware appends middleware to the chain.
func WithMiddleware(mw ...Middleware) BoundaryOption {
	return func(b *Boundary) { b.middleware = append(b.middleware, mw...) }
}

// WithFaultHandler registers a hook invoked after a fault has been logged.
func WithFaultHandler(fn FaultHandler) BoundaryOption {
	return func(b *Boundary) { b.onFault = fn }
}

// NewBoundary creates a Boundary. Panic recovery is always the outermost layer.
func NewBoundary(opts ...BoundaryOption) *Boundary {
	b := &Boundary{logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run executes fn under label and returns the contained fault, if any.
// Run itself never panics.
func (b *Boundary) Run(label string, fn Handler) error {
	h := fn
	for i := len(b.middleware) - 1; i >= 0; i-- {
		h = b.middleware[i](h)
	}
	h = PanicRecoveryMiddleware()(h)

	err := h(WithLabel(context.Background(), label))
	if err == nil {
		return nil
	}

	b.logger.Error("contained fault", "label", label, "error", err)
	if b.onFault != nil {
		b.notify(label, err)
	}
	return err
}

// notify calls the fault hook without letting it unwind either.
func (b *Boundary) notify(label string, err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("fault handler panicked", "label", label, "panic", r)
		}
	}()
	b.onFault(label, err)
}
