package mvvm

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument flags caller-recoverable precondition violations, such
// as an empty property name passed to Get or Set.
var ErrInvalidArgument = errors.New("mvvm: invalid argument")

// ErrAlreadyInitialized is returned when a dependency graph is built a second
// time for the same view-model type. It indicates a wiring defect in the
// caller, not bad user input.
var ErrAlreadyInitialized = errors.New("mvvm: dependency graph already initialized")

// ErrNotInitialized is returned when a dependency graph is queried for a type
// that never built one.
var ErrNotInitialized = errors.New("mvvm: dependency graph not initialized")

// WrongTypeError is returned by Get when a property holds a value of a
// different type than requested.
type WrongTypeError struct {
	Property string
	Want     string
	Got      string
}

func (e *WrongTypeError) Error() string {
	return fmt.Sprintf("mvvm: property %q holds %s, not %s", e.Property, e.Got, e.Want)
}

// DeclarationError reports an invalid dependency declaration detected while
// building a graph.
type DeclarationError struct {
	Property string
	Reason   string
}

func (e *DeclarationError) Error() string {
	if e.Property == "" {
		return fmt.Sprintf("mvvm: invalid declaration: %s", e.Reason)
	}
	return fmt.Sprintf("mvvm: invalid declaration for %q: %s", e.Property, e.Reason)
}

// PredicateError captures engine metadata alongside the originating error.
type PredicateError struct {
	Engine string
	Expr   string
	Err    error
}

func (e *PredicateError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Engine == "" {
		return fmt.Sprintf("mvvm: predicate %s: %v", describeExpression(e.Expr), e.Err)
	}
	return fmt.Sprintf("mvvm: %s predicate %s: %v", e.Engine, describeExpression(e.Expr), e.Err)
}

func (e *PredicateError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapPredicateError(engine, expr string, err error) error {
	if err == nil {
		return nil
	}

	var predErr *PredicateError
	if errors.As(err, &predErr) {
		if predErr.Engine == "" {
			predErr.Engine = engine
		}
		if predErr.Expr == "" {
			predErr.Expr = expr
		}
		return predErr
	}

	return &PredicateError{
		Engine: engine,
		Expr:   expr,
		Err:    err,
	}
}

func validName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: property name must not be empty", ErrInvalidArgument)
	}
	return nil
}
