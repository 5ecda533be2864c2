package xsdtree

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSchemaResolution is returned when a requested root or subtree path
	// does not resolve to a declared element.
	ErrSchemaResolution = errors.New("schema path does not resolve")

	// ErrRecursionDetected marks a truncated self-referential branch. It is
	// only ever reported through a Diagnostic, never returned.
	ErrRecursionDetected = errors.New("recursive content model truncated")

	// ErrFacetCoercion is returned when an exclusive bound facet carries a
	// non-integer literal.
	ErrFacetCoercion = errors.New("facet value is not an integer")

	// ErrInvalidFullnessMode is returned for a mode other than minimum,
	// medium or maximum.
	ErrInvalidFullnessMode = errors.New("invalid fullness mode")

	// ErrSchemaShape is returned when the schema document uses a construct
	// the object model cannot represent.
	ErrSchemaShape = errors.New("invalid schema shape")

	// ErrUnresolvedReference is returned when a ref or type attribute in the
	// target namespace names a component that is not declared.
	ErrUnresolvedReference = errors.New("unresolved schema reference")
)

// ResolutionError reports the first path segment that could not be resolved.
type ResolutionError struct {
	Path    string
	Segment string
}

func (e *ResolutionError) Error() string {
	if e.Segment == "" || e.Segment == e.Path {
		return fmt.Sprintf("%s: %q", ErrSchemaResolution, e.Path)
	}
	return fmt.Sprintf("%s: %q (no element %q)", ErrSchemaResolution, e.Path, e.Segment)
}

func (e *ResolutionError) Unwrap() error { return ErrSchemaResolution }

// FacetCoercionError reports an exclusive bound that could not be shifted
// to an inclusive integer bound.
type FacetCoercionError struct {
	Facet string
	Value string
	Path  string
}

func (e *FacetCoercionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s=%q", ErrFacetCoercion, e.Facet, e.Value)
	if e.Path != "" {
		fmt.Fprintf(&b, " at %s", e.Path)
	}
	return b.String()
}

func (e *FacetCoercionError) Unwrap() error { return ErrFacetCoercion }

// ModeError reports a rejected fullness mode literal.
type ModeError struct {
	Mode string
}

func (e *ModeError) Error() string {
	return fmt.Sprintf("%s %q (expected one of: %s, %s, %s)",
		ErrInvalidFullnessMode, e.Mode, ModeMinimum, ModeMedium, ModeMaximum)
}

func (e *ModeError) Unwrap() error { return ErrInvalidFullnessMode }

// ShapeError locates an unsupported or malformed schema construct.
type ShapeError struct {
	Location string
	Message  string
}

func (e *ShapeError) Error() string {
	if e.Location == "" {
		return fmt.Sprintf("%s: %s", ErrSchemaShape, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", ErrSchemaShape, e.Location, e.Message)
}

func (e *ShapeError) Unwrap() error { return ErrSchemaShape }
