package device

import (
	"errors"
	"fmt"
)

// EnumerationKind classifies a category walk outcome that is not a plain success
type EnumerationKind string

const (
	// EnumerationUnavailable means the registry could not be activated at all
	EnumerationUnavailable EnumerationKind = "enumeration_unavailable"
	// CategoryEmpty means the category is recognized (or unknown) but has no members
	CategoryEmpty EnumerationKind = "category_empty"
	// EndOfSequence is the normal end of a session walk
	EndOfSequence EnumerationKind = "end_of_sequence"
	// PullFailed means the session failed after the walk started
	PullFailed EnumerationKind = "pull_failed"
)

// EnumerationError represents a registry-side failure or soft outcome
type EnumerationError struct {
	Kind     EnumerationKind
	Category string // empty when not tied to a category
	Msg      string
	Err      error
}

// Error implements the error interface
func (e *EnumerationError) Error() string {
	if e == nil {
		return "<nil>"
	}

	msg := string(e.Kind)
	if e.Category != "" {
		msg = fmt.Sprintf("%s (category %s)", msg, e.Category)
	}
	if e.Msg != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes the collaborator error, if any
func (e *EnumerationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is allows errors.Is to compare EnumerationError values by Kind
func (e *EnumerationError) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*EnumerationError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Predefined sentinel errors for enumeration outcomes
var (
	ErrEnumerationUnavailable = &EnumerationError{Kind: EnumerationUnavailable}
	ErrCategoryEmpty          = &EnumerationError{Kind: CategoryEmpty}
	ErrEndOfSequence          = &EnumerationError{Kind: EndOfSequence}
	ErrPullFailed             = &EnumerationError{Kind: PullFailed}
)

// IsEnumerationKind reports whether err is an EnumerationError of the given kind
func IsEnumerationKind(err error, kind EnumerationKind) bool {
	var eerr *EnumerationError
	if errors.As(err, &eerr) {
		return eerr.Kind == kind
	}
	return false
}

// PropertyKind classifies a property store failure
type PropertyKind string

const (
	PropertyUnavailable PropertyKind = "property_unavailable"
	ReadFailed          PropertyKind = "read_failed"
	NameUnresolvable    PropertyKind = "name_unresolvable"
)

// PropertyError represents a failure to open a property view or read a value from it
type PropertyError struct {
	Kind PropertyKind
	Key  string // property name, empty when the view itself failed
	Msg  string
	Err  error
}

func (e *PropertyError) Error() string {
	if e == nil {
		return "<nil>"
	}

	msg := string(e.Kind)
	if e.Key != "" {
		msg = fmt.Sprintf("%s %q", msg, e.Key)
	}
	if e.Msg != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *PropertyError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is allows errors.Is to compare PropertyError values by Kind
func (e *PropertyError) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*PropertyError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

var (
	ErrPropertyUnavailable = &PropertyError{Kind: PropertyUnavailable}
	ErrReadFailed          = &PropertyError{Kind: ReadFailed}
	ErrNameUnresolvable    = &PropertyError{Kind: NameUnresolvable}
)

// NotFoundError represents a device selector that matched nothing in a category
type NotFoundError struct {
	Resource string // "device", "category"
	Selector string
}

func (e *NotFoundError) Error() string {
	if e.Selector == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Selector)
}
