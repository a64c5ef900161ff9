package metrics

import "fmt"

// DuplicateMetricError is returned by Register when a definition with the
// same name has already been registered.
type DuplicateMetricError struct {
	Name string
}

// Error implements the error interface.
func (e *DuplicateMetricError) Error() string {
	return fmt.Sprintf("metric %q is already registered", e.Name)
}

// InvalidDefinitionError is returned by Register when a definition is
// malformed (empty name, no labels where required, or histogram buckets that
// are not strictly ascending).
type InvalidDefinitionError struct {
	Name   string
	Reason string
}

// Error implements the error interface.
func (e *InvalidDefinitionError) Error() string {
	return fmt.Sprintf("invalid definition for metric %q: %s", e.Name, e.Reason)
}

// UnknownMetricError is returned by Increment, Set and Observe when the named
// metric has not been registered.
type UnknownMetricError struct {
	Name string
}

// Error implements the error interface.
func (e *UnknownMetricError) Error() string {
	return fmt.Sprintf("metric %q is not registered", e.Name)
}

// LabelArityError is returned when the number of label values supplied to an
// update does not match the registered definition's label names.
type LabelArityError struct {
	Name string
	Want int
	Got  int
}

// Error implements the error interface.
func (e *LabelArityError) Error() string {
	return fmt.Sprintf("metric %q expects %d label values, got %d", e.Name, e.Want, e.Got)
}

// KindMismatchError is returned when an update operation does not apply to
// the metric's kind (for example Observe on a counter).
type KindMismatchError struct {
	Name string
	Kind Kind
	Op   string
}

// Error implements the error interface.
func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("operation %s does not apply to %s metric %q", e.Op, e.Kind, e.Name)
}
