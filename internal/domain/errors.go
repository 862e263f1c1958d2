package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
)

// ValidationError reports malformed or missing input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validationf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an entity that is absent or not owned by the caller.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// Conflict codes carried by ConflictError.
const (
	ConflictDuplicateZoneName = "duplicate_zone_name"
	ConflictDuplicatePincodes = "duplicate_pincodes"
	ConflictStaleVersion      = "stale_version"
)

// ConflictError reports a uniqueness or concurrency violation.
// For duplicate pincodes, Conflicts maps each offending pincode to the
// name of the zone that already owns it.
type ConflictError struct {
	Code      string
	Msg       string
	Conflicts map[string]string
}

func (e *ConflictError) Error() string {
	if len(e.Conflicts) == 0 {
		return e.Msg
	}
	pairs := make([]string, 0, len(e.Conflicts))
	for pin, zone := range e.Conflicts {
		pairs = append(pairs, pin+" ("+zone+")")
	}
	sort.Strings(pairs)
	return e.Msg + ": " + strings.Join(pairs, ", ")
}

// StateError reports an illegal order status transition, or a mutation
// attempted while the order is not in a state that permits it.
type StateError struct {
	From OrderStatus
	To   OrderStatus
	Msg  string
}

func (e *StateError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("illegal status transition from %s to %s", e.From, e.To)
}

// ComputationError reports pricing configuration that cannot produce a
// result, such as a flat-rate zone with no weight unit configured.
type ComputationError struct {
	Msg string
}

func (e *ComputationError) Error() string { return e.Msg }

func Computationf(format string, args ...interface{}) *ComputationError {
	return &ComputationError{Msg: fmt.Sprintf(format, args...)}
}
