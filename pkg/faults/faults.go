// Package faults defines the error kinds shared by the admhist packages.
//
// Shape errors mark malformed input caught at construction time and are never
// coerced into anything softer. Consistency errors mark well-formed objects
// that disagree with each other and are only produced by side-effect-free
// verification. Invariant errors cover the remaining programmer/data errors,
// such as operating on a date that no unit state covers.
package faults

import "fmt"

type ShapeError struct {
	Msg string
}

func (e *ShapeError) Error() string { return e.Msg }

type ConsistencyError struct {
	Msg string
}

func (e *ConsistencyError) Error() string { return e.Msg }

type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string { return e.Msg }

func Shapef(format string, args ...interface{}) error {
	return &ShapeError{Msg: fmt.Sprintf(format, args...)}
}

func Consistencyf(format string, args ...interface{}) error {
	return &ConsistencyError{Msg: fmt.Sprintf(format, args...)}
}

func Invariantf(format string, args ...interface{}) error {
	return &InvariantError{Msg: fmt.Sprintf(format, args...)}
}
