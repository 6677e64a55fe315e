/*
Copyright © 2019 the AMRmap authors.
This file is part of AMRmap.

AMRmap is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

AMRmap is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with AMRmap.  If not, see <http://www.gnu.org/licenses/>.
*/

package amrmap

import (
	"errors"
	"fmt"
	"strings"
)

// Error categories returned by this package. Use errors.Is to test for them;
// the concrete error values carry the offending parameter or variable.
var (
	// ErrInvalidParameter is returned for request parameters that are
	// out of range or inconsistent with each other.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidDirection is returned for projection directions other
	// than x, y, or z. It wraps ErrInvalidParameter.
	ErrInvalidDirection = fmt.Errorf("%w: direction", ErrInvalidParameter)

	// ErrInvalidRange is returned for spatial ranges with min >= max or
	// non-finite bounds. It wraps ErrInvalidParameter.
	ErrInvalidRange = fmt.Errorf("%w: range", ErrInvalidParameter)

	// ErrUnknownVariable is returned when a variable is neither a field
	// in the cell table nor a known derived quantity.
	ErrUnknownVariable = errors.New("unknown variable")

	// ErrIncompatibleUnit is returned when a unit symbol is not in the
	// scale table or does not match the dimensions of the variable.
	ErrIncompatibleUnit = errors.New("incompatible unit")

	// ErrWorkerFailure is returned when one or more projection workers fail.
	ErrWorkerFailure = errors.New("worker failure")
)

// ParameterError describes an invalid request parameter.
type ParameterError struct {
	Param  string
	Value  interface{}
	Reason string
	Err    error // ErrInvalidParameter or one of the errors wrapping it.
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("amrmap: invalid %s (%v): %s", e.Param, e.Value, e.Reason)
}

func (e *ParameterError) Unwrap() error { return e.Err }

func invalidParam(param string, value interface{}, format string, args ...interface{}) error {
	return &ParameterError{
		Param:  param,
		Value:  value,
		Reason: fmt.Sprintf(format, args...),
		Err:    ErrInvalidParameter,
	}
}

func invalidRange(param string, value interface{}, format string, args ...interface{}) error {
	return &ParameterError{
		Param:  param,
		Value:  value,
		Reason: fmt.Sprintf(format, args...),
		Err:    ErrInvalidRange,
	}
}

// VariableError describes a variable that could not be resolved
// or converted to the requested unit.
type VariableError struct {
	Variable string
	Unit     string
	Reason   string
	Err      error // ErrUnknownVariable or ErrIncompatibleUnit.
}

func (e *VariableError) Error() string {
	if e.Unit == "" {
		return fmt.Sprintf("amrmap: variable %q: %s", e.Variable, e.Reason)
	}
	return fmt.Sprintf("amrmap: variable %q in unit %q: %s", e.Variable, e.Unit, e.Reason)
}

func (e *VariableError) Unwrap() error { return e.Err }

// WorkerError aggregates the failures of all projection workers that
// did not complete. It matches ErrWorkerFailure as well as each of the
// underlying worker errors.
type WorkerError struct {
	Errs []error
}

func (e *WorkerError) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("amrmap: %d worker(s) failed: %s", len(e.Errs), strings.Join(msgs, "; "))
}

func (e *WorkerError) Unwrap() []error {
	return append([]error{ErrWorkerFailure}, e.Errs...)
}
