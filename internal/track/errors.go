// Package track turns an element set into a one-day ground track: it samples
// the sub-point at a fixed step, splits the samples into polylines and emits
// point and line layers, either in memory or as files.
package track

import "errors"

var (
	// ErrInput reports caller mistakes: malformed elements, a bad step or
	// split policy, an empty point sequence or an unsupported output path.
	ErrInput = errors.New("invalid input")

	// ErrPropagation reports a failure inside the orbit propagator.
	ErrPropagation = errors.New("propagation failed")
)

// ErrorKind classifies err for metrics and status mapping.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInput):
		return "input"
	case errors.Is(err, ErrPropagation):
		return "propagation"
	default:
		return "io"
	}
}
