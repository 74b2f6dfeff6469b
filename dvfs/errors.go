package dvfs

import (
	"errors"
	"fmt"
)

var (
	ErrNoTableMatch       = errors.New("no dvfs table entry matches")
	ErrNotMonotonic       = errors.New("frequency table is not monotonic")
	ErrNominalUnreachable = errors.New("no ladder step satisfies nominal constraints")
	ErrTopFreqMismatch    = errors.New("single-core and multi-core top frequencies differ")
	ErrNoConvergence      = errors.New("rail relationships did not converge")
	ErrUnknownRail        = errors.New("unknown rail")
	ErrUnknownDomain      = errors.New("unknown clock domain")
	ErrUnknownCap         = errors.New("unknown cap domain")
	ErrNotInitialized     = errors.New("dvfs engine not initialized")
	ErrRateAboveTable     = errors.New("rate above dvfs table maximum")
	ErrStalePlan          = errors.New("rail changed since plan was computed")
	ErrBadTable           = errors.New("malformed dvfs table")
)

// FatalError is a configuration error that must stop initialization.
type FatalError struct {
	Op     string
	Domain string
	Err    error
}

func (e *FatalError) Error() string {
	if e.Domain == "" {
		return fmt.Sprintf("dvfs %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("dvfs %s %s: %v", e.Op, e.Domain, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

func fatalf(op, domain string, err error, format string, args ...interface{}) error {
	return &FatalError{
		Op:     op,
		Domain: domain,
		Err:    fmt.Errorf("%w: "+format, append([]interface{}{err}, args...)...),
	}
}

// IsFatal reports whether err carries a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// ApplyError reports a regulator or clock refusing a programmed value.
type ApplyError struct {
	Rail        string
	RequestedMV int
	RejectedMV  int
	Err         error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("dvfs apply %s: requested %d mV, rejected at %d mV: %v",
		e.Rail, e.RequestedMV, e.RejectedMV, e.Err)
}

func (e *ApplyError) Unwrap() error { return e.Err }
