package service

// Result is the uniform outcome of every service action.
//
// Build one with Success or Failure. A successful Result never carries an error
// and a failed one never carries data. The zero Result is a failure without
// error information.
type Result struct {
	ok   bool
	data any
	err  error
}

// Success wraps the data produced by an action.
func Success(data any) Result {
	return Result{ok: true, data: data}
}

// Failure wraps the error that stopped an action. err may be nil when the
// failure has no further information.
func Failure(err error) Result {
	return Result{err: err}
}

// OK reports whether the action succeeded.
func (r Result) OK() bool { return r.ok }

// Data returns the action's data, nil for failures.
func (r Result) Data() any { return r.data }

// Err returns the action's error, nil for successes.
func (r Result) Err() error { return r.err }
