package batch

// Outcome is the settled result of one item: a value when Err is nil, a
// captured failure otherwise. The split field keeps an error-typed R from
// being mistaken for a failure.
type Outcome[R any] struct {
	// Index is the item position in the input slice.
	Index int
	Value R
	// Err is a *PermanentFailureError for a captured failure.
	Err error
	// Attempts is the number of worker invocations made for the item.
	Attempts int
}

// Ok reports whether the item succeeded.
func (o Outcome[R]) Ok() bool {
	return o.Err == nil
}

// Flatten concatenates groups in order.
func Flatten[R any](groups [][]Outcome[R]) []Outcome[R] {
	n := 0
	for _, g := range groups {
		n += len(g)
	}
	flat := make([]Outcome[R], 0, n)
	for _, g := range groups {
		flat = append(flat, g...)
	}
	return flat
}

// Values returns the success values in order, or the first captured error.
func Values[R any](outcomes []Outcome[R]) ([]R, error) {
	values := make([]R, len(outcomes))
	for i, o := range outcomes {
		if o.Err != nil {
			return nil, o.Err
		}
		values[i] = o.Value
	}
	return values, nil
}

// Failures returns the outcomes that hold a captured error.
func Failures[R any](outcomes []Outcome[R]) []Outcome[R] {
	var failed []Outcome[R]
	for _, o := range outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}
