package batch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExponential_Delay(t *testing.T) {
	e := Exponential{Initial: 50 * time.Millisecond, Max: 300 * time.Millisecond}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 0, want: 50 * time.Millisecond},
		{attempt: 1, want: 50 * time.Millisecond},
		{attempt: 2, want: 100 * time.Millisecond},
		{attempt: 3, want: 200 * time.Millisecond},
		{attempt: 4, want: 300 * time.Millisecond},
		{attempt: 40, want: 300 * time.Millisecond},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, e.Delay(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestConstant_Delay(t *testing.T) {
	c := Constant{Interval: 75 * time.Millisecond}
	for attempt := 1; attempt <= 5; attempt++ {
		assert.Equal(t, 75*time.Millisecond, c.Delay(attempt))
	}
}

func TestRetryOptions_Strategy(t *testing.T) {
	t.Run("defaults to linear 100ms", func(t *testing.T) {
		s := RetryOptions{}.Strategy()
		assert.Equal(t, Constant{Interval: DefaultInitialDelay}, s)
	})

	t.Run("exponential uses default cap", func(t *testing.T) {
		s := RetryOptions{Backoff: BackoffExponential, InitialDelay: time.Second}.Strategy()
		assert.Equal(t, Exponential{Initial: time.Second, Max: DefaultMaxDelay}, s)
		assert.Equal(t, DefaultMaxDelay, s.Delay(10))
	})

	t.Run("negative initial delay disables wait", func(t *testing.T) {
		s := RetryOptions{InitialDelay: -time.Millisecond}.Strategy()
		assert.Equal(t, time.Duration(0), s.Delay(1))
	})
}

func TestParseBackoff(t *testing.T) {
	tests := []struct {
		in      string
		want    BackoffKind
		wantErr bool
	}{
		{in: "", want: BackoffLinear},
		{in: "linear", want: BackoffLinear},
		{in: " Exponential ", want: BackoffExponential},
		{in: "fibonacci", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseBackoff(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestBackoffKind_Text(t *testing.T) {
	b, err := BackoffExponential.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "exponential", string(b))

	var k BackoffKind
	require.NoError(t, k.UnmarshalText([]byte("exponential")))
	assert.Equal(t, BackoffExponential, k)
	assert.Error(t, k.UnmarshalText([]byte("nope")))

	assert.Equal(t, "BackoffKind(9)", BackoffKind(9).String())
}

func TestOptions_WithDefaults(t *testing.T) {
	o, err := Options{}.withDefaults()
	require.NoError(t, err)
	assert.Equal(t, DefaultBatchSize, o.BatchSize)
	assert.Equal(t, DefaultMaxAttempts, o.Retry.MaxAttempts)
	assert.Equal(t, DefaultInitialDelay, o.Retry.InitialDelay)
	assert.Equal(t, DefaultMaxDelay, o.Retry.MaxDelay)

	o, err = Options{DelayBetweenBatches: -time.Second, Timeout: -time.Second}.withDefaults()
	require.NoError(t, err)
	assert.Zero(t, o.DelayBetweenBatches)
	assert.Zero(t, o.Timeout)

	_, err = Options{BatchSize: -2}.withDefaults()
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestErrors(t *testing.T) {
	te := &TimeoutError{Timeout: 2 * time.Second, Attempt: 1}
	assert.Equal(t, "operation timed out after 2s", te.Error())
	assert.ErrorIs(t, te, ErrTimeout)

	pe := &PanicError{Value: "x"}
	assert.ErrorIs(t, pe, ErrWorkerPanic)

	pf := &PermanentFailureError{Index: 4, Attempts: 3, Err: te}
	assert.ErrorIs(t, pf, ErrTimeout)
	assert.Equal(t, "item 4 failed after 3 attempt(s): operation timed out after 2s", pf.Error())
}
