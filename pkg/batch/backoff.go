package batch

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// BackoffKind selects the wait policy between retry attempts.
type BackoffKind int

const (
	// BackoffLinear waits InitialDelay before every retry.
	BackoffLinear BackoffKind = iota
	// BackoffExponential waits InitialDelay * 2^(attempt-1), capped at MaxDelay.
	BackoffExponential
)

// String returns the config name of the policy.
func (k BackoffKind) String() string {
	switch k {
	case BackoffLinear:
		return "linear"
	case BackoffExponential:
		return "exponential"
	default:
		return fmt.Sprintf("BackoffKind(%d)", int(k))
	}
}

// ParseBackoff parses "linear" or "exponential" (case-insensitive).
// An empty string yields BackoffLinear.
func ParseBackoff(s string) (BackoffKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "linear":
		return BackoffLinear, nil
	case "exponential":
		return BackoffExponential, nil
	default:
		return BackoffLinear, fmt.Errorf("unknown backoff %q (want linear or exponential)", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k BackoffKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *BackoffKind) UnmarshalText(text []byte) error {
	parsed, err := ParseBackoff(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Strategy computes the wait after a failed attempt.
type Strategy interface {
	// Delay returns how long to wait after attempt n (1-indexed) failed.
	Delay(attempt int) time.Duration
}

// Constant always returns the same delay regardless of attempt number.
type Constant struct {
	Interval time.Duration
}

// Delay returns the fixed interval.
func (c Constant) Delay(_ int) time.Duration {
	return c.Interval
}

// Exponential doubles the delay each attempt.
// Delay = min(Initial * 2^(attempt-1), Max).
type Exponential struct {
	Initial time.Duration
	Max     time.Duration
}

// Delay returns Initial * 2^(attempt-1), capped at Max.
func (e Exponential) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(e.Initial) * math.Pow(2, float64(attempt-1))
	if e.Max > 0 && d > float64(e.Max) {
		return e.Max
	}
	return time.Duration(d)
}
