// Package circuitbreaker stops calling a failing backend for a cool-down
// period and lets a single probe through before closing again.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// State is the position of the breaker
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

var (
	// ErrOpen is returned by Execute while the circuit rejects calls
	ErrOpen = errors.New("circuit breaker open")
	// ErrProbeInFlight is returned in half-open while another call is probing
	ErrProbeInFlight = errors.New("circuit breaker probe in flight")
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Counts is a snapshot of the breaker's bookkeeping
type Counts struct {
	State               State
	ConsecutiveFailures int32
	ConsecutiveSuccess  int32
	Rejected            int64
	OpenedAt            time.Time
}

// CircuitBreaker trips after failureThreshold consecutive failures, stays
// open for timeout, then closes after successThreshold successful probes.
type CircuitBreaker struct {
	failureThreshold int32
	successThreshold int32
	timeout          time.Duration
	now              func() time.Time

	mu       sync.Mutex
	state    State
	failures int32
	success  int32
	rejected int64
	openedAt time.Time
	probing  bool
	onChange func(from, to State)
}

// NewCircuitBreaker creates a closed breaker. Thresholds below one are raised to one.
func NewCircuitBreaker(failureThreshold, successThreshold int32, timeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		failureThreshold: max(failureThreshold, 1),
		successThreshold: max(successThreshold, 1),
		timeout:          timeout,
		now:              time.Now,
	}
}

// SetStateChangeCallback registers fn to run after every transition.
// fn is called without the breaker lock held.
func (cb *CircuitBreaker) SetStateChangeCallback(fn func(from, to State)) {
	cb.mu.Lock()
	cb.onChange = fn
	cb.mu.Unlock()
}

// Execute runs fn if the breaker admits the call and records its outcome.
// A nil error counts as success.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	probe, err := cb.admit()
	if err != nil {
		return err
	}
	err = fn()
	cb.record(probe, err == nil)
	return err
}

// GetState returns the current state, moving open to half-open once the
// cool-down has elapsed.
func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	notify := cb.expireLocked()
	state := cb.state
	cb.mu.Unlock()
	notify()
	return state
}

// Counts returns a snapshot of the breaker
func (cb *CircuitBreaker) Counts() Counts {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return Counts{
		State:               cb.state,
		ConsecutiveFailures: cb.failures,
		ConsecutiveSuccess:  cb.success,
		Rejected:            cb.rejected,
		OpenedAt:            cb.openedAt,
	}
}

func (cb *CircuitBreaker) admit() (probe bool, err error) {
	cb.mu.Lock()
	notify := cb.expireLocked()
	switch cb.state {
	case StateOpen:
		cb.rejected++
		err = ErrOpen
	case StateHalfOpen:
		if cb.probing {
			cb.rejected++
			err = ErrProbeInFlight
		} else {
			cb.probing = true
			probe = true
		}
	}
	cb.mu.Unlock()
	notify()
	return probe, err
}

func (cb *CircuitBreaker) record(probe, ok bool) {
	cb.mu.Lock()
	if probe {
		cb.probing = false
	}
	var notify func()
	switch {
	case ok && cb.state == StateHalfOpen:
		cb.success++
		if cb.success >= cb.successThreshold {
			notify = cb.transitionLocked(StateClosed)
		}
	case ok:
		cb.failures = 0
	case cb.state == StateHalfOpen:
		notify = cb.transitionLocked(StateOpen)
	case cb.state == StateClosed:
		cb.failures++
		if cb.failures >= cb.failureThreshold {
			notify = cb.transitionLocked(StateOpen)
		}
	}
	cb.mu.Unlock()
	if notify != nil {
		notify()
	}
}

func (cb *CircuitBreaker) expireLocked() func() {
	if cb.state == StateOpen && cb.now().Sub(cb.openedAt) >= cb.timeout {
		return cb.transitionLocked(StateHalfOpen)
	}
	return func() {}
}

// transitionLocked changes state and returns the callback invocation to run
// once the lock is released.
func (cb *CircuitBreaker) transitionLocked(to State) func() {
	from := cb.state
	cb.state = to
	cb.failures = 0
	cb.success = 0
	if to == StateOpen {
		cb.openedAt = cb.now()
	}
	fn := cb.onChange
	if fn == nil || from == to {
		return func() {}
	}
	return func() { fn(from, to) }
}
