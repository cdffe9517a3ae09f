// Package cbreaker provides a small circuit breaker guarding deferred engine
// flush attempts, so a wedged engine cannot stall every batching boundary.
package cbreaker

import (
	"errors"
	"sync"
	"time"
)

var ErrOpenState = errors.New("circuit breaker is in open state")

type state int

const (
	_ state = iota
	stClosed
	stOpen
	stHalfOpen
)

type CircuitBreaker struct {
	mu    sync.Mutex
	state state

	consecutiveFailures  int
	consecutiveSuccesses int

	failureThreshold int
	successThreshold int

	resetTimeout time.Duration
	nextProbeAt  time.Time
}

func New(failureThreshold, successThreshold int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		state:            stClosed,
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		resetTimeout:     resetTimeout,
	}
}

// Do runs fn protected by the breaker. While the breaker is open and the
// reset timeout has not elapsed, fn is not called and ErrOpenState is
// returned.
func (cb *CircuitBreaker) Do(fn func() error) error {
	cb.mu.Lock()
	if cb.state == stOpen {
		if time.Now().Before(cb.nextProbeAt) {
			cb.mu.Unlock()
			return ErrOpenState
		}
		cb.state = stHalfOpen
		cb.consecutiveSuccesses = 0
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.consecutiveSuccesses = 0
		if cb.state == stHalfOpen {
			cb.open()
		} else {
			cb.consecutiveFailures++
			if cb.consecutiveFailures >= cb.failureThreshold {
				cb.open()
			}
		}
		return err
	}

	if cb.state == stHalfOpen {
		cb.consecutiveSuccesses++
		if cb.consecutiveSuccesses >= cb.successThreshold {
			cb.reset()
		}
	} else {
		cb.consecutiveFailures = 0
	}
	return nil
}

// IsClosed reports whether calls are currently allowed through.
func (cb *CircuitBreaker) IsClosed() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state == stClosed || cb.state == stHalfOpen
}

func (cb *CircuitBreaker) open() {
	cb.state = stOpen
	cb.nextProbeAt = time.Now().Add(cb.resetTimeout)
	cb.consecutiveFailures = 0
	cb.consecutiveSuccesses = 0
}

func (cb *CircuitBreaker) reset() {
	cb.state = stClosed
	cb.consecutiveFailures = 0
	cb.consecutiveSuccesses = 0
}
