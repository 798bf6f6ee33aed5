package permission

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimedOut indicates the authority never reached the desired grant
// state within the polling window.
//
// This is fatal for the calling scenario: it signals an environment
// setup problem, not a policy outcome, and is never retried here.
var ErrTimedOut = errors.New("timed out waiting for permission state")

// Default polling parameters, applied by NewPoller when the
// corresponding field is zero.
const (
	DefaultTimeout      = 10 * time.Second
	DefaultPollInterval = 100 * time.Millisecond
)

// Poller observes an externally driven permission change by polling
// the authority at a fixed interval until the desired state appears or
// the timeout elapses.
//
// Each poll reads a single boolean from the authority; there is no
// shared mutable state and no locking. The Sleep function is
// injectable so tests can drive the poll loop deterministically
// instead of waiting in real time.
type Poller struct {
	// Timeout bounds the total wait.
	Timeout time.Duration

	// Interval is the pause between polls.
	Interval time.Duration

	// Sleep pauses between polls. Defaults to time.Sleep.
	Sleep func(time.Duration)
}

// NewPoller builds a poller, filling zero fields with the defaults.
func NewPoller(timeout, interval time.Duration) *Poller {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		Timeout:  timeout,
		Interval: interval,
		Sleep:    time.Sleep,
	}
}

// Await blocks until the authority reports the desired grant state for
// the caller, the timeout elapses, or the context is cancelled.
//
// The wait is a cooperative fixed-interval poll: the authority is
// queried immediately, then once per interval until the budget of
// Timeout/Interval polls is spent. On expiry Await returns an error
// wrapping ErrTimedOut.
func (p *Poller) Await(ctx context.Context, authority Authority, callerID string, perm Permission, desired bool) error {
	// The fields are exported, so a Poller built without NewPoller may
	// carry zeroes; fall back to the same defaults here.
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	polls := int64(timeout / interval)
	for i := int64(0); i <= polls; i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("await %s=%v for %s: %w", perm, desired, callerID, err)
		}
		if authority.IsGranted(callerID, perm) == desired {
			return nil
		}
		if i < polls {
			sleep(interval)
		}
	}

	return fmt.Errorf("await %s=%v for %s after %s: %w",
		perm, desired, callerID, timeout, ErrTimedOut)
}
