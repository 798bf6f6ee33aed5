package permission

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCallerID = "com.example.legacy"

// fakeSleep records sleep calls and runs a hook after each one, so
// tests can flip authority state at a chosen point in the poll loop
// without waiting in real time.
type fakeSleep struct {
	calls int
	after func(call int)
}

func (f *fakeSleep) sleep(time.Duration) {
	f.calls++
	if f.after != nil {
		f.after(f.calls)
	}
}

func testPoller(sleep func(time.Duration)) *Poller {
	p := NewPoller(time.Second, 100*time.Millisecond)
	p.Sleep = sleep
	return p
}

func TestAwait_AlreadyInDesiredState(t *testing.T) {
	authority := NewMemoryAuthority()
	authority.Grant(testCallerID, Write)

	fs := &fakeSleep{}
	p := testPoller(fs.sleep)

	err := p.Await(context.Background(), authority, testCallerID, Write, true)
	require.NoError(t, err)
	assert.Zero(t, fs.calls, "should not sleep when state already matches")
}

func TestAwait_ObservesAsyncGrant(t *testing.T) {
	authority := NewMemoryAuthority()

	fs := &fakeSleep{}
	fs.after = func(call int) {
		// The "harness" grants the permission after the third poll.
		if call == 3 {
			authority.Grant(testCallerID, Read)
		}
	}
	p := testPoller(fs.sleep)

	err := p.Await(context.Background(), authority, testCallerID, Read, true)
	require.NoError(t, err)
	assert.Equal(t, 3, fs.calls)
}

func TestAwait_ObservesRevocation(t *testing.T) {
	authority := NewMemoryAuthority()
	authority.Grant(testCallerID, Write)

	fs := &fakeSleep{}
	fs.after = func(call int) {
		if call == 1 {
			authority.Revoke(testCallerID, Write)
		}
	}
	p := testPoller(fs.sleep)

	err := p.Await(context.Background(), authority, testCallerID, Write, false)
	require.NoError(t, err)
}

func TestAwait_TimesOut(t *testing.T) {
	authority := NewMemoryAuthority()

	fs := &fakeSleep{}
	p := testPoller(fs.sleep)

	err := p.Await(context.Background(), authority, testCallerID, Write, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimedOut), "error should wrap ErrTimedOut, got %v", err)

	// 1s budget at 100ms interval: ten sleeps, eleven polls.
	assert.Equal(t, 10, fs.calls)
}

func TestAwait_ContextCancellation(t *testing.T) {
	authority := NewMemoryAuthority()
	ctx, cancel := context.WithCancel(context.Background())

	fs := &fakeSleep{}
	fs.after = func(call int) {
		if call == 2 {
			cancel()
		}
	}
	p := testPoller(fs.sleep)

	err := p.Await(ctx, authority, testCallerID, Read, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNewPoller_Defaults(t *testing.T) {
	p := NewPoller(0, 0)
	assert.Equal(t, DefaultTimeout, p.Timeout)
	assert.Equal(t, DefaultPollInterval, p.Interval)
}

func TestAwait_ZeroValuePoller(t *testing.T) {
	authority := NewMemoryAuthority()
	authority.Grant(testCallerID, Read)

	// A Poller built without NewPoller has zero fields; Await must
	// apply the defaults rather than divide by a zero interval.
	p := &Poller{}
	err := p.Await(context.Background(), authority, testCallerID, Read, true)
	require.NoError(t, err)

	// Same, on the timeout path: default budget, default interval.
	fs := &fakeSleep{}
	p = &Poller{Sleep: fs.sleep}
	err = p.Await(context.Background(), authority, testCallerID, Write, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimedOut))
	assert.Equal(t, int(DefaultTimeout/DefaultPollInterval), fs.calls)
}

func TestSnapshot(t *testing.T) {
	authority := NewMemoryAuthority()
	authority.Grant(testCallerID, Write)

	caller := Snapshot(authority, testCallerID, true)
	assert.Equal(t, testCallerID, caller.AppID)
	assert.True(t, caller.Legacy)
	assert.False(t, caller.ReadGranted)
	assert.True(t, caller.WriteGranted)

	// A snapshot is a copy: later authority changes do not affect it.
	authority.Revoke(testCallerID, Write)
	assert.True(t, caller.WriteGranted)
}
