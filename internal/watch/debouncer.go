// Package watch rebuilds the project when its sources change, coalescing
// bursts of filesystem events into single builds.
package watch

import (
	"context"
	"sync"
	"time"

	ferrors "github.com/webforge-dev/webforge/internal/foundation/errors"
)

// Trigger is one coalesced rebuild request.
type Trigger struct {
	At          time.Time
	Cause       string // "quiet", "max_delay", "schedule"
	Changes     int
	FirstChange time.Time
	LastChange  time.Time
}

// Debouncer coalesces change notifications into rebuild triggers:
//   - quiet window: a rebuild fires once the tree has been quiet long enough
//   - max delay: a busy tree cannot postpone the rebuild indefinitely
//
// Triggers are delivered on a one-slot channel. When the consumer is still
// building, further changes collapse into exactly one follow-up trigger.
type Debouncer struct {
	quiet    time.Duration
	maxDelay time.Duration

	changes  chan time.Time
	triggers chan Trigger

	mu          sync.Mutex
	pending     bool
	firstChange time.Time
	lastChange  time.Time
	count       int
}

// NewDebouncer validates the windows and creates an idle debouncer.
func NewDebouncer(quiet, maxDelay time.Duration) (*Debouncer, error) {
	if quiet <= 0 {
		return nil, ferrors.ValidationError("quiet window must be > 0").Build()
	}
	if maxDelay < quiet {
		return nil, ferrors.ValidationError("max delay must be >= quiet window").Build()
	}
	return &Debouncer{
		quiet:    quiet,
		maxDelay: maxDelay,
		changes:  make(chan time.Time, 256),
		triggers: make(chan Trigger, 1),
	}, nil
}

// Notify records one filesystem change. It never blocks; under an event
// storm dropped notifications are fine because one pending rebuild already
// covers them.
func (d *Debouncer) Notify() {
	select {
	case d.changes <- time.Now():
	default:
	}
}

// Kick bypasses the debounce windows and queues a trigger immediately. The
// periodic rebuild schedule uses this.
func (d *Debouncer) Kick(cause string) {
	d.emit(Trigger{At: time.Now(), Cause: cause})
}

// Triggers returns the rebuild trigger channel.
func (d *Debouncer) Triggers() <-chan Trigger {
	return d.triggers
}

// Run drives the debounce timers until ctx is cancelled.
func (d *Debouncer) Run(ctx context.Context) error {
	quietTimer := newStoppedTimer()
	maxTimer := newStoppedTimer()

	var quietC, maxC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case at := <-d.changes:
			first := d.onChange(at)

			resetTimer(quietTimer, d.quiet)
			quietC = quietTimer.C
			if first {
				resetTimer(maxTimer, d.maxDelay)
				maxC = maxTimer.C
			}

		case <-quietC:
			d.fire("quiet")
			quietC, maxC = nil, nil
			stopTimer(maxTimer)

		case <-maxC:
			d.fire("max_delay")
			quietC, maxC = nil, nil
			stopTimer(quietTimer)
		}
	}
}

// onChange records the change and reports whether it opened a new burst.
func (d *Debouncer) onChange(at time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	first := !d.pending
	if first {
		d.pending = true
		d.firstChange = at
		d.count = 0
	}
	d.lastChange = at
	d.count++
	return first
}

func (d *Debouncer) fire(cause string) {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return
	}
	t := Trigger{
		At:          time.Now(),
		Cause:       cause,
		Changes:     d.count,
		FirstChange: d.firstChange,
		LastChange:  d.lastChange,
	}
	d.pending = false
	d.mu.Unlock()

	d.emit(t)
}

// emit queues the trigger without blocking. A full slot means a rebuild is
// already queued; the new trigger is subsumed by it.
func (d *Debouncer) emit(t Trigger) {
	select {
	case d.triggers <- t:
	default:
	}
}

func newStoppedTimer() *time.Timer {
	t := time.NewTimer(time.Hour)
	stopTimer(t)
	return t
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

func resetTimer(t *time.Timer, after time.Duration) {
	stopTimer(t)
	t.Reset(after)
}
