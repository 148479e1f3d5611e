package onboarding

import (
	"context"
	"strings"
	"sync"
	"time"

	"teamhub-backend/internal/pkg/validation"

	"github.com/rs/zerolog/log"
)

// AvailabilityState is the checker's current verdict for the typed email.
type AvailabilityState string

const (
	AvailabilityUnknown   AvailabilityState = "unknown"
	AvailabilityPending   AvailabilityState = "pending"
	AvailabilityAvailable AvailabilityState = "available"
	AvailabilityTaken     AvailabilityState = "taken"
)

// DefaultQuietPeriod is how long input must be idle before a query fires.
const DefaultQuietPeriod = 500 * time.Millisecond

// CheckFunc reports whether the email is free to register.
type CheckFunc func(ctx context.Context, email string) (bool, error)

// EmailAvailability debounces availability lookups during interactive typing.
// Each input resets the quiet-period timer and supersedes any in-flight
// check; an email already confirmed available is answered from cache without
// querying; empty or malformed input resets the state to unknown. The timer
// is owned by the flow and stopped on teardown so no callback outlives it.
type EmailAvailability struct {
	mu    sync.Mutex
	quiet time.Duration
	check CheckFunc

	timer  *time.Timer
	gen    uint64
	closed bool

	state AvailabilityState
	email string // the email the current state refers to

	lastAvailable string // cache of the last email confirmed available
}

func NewEmailAvailability(quiet time.Duration, check CheckFunc) *EmailAvailability {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &EmailAvailability{
		quiet: quiet,
		check: check,
		state: AvailabilityUnknown,
	}
}

// Input records an email edit. After the quiet period with no further edits a
// single query runs; a superseding edit cancels it.
func (a *EmailAvailability) Input(email string) {
	email = normalizeEmail(email)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.gen++
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}

	if email == "" || !validation.IsValidEmail(email) {
		a.state = AvailabilityUnknown
		a.email = ""
		return
	}
	if email == a.lastAvailable {
		// Already checked and found available; skip the redundant query.
		a.state = AvailabilityAvailable
		a.email = email
		return
	}

	a.state = AvailabilityPending
	a.email = email
	gen := a.gen
	a.timer = time.AfterFunc(a.quiet, func() {
		a.runCheck(gen, email)
	})
}

func (a *EmailAvailability) runCheck(gen uint64, email string) {
	a.mu.Lock()
	if a.closed || gen != a.gen {
		a.mu.Unlock()
		return
	}
	check := a.check
	a.mu.Unlock()

	available, err := check(context.Background(), email)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed || gen != a.gen {
		return
	}
	if err != nil {
		// A failed lookup never blocks the flow; the verdict stays unknown
		// and final submission races the uniqueness constraint as usual.
		log.Warn().Err(err).Str("email", email).Msg("email availability check failed")
		a.state = AvailabilityUnknown
		return
	}
	if available {
		a.state = AvailabilityAvailable
		a.lastAvailable = email
	} else {
		a.state = AvailabilityTaken
	}
}

// Snapshot returns the current verdict and the email it refers to.
func (a *EmailAvailability) Snapshot() (AvailabilityState, string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state, a.email
}

// Close stops the timer and drops any in-flight result so nothing mutates
// state after the owning flow is gone. Idempotent.
func (a *EmailAvailability) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
