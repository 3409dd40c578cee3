package session

import (
	"sync"

	"github.com/trackdesk/trackdesk/internal/domain"
)

// Snapshot is the observable session state. Loading is true until the
// first resolution completes; consumers must not act on role-gated
// decisions while loading.
type Snapshot struct {
	User    *domain.User
	Loading bool
}

// Tracker is an injectable holder for the current resolved user with a
// subscribe-on-change stream. It replaces ambient global session state.
type Tracker struct {
	mu      sync.RWMutex
	user    *domain.User
	loading bool
	subs    []chan Snapshot
}

// NewTracker starts in the loading state.
func NewTracker() *Tracker {
	return &Tracker{loading: true}
}

// Publish records a resolution: a combined user on sign-in, nil on
// sign-out or missing profile. The first publish clears loading.
func (t *Tracker) Publish(user *domain.User) {
	t.mu.Lock()
	t.user = user
	t.loading = false
	snapshot := Snapshot{User: user, Loading: false}
	subs := make([]chan Snapshot, len(t.subs))
	copy(subs, t.subs)
	t.mu.Unlock()

	for _, sub := range subs {
		select {
		case sub <- snapshot:
		default:
			// slow subscriber keeps only the state it already has
		}
	}
}

// Current returns the latest resolved user and whether resolution is
// still pending.
func (t *Tracker) Current() (*domain.User, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.user, t.loading
}

// Subscribe registers for change notifications. The channel is buffered;
// a lagging subscriber drops intermediate snapshots rather than blocking
// publishers.
func (t *Tracker) Subscribe() <-chan Snapshot {
	ch := make(chan Snapshot, 1)
	t.mu.Lock()
	t.subs = append(t.subs, ch)
	t.mu.Unlock()
	return ch
}
