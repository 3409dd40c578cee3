package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackdesk/trackdesk/internal/domain"
)

func TestTrackerStartsLoading(t *testing.T) {
	tracker := NewTracker()
	user, loading := tracker.Current()
	assert.Nil(t, user)
	assert.True(t, loading)
}

func TestTrackerPublishResolvesLoading(t *testing.T) {
	tracker := NewTracker()
	alice := &domain.User{ID: "u1", Name: "Alice", Role: domain.RoleClient}

	tracker.Publish(alice)
	user, loading := tracker.Current()
	require.NotNil(t, user)
	assert.Equal(t, "u1", user.ID)
	assert.False(t, loading)

	// sign-out publishes nil but loading stays resolved
	tracker.Publish(nil)
	user, loading = tracker.Current()
	assert.Nil(t, user)
	assert.False(t, loading)
}

func TestTrackerNotifiesSubscribers(t *testing.T) {
	tracker := NewTracker()
	sub := tracker.Subscribe()

	bob := &domain.User{ID: "u2", Name: "Bob", Role: domain.RoleEmployee}
	tracker.Publish(bob)

	select {
	case snapshot := <-sub:
		require.NotNil(t, snapshot.User)
		assert.Equal(t, "u2", snapshot.User.ID)
		assert.False(t, snapshot.Loading)
	case <-time.After(time.Second):
		t.Fatal("expected snapshot on subscription channel")
	}
}

func TestTrackerSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	tracker := NewTracker()
	_ = tracker.Subscribe() // never drained

	done := make(chan struct{})
	go func() {
		tracker.Publish(&domain.User{ID: "u1"})
		tracker.Publish(&domain.User{ID: "u2"})
		tracker.Publish(nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	user, loading := tracker.Current()
	assert.Nil(t, user)
	assert.False(t, loading)
}
