package pubsub

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerEndToEndPipeline(t *testing.T) {
	tr := NewTracker()
	tr.ApplyPipeline([][]string{
		{"SUBSCRIBE", "foo", "bar"},
		{"PSUBSCRIBE", "fo*o", "b*ar"},
		{"SSUBSCRIBE", "sfoo", "sbar"},
		{"UNSUBSCRIBE", "foo"},
		{"PUNSUBSCRIBE", "b*ar"},
		{"SUNSUBSCRIBE", "sfoo", "SBAR"},
	})

	got := tr.SubscriptionPipeline()
	want := [][]string{
		{"SUBSCRIBE", "bar"},
		{"SSUBSCRIBE", "sbar"},
		{"PSUBSCRIBE", "fo*o"},
	}
	assert.Equal(t, want, got)
}

func TestTrackerCaseInsensitiveCommandCaseSensitiveNames(t *testing.T) {
	tr := NewTracker()
	tr.Apply([]string{"subscribe", "Foo"})
	tr.Apply([]string{"UnSubScribe", "foo"}) // different case: no-op
	snap := tr.Snapshot()
	require.Contains(t, snap.Channels, "Foo")
	assert.Len(t, snap.Channels, 1)
}

func TestTrackerIgnoresUnrelatedCommands(t *testing.T) {
	tr := NewTracker()
	tr.Apply([]string{"PING"})
	tr.Apply([]string{"GET", "foo"})
	snap := tr.Snapshot()
	if len(snap.Channels) != 0 || len(snap.Patterns) != 0 || len(snap.ShardChannels) != 0 {
		t.Fatalf("expected no sets touched, got %+v", snap)
	}
}

func TestTrackerSkipsEmptySubscriptions(t *testing.T) {
	tr := NewTracker()
	if got := tr.SubscriptionPipeline(); len(got) != 0 {
		t.Fatalf("expected empty pipeline for a fresh tracker, got %v", got)
	}
}

func TestTrackerOnlyUnsubscribesFromExisting(t *testing.T) {
	tr := NewTracker()
	tr.Apply([]string{"SUBSCRIBE", "foo"})
	tr.Apply([]string{"UNSUBSCRIBE", "foo", "bar"})
	snap := tr.Snapshot()
	if len(snap.Channels) != 0 {
		t.Fatalf("expected channels empty, got %v", snap.Channels)
	}
}

func TestTrackerReplayRoundTrip(t *testing.T) {
	original := NewTracker()
	original.ApplyPipeline([][]string{
		{"SUBSCRIBE", "foo", "bar"},
		{"PSUBSCRIBE", "news.*"},
		{"SSUBSCRIBE", "shard1"},
		{"UNSUBSCRIBE", "bar"},
	})

	replayed := NewTracker()
	replayed.ApplyPipeline(original.SubscriptionPipeline())

	originalSnap := original.Snapshot()
	replayedSnap := replayed.Snapshot()
	if !reflect.DeepEqual(originalSnap, replayedSnap) {
		t.Fatalf("replay diverged: got %+v, want %+v", replayedSnap, originalSnap)
	}
}
