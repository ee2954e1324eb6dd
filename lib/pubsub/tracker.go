package pubsub

import (
	"sort"
	"strings"
)

// SubscriptionSets is a point-in-time snapshot of a Tracker's three
// disjoint name sets.
type SubscriptionSets struct {
	Channels      map[string]struct{}
	Patterns      map[string]struct{}
	ShardChannels map[string]struct{}
}

// Tracker is pure state: the three sets of names a supervisor is
// currently subscribed to. It has no connection and no knowledge of
// transport - Apply just replays SUBSCRIBE-family commands against the
// sets, and SubscriptionPipeline turns the current state back into the
// commands needed to restore it after a reconnect.
type Tracker struct {
	channels      map[string]struct{}
	patterns      map[string]struct{}
	shardChannels map[string]struct{}
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		channels:      map[string]struct{}{},
		patterns:      map[string]struct{}{},
		shardChannels: map[string]struct{}{},
	}
}

// Apply updates the tracker from one command's arguments (args[0] is the
// command name, args[1:] are channel/pattern names). The command name is
// matched case-insensitively; names are matched exactly (Redis channel
// and pattern names are case-sensitive). Commands outside the
// SUBSCRIBE/PSUBSCRIBE/SSUBSCRIBE/UNSUBSCRIBE/PUNSUBSCRIBE/SUNSUBSCRIBE
// family are ignored.
func (t *Tracker) Apply(args []string) {
	if len(args) == 0 {
		return
	}
	names := args[1:]
	switch strings.ToUpper(args[0]) {
	case "SUBSCRIBE":
		addAll(t.channels, names)
	case "UNSUBSCRIBE":
		removeAll(t.channels, names)
	case "PSUBSCRIBE":
		addAll(t.patterns, names)
	case "PUNSUBSCRIBE":
		removeAll(t.patterns, names)
	case "SSUBSCRIBE":
		addAll(t.shardChannels, names)
	case "SUNSUBSCRIBE":
		removeAll(t.shardChannels, names)
	}
}

// ApplyPipeline applies each command in cmds, in order.
func (t *Tracker) ApplyPipeline(cmds [][]string) {
	for _, cmd := range cmds {
		t.Apply(cmd)
	}
}

// SubscriptionPipeline emits the commands needed to restore the
// tracker's current state on a fresh connection: SUBSCRIBE with every
// channel (if any), then SSUBSCRIBE with every shard-channel (if any),
// then PSUBSCRIBE with every pattern (if any). Empty sets are skipped.
// Argument order within one emitted command is unspecified.
func (t *Tracker) SubscriptionPipeline() [][]string {
	var out [][]string
	if len(t.channels) > 0 {
		out = append(out, append([]string{"SUBSCRIBE"}, sortedKeys(t.channels)...))
	}
	if len(t.shardChannels) > 0 {
		out = append(out, append([]string{"SSUBSCRIBE"}, sortedKeys(t.shardChannels)...))
	}
	if len(t.patterns) > 0 {
		out = append(out, append([]string{"PSUBSCRIBE"}, sortedKeys(t.patterns)...))
	}
	return out
}

// Snapshot copies out the tracker's current sets, so later Apply calls do
// not change the copy. It takes no lock and must not run concurrently
// with Apply.
func (t *Tracker) Snapshot() SubscriptionSets {
	return SubscriptionSets{
		Channels:      copySet(t.channels),
		Patterns:      copySet(t.patterns),
		ShardChannels: copySet(t.shardChannels),
	}
}

func addAll(set map[string]struct{}, names []string) {
	for _, n := range names {
		set[n] = struct{}{}
	}
}

func removeAll(set map[string]struct{}, names []string) {
	for _, n := range names {
		delete(set, n)
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func copySet(m map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(m))
	for k := range m {
		out[k] = struct{}{}
	}
	return out
}
