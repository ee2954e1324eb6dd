package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupTwoWordCommand(t *testing.T) {
	entry, name, ok := lookup([]string{"XGROUP", "CREATE", "mystream", "mygroup"})
	require.True(t, ok, "expected XGROUP CREATE to be found")
	require.Equal(t, "XGROUP CREATE", name)
	assert.False(t, entry.ReadOnly, "XGROUP CREATE should not be read-only")
}

func TestLookupFallsBackToFirstWord(t *testing.T) {
	_, name, ok := lookup([]string{"CLIENT", "SOMETHINGUNKNOWN"})
	require.True(t, ok, "expected fallback lookup on CLIENT to succeed")
	assert.Equal(t, "CLIENT", name)
}

func TestLookupSingleWordCommand(t *testing.T) {
	entry, name, ok := lookup([]string{"GET", "somekey"})
	require.True(t, ok)
	require.Equal(t, "GET", name)
	assert.True(t, entry.ReadOnly, "GET should be read-only")
}

func TestLookupUnknownCommand(t *testing.T) {
	_, _, ok := lookup([]string{"TOTALLYUNKNOWNCOMMAND"})
	assert.False(t, ok, "unknown command should not be found in the catalog")
}

func TestCatalogReadOnlyFlags(t *testing.T) {
	readOnlyCommands := []string{"GET", "MGET", "EXISTS", "TTL", "STRLEN"}
	for _, name := range readOnlyCommands {
		e, ok := catalog[name]
		require.True(t, ok, "expected %s in catalog", name)
		assert.True(t, e.ReadOnly, "%s should be marked read-only", name)
	}

	writeCommands := []string{"SET", "DEL", "MSET", "EXPIRE"}
	for _, name := range writeCommands {
		e, ok := catalog[name]
		require.True(t, ok, "expected %s in catalog", name)
		assert.False(t, e.ReadOnly, "%s should not be marked read-only", name)
	}
}

func TestCatalogAllNodesFlags(t *testing.T) {
	for _, name := range []string{"ACL SETUSER", "CONFIG SET", "SCRIPT LOAD", "LATENCY RESET"} {
		e, ok := catalog[name]
		require.True(t, ok, "expected %s in catalog", name)
		assert.True(t, e.AllNodes, "%s should be flagged AllNodes", name)
	}
}
