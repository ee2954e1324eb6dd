package routing

import (
	"strconv"
	"strings"
)

// Routable is anything that can be inspected for routing purposes: an
// unparsed outgoing command, or a parsed RESP array received over the
// wire. Both the command the caller is about to send and (for commands
// embedded in MULTI/EXEC or pipeline replies) a parsed array need to answer
// the same three questions, so both implement this interface rather than
// forcing a conversion.
type Routable interface {
	// ArgIdx returns the i'th argument (0-indexed) as bytes, or (nil,
	// false) if there is no argument at that index.
	ArgIdx(i int) ([]byte, bool)
	// ArgCount returns the total number of arguments, including the
	// command name itself at index 0.
	ArgCount() int
	// Position returns the index of the first argument case-insensitively
	// equal to needle, or (0, false) if absent.
	Position(needle string) (int, bool)
}

// Cmd is an unparsed outgoing command: the command name plus its
// arguments, all as raw byte strings.
type Cmd struct {
	Args [][]byte
}

// NewCmd builds a Cmd from string arguments, for convenience in tests and
// call sites that build commands from literals.
func NewCmd(args ...string) Cmd {
	out := make([][]byte, len(args))
	for i, a := range args {
		out[i] = []byte(a)
	}
	return Cmd{Args: out}
}

func (c Cmd) ArgIdx(i int) ([]byte, bool) {
	if i < 0 || i >= len(c.Args) {
		return nil, false
	}
	return c.Args[i], true
}

func (c Cmd) ArgCount() int { return len(c.Args) }

func (c Cmd) Position(needle string) (int, bool) {
	for i, a := range c.Args {
		if strings.EqualFold(string(a), needle) {
			return i, true
		}
	}
	return 0, false
}

// RespArray is a parsed RESP array response being inspected as if it were
// the command that produced it - used when routing decisions must be made
// from a reply rather than an outgoing request (e.g. commands embedded in
// a transaction reply).
type RespArray struct {
	Elements [][]byte
}

func (r RespArray) ArgIdx(i int) ([]byte, bool) {
	if i < 0 || i >= len(r.Elements) {
		return nil, false
	}
	return r.Elements[i], true
}

func (r RespArray) ArgCount() int { return len(r.Elements) }

func (r RespArray) Position(needle string) (int, bool) {
	for i, e := range r.Elements {
		if strings.EqualFold(string(e), needle) {
			return i, true
		}
	}
	return 0, false
}

// commandTokens extracts the upper-cased leading command tokens (at most
// two) from r, for catalog lookup.
func commandTokens(r Routable) []string {
	first, ok := r.ArgIdx(0)
	if !ok {
		return nil
	}
	tokens := []string{strings.ToUpper(string(first))}
	if second, ok := r.ArgIdx(1); ok {
		tokens = append(tokens, strings.ToUpper(string(second)))
	}
	return tokens
}

// HashSlot computes the hash slot a key belongs to. The router takes this
// as a dependency rather than hard-coding an algorithm, so callers can
// swap in a different implementation. lib/slothash.Slot computes the slot
// but returns an int, so it is wrapped to convert the result to Slot.
type HashSlot func(key []byte) Slot

// Router decides where to send a command and how to recombine multi-node
// replies. It holds no connection or topology state - routing is a pure
// function of the command's bytes and the slot hasher.
type Router struct {
	hashSlot HashSlot
}

// NewRouter builds a Router using hashSlot to map keys to slots.
func NewRouter(hashSlot HashSlot) *Router {
	return &Router{hashSlot: hashSlot}
}

// Route determines the RoutingInfo for r, and whether a routing decision
// could be made at all. A false return means the command has no defined
// cluster routing (e.g. SCAN, SHUTDOWN) and must be handled by the caller
// out of band.
func (rt *Router) Route(r Routable) (RoutingInfo, bool) {
	tokens := commandTokens(r)
	if tokens == nil {
		return RoutingInfo{}, false
	}
	entry, name, known := lookup(tokens)
	if !known {
		return rt.defaultRoute(r, false)
	}
	if entry.AllNodes {
		return MultiNode(AllNodes(), entry.Policy), true
	}

	switch name {
	case "RANDOMKEY", "KEYS", "SCRIPT EXISTS", "WAIT", "DBSIZE", "FLUSHALL",
		"FUNCTION RESTORE", "FUNCTION DELETE", "FUNCTION FLUSH", "FUNCTION LOAD",
		"PING", "FLUSHDB", "MEMORY PURGE", "FUNCTION KILL", "SCRIPT KILL",
		"FUNCTION STATS", "MEMORY MALLOC-STATS", "MEMORY DOCTOR", "MEMORY STATS",
		"INFO":
		return MultiNode(AllMasters(), entry.Policy), true

	case "MGET", "DEL", "EXISTS", "UNLINK", "TOUCH":
		return rt.multiShard(r, entry.ReadOnly, entry.Policy, 1, false)

	case "MSET":
		return rt.multiShard(r, entry.ReadOnly, entry.Policy, 1, true)

	case "SCAN", "SHUTDOWN", "SLAVEOF", "REPLICAOF", "MOVE", "BITOP":
		return RoutingInfo{}, false

	case "EVAL", "EVALSHA":
		return rt.routeEval(r)

	case "XGROUP CREATE", "XGROUP CREATECONSUMER", "XGROUP DELCONSUMER",
		"XGROUP DESTROY", "XGROUP SETID",
		"XINFO CONSUMERS", "XINFO GROUPS", "XINFO STREAM":
		key, ok := r.ArgIdx(2)
		if !ok {
			return RoutingInfo{}, false
		}
		return SingleNode(SpecificNode(rt.routeForKey(entry.ReadOnly, key))), true

	case "XREAD", "XREADGROUP":
		pos, ok := r.Position("STREAMS")
		if !ok {
			return RoutingInfo{}, false
		}
		key, ok := r.ArgIdx(pos + 1)
		if !ok {
			return RoutingInfo{}, false
		}
		return SingleNode(SpecificNode(rt.routeForKey(entry.ReadOnly, key))), true

	default:
		return rt.defaultRouteWithEntry(r, entry)
	}
}

// defaultRoute and defaultRouteWithEntry implement the catch-all rule: key
// at argument index 1 if present, else any node. Unknown commands are
// treated as writes (conservative: route to Master, not a replica).
func (rt *Router) defaultRoute(r Routable, readOnly bool) (RoutingInfo, bool) {
	key, ok := r.ArgIdx(1)
	if !ok {
		return SingleNode(Random()), true
	}
	return SingleNode(SpecificNode(rt.routeForKey(readOnly, key))), true
}

func (rt *Router) defaultRouteWithEntry(r Routable, entry catalogEntry) (RoutingInfo, bool) {
	return rt.defaultRoute(r, entry.ReadOnly)
}

// routeEval implements EVAL/EVALSHA's key-count-driven routing: argument 2
// is the number of keys; if zero the command may run on any node, else
// argument 3 is the first (and routing-relevant) key.
func (rt *Router) routeEval(r Routable) (RoutingInfo, bool) {
	raw, ok := r.ArgIdx(2)
	if !ok {
		return RoutingInfo{}, false
	}
	keyCount, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return RoutingInfo{}, false
	}
	if keyCount == 0 {
		return SingleNode(Random()), true
	}
	key, ok := r.ArgIdx(3)
	if !ok {
		return RoutingInfo{}, false
	}
	return SingleNode(SpecificNode(rt.routeForKey(false, key))), true
}

func (rt *Router) routeForKey(readOnly bool, key []byte) Route {
	slot := rt.hashSlot(key)
	return NewRoute(slot, readOnly)
}

// multiShard builds the MultiSlot routing info for a multi-key command
// whose keys start at firstKeyIndex. Recorded indices count from 0 at
// firstKeyIndex. If hasValues is true, keys and values alternate
// (MSET-style) and each key's index is followed by its value's index; a
// key with no value after it yields no routing. Otherwise every remaining
// argument is a key (MGET/DEL-style). Collapses to a SingleNode
// RoutingInfo when every key happens to land in the same slot.
func (rt *Router) multiShard(r Routable, readOnly bool, policy *ResponsePolicy, firstKeyIndex int, hasValues bool) (RoutingInfo, bool) {
	step := 1
	if hasValues {
		step = 2
	}
	routes := map[Route][]int{}
	var order []Route
	n := r.ArgCount()
	for i := firstKeyIndex; i < n; i += step {
		key, ok := r.ArgIdx(i)
		if !ok {
			break
		}
		route := rt.routeForKey(readOnly, key)
		if _, seen := routes[route]; !seen {
			order = append(order, route)
		}
		routes[route] = append(routes[route], i-firstKeyIndex)
		if hasValues {
			if _, ok := r.ArgIdx(i + 1); !ok {
				return RoutingInfo{}, false
			}
			routes[route] = append(routes[route], i+1-firstKeyIndex)
		}
	}
	if len(order) == 0 {
		return RoutingInfo{}, false
	}
	if len(order) == 1 {
		return SingleNode(SpecificNode(order[0])), true
	}
	entries := make([]MultiSlotEntry, len(order))
	for i, route := range order {
		entries[i] = MultiSlotEntry{Route: route, Indices: routes[route]}
	}
	return MultiNode(MultiSlot(entries), policy), true
}

// CommandForIndices rebuilds the sub-command sent to one shard of a
// multi-slot fan-out: the one-word command name plus only the arguments at
// indices, where index 0 is the argument right after the command name (the
// numbering multiShard records). E.g. MGET a b c routed as [0 2] on one
// shard and [1] on another becomes "MGET a c" and "MGET b".
func CommandForIndices(r Routable, indices []int) [][]byte {
	name, _ := r.ArgIdx(0)
	out := make([][]byte, 0, len(indices)+1)
	out = append(out, append([]byte(nil), name...))
	for _, i := range indices {
		arg, ok := r.ArgIdx(i + 1)
		if !ok {
			continue
		}
		out = append(out, append([]byte(nil), arg...))
	}
	return out
}
