// Package routing implements the cluster-aware command router: it decides,
// for any Redis command, which node(s) should receive it and how multi-node
// responses should be recombined. It knows nothing about sockets, RESP
// framing, or topology discovery - those are the caller's concern.
package routing

// Slot is a Redis Cluster hash slot in [0, 16384).
type Slot int

// SlotCount is the fixed number of hash slots in a Redis Cluster.
const SlotCount = 16384

// SlotAddr selects which copy of a slot's data a route targets.
type SlotAddr int

const (
	// Master routes to the slot's primary. Used for write commands.
	Master SlotAddr = iota
	// ReplicaOptional routes to either a replica or the primary, caller's choice.
	ReplicaOptional
	// ReplicaRequired routes only to a replica.
	ReplicaRequired
)

func (a SlotAddr) String() string {
	switch a {
	case Master:
		return "master"
	case ReplicaOptional:
		return "replica-optional"
	case ReplicaRequired:
		return "replica-required"
	default:
		return "unknown"
	}
}

// Route names the destination of a single-slot command: a slot plus which
// copy of that slot to address. Comparable, so it's usable as a map key.
type Route struct {
	Slot Slot
	Addr SlotAddr
}

// NewRoute builds a Route, picking ReplicaOptional for reads and Master for
// writes - the rule every routing path in this package follows.
func NewRoute(slot Slot, readOnly bool) Route {
	if readOnly {
		return Route{Slot: slot, Addr: ReplicaOptional}
	}
	return Route{Slot: slot, Addr: Master}
}

// singleNodeKind discriminates SingleNodeRoutingInfo's two shapes.
type singleNodeKind int

const (
	singleNodeRandom singleNodeKind = iota
	singleNodeSpecific
)

// SingleNodeRoutingInfo picks exactly one destination node: either "any
// node" or a specific Route.
type SingleNodeRoutingInfo struct {
	kind  singleNodeKind
	route Route
}

// Random routes to any node - used when a command has no key argument.
func Random() SingleNodeRoutingInfo {
	return SingleNodeRoutingInfo{kind: singleNodeRandom}
}

// SpecificNode routes to the node owning route.
func SpecificNode(route Route) SingleNodeRoutingInfo {
	return SingleNodeRoutingInfo{kind: singleNodeSpecific, route: route}
}

// IsRandom reports whether this is the "any node" variant.
func (s SingleNodeRoutingInfo) IsRandom() bool { return s.kind == singleNodeRandom }

// SpecificRoute returns the specific route and true, or the zero Route and false if
// this is the Random variant.
func (s SingleNodeRoutingInfo) SpecificRoute() (Route, bool) {
	if s.kind != singleNodeSpecific {
		return Route{}, false
	}
	return s.route, true
}

// MultiSlotEntry is one sub-command of a fanned-out multi-key command: the
// route it targets, and the positions of its arguments among the original
// command's arguments after the command name (0 is the first key).
type MultiSlotEntry struct {
	Route   Route
	Indices []int
}

// multiNodeKind discriminates MultipleNodeRoutingInfo's three shapes.
type multiNodeKind int

const (
	multiNodeAllNodes multiNodeKind = iota
	multiNodeAllMasters
	multiNodeMultiSlot
)

// MultipleNodeRoutingInfo picks a collection of destination nodes.
type MultipleNodeRoutingInfo struct {
	kind    multiNodeKind
	entries []MultiSlotEntry
}

// AllNodes routes to every known node, primaries and replicas alike.
func AllNodes() MultipleNodeRoutingInfo {
	return MultipleNodeRoutingInfo{kind: multiNodeAllNodes}
}

// AllMasters routes to every primary.
func AllMasters() MultipleNodeRoutingInfo {
	return MultipleNodeRoutingInfo{kind: multiNodeAllMasters}
}

// MultiSlot routes a fanned-out multi-key command across the given entries.
// entries must not contain two entries with an equal Route.
func MultiSlot(entries []MultiSlotEntry) MultipleNodeRoutingInfo {
	return MultipleNodeRoutingInfo{kind: multiNodeMultiSlot, entries: entries}
}

// IsAllNodes reports whether this is the AllNodes variant.
func (m MultipleNodeRoutingInfo) IsAllNodes() bool { return m.kind == multiNodeAllNodes }

// IsAllMasters reports whether this is the AllMasters variant.
func (m MultipleNodeRoutingInfo) IsAllMasters() bool { return m.kind == multiNodeAllMasters }

// Entries returns the MultiSlot entries and true, or nil and false if this
// isn't the MultiSlot variant.
func (m MultipleNodeRoutingInfo) Entries() ([]MultiSlotEntry, bool) {
	if m.kind != multiNodeMultiSlot {
		return nil, false
	}
	return m.entries, true
}

// LogicalAggregateOp is a bitwise per-index reduction operator.
type LogicalAggregateOp int

const (
	// And reduces each index to 1 if every corresponding element is > 0.
	And LogicalAggregateOp = iota
)

// AggregateOp is a scalar reduction operator over integer responses.
type AggregateOp int

const (
	// Sum adds every integer response.
	Sum AggregateOp = iota
	// Min keeps the smallest integer response.
	Min
)

// responsePolicyKind discriminates ResponsePolicy's tags.
type responsePolicyKind int

const (
	policyOneSucceeded responsePolicyKind = iota
	policyOneSucceededNonEmpty
	policyAllSucceeded
	policyAggregateLogical
	policyAggregate
	policyCombineArrays
	policySpecial
)

// ResponsePolicy tells the combiner how to reduce a multi-node response set
// into one reply. Values carry no state beyond an optional aggregate op.
type ResponsePolicy struct {
	kind        responsePolicyKind
	logicalOp   LogicalAggregateOp
	aggregateOp AggregateOp
}

// OneSucceededPolicy: return the first success; fail only if every reply fails.
func OneSucceededPolicy() ResponsePolicy { return ResponsePolicy{kind: policyOneSucceeded} }

// OneSucceededNonEmptyPolicy: return the first non-Nil success; fail if
// every reply fails or every success is Nil.
func OneSucceededNonEmptyPolicy() ResponsePolicy {
	return ResponsePolicy{kind: policyOneSucceededNonEmpty}
}

// AllSucceededPolicy: return any one success; propagate the first error.
func AllSucceededPolicy() ResponsePolicy { return ResponsePolicy{kind: policyAllSucceeded} }

// AggregateLogical: per-index bitwise reduction over integer-array responses.
func AggregateLogicalPolicy(op LogicalAggregateOp) ResponsePolicy {
	return ResponsePolicy{kind: policyAggregateLogical, logicalOp: op}
}

// AggregatePolicy: scalar reduction of integer responses.
func AggregatePolicy(op AggregateOp) ResponsePolicy {
	return ResponsePolicy{kind: policyAggregate, aggregateOp: op}
}

// CombineArraysPolicy: concatenate array responses.
func CombineArraysPolicy() ResponsePolicy { return ResponsePolicy{kind: policyCombineArrays} }

// SpecialPolicy: caller supplies custom handling (INFO, LATENCY ..., etc).
func SpecialPolicy() ResponsePolicy { return ResponsePolicy{kind: policySpecial} }

// Kind returns a short string naming the policy's tag, for logging/tests.
func (p ResponsePolicy) Kind() string {
	switch p.kind {
	case policyOneSucceeded:
		return "one-succeeded"
	case policyOneSucceededNonEmpty:
		return "one-succeeded-non-empty"
	case policyAllSucceeded:
		return "all-succeeded"
	case policyAggregateLogical:
		return "aggregate-logical"
	case policyAggregate:
		return "aggregate"
	case policyCombineArrays:
		return "combine-arrays"
	case policySpecial:
		return "special"
	default:
		return "unknown"
	}
}

func (p ResponsePolicy) IsOneSucceeded() bool         { return p.kind == policyOneSucceeded }
func (p ResponsePolicy) IsOneSucceededNonEmpty() bool { return p.kind == policyOneSucceededNonEmpty }
func (p ResponsePolicy) IsAllSucceeded() bool         { return p.kind == policyAllSucceeded }
func (p ResponsePolicy) IsCombineArrays() bool        { return p.kind == policyCombineArrays }
func (p ResponsePolicy) IsSpecial() bool              { return p.kind == policySpecial }

// LogicalOp returns the logical aggregate operator and true, or false if
// this isn't the AggregateLogical variant.
func (p ResponsePolicy) LogicalOp() (LogicalAggregateOp, bool) {
	if p.kind != policyAggregateLogical {
		return 0, false
	}
	return p.logicalOp, true
}

// AggregateOp returns the scalar aggregate operator and true, or false if
// this isn't the Aggregate variant.
func (p ResponsePolicy) AggregateOp() (AggregateOp, bool) {
	if p.kind != policyAggregate {
		return 0, false
	}
	return p.aggregateOp, true
}

// routingKind discriminates RoutingInfo's two shapes.
type routingKind int

const (
	routingSingleNode routingKind = iota
	routingMultiNode
)

// RoutingInfo is the router's decision for one command: either a single
// destination node, or a collection of nodes plus how to recombine their
// replies.
type RoutingInfo struct {
	kind        routingKind
	single      SingleNodeRoutingInfo
	multi       MultipleNodeRoutingInfo
	multiPolicy *ResponsePolicy
}

// SingleNode wraps a SingleNodeRoutingInfo as a RoutingInfo.
func SingleNode(info SingleNodeRoutingInfo) RoutingInfo {
	return RoutingInfo{kind: routingSingleNode, single: info}
}

// MultiNode wraps a MultipleNodeRoutingInfo plus its response policy as a
// RoutingInfo. policy is nil for commands that have no response policy.
func MultiNode(info MultipleNodeRoutingInfo, policy *ResponsePolicy) RoutingInfo {
	return RoutingInfo{kind: routingMultiNode, multi: info, multiPolicy: policy}
}

// IsSingleNode reports whether this targets exactly one node.
func (r RoutingInfo) IsSingleNode() bool { return r.kind == routingSingleNode }

// SingleNodeInfo returns the single-node routing info and true, or the zero
// value and false if this is a MultiNode RoutingInfo.
func (r RoutingInfo) SingleNodeInfo() (SingleNodeRoutingInfo, bool) {
	if r.kind != routingSingleNode {
		return SingleNodeRoutingInfo{}, false
	}
	return r.single, true
}

// MultiNodeInfo returns the multi-node routing info and its policy (which
// may be nil), and true, or false if this is a SingleNode RoutingInfo.
func (r RoutingInfo) MultiNodeInfo() (MultipleNodeRoutingInfo, *ResponsePolicy, bool) {
	if r.kind != routingMultiNode {
		return MultipleNodeRoutingInfo{}, nil, false
	}
	return r.multi, r.multiPolicy, true
}
