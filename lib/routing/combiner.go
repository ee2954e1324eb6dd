package routing

import "fmt"

// ValueKind discriminates the small subset of RESP reply shapes the
// combiner needs to reason about.
type ValueKind int

const (
	KindNil ValueKind = iota
	KindInt
	KindArray
	KindOther
)

// Value is the combiner's view of a single node's reply: enough to
// recombine per spec, without depending on a specific RESP decoder. Real
// replies are adapted into this shape by the caller. Str carries simple-
// string/bulk-string/status payloads for the KindOther case (the combiner
// never interprets Str itself, only passes it through).
type Value struct {
	Kind  ValueKind
	Int   int64
	Str   string
	Array []Value
}

func Nil() Value                 { return Value{Kind: KindNil} }
func Int(v int64) Value          { return Value{Kind: KindInt, Int: v} }
func Array(items ...Value) Value { return Value{Kind: KindArray, Array: items} }
func Str(s string) Value         { return Value{Kind: KindOther, Str: s} }

// TypeError reports that a reply had an unexpected shape for the policy
// being applied.
type TypeError struct {
	Policy string
	Detail string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("routing: type error combining %s response: %s", e.Policy, e.Detail)
}

// NodeReply pairs a node's reply with its error, if the command failed on
// that node. Exactly one of Err or Value is meaningful.
type NodeReply struct {
	Value Value
	Err   error
}

// Aggregate reduces a set of per-node integer replies to a single integer
// using op. Every non-error reply must be a KindInt value; a mismatched
// shape is a TypeError, matching the "aggregate (integer ops)" rule.
func Aggregate(replies []NodeReply, op AggregateOp) (Value, error) {
	var acc int64
	switch op {
	case Min:
		acc = 1<<63 - 1
	case Sum:
		acc = 0
	}
	seen := false
	for _, reply := range replies {
		if reply.Err != nil {
			return Value{}, reply.Err
		}
		if reply.Value.Kind != KindInt {
			return Value{}, &TypeError{Policy: "aggregate", Detail: "expected integer reply"}
		}
		seen = true
		switch op {
		case Sum:
			acc += reply.Value.Int
		case Min:
			if reply.Value.Int < acc {
				acc = reply.Value.Int
			}
		}
	}
	if !seen {
		return Int(0), nil
	}
	return Int(acc), nil
}

// AggregateLogical reduces a set of per-node integer-array replies to a
// single array: the i'th output element is 1 if the i'th element of every
// input array is > 0, else 0, under op (only And is defined). Every reply
// must be an array of the same length; a length mismatch or a non-integer
// element is a TypeError.
func AggregateLogical(replies []NodeReply, op LogicalAggregateOp) (Value, error) {
	var length = -1
	for _, reply := range replies {
		if reply.Err != nil {
			return Value{}, reply.Err
		}
		if reply.Value.Kind != KindArray {
			return Value{}, &TypeError{Policy: "aggregate-logical", Detail: "expected array reply"}
		}
		if length == -1 {
			length = len(reply.Value.Array)
		} else if len(reply.Value.Array) != length {
			return Value{}, &TypeError{Policy: "aggregate-logical", Detail: "array replies differ in length"}
		}
	}
	if length <= 0 {
		return Array(), nil
	}
	acc := make([]int64, length)
	for i := range acc {
		acc[i] = 1
	}
	for _, reply := range replies {
		for i := 0; i < length && i < len(reply.Value.Array); i++ {
			elem := reply.Value.Array[i]
			if elem.Kind != KindInt {
				return Value{}, &TypeError{Policy: "aggregate-logical", Detail: "expected integer array elements"}
			}
			if elem.Int <= 0 {
				acc[i] = 0
			}
		}
	}
	_ = op // only And is defined today; op kept for future variants
	out := make([]Value, length)
	for i, v := range acc {
		out[i] = Int(v)
	}
	return Array(out...), nil
}

// CombineArrays concatenates every node's array reply, in the order
// replies are given, into one array. Used for KEYS/MGET/SLOWLOG GET.
func CombineArrays(replies []NodeReply) (Value, error) {
	var out []Value
	for _, reply := range replies {
		if reply.Err != nil {
			return Value{}, reply.Err
		}
		if reply.Value.Kind != KindArray {
			return Value{}, &TypeError{Policy: "combine-arrays", Detail: "expected array reply"}
		}
		out = append(out, reply.Value.Array...)
	}
	return Array(out...), nil
}

// IndexedReply pairs a NodeReply for one shard of a multi-slot fan-out
// with the original-command argument indices it answered for.
type IndexedReply struct {
	Indices []int
	Reply   NodeReply
}

// CombineAndSort reassembles the per-shard array replies of a MultiSlot
// fan-out (e.g. MGET) back into one array ordered by the original
// command's argument positions. total is the original command's key count;
// positions with no corresponding reply element default to Nil.
func CombineAndSort(replies []IndexedReply, total int) (Value, error) {
	out := make([]Value, total)
	filled := make([]bool, total)
	for i := range out {
		out[i] = Nil()
	}
	for _, ir := range replies {
		if ir.Reply.Err != nil {
			return Value{}, ir.Reply.Err
		}
		if ir.Reply.Value.Kind != KindArray {
			return Value{}, &TypeError{Policy: "combine-and-sort", Detail: "expected array reply"}
		}
		if len(ir.Reply.Value.Array) != len(ir.Indices) {
			return Value{}, &TypeError{
				Policy: "combine-and-sort",
				Detail: fmt.Sprintf("reply length %d does not match %d requested indices", len(ir.Reply.Value.Array), len(ir.Indices)),
			}
		}
		for i, idx := range ir.Indices {
			if idx < 0 || idx >= total {
				return Value{}, &TypeError{Policy: "combine-and-sort", Detail: "index out of range"}
			}
			out[idx] = ir.Reply.Value.Array[i]
			filled[idx] = true
		}
	}
	return Array(out...), nil
}

// OneSucceeded returns the first successful reply; it fails only if every
// reply failed, propagating the last error seen.
func OneSucceeded(replies []NodeReply) (Value, error) {
	var lastErr error
	for _, reply := range replies {
		if reply.Err == nil {
			return reply.Value, nil
		}
		lastErr = reply.Err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("routing: one-succeeded policy given no replies")
	}
	return Value{}, lastErr
}

// OneSucceededNonEmpty returns the first successful, non-Nil reply; it
// fails if every reply failed or every success was Nil.
func OneSucceededNonEmpty(replies []NodeReply) (Value, error) {
	var lastErr error
	sawSuccess := false
	for _, reply := range replies {
		if reply.Err != nil {
			lastErr = reply.Err
			continue
		}
		sawSuccess = true
		if reply.Value.Kind != KindNil {
			return reply.Value, nil
		}
	}
	if sawSuccess {
		return Value{}, fmt.Errorf("routing: one-succeeded-non-empty policy got only Nil replies")
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("routing: one-succeeded-non-empty policy given no replies")
	}
	return Value{}, lastErr
}

// AllSucceeded returns the first reply's value if every reply succeeded,
// else the first error encountered.
func AllSucceeded(replies []NodeReply) (Value, error) {
	for _, reply := range replies {
		if reply.Err != nil {
			return Value{}, reply.Err
		}
	}
	if len(replies) == 0 {
		return Value{}, fmt.Errorf("routing: all-succeeded policy given no replies")
	}
	return replies[0].Value, nil
}

// Combine dispatches to the right combination function for policy. It
// returns an error for the Special policy, which by design has no generic
// combination rule - callers implementing e.g. INFO must write their own.
func Combine(policy ResponsePolicy, replies []NodeReply) (Value, error) {
	switch {
	case policy.IsOneSucceeded():
		return OneSucceeded(replies)
	case policy.IsOneSucceededNonEmpty():
		return OneSucceededNonEmpty(replies)
	case policy.IsAllSucceeded():
		return AllSucceeded(replies)
	case policy.IsCombineArrays():
		return CombineArrays(replies)
	}
	if op, ok := policy.LogicalOp(); ok {
		return AggregateLogical(replies, op)
	}
	if op, ok := policy.AggregateOp(); ok {
		return Aggregate(replies, op)
	}
	return Value{}, fmt.Errorf("routing: %s policy has no generic combination rule", policy.Kind())
}
