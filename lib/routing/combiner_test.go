package routing

import (
	"reflect"
	"testing"
)

func ok(v Value) NodeReply { return NodeReply{Value: v} }

func TestCombineAndSortLiteralExample(t *testing.T) {
	replies := []IndexedReply{
		{Indices: []int{0, 5}, Reply: ok(Array(Nil(), Str("OK")))},
		{Indices: []int{1, 4}, Reply: ok(Array(Str("1"), Str("4")))},
		{Indices: []int{2, 3}, Reply: ok(Array(Str("2"), Int(3)))},
	}
	got, err := CombineAndSort(replies, 6)
	if err != nil {
		t.Fatalf("CombineAndSort: %v", err)
	}
	want := Array(Nil(), Str("1"), Str("2"), Int(3), Str("4"), Str("OK"))
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestCombineAndSortLengthMismatch(t *testing.T) {
	replies := []IndexedReply{
		{Indices: []int{0, 1}, Reply: ok(Array(Int(1)))},
	}
	if _, err := CombineAndSort(replies, 2); err == nil {
		t.Fatalf("expected a TypeError on reply/index length mismatch")
	}
}

func TestAggregateSum(t *testing.T) {
	got, err := Aggregate([]NodeReply{ok(Int(2)), ok(Int(5)), ok(Int(1))}, Sum)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if got.Int != 8 {
		t.Fatalf("got %d, want 8", got.Int)
	}
}

func TestAggregateMin(t *testing.T) {
	got, err := Aggregate([]NodeReply{ok(Int(7)), ok(Int(2)), ok(Int(9))}, Min)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if got.Int != 2 {
		t.Fatalf("got %d, want 2", got.Int)
	}
}

func TestAggregatePropagatesError(t *testing.T) {
	sentinel := &TypeError{Policy: "test", Detail: "boom"}
	_, err := Aggregate([]NodeReply{ok(Int(1)), {Err: sentinel}}, Sum)
	if err != sentinel {
		t.Fatalf("expected propagated error, got %v", err)
	}
}

func TestAggregateLogicalAnd(t *testing.T) {
	got, err := AggregateLogical([]NodeReply{
		ok(Array(Int(1), Int(0), Int(1))),
		ok(Array(Int(1), Int(1), Int(1))),
	}, And)
	if err != nil {
		t.Fatalf("AggregateLogical: %v", err)
	}
	want := Array(Int(1), Int(0), Int(1))
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestCombineArraysConcatenates(t *testing.T) {
	got, err := CombineArrays([]NodeReply{
		ok(Array(Str("a"), Str("b"))),
		ok(Array(Str("c"))),
	})
	if err != nil {
		t.Fatalf("CombineArrays: %v", err)
	}
	want := Array(Str("a"), Str("b"), Str("c"))
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestOneSucceededReturnsFirstSuccess(t *testing.T) {
	sentinel := &TypeError{Policy: "test", Detail: "fail"}
	got, err := OneSucceeded([]NodeReply{{Err: sentinel}, ok(Str("yes"))})
	if err != nil {
		t.Fatalf("OneSucceeded: %v", err)
	}
	if got.Str != "yes" {
		t.Fatalf("got %#v, want yes", got)
	}
}

func TestOneSucceededAllFail(t *testing.T) {
	sentinel := &TypeError{Policy: "test", Detail: "fail"}
	_, err := OneSucceeded([]NodeReply{{Err: sentinel}, {Err: sentinel}})
	if err == nil {
		t.Fatalf("expected error when every reply fails")
	}
}

func TestOneSucceededNonEmptySkipsNil(t *testing.T) {
	got, err := OneSucceededNonEmpty([]NodeReply{ok(Nil()), ok(Str("here"))})
	if err != nil {
		t.Fatalf("OneSucceededNonEmpty: %v", err)
	}
	if got.Str != "here" {
		t.Fatalf("got %#v, want here", got)
	}
}

func TestOneSucceededNonEmptyAllNil(t *testing.T) {
	got, err := OneSucceededNonEmpty([]NodeReply{ok(Nil()), ok(Nil())})
	if err == nil {
		t.Fatalf("expected error when every success is Nil, got %#v", got)
	}
}

func TestAllSucceededPropagatesFirstError(t *testing.T) {
	sentinel := &TypeError{Policy: "test", Detail: "fail"}
	_, err := AllSucceeded([]NodeReply{ok(Str("a")), {Err: sentinel}})
	if err != sentinel {
		t.Fatalf("expected propagated error, got %v", err)
	}
}

func TestCombineDispatchesByPolicy(t *testing.T) {
	got, err := Combine(AggregatePolicy(Sum), []NodeReply{ok(Int(3)), ok(Int(4))})
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if got.Int != 7 {
		t.Fatalf("got %d, want 7", got.Int)
	}
}

func TestCombineSpecialHasNoGenericRule(t *testing.T) {
	if _, err := Combine(SpecialPolicy(), []NodeReply{ok(Str("x"))}); err == nil {
		t.Fatalf("Special policy should not have a generic combination rule")
	}
}
