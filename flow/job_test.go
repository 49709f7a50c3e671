package flow

import (
	"context"
	"testing"
)

func trivialMain(ctx context.Context) (any, error) {
	return nil, nil
}

func TestNewJobAssignsStableID(t *testing.T) {
	j, err := NewJob("build", trivialMain)
	if err != nil {
		t.Fatal(err)
	}
	if j.ID() == "" {
		t.Fatal("expected non-empty job id")
	}

	// Two Jobs constructed separately must not collide.
	j2, err := NewJob("build", trivialMain)
	if err != nil {
		t.Fatal(err)
	}
	if j.ID() == j2.ID() {
		t.Fatal("expected distinct ids for distinct Job instances")
	}
}

func TestNewJobDetectsSelfReferentialCycle(t *testing.T) {
	a, err := NewJob("a", trivialMain)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewJob("b", trivialMain, a)
	if err != nil {
		t.Fatal(err)
	}

	// Rejoining b as its own upstream's upstream: a depends on b would
	// close a cycle a -> b -> a.
	if err := a.join([]*Job{b}); err == nil {
		t.Fatal("expected cycle detection error")
	} else if fe, ok := err.(*Error); !ok || fe.Kind != ErrCycleDetected {
		t.Fatalf("expected ErrCycleDetected, got %v", err)
	}
}

func TestJobSpecIgnoresInstanceIdentity(t *testing.T) {
	a, _ := NewJob("a", trivialMain)
	b, _ := NewJob("a", trivialMain)

	specA := a.spec()
	specB := b.spec()
	if specA.HandlerSymbol != specB.HandlerSymbol {
		t.Fatalf("expected same handler symbol for the same function value, got %q vs %q", specA.HandlerSymbol, specB.HandlerSymbol)
	}
}
