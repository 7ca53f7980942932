package components

import (
	"testing"

	"github.com/cafgo/components/desc"
)

func TestKernel_CheckupFailsAfterShutdown(t *testing.T) {
	spec := &desc.Spec{Name: "leaf"}
	ctx := NewContext()
	k, err := NewKernel(spec, ctx)
	if err != nil {
		t.Fatalf("NewKernel: %v", err)
	}
	ctx.Set("leaf", k)

	if err := k.Checkup(nil); err != nil {
		t.Fatalf("Checkup before shutdown: %v", err)
	}

	if err := k.Shutdown(nil); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	k.DeregisterSelf(k)

	if !k.IsShutdown() {
		t.Fatalf("IsShutdown = false after Shutdown")
	}
	if err := k.Checkup(nil); !IsKind(err, KindComponentShutdown) {
		t.Fatalf("Checkup after shutdown = %v, want ComponentShutdown", err)
	}
	if _, ok := ctx.Get("leaf"); ok {
		t.Fatalf("context still holds leaf after shutdown")
	}

	// Idempotent: second shutdown never errors (§8 invariant 5).
	if err := k.Shutdown(nil); err != nil {
		t.Fatalf("second Shutdown returned error: %v", err)
	}
}

func TestKernel_RejectsEmptyName(t *testing.T) {
	if _, err := NewKernel(&desc.Spec{Name: ""}, NewContext()); !IsKind(err, KindInvalidSpec) {
		t.Fatalf("expected InvalidSpec, got %v", err)
	}
}

func TestKernel_DeregisterOnlyExactIdentity(t *testing.T) {
	spec := &desc.Spec{Name: "leaf"}
	ctx := NewContext()
	k1, _ := NewKernel(spec, ctx)
	ctx.Set("leaf", k1)

	// A different component now occupies "leaf" — k1's shutdown must not
	// evict it (§3 "if the context still points at this exact object").
	k2, _ := NewKernel(spec, ctx)
	ctx.Set("leaf", k2)

	k1.Shutdown(nil)
	k1.DeregisterSelf(k1)

	got, ok := ctx.Get("leaf")
	if !ok || got != k2 {
		t.Fatalf("k1's shutdown evicted k2's binding")
	}
}
