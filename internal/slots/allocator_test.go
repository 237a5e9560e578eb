package slots

import (
	"errors"
	"testing"

	"wsc/internal/workshop"
)

func TestAllocateMonotonic(t *testing.T) {
	a, err := New(Config{})
	if err != nil {
		t.Fatal(err)
	}
	x := a.Allocate(workshop.SpaceGlobal, "x")
	y := a.Allocate(workshop.SpaceGlobal, "y")
	p := a.Allocate(workshop.SpacePlayer, "p")
	if x.Var.Slot != 0 || y.Var.Slot != 1 || p.Var.Slot != 0 {
		t.Fatalf("slots = %d %d %d", x.Var.Slot, y.Var.Slot, p.Var.Slot)
	}
	if x.Indexed() || y.Indexed() {
		t.Fatalf("expected simple slots")
	}
	if got := a.Used(workshop.SpaceGlobal); got != 2 {
		t.Fatalf("used = %d", got)
	}
	if len(a.All()) != 3 {
		t.Fatalf("all = %d", len(a.All()))
	}
}

func TestUniqueNames(t *testing.T) {
	a, _ := New(Config{})
	names := []string{
		a.Allocate(workshop.SpaceGlobal, "i").Var.Name,
		a.Allocate(workshop.SpaceGlobal, "i").Var.Name,
		a.Allocate(workshop.SpaceGlobal, "i_1").Var.Name,
		a.Allocate(workshop.SpaceGlobal, "λ").Var.Name,
		a.Allocate(workshop.SpaceGlobal, "2x").Var.Name,
	}
	want := []string{"i", "i_1", "i_1_1", "_", "_2x"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
}

func TestOverflow(t *testing.T) {
	a, err := New(Config{GlobalSlots: 5, PlayerSlots: 5})
	if err != nil {
		t.Fatal(err)
	}
	first := a.Allocate(workshop.SpaceGlobal, "a")
	second := a.Allocate(workshop.SpaceGlobal, "b")
	third := a.Allocate(workshop.SpaceGlobal, "c")
	fourth := a.Allocate(workshop.SpaceGlobal, "d")
	if first.Indexed() || second.Indexed() {
		t.Fatalf("first two allocations should be native")
	}
	if !third.Indexed() || !fourth.Indexed() {
		t.Fatalf("later allocations should overflow")
	}
	if third.Var != fourth.Var || third.Var.Slot != 4 {
		t.Fatalf("overflow array should live in the last slot")
	}
	if third.Element.Num != 0 || fourth.Element.Num != 1 {
		t.Fatalf("elements = %v %v", third.Element.Num, fourth.Element.Num)
	}
	if third.Scratch == nil || third.Scratch.Slot != 3 {
		t.Fatalf("indexed refs need the scratch slot")
	}
	if !a.Overflowed(workshop.SpaceGlobal) || a.Overflowed(workshop.SpacePlayer) {
		t.Fatalf("overflow flags wrong")
	}
	if sh := a.Shadow(workshop.SpaceGlobal); sh.Slot != 2 || sh == third.Scratch {
		t.Fatalf("shadow slot = %d", sh.Slot)
	}
	if a.Used(workshop.SpaceGlobal) != 5 {
		t.Fatalf("used = %d", a.Used(workshop.SpaceGlobal))
	}
}

func TestLimitTooSmall(t *testing.T) {
	if _, err := New(Config{GlobalSlots: 3}); !errors.Is(err, ErrLimitTooSmall) {
		t.Fatalf("err = %v", err)
	}
}
