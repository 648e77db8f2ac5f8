package tui

import "testing"

// solve plays the optimal 2^n-1 recursive solution.
func solve(ts *towerState, n, from, to, via int) {
	if n == 0 {
		return
	}
	solve(ts, n-1, from, via, to)
	ts.pick(from)
	ts.pick(to)
	solve(ts, n-1, via, to, from)
}

func TestTowerOptimalSolve(t *testing.T) {
	ts := newTowerState(3)
	if ts.solved() {
		t.Fatalf("fresh puzzle reported solved")
	}
	solve(ts, 3, 0, 2, 1)
	if !ts.solved() {
		t.Fatalf("optimal sequence did not solve the puzzle: %+v", ts.pegs)
	}
	if ts.moves != 7 {
		t.Fatalf("%d moves, want 7", ts.moves)
	}
}

func TestTowerRejectsIllegalMove(t *testing.T) {
	ts := newTowerState(3)
	ts.pick(0)
	ts.pick(2) // smallest disk to peg 3
	ts.pick(0)
	ts.pick(2) // larger disk onto smaller: illegal
	if ts.moves != 1 {
		t.Fatalf("illegal move counted: %d moves", ts.moves)
	}
	if ts.selected != 0 {
		t.Fatalf("illegal move dropped the selection: %d", ts.selected)
	}
	ts.pick(1) // legal destination instead
	if ts.moves != 2 {
		t.Fatalf("legal move after illegal attempt not counted: %d moves", ts.moves)
	}
}

func TestTowerSelection(t *testing.T) {
	ts := newTowerState(2)
	ts.pick(1) // empty peg cannot be picked up
	if ts.selected != -1 {
		t.Fatalf("empty peg selected")
	}
	ts.pick(0)
	if ts.selected != 0 {
		t.Fatalf("source peg not selected")
	}
	ts.pick(0) // picking again deselects
	if ts.selected != -1 {
		t.Fatalf("re-pick did not deselect")
	}
	ts.pick(0)
	ts.clearSelection()
	if ts.selected != -1 {
		t.Fatalf("clearSelection left a selection")
	}
	if ts.moves != 0 {
		t.Fatalf("selection changes counted as moves: %d", ts.moves)
	}
}
