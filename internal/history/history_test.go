package history

import (
	"fmt"
	"testing"

	"vowline/internal/patch"
)

func batch(id string) []patch.Op {
	return []patch.Op{patch.DeleteEvent(id)}
}

func TestUndoRedoSymmetry(t *testing.T) {
	s := New(0)
	s.Record(batch("a"))
	s.Record(batch("b"))

	undone := s.Undo()
	if len(undone) != 1 || undone[0].EventID != "b" {
		t.Fatalf("undo returned %+v, want batch b", undone)
	}
	redone := s.Redo()
	if len(redone) != 1 || redone[0].EventID != "b" {
		t.Fatalf("redo returned %+v, want the batch that was undone", redone)
	}
	if !s.CanUndo() || s.CanRedo() {
		t.Fatal("expected two undoable batches and empty future after redo")
	}
}

func TestEmptyStacksAreNoOps(t *testing.T) {
	s := New(0)
	if s.Undo() != nil {
		t.Fatal("undo on empty stack should return nil")
	}
	if s.Redo() != nil {
		t.Fatal("redo on empty stack should return nil")
	}
}

func TestNewActionClearsFuture(t *testing.T) {
	s := New(0)
	s.Record(batch("a"))
	s.Record(batch("b"))
	s.Undo()
	if !s.CanRedo() {
		t.Fatal("expected redoable batch after undo")
	}
	s.Record(batch("c"))
	if s.CanRedo() {
		t.Fatal("new action must clear the redo stack")
	}
}

func TestDepthEvictsOldest(t *testing.T) {
	s := New(3)
	for i := 0; i < 5; i++ {
		s.Record(batch(fmt.Sprintf("ev-%d", i)))
	}
	var ids []string
	for s.CanUndo() {
		b := s.Undo()
		ids = append(ids, b[0].EventID)
	}
	if len(ids) != 3 {
		t.Fatalf("retained %d batches, want 3", len(ids))
	}
	if ids[0] != "ev-4" || ids[2] != "ev-2" {
		t.Fatalf("wrong batches retained: %v", ids)
	}
}

func TestPendingKeepsEvictedOps(t *testing.T) {
	s := New(2)
	for i := 0; i < 4; i++ {
		s.Record(batch(fmt.Sprintf("ev-%d", i)))
	}
	// ev-0 and ev-1 fell off the undo stack but stay in the draft.
	pending := s.Pending()
	if len(pending) != 4 {
		t.Fatalf("pending has %d ops, want 4", len(pending))
	}
	if pending[0].EventID != "ev-0" || pending[3].EventID != "ev-3" {
		t.Fatalf("pending order wrong: %+v", pending)
	}
	s.Undo()
	pending = s.Pending()
	if len(pending) != 3 || pending[2].EventID != "ev-2" {
		t.Fatalf("pending after undo: %+v", pending)
	}
}

func TestCommitThroughRetiresOldestOps(t *testing.T) {
	s := New(2)
	for i := 0; i < 4; i++ {
		s.Record(batch(fmt.Sprintf("ev-%d", i)))
	}
	// ev-0 and ev-1 are evicted, ev-2 and ev-3 still undoable.
	s.CommitThrough(3)
	pending := s.Pending()
	if len(pending) != 1 || pending[0].EventID != "ev-3" {
		t.Fatalf("pending after commit: %+v", pending)
	}
	s.CommitThrough(1)
	if len(s.Pending()) != 0 || s.CanUndo() {
		t.Fatal("fully committed stack must be empty")
	}
}

func TestCommitThroughSplitsBatch(t *testing.T) {
	s := New(0)
	s.Record([]patch.Op{patch.DeleteEvent("a"), patch.DeleteEvent("b")})
	s.Record(batch("c"))
	s.CommitThrough(1)
	pending := s.Pending()
	if len(pending) != 2 || pending[0].EventID != "b" || pending[1].EventID != "c" {
		t.Fatalf("pending after partial commit: %+v", pending)
	}
}

func TestEmptyBatchIgnored(t *testing.T) {
	s := New(0)
	s.Record(nil)
	if s.CanUndo() {
		t.Fatal("empty batch must not be recorded")
	}
}

func TestClear(t *testing.T) {
	s := New(0)
	s.Record(batch("a"))
	s.Undo()
	s.Record(batch("b"))
	s.Clear()
	if s.CanUndo() || s.CanRedo() {
		t.Fatal("clear must drop both stacks")
	}
}
