// Package history implements linear undo/redo over batches of patch ops.
// The stack stores forward ops only; computing and applying an inverse is
// the caller's responsibility. It never touches server state.
package history

import "vowline/internal/patch"

// DefaultDepth bounds how many undoable batches are retained.
const DefaultDepth = 50

// Stack holds undoable (past) and redoable (future) op batches. Each
// user-visible action is one batch. Not safe for concurrent use; the
// session controller is single-threaded by contract.
type Stack struct {
	past   [][]patch.Op
	future [][]patch.Op
	// evicted holds ops whose batches fell off the bounded past stack.
	// They are no longer undoable but still belong to the draft.
	evicted []patch.Op
	depth   int
}

func New(depth int) *Stack {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Stack{depth: depth}
}

// Record pushes a new batch. Any redoable future is discarded (linear
// history, not branching) and the oldest batch is evicted past capacity.
func (s *Stack) Record(batch []patch.Op) {
	if len(batch) == 0 {
		return
	}
	s.past = append(s.past, batch)
	s.future = nil
	if len(s.past) > s.depth {
		for _, old := range s.past[:len(s.past)-s.depth] {
			s.evicted = append(s.evicted, old...)
		}
		s.past = s.past[len(s.past)-s.depth:]
	}
}

// Pending flattens the draft's effective op sequence: evicted ops first,
// then every still-undoable batch in order. Redoable batches are not
// part of the draft.
func (s *Stack) Pending() []patch.Op {
	out := make([]patch.Op, 0, len(s.evicted))
	out = append(out, s.evicted...)
	for _, batch := range s.past {
		out = append(out, batch...)
	}
	return out
}

// CommitThrough drops the oldest n ops from the draft: evicted ops
// first, then batches from the past stack oldest-first. Batches recorded
// after the first n ops survive untouched. Used after a publish succeeds
// to retire exactly the shipped prefix.
func (s *Stack) CommitThrough(n int) {
	if n <= 0 {
		return
	}
	if k := len(s.evicted); k > 0 {
		if n < k {
			s.evicted = s.evicted[n:]
			return
		}
		s.evicted = nil
		n -= k
	}
	for n > 0 && len(s.past) > 0 {
		batch := s.past[0]
		if n < len(batch) {
			s.past[0] = batch[n:]
			return
		}
		n -= len(batch)
		s.past = s.past[1:]
	}
}

// Undo moves the newest past batch to the future stack and returns it.
// Returns nil when there is nothing to undo.
func (s *Stack) Undo() []patch.Op {
	if len(s.past) == 0 {
		return nil
	}
	batch := s.past[len(s.past)-1]
	s.past = s.past[:len(s.past)-1]
	s.future = append(s.future, batch)
	return batch
}

// Redo moves the newest future batch back to the past stack and returns
// it. Returns nil when there is nothing to redo.
func (s *Stack) Redo() []patch.Op {
	if len(s.future) == 0 {
		return nil
	}
	batch := s.future[len(s.future)-1]
	s.future = s.future[:len(s.future)-1]
	s.past = append(s.past, batch)
	return batch
}

func (s *Stack) CanUndo() bool { return len(s.past) > 0 }
func (s *Stack) CanRedo() bool { return len(s.future) > 0 }

// Clear drops both stacks, starting a fresh editing epoch.
func (s *Stack) Clear() {
	s.past = nil
	s.future = nil
	s.evicted = nil
}
