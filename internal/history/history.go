// Package history implements the linear undo/redo stack over immutable
// snapshots of the annotation collection.
package history

import "pdf-marker/internal/annotation"

// Stack holds collection snapshots plus a cursor. The entry at the
// cursor is the current state. Commits after an undo discard the redo
// tail; there is no branching.
type Stack struct {
	entries []annotation.Collection
	cursor  int
}

// New creates a stack whose initial entry is the given collection
// (normally the empty collection of a freshly loaded document).
func New(initial annotation.Collection) *Stack {
	return &Stack{entries: []annotation.Collection{initial.Clone()}}
}

// Current returns the snapshot at the cursor.
func (s *Stack) Current() annotation.Collection {
	return s.entries[s.cursor]
}

// Commit truncates any redo entries past the cursor, appends a snapshot
// of the new collection, and advances the cursor onto it.
func (s *Stack) Commit(c annotation.Collection) {
	s.entries = append(s.entries[:s.cursor+1], c.Clone())
	s.cursor = len(s.entries) - 1
}

// CanUndo reports whether an undo step exists.
func (s *Stack) CanUndo() bool { return s.cursor > 0 }

// CanRedo reports whether a redo step exists.
func (s *Stack) CanRedo() bool { return s.cursor < len(s.entries)-1 }

// Undo moves the cursor back one entry and returns the collection at
// the new position. At the bottom of the stack it is a no-op.
func (s *Stack) Undo() annotation.Collection {
	if s.cursor > 0 {
		s.cursor--
	}
	return s.entries[s.cursor]
}

// Redo moves the cursor forward one entry and returns the collection at
// the new position. At the top of the stack it is a no-op.
func (s *Stack) Redo() annotation.Collection {
	if s.cursor < len(s.entries)-1 {
		s.cursor++
	}
	return s.entries[s.cursor]
}

// Len returns the number of retained entries.
func (s *Stack) Len() int { return len(s.entries) }
