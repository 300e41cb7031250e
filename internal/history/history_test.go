package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-marker/internal/annotation"
	"pdf-marker/pkg/geometry"
)

func snapshot(n int) annotation.Collection {
	var c annotation.Collection
	for i := 0; i < n; i++ {
		c = c.Append(annotation.New(annotation.KindRectangle, 1,
			geometry.NewRect(float64(i)*10, 0, 20, 20)))
	}
	return c
}

func TestNewStackHasBaseline(t *testing.T) {
	s := New(nil)
	assert.Equal(t, 1, s.Len())
	assert.False(t, s.CanUndo())
	assert.False(t, s.CanRedo())
	assert.Nil(t, s.Current())
}

func TestCommitUndoRedo(t *testing.T) {
	s := New(nil)
	one := snapshot(1)
	two := snapshot(2)

	s.Commit(one)
	s.Commit(two)
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.CanUndo())
	assert.False(t, s.CanRedo())

	got := s.Undo()
	assert.Len(t, got, 1)
	assert.True(t, s.CanRedo())

	got = s.Undo()
	assert.Len(t, got, 0)
	assert.False(t, s.CanUndo())

	got = s.Redo()
	assert.Len(t, got, 1)
	got = s.Redo()
	assert.Len(t, got, 2)
	assert.False(t, s.CanRedo())
}

func TestUndoAtBottomIsNoOp(t *testing.T) {
	s := New(snapshot(1))
	got := s.Undo()
	assert.Len(t, got, 1)
	assert.False(t, s.CanUndo())
}

func TestRedoAtTopIsNoOp(t *testing.T) {
	s := New(nil)
	s.Commit(snapshot(1))
	got := s.Redo()
	assert.Len(t, got, 1)
}

func TestCommitTruncatesRedoTail(t *testing.T) {
	s := New(nil)
	s.Commit(snapshot(1))
	s.Commit(snapshot(2))
	s.Undo()
	s.Undo()

	s.Commit(snapshot(3))
	assert.Equal(t, 2, s.Len())
	assert.False(t, s.CanRedo())
	assert.Len(t, s.Current(), 3)
}

func TestCommitSnapshotsAreIsolated(t *testing.T) {
	s := New(nil)
	c := snapshot(1)
	s.Commit(c)

	// Mutating the committed slice must not reach the stored snapshot.
	c[0].X = 999
	require.Len(t, s.Current(), 1)
	assert.NotEqual(t, 999.0, s.Current()[0].X)
}
