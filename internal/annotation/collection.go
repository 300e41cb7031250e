package annotation

import "github.com/pkg/errors"

// Collection is the ordered annotation set for a document. Order is
// paint order: later entries draw on top and win hit-testing. A
// Collection value is treated as immutable; every mutating operation
// returns a new slice and leaves the receiver untouched, so history
// snapshots never alias each other.
type Collection []Annotation

// Clone returns a deep copy of the collection.
func (c Collection) Clone() Collection {
	if c == nil {
		return nil
	}
	out := make(Collection, len(c))
	for i, a := range c {
		out[i] = a.Clone()
	}
	return out
}

// Append returns a new collection with the annotation added on top.
func (c Collection) Append(a Annotation) Collection {
	out := c.Clone()
	return append(out, a.Clone())
}

// IndexOf returns the index of the annotation with the given id, or -1.
func (c Collection) IndexOf(id string) int {
	for i := range c {
		if c[i].ID == id {
			return i
		}
	}
	return -1
}

// ByID returns the annotation with the given id, or nil.
func (c Collection) ByID(id string) *Annotation {
	i := c.IndexOf(id)
	if i < 0 {
		return nil
	}
	return &c[i]
}

// Update returns a new collection with the matching entry replaced by
// the result of applying patch to a copy of it. If the id is not
// present the receiver is returned unchanged.
func (c Collection) Update(id string, patch func(*Annotation)) Collection {
	i := c.IndexOf(id)
	if i < 0 {
		return c
	}
	out := c.Clone()
	patch(&out[i])
	return out
}

// Delete returns a new collection without the matching entry. If the id
// is not present the receiver is returned unchanged.
func (c Collection) Delete(id string) Collection {
	i := c.IndexOf(id)
	if i < 0 {
		return c
	}
	out := make(Collection, 0, len(c)-1)
	for j := range c {
		if j != i {
			out = append(out, c[j].Clone())
		}
	}
	return out
}

// ForPage returns the annotations on the given page, in paint order.
func (c Collection) ForPage(page int) []Annotation {
	var out []Annotation
	for i := range c {
		if c[i].Page == page {
			out = append(out, c[i])
		}
	}
	return out
}

// RadioGroup returns the ids of all radio annotations sharing the given
// group id, across every page.
func (c Collection) RadioGroup(groupID string) []string {
	var ids []string
	for i := range c {
		if c[i].Kind == KindRadio && c[i].GroupID == groupID {
			ids = append(ids, c[i].ID)
		}
	}
	return ids
}

// Validate checks every entry and the id-uniqueness invariant.
func (c Collection) Validate() error {
	seen := make(map[string]struct{}, len(c))
	for i := range c {
		if err := c[i].Validate(); err != nil {
			return err
		}
		if _, dup := seen[c[i].ID]; dup {
			return errors.Errorf("duplicate annotation id %s", c[i].ID)
		}
		seen[c[i].ID] = struct{}{}
	}
	return nil
}
