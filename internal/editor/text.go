package editor

import (
	"strings"

	"pdf-marker/internal/annotation"
	"pdf-marker/pkg/geometry"
)

// placeText creates an empty text annotation at the click point and
// opens the inline entry overlay. Nothing is committed until the edit
// ends with non-empty content.
func (e *Editor) placeText(p geometry.Point2D) {
	size := TextSize("", e.style.FontSize)
	a := annotation.New(annotation.KindText, e.page, geometry.Rect{
		X: p.X, Y: p.Y, Width: size.Width, Height: size.Height,
	})
	a.FontFamily = e.style.FontFamily
	a.FontSize = e.style.FontSize
	a.Bold = e.style.Bold
	a.Italic = e.style.Italic
	a.Color = e.style.Color

	e.collection = e.collection.Append(a)
	e.setSelection(a.ID)
	e.beginTextEditing(a.ID)
}

// BeginTextEditing opens the inline editor on an existing text
// annotation (wired to double-click in the select tool).
func (e *Editor) BeginTextEditing(id string) {
	a := e.collection.ByID(id)
	if a == nil || a.Kind != annotation.KindText {
		return
	}
	e.setSelection(id)
	e.beginTextEditing(id)
}

func (e *Editor) beginTextEditing(id string) {
	e.mode = ModeEditingText
	e.editingID = id
	if e.onEditTextBegin != nil {
		e.onEditTextBegin(id)
	}
	e.notifyChange()
}

// EditingID returns the id of the text annotation being edited, or "".
func (e *Editor) EditingID() string {
	if e.mode != ModeEditingText {
		return ""
	}
	return e.editingID
}

// UpdateEditingText live-updates the edited annotation's content and
// recomputes its bounds from the text metrics heuristic. Keystrokes do
// not commit; only the end of the edit does.
func (e *Editor) UpdateEditingText(text string) {
	if e.mode != ModeEditingText {
		return
	}
	e.collection = e.collection.Update(e.editingID, func(a *annotation.Annotation) {
		size := TextSize(text, a.FontSize)
		a.Text = text
		a.Width = size.Width
		a.Height = size.Height
	})
	e.notifyChange()
}

// EndTextEditing closes the inline editor. An annotation left with
// empty or whitespace-only text is deleted instead of committed; a
// deletion of previously committed text is itself a committed mutation.
func (e *Editor) EndTextEditing() {
	if e.mode != ModeEditingText {
		return
	}
	id := e.editingID
	e.editingID = ""
	e.mode = ModeIdle

	a := e.collection.ByID(id)
	if a == nil {
		return
	}
	if strings.TrimSpace(a.Text) == "" {
		existed := e.history.Current().ByID(id) != nil
		e.collection = e.collection.Delete(id)
		if e.selectedID == id {
			e.setSelection("")
		}
		if existed {
			e.commit()
		} else {
			e.notifyChange()
		}
		return
	}
	e.commit()
}
