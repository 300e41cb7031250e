// Package editor implements the annotation authoring engine: the tool
// state machine that turns pointer gestures into collection mutations,
// hit-testing and resize handles, and the undo/redo commit points. All
// coordinates entering this package are content coordinates; the UI
// layer converts device positions through the viewport first.
package editor

import (
	"math"
	"strings"

	"pdf-marker/internal/annotation"
	"pdf-marker/internal/history"
	"pdf-marker/pkg/geometry"
)

const (
	// MinShapeSize is the rubber-band threshold: a released drag whose
	// box is smaller than this in both dimensions places nothing.
	MinShapeSize = 5.0

	// EraserRadius is the distance in content coordinates within which
	// an eraser path point deletes a drawing stroke. An intersecting
	// drawing is removed in full; strokes are never split.
	EraserRadius = 10.0

	defaultCheckboxSize = 20.0
	defaultRadioSize    = 18.0
	defaultStampWidth   = 160.0
	defaultStampHeight  = 60.0
	defaultImageWidth   = 150.0
	defaultImageHeight  = 75.0
)

// Mode is the state of the gesture state machine.
type Mode int

const (
	ModeIdle Mode = iota
	ModeDrawingPath
	ModeDragging
	ModeResizing
	ModeRubberBand
	ModeEditingText
	ModeAwaitingModal
)

// GestureKind tags the live in-progress gesture for transient painting.
type GestureKind int

const (
	GestureNone GestureKind = iota
	GestureStroke
	GestureEraser
	GestureRubberRect
	GestureRubberLine
)

// Gesture is the live, uncommitted gesture buffer the render dispatcher
// paints on top of the committed collection.
type Gesture struct {
	Kind   GestureKind
	Tool   Tool
	Style  Style
	Points []geometry.Point2D
	Rect   geometry.Rect
	Start  geometry.Point2D
	End    geometry.Point2D
}

// Editor is the sole mutator of the annotation collection. It owns the
// working collection, the history stack, the selection and the active
// tool, and interprets pointer and keyboard input against them.
type Editor struct {
	collection annotation.Collection
	history    *history.Stack

	page       int
	tool       Tool
	mode       Mode
	style      Style
	selectedID string

	// Gesture state, valid only within a pointer-down/up sequence.
	gestureStart geometry.Point2D
	gestureEnd   geometry.Point2D
	dragOffset   geometry.Point2D
	dragMoved    bool
	handle       Handle
	pathPoints   []geometry.Point2D

	// Pending modal placement.
	modalTool  Tool
	modalPoint geometry.Point2D

	// Inline text editing.
	editingID string

	onChange        func()
	onCommit        func()
	onSelection     func(id string)
	onToolChange    func(Tool)
	onModalRequest  func(tool Tool, at geometry.Point2D)
	onEditTextBegin func(id string)
}

// New creates an editor over an empty collection.
func New() *Editor {
	return &Editor{
		history: history.New(nil),
		page:    1,
		tool:    ToolSelect,
		style:   DefaultStyle(),
	}
}

// Reset discards all annotations and history, for a newly loaded
// document.
func (e *Editor) Reset() {
	e.collection = nil
	e.history = history.New(nil)
	e.selectedID = ""
	e.editingID = ""
	e.mode = ModeIdle
	e.tool = ToolSelect
	e.notifyChange()
}

// Load replaces the collection with a restored annotation set and
// starts history over with it as the baseline snapshot.
func (e *Editor) Load(c annotation.Collection) {
	e.collection = c.Clone()
	e.history = history.New(e.collection)
	e.selectedID = ""
	e.editingID = ""
	e.mode = ModeIdle
	e.tool = ToolSelect
	e.notifyChange()
}

// OnChange registers a repaint callback fired after any visible change.
func (e *Editor) OnChange(fn func()) { e.onChange = fn }

// OnCommit registers a callback fired after each history commit.
func (e *Editor) OnCommit(fn func()) { e.onCommit = fn }

// OnSelectionChange registers a callback fired when the selection
// changes; the id is empty when the selection is cleared.
func (e *Editor) OnSelectionChange(fn func(id string)) { e.onSelection = fn }

// OnToolChange registers a callback fired when the editor itself
// switches tools (one-shot reversion, Escape).
func (e *Editor) OnToolChange(fn func(Tool)) { e.onToolChange = fn }

// OnModalRequest registers the callback that opens a configuration
// dialog for modal placement tools.
func (e *Editor) OnModalRequest(fn func(tool Tool, at geometry.Point2D)) { e.onModalRequest = fn }

// OnEditTextBegin registers the callback that opens the inline text
// entry overlay for the given annotation.
func (e *Editor) OnEditTextBegin(fn func(id string)) { e.onEditTextBegin = fn }

// Collection returns the current working collection.
func (e *Editor) Collection() annotation.Collection { return e.collection }

// Mode returns the current state-machine mode.
func (e *Editor) Mode() Mode { return e.mode }

// Tool returns the active tool.
func (e *Editor) Tool() Tool { return e.tool }

// Style returns the active style settings.
func (e *Editor) Style() Style { return e.style }

// SetStyle replaces the style settings supplied by the toolbar.
func (e *Editor) SetStyle(s Style) { e.style = s }

// SelectedID returns the id of the selected annotation, or "".
func (e *Editor) SelectedID() string { return e.selectedID }

// Selected returns the selected annotation, or nil.
func (e *Editor) Selected() *annotation.Annotation {
	if e.selectedID == "" {
		return nil
	}
	return e.collection.ByID(e.selectedID)
}

// Page returns the page pointer events are interpreted against.
func (e *Editor) Page() int { return e.page }

// SetPage switches the working page. Any in-progress gesture is
// abandoned and the selection cleared; annotations never move across
// pages.
func (e *Editor) SetPage(page int) {
	if page == e.page {
		return
	}
	e.abortGesture()
	e.page = page
	e.setSelection("")
	e.notifyChange()
}

// SetTool switches the active tool, abandoning any in-progress gesture.
// A real change fires the tool-change callback so the toolbar and
// status display follow keyboard shortcuts too.
func (e *Editor) SetTool(t Tool) {
	if e.mode == ModeEditingText {
		e.EndTextEditing()
	}
	e.abortGesture()
	changed := t != e.tool
	e.tool = t
	if t != ToolSelect {
		e.setSelection("")
	}
	if changed && e.onToolChange != nil {
		e.onToolChange(t)
	}
	e.notifyChange()
}

// History exposes undo/redo availability for menu state.
func (e *Editor) CanUndo() bool { return e.history.CanUndo() }
func (e *Editor) CanRedo() bool { return e.history.CanRedo() }

// Undo steps the collection back one committed snapshot.
func (e *Editor) Undo() {
	if e.mode == ModeEditingText {
		e.EndTextEditing()
	}
	e.abortGesture()
	e.collection = e.history.Undo()
	if e.Selected() == nil {
		e.setSelection("")
	}
	e.notifyChange()
}

// Redo steps the collection forward one committed snapshot.
func (e *Editor) Redo() {
	e.abortGesture()
	e.collection = e.history.Redo()
	if e.Selected() == nil {
		e.setSelection("")
	}
	e.notifyChange()
}

// DeleteSelected removes the selected annotation and commits.
func (e *Editor) DeleteSelected() {
	if e.selectedID == "" {
		return
	}
	e.collection = e.collection.Delete(e.selectedID)
	e.setSelection("")
	e.commit()
}

// Escape clears the selection, cancels any pending modal placement,
// and returns to the select tool.
func (e *Editor) Escape() {
	if e.mode == ModeEditingText {
		e.EndTextEditing()
	}
	e.abortGesture()
	e.setSelection("")
	if e.tool != ToolSelect {
		e.tool = ToolSelect
		if e.onToolChange != nil {
			e.onToolChange(ToolSelect)
		}
	}
	e.notifyChange()
}

// PointerDown feeds a pointer-down at a content-space position into the
// state machine.
func (e *Editor) PointerDown(p geometry.Point2D) {
	if e.mode == ModeEditingText {
		e.EndTextEditing()
	}

	switch {
	case e.tool == ToolSelect:
		e.pointerDownSelect(p)

	case e.tool == ToolDraw || e.tool == ToolEraser:
		e.mode = ModeDrawingPath
		e.pathPoints = []geometry.Point2D{p}
		e.notifyChange()

	case e.tool.isRubberBand():
		e.mode = ModeRubberBand
		e.gestureStart = p
		e.gestureEnd = p
		e.notifyChange()

	case e.tool == ToolText:
		e.placeText(p)

	case e.tool == ToolCheckbox:
		e.placeWidget(annotation.KindCheckbox, p, defaultCheckboxSize)

	case e.tool == ToolRadio:
		e.placeWidget(annotation.KindRadio, p, defaultRadioSize)

	case e.tool == ToolSignature || e.tool == ToolInitials || e.tool == ToolImage:
		if data := e.stagedData(e.tool); data != "" {
			e.placeStagedImage(e.tool, p, data)
		} else {
			e.requestModal(e.tool, p)
		}

	case e.tool.isModal():
		e.requestModal(e.tool, p)
	}
}

// PointerMove feeds a pointer-move into the state machine. Intermediate
// states are never committed; they only update live gesture buffers or
// the working copy.
func (e *Editor) PointerMove(p geometry.Point2D) {
	switch e.mode {
	case ModeDrawingPath:
		e.pathPoints = append(e.pathPoints, p)
		e.notifyChange()

	case ModeRubberBand:
		e.gestureEnd = p
		e.notifyChange()

	case ModeDragging:
		sel := e.Selected()
		if sel == nil {
			e.mode = ModeIdle
			return
		}
		target := p.Sub(e.dragOffset)
		bounds := sel.Bounds()
		if target.X != bounds.X || target.Y != bounds.Y {
			e.dragMoved = true
			bounds.X = target.X
			bounds.Y = target.Y
			e.collection = e.collection.Update(sel.ID, func(a *annotation.Annotation) {
				a.SetBounds(bounds)
			})
			e.notifyChange()
		}

	case ModeResizing:
		sel := e.Selected()
		if sel == nil {
			e.mode = ModeIdle
			return
		}
		resized := ResizeTo(sel.Bounds(), e.handle, p, MinAnnotationSize)
		e.dragMoved = true
		e.collection = e.collection.Update(sel.ID, func(a *annotation.Annotation) {
			a.SetBounds(resized)
		})
		e.notifyChange()
	}
}

// PointerUp completes the gesture. This is the single point where
// drag-style gestures commit to history.
func (e *Editor) PointerUp(p geometry.Point2D) {
	switch e.mode {
	case ModeDrawingPath:
		points := e.pathPoints
		e.pathPoints = nil
		e.mode = ModeIdle
		if e.tool == ToolEraser {
			e.eraseAt(points)
		} else {
			e.finishStroke(points)
		}

	case ModeRubberBand:
		e.gestureEnd = p
		e.mode = ModeIdle
		e.finishRubberBand()

	case ModeDragging, ModeResizing:
		e.mode = ModeIdle
		if e.dragMoved {
			e.commit()
		}
		e.dragMoved = false
	}
}

// pointerDownSelect handles pointer-down for the select tool: resize
// handle first, then topmost hit, else clear selection.
func (e *Editor) pointerDownSelect(p geometry.Point2D) {
	if sel := e.Selected(); sel != nil {
		if h := HandleAt(sel, p); h != HandleNone {
			e.mode = ModeResizing
			e.handle = h
			e.dragMoved = false
			return
		}
	}

	hit := HitTest(e.collection, e.page, p)
	if hit == nil {
		e.setSelection("")
		e.mode = ModeIdle
		e.notifyChange()
		return
	}

	e.setSelection(hit.ID)

	// A click toggles form widgets immediately; the toggle does not
	// depend on whether a drag follows.
	switch hit.Kind {
	case annotation.KindCheckbox:
		e.toggleCheckbox(hit.ID)
	case annotation.KindRadio:
		e.toggleRadio(hit.ID)
	}

	bounds := e.collection.ByID(hit.ID).Bounds()
	e.mode = ModeDragging
	e.dragOffset = p.Sub(bounds.TopLeft())
	e.dragMoved = false
	e.notifyChange()
}

// toggleCheckbox flips a checkbox and commits.
func (e *Editor) toggleCheckbox(id string) {
	e.collection = e.collection.Update(id, func(a *annotation.Annotation) {
		a.Checked = !a.Checked
	})
	e.commit()
}

// toggleRadio toggles a radio button. Checking one clears every other
// member of its group on any page, keeping at most one checked.
func (e *Editor) toggleRadio(id string) {
	target := e.collection.ByID(id)
	if target == nil {
		return
	}
	if target.Checked {
		e.collection = e.collection.Update(id, func(a *annotation.Annotation) {
			a.Checked = false
		})
		e.commit()
		return
	}
	group := target.GroupID
	next := e.collection.Clone()
	for i := range next {
		if next[i].Kind != annotation.KindRadio || next[i].GroupID != group {
			continue
		}
		next[i].Checked = next[i].ID == id
	}
	e.collection = next
	e.commit()
}

// finishStroke wraps the collected freehand points into a single-path
// drawing annotation and commits.
func (e *Editor) finishStroke(points []geometry.Point2D) {
	if len(points) == 0 {
		return
	}
	box := geometry.BoundingBox(points)
	if box.Width < 1 {
		box.Width = 1
	}
	if box.Height < 1 {
		box.Height = 1
	}

	a := annotation.New(annotation.KindDrawing, e.page, box)
	a.Paths = []annotation.StrokePath{{Points: points}}
	a.Color = e.style.Color
	a.StrokeWidth = e.style.StrokeWidth
	e.collection = e.collection.Append(a)
	e.setSelection(a.ID)
	e.commit()
}

// eraseAt deletes, in full, every drawing annotation on the page with a
// stroke point within EraserRadius of any eraser path point. One
// gesture produces at most one history entry.
func (e *Editor) eraseAt(points []geometry.Point2D) {
	if len(points) == 0 {
		return
	}
	var doomed []string
	for _, a := range e.collection.ForPage(e.page) {
		if a.Kind != annotation.KindDrawing {
			continue
		}
		if drawingTouches(a, points, EraserRadius) {
			doomed = append(doomed, a.ID)
		}
	}
	if len(doomed) == 0 {
		e.notifyChange()
		return
	}
	next := e.collection
	for _, id := range doomed {
		next = next.Delete(id)
	}
	e.collection = next
	if e.selectedID != "" && e.collection.ByID(e.selectedID) == nil {
		e.setSelection("")
	}
	e.commit()
}

// drawingTouches reports whether any stroke point of the drawing lies
// within radius of any eraser point.
func drawingTouches(a annotation.Annotation, eraser []geometry.Point2D, radius float64) bool {
	for _, path := range a.Paths {
		for _, sp := range path.Points {
			for _, ep := range eraser {
				if sp.Distance(ep) <= radius {
					return true
				}
			}
		}
	}
	return false
}

// finishRubberBand creates the dragged shape if it exceeds the minimum
// size threshold, then commits.
func (e *Editor) finishRubberBand() {
	box := geometry.RectFromCorners(e.gestureStart, e.gestureEnd)
	if box.Width < MinShapeSize && box.Height < MinShapeSize {
		e.notifyChange()
		return
	}

	var kind annotation.Kind
	switch e.tool {
	case ToolRectangle:
		kind = annotation.KindRectangle
	case ToolCircle:
		kind = annotation.KindCircle
	case ToolLine:
		kind = annotation.KindLine
	case ToolArrow:
		kind = annotation.KindArrow
	case ToolHighlight:
		kind = annotation.KindHighlight
	case ToolStrikethrough:
		kind = annotation.KindStrikethrough
	default:
		return
	}

	// Lines may be axis-aligned; keep the box non-degenerate.
	if box.Width < 1 {
		box.Width = 1
	}
	if box.Height < 1 {
		box.Height = 1
	}

	a := annotation.New(kind, e.page, box)
	a.Color = e.style.Color
	a.StrokeWidth = e.style.StrokeWidth
	switch kind {
	case annotation.KindLine, annotation.KindArrow:
		a.X1 = e.gestureStart.X
		a.Y1 = e.gestureStart.Y
		a.X2 = e.gestureEnd.X
		a.Y2 = e.gestureEnd.Y
	case annotation.KindHighlight:
		a.Color = e.style.Color
		a.Opacity = e.style.HighlightOpacity
		if a.Opacity <= 0 {
			a.Opacity = 0.3
		}
	}

	e.collection = e.collection.Append(a)
	e.setSelection(a.ID)
	e.commit()
}

// placeWidget creates a checkbox or radio centered on the click point
// and commits.
func (e *Editor) placeWidget(kind annotation.Kind, p geometry.Point2D, size float64) {
	box := geometry.Rect{X: p.X - size/2, Y: p.Y - size/2, Width: size, Height: size}
	a := annotation.New(kind, e.page, box)
	if kind == annotation.KindRadio {
		a.GroupID = e.style.RadioGroup
		if a.GroupID == "" {
			a.GroupID = "group-1"
		}
	}
	e.collection = e.collection.Append(a)
	e.setSelection(a.ID)
	e.commit()
}

// stagedData returns the toolbar-staged raster payload for a one-shot
// image tool.
func (e *Editor) stagedData(t Tool) string {
	switch t {
	case ToolSignature:
		return e.style.SignatureData
	case ToolInitials:
		return e.style.InitialsData
	case ToolImage:
		return e.style.ImageData
	}
	return ""
}

// placeStagedImage places a signature, initials or image annotation
// from staged data, commits, and reverts to the select tool.
func (e *Editor) placeStagedImage(t Tool, p geometry.Point2D, data string) {
	var kind annotation.Kind
	switch t {
	case ToolSignature:
		kind = annotation.KindSignature
	case ToolInitials:
		kind = annotation.KindInitials
	case ToolImage:
		kind = annotation.KindImage
	default:
		return
	}
	box := geometry.Rect{
		X:      p.X - defaultImageWidth/2,
		Y:      p.Y - defaultImageHeight/2,
		Width:  defaultImageWidth,
		Height: defaultImageHeight,
	}
	a := annotation.New(kind, e.page, box)
	a.Data = data
	e.collection = e.collection.Append(a)
	e.setSelection(a.ID)
	e.commit()
	e.revertToSelect()
}

// requestModal parks the state machine until the configuration dialog
// completes or cancels.
func (e *Editor) requestModal(t Tool, p geometry.Point2D) {
	e.mode = ModeAwaitingModal
	e.modalTool = t
	e.modalPoint = p
	if e.onModalRequest != nil {
		e.onModalRequest(t, p)
	}
}

// revertToSelect returns a one-shot tool to select so the user can
// reposition the placed annotation without revisiting the toolbar.
func (e *Editor) revertToSelect() {
	if e.tool == ToolSelect {
		return
	}
	e.tool = ToolSelect
	if e.onToolChange != nil {
		e.onToolChange(ToolSelect)
	}
}

// abortGesture drops any in-progress gesture without committing.
func (e *Editor) abortGesture() {
	e.pathPoints = nil
	e.dragMoved = false
	if e.mode != ModeEditingText {
		e.mode = ModeIdle
	}
}

// LiveGesture returns the transient gesture buffer for the render
// dispatcher. It is never written into the committed collection.
func (e *Editor) LiveGesture() Gesture {
	switch e.mode {
	case ModeDrawingPath:
		kind := GestureStroke
		if e.tool == ToolEraser {
			kind = GestureEraser
		}
		return Gesture{Kind: kind, Tool: e.tool, Style: e.style, Points: e.pathPoints}
	case ModeRubberBand:
		if e.tool == ToolLine || e.tool == ToolArrow {
			return Gesture{
				Kind: GestureRubberLine, Tool: e.tool, Style: e.style,
				Start: e.gestureStart, End: e.gestureEnd,
			}
		}
		return Gesture{
			Kind: GestureRubberRect, Tool: e.tool, Style: e.style,
			Rect: geometry.RectFromCorners(e.gestureStart, e.gestureEnd),
		}
	}
	return Gesture{Kind: GestureNone}
}

// setSelection updates the selection and fires the callback on change.
func (e *Editor) setSelection(id string) {
	if id == e.selectedID {
		return
	}
	e.selectedID = id
	if e.onSelection != nil {
		e.onSelection(id)
	}
}

// commit pushes the working collection onto the history stack. Exactly
// one commit happens per completed user mutation.
func (e *Editor) commit() {
	e.history.Commit(e.collection)
	if e.onCommit != nil {
		e.onCommit()
	}
	e.notifyChange()
}

func (e *Editor) notifyChange() {
	if e.onChange != nil {
		e.onChange()
	}
}

// TextSize estimates a text annotation's bounds from its content. The
// per-character width factor is a documented approximation, not true
// glyph metrics; the flattening backend relies on matching placement,
// not pixel-perfect measurement.
func TextSize(text string, fontSize float64) geometry.Size {
	lines := strings.Split(text, "\n")
	maxLen := 1
	for _, l := range lines {
		if n := len([]rune(l)); n > maxLen {
			maxLen = n
		}
	}
	return geometry.Size{
		Width:  math.Max(float64(maxLen)*fontSize*0.6, fontSize*0.6),
		Height: math.Max(float64(len(lines))*fontSize*1.2, fontSize*1.2),
	}
}
