package editor

// Tool identifies the active authoring tool. The toolbar selects it;
// the state machine only reads it.
type Tool int

const (
	ToolSelect Tool = iota
	ToolText
	ToolDraw
	ToolEraser
	ToolRectangle
	ToolCircle
	ToolLine
	ToolArrow
	ToolHighlight
	ToolStrikethrough
	ToolCheckbox
	ToolRadio
	ToolSignature
	ToolInitials
	ToolImage
	ToolDate
	ToolStamp
	ToolSignedStamp
	ToolWatermark
)

var toolNames = map[Tool]string{
	ToolSelect:        "select",
	ToolText:          "text",
	ToolDraw:          "draw",
	ToolEraser:        "eraser",
	ToolRectangle:     "rectangle",
	ToolCircle:        "circle",
	ToolLine:          "line",
	ToolArrow:         "arrow",
	ToolHighlight:     "highlight",
	ToolStrikethrough: "strikethrough",
	ToolCheckbox:      "checkbox",
	ToolRadio:         "radio",
	ToolSignature:     "signature",
	ToolInitials:      "initials",
	ToolImage:         "image",
	ToolDate:          "date",
	ToolStamp:         "stamp",
	ToolSignedStamp:   "signed-stamp",
	ToolWatermark:     "watermark",
}

// String returns a short tool name for status display.
func (t Tool) String() string {
	if n, ok := toolNames[t]; ok {
		return n
	}
	return "unknown"
}

// isRubberBand reports whether the tool defines its annotation by a
// drag gesture previewed as a rubber band.
func (t Tool) isRubberBand() bool {
	switch t {
	case ToolRectangle, ToolCircle, ToolLine, ToolArrow, ToolHighlight, ToolStrikethrough:
		return true
	}
	return false
}

// isOneShot reports whether the tool reverts to select after a single
// placement so the user can immediately reposition the result.
func (t Tool) isOneShot() bool {
	switch t {
	case ToolSignature, ToolInitials, ToolImage, ToolStamp, ToolSignedStamp, ToolDate, ToolWatermark:
		return true
	}
	return false
}

// isModal reports whether placement requires a configuration dialog
// before the annotation can be created.
func (t Tool) isModal() bool {
	switch t {
	case ToolDate, ToolStamp, ToolSignedStamp, ToolWatermark:
		return true
	}
	return false
}

// toolKeys maps single-letter shortcuts to tools. Active only while no
// inline text edit is in progress.
var toolKeys = map[rune]Tool{
	'v': ToolSelect,
	't': ToolText,
	'd': ToolDraw,
	'e': ToolEraser,
	'r': ToolRectangle,
	'c': ToolCircle,
	'l': ToolLine,
	'a': ToolArrow,
	'h': ToolHighlight,
	'x': ToolStrikethrough,
	'k': ToolCheckbox,
	'o': ToolRadio,
	's': ToolStamp,
	'w': ToolWatermark,
}

// ToolForKey returns the tool bound to a single-letter shortcut.
func ToolForKey(r rune) (Tool, bool) {
	t, ok := toolKeys[r]
	return t, ok
}

// Style carries the per-tool settings the toolbar supplies at creation
// time. The editor reads it and never mutates it.
type Style struct {
	Color       string
	StrokeWidth float64
	FontFamily  string
	FontSize    float64
	Bold        bool
	Italic      bool

	// Highlight fill opacity.
	HighlightOpacity float64

	// Group id applied to newly placed radio buttons.
	RadioGroup string

	// Staged raster payloads (data URLs) captured by the toolbar for
	// one-shot placement tools. Empty means the editor must request a
	// capture dialog first.
	SignatureData string
	InitialsData  string
	ImageData     string
}

// DefaultStyle returns the style used before the toolbar changes
// anything.
func DefaultStyle() Style {
	return Style{
		Color:            "#000000",
		StrokeWidth:      2,
		FontFamily:       "Helvetica",
		FontSize:         14,
		HighlightOpacity: 0.3,
		RadioGroup:       "group-1",
	}
}
