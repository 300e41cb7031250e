// Package panels provides the tool palette and style settings sidebar.
package panels

import (
	"fmt"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"pdf-marker/internal/app"
	"pdf-marker/internal/editor"
	"pdf-marker/ui/prefs"
)

// paletteOrder is the display order of the tool buttons.
var paletteOrder = []editor.Tool{
	editor.ToolSelect,
	editor.ToolText,
	editor.ToolDraw,
	editor.ToolEraser,
	editor.ToolRectangle,
	editor.ToolCircle,
	editor.ToolLine,
	editor.ToolArrow,
	editor.ToolHighlight,
	editor.ToolStrikethrough,
	editor.ToolCheckbox,
	editor.ToolRadio,
	editor.ToolSignature,
	editor.ToolInitials,
	editor.ToolImage,
	editor.ToolStamp,
	editor.ToolSignedStamp,
	editor.ToolDate,
	editor.ToolWatermark,
}

// ToolPanel is the sidebar: tool palette on top, style settings below.
type ToolPanel struct {
	state   *app.State
	prefs   *prefs.Prefs
	buttons map[editor.Tool]*widget.Button
	root    fyne.CanvasObject

	colorEntry   *widget.Entry
	strokeSlider *widget.Slider
	strokeLabel  *widget.Label
	fontSelect   *widget.Select
	fontSize     *widget.Entry
	opacitySlide *widget.Slider
}

// NewToolPanel builds the panel and wires it to the editor.
func NewToolPanel(state *app.State, p *prefs.Prefs) *ToolPanel {
	tp := &ToolPanel{
		state:   state,
		prefs:   p,
		buttons: make(map[editor.Tool]*widget.Button),
	}
	tp.restoreStyle()
	tp.root = tp.build()

	state.On(app.EventToolChanged, func(data interface{}) {
		if t, ok := data.(editor.Tool); ok {
			tp.highlight(t)
		}
	})
	tp.highlight(state.Editor.Tool())
	return tp
}

// Container returns the panel for embedding in the window layout.
func (tp *ToolPanel) Container() fyne.CanvasObject {
	return tp.root
}

func (tp *ToolPanel) build() fyne.CanvasObject {
	grid := container.NewGridWithColumns(2)
	for _, tool := range paletteOrder {
		t := tool
		btn := widget.NewButton(toolLabel(t), func() {
			tp.state.Editor.SetTool(t)
		})
		tp.buttons[t] = btn
		grid.Add(btn)
	}

	style := tp.state.Editor.Style()

	tp.colorEntry = widget.NewEntry()
	tp.colorEntry.SetText(style.Color)
	tp.colorEntry.OnChanged = func(s string) {
		tp.applyStyle(func(st *editor.Style) { st.Color = s })
	}

	tp.strokeLabel = widget.NewLabel(fmt.Sprintf("Stroke: %.0f", style.StrokeWidth))
	tp.strokeSlider = widget.NewSlider(1, 12)
	tp.strokeSlider.SetValue(style.StrokeWidth)
	tp.strokeSlider.OnChanged = func(v float64) {
		tp.strokeLabel.SetText(fmt.Sprintf("Stroke: %.0f", v))
		tp.applyStyle(func(st *editor.Style) { st.StrokeWidth = v })
	}

	tp.fontSelect = widget.NewSelect(
		[]string{"Helvetica", "Times-Roman", "Courier"},
		func(s string) {
			tp.applyStyle(func(st *editor.Style) { st.FontFamily = s })
		})
	tp.fontSelect.SetSelected(style.FontFamily)

	tp.fontSize = widget.NewEntry()
	tp.fontSize.SetText(strconv.FormatFloat(style.FontSize, 'f', -1, 64))
	tp.fontSize.OnChanged = func(s string) {
		if v, err := strconv.ParseFloat(s, 64); err == nil && v > 0 {
			tp.applyStyle(func(st *editor.Style) { st.FontSize = v })
		}
	}

	tp.opacitySlide = widget.NewSlider(0.05, 1)
	tp.opacitySlide.Step = 0.05
	tp.opacitySlide.SetValue(style.HighlightOpacity)
	tp.opacitySlide.OnChanged = func(v float64) {
		tp.applyStyle(func(st *editor.Style) { st.HighlightOpacity = v })
	}

	styleBox := container.NewVBox(
		widget.NewSeparator(),
		widget.NewLabel("Color (#rrggbb)"),
		tp.colorEntry,
		tp.strokeLabel,
		tp.strokeSlider,
		widget.NewLabel("Font"),
		tp.fontSelect,
		widget.NewLabel("Font size"),
		tp.fontSize,
		widget.NewLabel("Highlight opacity"),
		tp.opacitySlide,
	)

	return container.NewVScroll(container.NewVBox(grid, styleBox))
}

// applyStyle mutates a copy of the current style, pushes it to the
// editor, and persists it.
func (tp *ToolPanel) applyStyle(mutate func(*editor.Style)) {
	style := tp.state.Editor.Style()
	mutate(&style)
	tp.state.Editor.SetStyle(style)
	tp.persistStyle(style)
}

func (tp *ToolPanel) persistStyle(style editor.Style) {
	tp.prefs.SetString(prefs.KeyToolColor, style.Color)
	tp.prefs.SetFloat(prefs.KeyStrokeWidth, style.StrokeWidth)
	tp.prefs.SetString(prefs.KeyFontFamily, style.FontFamily)
	tp.prefs.SetFloat(prefs.KeyFontSize, style.FontSize)
	tp.prefs.SetFloat(prefs.KeyHighlightOpac, style.HighlightOpacity)
}

func (tp *ToolPanel) restoreStyle() {
	style := tp.state.Editor.Style()
	style.Color = tp.prefs.StringWithFallback(prefs.KeyToolColor, style.Color)
	style.StrokeWidth = tp.prefs.FloatWithFallback(prefs.KeyStrokeWidth, style.StrokeWidth)
	style.FontFamily = tp.prefs.StringWithFallback(prefs.KeyFontFamily, style.FontFamily)
	style.FontSize = tp.prefs.FloatWithFallback(prefs.KeyFontSize, style.FontSize)
	style.HighlightOpacity = tp.prefs.FloatWithFallback(prefs.KeyHighlightOpac, style.HighlightOpacity)
	tp.state.Editor.SetStyle(style)
}

// highlight marks the active tool button.
func (tp *ToolPanel) highlight(active editor.Tool) {
	for tool, btn := range tp.buttons {
		if tool == active {
			btn.Importance = widget.HighImportance
		} else {
			btn.Importance = widget.MediumImportance
		}
		btn.Refresh()
	}
}

func toolLabel(t editor.Tool) string {
	switch t {
	case editor.ToolSelect:
		return "Select"
	case editor.ToolText:
		return "Text"
	case editor.ToolDraw:
		return "Draw"
	case editor.ToolEraser:
		return "Eraser"
	case editor.ToolRectangle:
		return "Rectangle"
	case editor.ToolCircle:
		return "Circle"
	case editor.ToolLine:
		return "Line"
	case editor.ToolArrow:
		return "Arrow"
	case editor.ToolHighlight:
		return "Highlight"
	case editor.ToolStrikethrough:
		return "Strike"
	case editor.ToolCheckbox:
		return "Checkbox"
	case editor.ToolRadio:
		return "Radio"
	case editor.ToolSignature:
		return "Signature"
	case editor.ToolInitials:
		return "Initials"
	case editor.ToolImage:
		return "Image"
	case editor.ToolStamp:
		return "Stamp"
	case editor.ToolSignedStamp:
		return "Signed Stamp"
	case editor.ToolDate:
		return "Date"
	case editor.ToolWatermark:
		return "Watermark"
	}
	return t.String()
}
