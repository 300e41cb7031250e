// Package dialogs provides the modal configuration dialogs for the
// click-to-place tools. Validation failures surface to the user and
// never mutate the annotation set; the placement stays pending so the
// dialog can be corrected and resubmitted.
package dialogs

import (
	"encoding/base64"
	"io"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"pdf-marker/internal/editor"
)

// stampTypes in menu order; "custom" enables the text entry.
var stampTypes = []string{
	"approved", "draft", "confidential", "paid",
	"rejected", "final", "copy", "void", "custom",
}

// ShowForTool opens the configuration dialog for a pending modal
// placement.
func ShowForTool(win fyne.Window, ed *editor.Editor, tool editor.Tool) {
	switch tool {
	case editor.ToolStamp:
		ShowStamp(win, ed)
	case editor.ToolSignedStamp:
		ShowSignedStamp(win, ed)
	case editor.ToolDate:
		ShowDate(win, ed)
	case editor.ToolWatermark:
		ShowWatermark(win, ed)
	case editor.ToolSignature, editor.ToolInitials, editor.ToolImage:
		ShowCapture(win, ed)
	}
}

// ShowStamp collects stamp type, styling and rotation.
func ShowStamp(win fyne.Window, ed *editor.Editor) {
	typeSelect := widget.NewSelect(stampTypes, nil)
	typeSelect.SetSelected("approved")
	customEntry := widget.NewEntry()
	customEntry.SetPlaceHolder("Custom text")
	colorEntry := widget.NewEntry()
	colorEntry.SetText("#16a34a")
	shapeSelect := widget.NewSelect([]string{"box", "circle"}, nil)
	shapeSelect.SetSelected("box")
	rotationEntry := widget.NewEntry()
	rotationEntry.SetText("0")
	dashedCheck := widget.NewCheck("Dashed border", nil)
	layoutSelect := widget.NewSelect([]string{"straight", "curved"}, nil)
	layoutSelect.SetSelected("straight")

	items := []*widget.FormItem{
		widget.NewFormItem("Type", typeSelect),
		widget.NewFormItem("Custom text", customEntry),
		widget.NewFormItem("Color", colorEntry),
		widget.NewFormItem("Shape", shapeSelect),
		widget.NewFormItem("Rotation", rotationEntry),
		widget.NewFormItem("Border", dashedCheck),
		widget.NewFormItem("Text layout", layoutSelect),
	}
	dialog.ShowForm("Place Stamp", "Place", "Cancel", items, func(ok bool) {
		if !ok {
			ed.CancelModal()
			return
		}
		cfg := editor.StampConfig{
			StampType:  typeSelect.Selected,
			CustomText: customEntry.Text,
			Color:      colorEntry.Text,
			Shape:      shapeSelect.Selected,
			Rotation:   parseFloat(rotationEntry.Text),
			Dashed:     dashedCheck.Checked,
			TextLayout: layoutSelect.Selected,
		}
		if err := ed.CompleteStamp(cfg); err != nil {
			dialog.ShowError(err, win)
			ShowStamp(win, ed)
		}
	}, win)
}

// ShowSignedStamp collects the signature image plus stamp styling.
func ShowSignedStamp(win fyne.Window, ed *editor.Editor) {
	pickImageDataURL(win, func(data string) {
		if data == "" {
			ed.CancelModal()
			return
		}
		styleSelect := widget.NewSelect([]string{"official", "classic"}, nil)
		styleSelect.SetSelected("official")
		captionEntry := widget.NewEntry()
		captionEntry.SetPlaceHolder("Caption (optional)")
		colorEntry := widget.NewEntry()
		colorEntry.SetText("#16a34a")

		items := []*widget.FormItem{
			widget.NewFormItem("Style", styleSelect),
			widget.NewFormItem("Caption", captionEntry),
			widget.NewFormItem("Color", colorEntry),
		}
		dialog.ShowForm("Signed Stamp", "Place", "Cancel", items, func(ok bool) {
			if !ok {
				ed.CancelModal()
				return
			}
			cfg := editor.SignedStampConfig{
				StampConfig: editor.StampConfig{
					CustomText: captionEntry.Text,
					Color:      colorEntry.Text,
				},
				Data:  data,
				Style: styleSelect.Selected,
			}
			if err := ed.CompleteSignedStamp(cfg); err != nil {
				dialog.ShowError(err, win)
			}
		}, win)
	})
}

// ShowDate collects the formatted date text.
func ShowDate(win fyne.Window, ed *editor.Editor) {
	textEntry := widget.NewEntry()
	textEntry.SetText(time.Now().Format("01/02/2006"))
	sizeEntry := widget.NewEntry()
	sizeEntry.SetText("14")
	colorEntry := widget.NewEntry()
	colorEntry.SetText("#000000")

	items := []*widget.FormItem{
		widget.NewFormItem("Date", textEntry),
		widget.NewFormItem("Font size", sizeEntry),
		widget.NewFormItem("Color", colorEntry),
	}
	dialog.ShowForm("Place Date", "Place", "Cancel", items, func(ok bool) {
		if !ok {
			ed.CancelModal()
			return
		}
		cfg := editor.DateConfig{
			Text:     textEntry.Text,
			FontSize: parseFloat(sizeEntry.Text),
			Color:    colorEntry.Text,
		}
		if err := ed.CompleteDate(cfg); err != nil {
			dialog.ShowError(err, win)
			ShowDate(win, ed)
		}
	}, win)
}

// ShowWatermark collects text or image watermark settings.
func ShowWatermark(win fyne.Window, ed *editor.Editor) {
	kindSelect := widget.NewSelect([]string{"text", "image"}, nil)
	kindSelect.SetSelected("text")
	textEntry := widget.NewEntry()
	textEntry.SetPlaceHolder("Watermark text")
	colorEntry := widget.NewEntry()
	colorEntry.SetText("#9ca3af")
	sizeEntry := widget.NewEntry()
	sizeEntry.SetText("32")
	opacityEntry := widget.NewEntry()
	opacityEntry.SetText("0.3")
	rotationEntry := widget.NewEntry()
	rotationEntry.SetText("-45")
	borderSelect := widget.NewSelect([]string{"none", "solid", "dashed", "dotted"}, nil)
	borderSelect.SetSelected("none")

	items := []*widget.FormItem{
		widget.NewFormItem("Content", kindSelect),
		widget.NewFormItem("Text", textEntry),
		widget.NewFormItem("Color", colorEntry),
		widget.NewFormItem("Font size", sizeEntry),
		widget.NewFormItem("Opacity", opacityEntry),
		widget.NewFormItem("Rotation", rotationEntry),
		widget.NewFormItem("Border", borderSelect),
	}
	confirm := func(imageData string) {
		cfg := editor.WatermarkConfig{
			ContentType: kindSelect.Selected,
			Text:        textEntry.Text,
			ImageData:   imageData,
			Color:       colorEntry.Text,
			FontSize:    parseFloat(sizeEntry.Text),
			Opacity:     parseFloat(opacityEntry.Text),
			Rotation:    parseFloat(rotationEntry.Text),
			BorderStyle: borderSelect.Selected,
		}
		if err := ed.CompleteWatermark(cfg); err != nil {
			dialog.ShowError(err, win)
			ShowWatermark(win, ed)
		}
	}
	dialog.ShowForm("Place Watermark", "Place", "Cancel", items, func(ok bool) {
		if !ok {
			ed.CancelModal()
			return
		}
		if kindSelect.Selected == "image" {
			pickImageDataURL(win, func(data string) {
				if data == "" {
					ed.CancelModal()
					return
				}
				confirm(data)
			})
			return
		}
		confirm("")
	}, win)
}

// ShowCapture picks an image file as the payload for a pending
// signature, initials or image placement.
func ShowCapture(win fyne.Window, ed *editor.Editor) {
	pickImageDataURL(win, func(data string) {
		if data == "" {
			ed.CancelModal()
			return
		}
		if err := ed.CompleteCapture(editor.CaptureConfig{Data: data}); err != nil {
			dialog.ShowError(err, win)
		}
	})
}

// ShowTextEditor edits the content of the text annotation currently in
// inline editing mode. Confirming applies the text; cancelling keeps
// whatever the annotation had (a brand-new empty one is discarded by
// the editor).
func ShowTextEditor(win fyne.Window, ed *editor.Editor, initial string) {
	entry := widget.NewMultiLineEntry()
	entry.SetText(initial)
	entry.Wrapping = fyne.TextWrapOff

	d := dialog.NewCustomConfirm("Edit Text", "Apply", "Cancel", entry, func(ok bool) {
		if ok {
			ed.UpdateEditingText(entry.Text)
		}
		ed.EndTextEditing()
	}, win)
	d.Resize(fyne.NewSize(420, 240))
	d.Show()
}

// pickImageDataURL opens a file picker and returns the chosen image as
// a base64 data URL ("" when cancelled or unreadable).
func pickImageDataURL(win fyne.Window, cb func(dataURL string)) {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			cb("")
			return
		}
		defer reader.Close()
		raw, err := io.ReadAll(reader)
		if err != nil {
			dialog.ShowError(err, win)
			cb("")
			return
		}
		mime := "image/png"
		if ext := strings.ToLower(reader.URI().Extension()); ext == ".jpg" || ext == ".jpeg" {
			mime = "image/jpeg"
		}
		cb("data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(raw))
	}, win)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg"}))
	fd.Show()
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v
}
