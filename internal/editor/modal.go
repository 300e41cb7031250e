package editor

import (
	"strings"

	"github.com/pkg/errors"

	"pdf-marker/internal/annotation"
	"pdf-marker/pkg/geometry"
)

// StampConfig is the dialog result for stamp placement.
type StampConfig struct {
	StampType  string // approved, draft, confidential, paid, rejected, final, copy, void, custom
	CustomText string
	Color      string
	Shape      string // box or circle
	Rotation   float64
	Dashed     bool
	TextLayout string // straight or curved
}

// SignedStampConfig is the dialog result for a signed stamp: stamp
// styling plus the captured signature image.
type SignedStampConfig struct {
	StampConfig
	Data  string // signature data URL
	Style string // official or classic
}

// DateConfig is the dialog result for date stamp placement.
type DateConfig struct {
	Text       string // formatted date
	FontFamily string
	FontSize   float64
	Color      string
}

// WatermarkConfig is the dialog result for watermark placement.
type WatermarkConfig struct {
	ContentType string // text or image
	Text        string
	ImageData   string
	Color       string
	FontSize    float64
	Opacity     float64
	Rotation    float64
	BorderStyle string // none, solid, dashed, dotted
	Width       float64
	Height      float64
}

// CaptureConfig is the dialog result for signature/initials/image
// capture when no payload was staged on the toolbar.
type CaptureConfig struct {
	Data string // data URL
}

// ModalTool returns the tool whose configuration dialog is pending, or
// ToolSelect when none is.
func (e *Editor) ModalTool() Tool {
	if e.mode != ModeAwaitingModal {
		return ToolSelect
	}
	return e.modalTool
}

// CancelModal abandons a pending modal placement without mutating the
// collection.
func (e *Editor) CancelModal() {
	if e.mode != ModeAwaitingModal {
		return
	}
	e.mode = ModeIdle
	e.notifyChange()
}

// completeModal finalizes a modal placement: validate, append, commit,
// one-shot revert. On a validation error nothing changes and the dialog
// stays open for correction.
func (e *Editor) completeModal(a annotation.Annotation) error {
	if err := a.Validate(); err != nil {
		return err
	}
	e.mode = ModeIdle
	e.collection = e.collection.Append(a)
	e.setSelection(a.ID)
	e.commit()
	e.revertToSelect()
	return nil
}

// CompleteStamp places a stamp from the pending modal configuration.
func (e *Editor) CompleteStamp(cfg StampConfig) error {
	if e.mode != ModeAwaitingModal || e.modalTool != ToolStamp {
		return errors.New("no stamp placement pending")
	}
	if cfg.StampType == "custom" && strings.TrimSpace(cfg.CustomText) == "" {
		return errors.New("custom stamp text must not be empty")
	}

	a := annotation.New(annotation.KindStamp, e.page, stampBox(e.modalPoint))
	a.StampType = cfg.StampType
	a.CustomText = cfg.CustomText
	a.Color = nonEmpty(cfg.Color, "#16a34a")
	a.Shape = nonEmpty(cfg.Shape, "box")
	a.Rotation = cfg.Rotation
	a.IsDashed = cfg.Dashed
	a.TextLayout = nonEmpty(cfg.TextLayout, "straight")
	return e.completeModal(a)
}

// CompleteSignedStamp places a signed stamp; the signature image is
// required.
func (e *Editor) CompleteSignedStamp(cfg SignedStampConfig) error {
	if e.mode != ModeAwaitingModal || e.modalTool != ToolSignedStamp {
		return errors.New("no signed stamp placement pending")
	}
	if cfg.Data == "" {
		return errors.New("signed stamp requires a signature image")
	}

	a := annotation.New(annotation.KindSignedStamp, e.page, stampBox(e.modalPoint))
	a.Data = cfg.Data
	a.StampType = nonEmpty(cfg.Style, "official")
	a.CustomText = cfg.CustomText
	a.Color = nonEmpty(cfg.Color, "#16a34a")
	a.Shape = nonEmpty(cfg.Shape, "box")
	a.Rotation = cfg.Rotation
	a.IsDashed = cfg.Dashed
	a.TextLayout = nonEmpty(cfg.TextLayout, "straight")
	return e.completeModal(a)
}

// CompleteDate places a date stamp with the chosen formatted date.
func (e *Editor) CompleteDate(cfg DateConfig) error {
	if e.mode != ModeAwaitingModal || e.modalTool != ToolDate {
		return errors.New("no date placement pending")
	}
	if strings.TrimSpace(cfg.Text) == "" {
		return errors.New("date text must not be empty")
	}

	fontSize := cfg.FontSize
	if fontSize <= 0 {
		fontSize = e.style.FontSize
	}
	size := TextSize(cfg.Text, fontSize)
	a := annotation.New(annotation.KindDate, e.page, geometry.Rect{
		X: e.modalPoint.X, Y: e.modalPoint.Y, Width: size.Width, Height: size.Height,
	})
	a.Text = cfg.Text
	a.FontFamily = nonEmpty(cfg.FontFamily, e.style.FontFamily)
	a.FontSize = fontSize
	a.Color = nonEmpty(cfg.Color, e.style.Color)
	return e.completeModal(a)
}

// CompleteWatermark places a watermark. Text watermarks require text;
// image watermarks require an image payload.
func (e *Editor) CompleteWatermark(cfg WatermarkConfig) error {
	if e.mode != ModeAwaitingModal || e.modalTool != ToolWatermark {
		return errors.New("no watermark placement pending")
	}
	switch cfg.ContentType {
	case "text":
		if strings.TrimSpace(cfg.Text) == "" {
			return errors.New("watermark text must not be empty")
		}
	case "image":
		if cfg.ImageData == "" {
			return errors.New("watermark image must not be empty")
		}
	default:
		return errors.Errorf("unknown watermark content type %q", cfg.ContentType)
	}

	w, h := cfg.Width, cfg.Height
	if w <= 0 {
		w = 300
	}
	if h <= 0 {
		h = 100
	}
	a := annotation.New(annotation.KindWatermark, e.page, geometry.Rect{
		X: e.modalPoint.X - w/2, Y: e.modalPoint.Y - h/2, Width: w, Height: h,
	})
	a.ContentType = cfg.ContentType
	a.Content = cfg.Text
	a.Data = cfg.ImageData
	a.Color = nonEmpty(cfg.Color, "#9ca3af")
	a.FontSize = cfg.FontSize
	a.Opacity = cfg.Opacity
	if a.Opacity <= 0 {
		a.Opacity = 0.3
	}
	a.Rotation = cfg.Rotation
	a.BorderStyle = nonEmpty(cfg.BorderStyle, "none")
	return e.completeModal(a)
}

// CompleteCapture finishes a signature/initials/image capture dialog
// and places the annotation at the pending click point.
func (e *Editor) CompleteCapture(cfg CaptureConfig) error {
	if e.mode != ModeAwaitingModal {
		return errors.New("no capture pending")
	}
	switch e.modalTool {
	case ToolSignature, ToolInitials, ToolImage:
	default:
		return errors.Errorf("tool %s does not take a capture", e.modalTool)
	}
	if cfg.Data == "" {
		return errors.New("no image was captured")
	}
	tool := e.modalTool
	e.mode = ModeIdle
	e.placeStagedImage(tool, e.modalPoint, cfg.Data)
	return nil
}

// stampBox centers the default stamp bounds on the click point.
func stampBox(p geometry.Point2D) geometry.Rect {
	return geometry.Rect{
		X:      p.X - defaultStampWidth/2,
		Y:      p.Y - defaultStampHeight/2,
		Width:  defaultStampWidth,
		Height: defaultStampHeight,
	}
}

func nonEmpty(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
