// Package annotation defines the markup entity set: the tagged union of
// annotation kinds, their validation rules, and the ordered collection
// that holds them. Coordinates are always page-content coordinates (the
// fixed render scale of the page bitmap), never screen pixels.
package annotation

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"pdf-marker/pkg/geometry"
)

// Kind discriminates the annotation union. The wire names match the
// flattening backend's vocabulary.
type Kind int

const (
	KindText Kind = iota
	KindDrawing
	KindSignature
	KindRectangle
	KindLine
	KindHighlight
	KindImage
	KindCheckbox
	KindCircle
	KindArrow
	KindDate
	KindStamp
	KindStrikethrough
	KindInitials
	KindRadio
	KindSignedStamp
	KindWatermark
)

var kindNames = map[Kind]string{
	KindText:          "text",
	KindDrawing:       "drawing",
	KindSignature:     "signature",
	KindRectangle:     "rectangle",
	KindLine:          "line",
	KindHighlight:     "highlight",
	KindImage:         "image",
	KindCheckbox:      "checkbox",
	KindCircle:        "circle",
	KindArrow:         "arrow",
	KindDate:          "date",
	KindStamp:         "stamp",
	KindStrikethrough: "strikethrough",
	KindInitials:      "initials",
	KindRadio:         "radio",
	KindSignedStamp:   "signed_stamp",
	KindWatermark:     "watermark",
}

var kindValues = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, n := range kindNames {
		m[n] = k
	}
	// Accepted alias used by older frontend builds.
	m["signedStamp"] = KindSignedStamp
	return m
}()

// String returns the wire name of the kind.
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// MarshalJSON encodes the kind as its wire name.
func (k Kind) MarshalJSON() ([]byte, error) {
	n, ok := kindNames[k]
	if !ok {
		return nil, errors.Errorf("unknown annotation kind %d", int(k))
	}
	return json.Marshal(n)
}

// UnmarshalJSON decodes a wire name into a kind.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var n string
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	v, ok := kindValues[n]
	if !ok {
		return errors.Errorf("unknown annotation type %q", n)
	}
	*k = v
	return nil
}

// StrokePath is one continuous freehand stroke.
type StrokePath struct {
	Points []geometry.Point2D `json:"points"`
}

// Annotation is one markup entity. A single flat record carries every
// variant's payload; Kind decides which fields are meaningful, and
// Validate enforces the per-kind rules. The JSON tags are exactly what
// the flattening endpoint consumes.
type Annotation struct {
	ID   string `json:"id"`
	Kind Kind   `json:"type"`
	Page int    `json:"page"`

	// Bounding box in content coordinates. Width and Height are
	// positive for every committed annotation.
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	// Text, date and stamp text payloads.
	Text       string  `json:"text,omitempty"`
	FontFamily string  `json:"fontFamily,omitempty"`
	FontSize   float64 `json:"fontSize,omitempty"`
	Bold       bool    `json:"bold,omitempty"`
	Italic     bool    `json:"italic,omitempty"`

	// Stroke styling shared by drawing and shape kinds.
	Color       string  `json:"color,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	Fill        string  `json:"fill,omitempty"`

	// Freehand drawing strokes.
	Paths []StrokePath `json:"paths,omitempty"`

	// Line and arrow endpoints. Emitted unconditionally because a zero
	// coordinate is a legitimate endpoint.
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`

	// Embedded raster payload (data URL) for signature, initials,
	// image, signed stamp and image watermarks.
	Data string `json:"data,omitempty"`

	// Form widget state.
	Checked bool   `json:"checked,omitempty"`
	GroupID string `json:"groupId,omitempty"`

	// Stamp styling.
	StampType   string  `json:"stampType,omitempty"`
	CustomText  string  `json:"customText,omitempty"`
	Rotation    float64 `json:"rotation,omitempty"`
	IsDashed    bool    `json:"isDashed,omitempty"`
	Shape       string  `json:"shape,omitempty"`
	TextLayout  string  `json:"textLayout,omitempty"`
	BorderStyle string  `json:"borderStyle,omitempty"`
	Opacity     float64 `json:"opacity,omitempty"`

	// Watermark content.
	ContentType string `json:"contentType,omitempty"`
	Content     string `json:"content,omitempty"`
}

// New creates an annotation of the given kind with a fresh id at the
// given page and bounds. Payload fields are filled in by the caller
// before Validate.
func New(kind Kind, page int, bounds geometry.Rect) Annotation {
	return Annotation{
		ID:     uuid.NewString(),
		Kind:   kind,
		Page:   page,
		X:      bounds.X,
		Y:      bounds.Y,
		Width:  bounds.Width,
		Height: bounds.Height,
	}
}

// Bounds returns the bounding box in content coordinates.
func (a *Annotation) Bounds() geometry.Rect {
	return geometry.Rect{X: a.X, Y: a.Y, Width: a.Width, Height: a.Height}
}

// SetBounds replaces the bounding box. Line endpoints follow the box so
// moving or resizing a line keeps its geometry consistent.
func (a *Annotation) SetBounds(r geometry.Rect) {
	if a.Kind == KindLine || a.Kind == KindArrow {
		old := a.Bounds()
		sx, sy := 1.0, 1.0
		if old.Width > 0 {
			sx = r.Width / old.Width
		}
		if old.Height > 0 {
			sy = r.Height / old.Height
		}
		a.X1 = r.X + (a.X1-old.X)*sx
		a.Y1 = r.Y + (a.Y1-old.Y)*sy
		a.X2 = r.X + (a.X2-old.X)*sx
		a.Y2 = r.Y + (a.Y2-old.Y)*sy
	}
	if a.Kind == KindDrawing {
		old := a.Bounds()
		sx, sy := 1.0, 1.0
		if old.Width > 0 {
			sx = r.Width / old.Width
		}
		if old.Height > 0 {
			sy = r.Height / old.Height
		}
		for pi := range a.Paths {
			for i, p := range a.Paths[pi].Points {
				a.Paths[pi].Points[i] = geometry.Point2D{
					X: r.X + (p.X-old.X)*sx,
					Y: r.Y + (p.Y-old.Y)*sy,
				}
			}
		}
	}
	a.X = r.X
	a.Y = r.Y
	a.Width = r.Width
	a.Height = r.Height
}

// Clone returns a deep copy, including stroke paths.
func (a Annotation) Clone() Annotation {
	c := a
	if len(a.Paths) > 0 {
		c.Paths = make([]StrokePath, len(a.Paths))
		for i, p := range a.Paths {
			pts := make([]geometry.Point2D, len(p.Points))
			copy(pts, p.Points)
			c.Paths[i] = StrokePath{Points: pts}
		}
	}
	return c
}

// HasRasterPayload reports whether the annotation embeds an image that
// must be decoded before it can be painted.
func (a *Annotation) HasRasterPayload() bool {
	switch a.Kind {
	case KindSignature, KindInitials, KindImage, KindSignedStamp:
		return a.Data != ""
	case KindWatermark:
		return a.ContentType == "image" && (a.Data != "" || a.Content != "")
	default:
		return false
	}
}

// RasterPayload returns the embedded data URL, if any.
func (a *Annotation) RasterPayload() string {
	if a.Kind == KindWatermark {
		if a.Data != "" {
			return a.Data
		}
		return a.Content
	}
	return a.Data
}

// Validate checks the per-kind required fields. The bounding box must
// be positive for every kind; variant payloads have their own rules.
func (a *Annotation) Validate() error {
	if a.ID == "" {
		return errors.New("annotation has no id")
	}
	if a.Page < 1 {
		return errors.Errorf("annotation %s: page %d is not 1-based", a.ID, a.Page)
	}
	if a.Width <= 0 || a.Height <= 0 {
		return errors.Errorf("annotation %s: non-positive bounds %gx%g", a.ID, a.Width, a.Height)
	}

	switch a.Kind {
	case KindText, KindDate:
		if a.FontFamily == "" {
			return errors.Errorf("%s annotation %s: missing font family", a.Kind, a.ID)
		}
		if a.FontSize <= 0 {
			return errors.Errorf("%s annotation %s: font size must be positive", a.Kind, a.ID)
		}
	case KindDrawing:
		if len(a.Paths) == 0 {
			return errors.Errorf("drawing annotation %s: no stroke paths", a.ID)
		}
		for i, p := range a.Paths {
			if len(p.Points) == 0 {
				return errors.Errorf("drawing annotation %s: path %d is empty", a.ID, i)
			}
		}
	case KindSignature, KindInitials, KindImage, KindSignedStamp:
		if a.Data == "" {
			return errors.Errorf("%s annotation %s: missing image data", a.Kind, a.ID)
		}
	case KindRadio:
		if a.GroupID == "" {
			return errors.Errorf("radio annotation %s: missing group id", a.ID)
		}
	case KindStamp:
		if a.StampType == "custom" && strings.TrimSpace(a.CustomText) == "" {
			return errors.Errorf("stamp annotation %s: custom stamp has no text", a.ID)
		}
	case KindWatermark:
		switch a.ContentType {
		case "text":
			if strings.TrimSpace(a.Content) == "" {
				return errors.Errorf("watermark annotation %s: empty text", a.ID)
			}
		case "image":
			if a.Data == "" && a.Content == "" {
				return errors.Errorf("watermark annotation %s: missing image", a.ID)
			}
		default:
			return errors.Errorf("watermark annotation %s: unknown content type %q", a.ID, a.ContentType)
		}
	case KindRectangle, KindLine, KindHighlight, KindCheckbox, KindCircle, KindArrow, KindStrikethrough:
		// Bounding box checks above are sufficient.
	default:
		return errors.Errorf("annotation %s: unknown kind %d", a.ID, int(a.Kind))
	}
	return nil
}
