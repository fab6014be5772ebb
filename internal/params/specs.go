package params

import "tracker-studio/internal/model"

type Kind string

const (
	KindSelect Kind = "select"
	KindColor  Kind = "color"
	KindRange  Kind = "range"
	KindText   Kind = "text"
)

const (
	ShapeRectangle = "Basic Rectangle"
	ShapeCircle    = "Circle"
	ShapeLFrame    = "L-Frame"
	ShapeCrosshair = "Crosshair"

	ConnectionNone       = "None"
	ConnectionSequential = "Sequential (Line)"
	ConnectionHub        = "Central Hub"

	LabelNone   = "none"
	LabelIndex  = "index"
	LabelCustom = "custom"
)

// Spec describes one user-facing control. Key doubles as the wire field name.
type Spec struct {
	Key     string   `json:"key"`
	Label   string   `json:"label"`
	Help    string   `json:"help,omitempty"`
	Kind    Kind     `json:"kind"`
	Options []string `json:"options,omitempty"`
	Min     int      `json:"min,omitempty"`
	Max     int      `json:"max,omitempty"`
	Suffix  string   `json:"suffix,omitempty"`
	Default string   `json:"default"`
}

var specs = []Spec{
	{
		Key:     model.FieldShape,
		Label:   "Tracking shape",
		Kind:    KindSelect,
		Options: []string{ShapeRectangle, ShapeCircle, ShapeLFrame, ShapeCrosshair},
		Default: ShapeRectangle,
	},
	{
		Key:     model.FieldBoxColor,
		Label:   "Box color",
		Kind:    KindColor,
		Default: "#00ff00",
	},
	{
		Key:     model.FieldStrokeWidth,
		Label:   "Stroke width",
		Kind:    KindRange,
		Min:     1,
		Max:     10,
		Suffix:  "px",
		Default: "2",
	},
	{
		Key:     model.FieldConnection,
		Label:   "Connection",
		Help:    "How tracked objects are linked",
		Kind:    KindSelect,
		Options: []string{ConnectionNone, ConnectionSequential, ConnectionHub},
		Default: ConnectionNone,
	},
	{
		Key:     model.FieldConnColor,
		Label:   "Connection color",
		Kind:    KindColor,
		Default: "#ff9600",
	},
	{
		Key:     model.FieldLabelType,
		Label:   "Label type",
		Kind:    KindSelect,
		Options: []string{LabelNone, LabelIndex, LabelCustom},
		Default: LabelNone,
	},
	{
		Key:   model.FieldCustomText,
		Label: "Custom text",
		Help:  "Only used when label type is custom",
		Kind:  KindText,
	},
	{
		Key:     model.FieldTextColor,
		Label:   "Text color",
		Kind:    KindColor,
		Default: "#ffffff",
	},
	{
		Key:     model.FieldMaxBlobs,
		Label:   "Max objects",
		Kind:    KindRange,
		Min:     1,
		Max:     128,
		Default: "32",
	},
	{
		Key:     model.FieldMinSize,
		Label:   "Min blob size",
		Kind:    KindRange,
		Min:     16,
		Max:     256,
		Suffix:  "px",
		Default: "64",
	},
}

// Specs returns the controls in display and wire order.
func Specs() []Spec {
	out := make([]Spec, len(specs))
	copy(out, specs)
	return out
}

func Lookup(key string) (Spec, bool) {
	for _, s := range specs {
		if s.Key == key {
			return s, true
		}
	}
	return Spec{}, false
}

// CanonicalOption maps a case-insensitive select value onto its option.
func CanonicalOption(key, raw string) (string, bool) {
	s, ok := Lookup(key)
	if !ok || s.Kind != KindSelect {
		return "", false
	}
	return matchOption(s.Options, raw)
}
