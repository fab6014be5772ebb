package params

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"tracker-studio/internal/model"
)

// Controls holds the live value of every control. The zero value is not
// usable; call New.
type Controls struct {
	values map[string]string
}

func New() *Controls {
	c := &Controls{values: make(map[string]string, len(specs))}
	for _, s := range specs {
		c.values[s.Key] = s.Default
	}
	return c
}

// FromParameters seeds controls from a previously collected set, validating
// each value the same way an edit would.
func FromParameters(p model.RenderParameters) (*Controls, error) {
	c := New()
	for _, f := range p.FormFields() {
		if f.Value == "" || f.Value == "0" {
			continue
		}
		if err := c.Set(f.Name, f.Value); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Controls) Get(key string) string {
	return c.values[key]
}

// Display renders a value the way the UI echoes it, e.g. "2px".
func (c *Controls) Display(key string) string {
	s, ok := Lookup(key)
	if !ok {
		return ""
	}
	v := c.values[key]
	if s.Kind == KindRange && s.Suffix != "" {
		return v + s.Suffix
	}
	return v
}

// Set applies an edit. Range values are clamped into bounds; select and
// color values must be valid.
func (c *Controls) Set(key, raw string) error {
	s, ok := Lookup(key)
	if !ok {
		return fmt.Errorf("unknown control %q", key)
	}
	switch s.Kind {
	case KindSelect:
		v, ok := matchOption(s.Options, raw)
		if !ok {
			return fmt.Errorf("%s must be one of: %s", s.Key, strings.Join(s.Options, ", "))
		}
		c.values[key] = v
	case KindColor:
		v, err := NormalizeColor(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", s.Key, err)
		}
		c.values[key] = v
	case KindRange:
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), s.Suffix)))
		if err != nil {
			return fmt.Errorf("%s must be an integer", s.Key)
		}
		c.values[key] = strconv.Itoa(clampInt(n, s.Min, s.Max))
	case KindText:
		c.values[key] = raw
	}
	return nil
}

// Step cycles a select control or nudges a range control by delta.
func (c *Controls) Step(key string, delta int) {
	s, ok := Lookup(key)
	if !ok || delta == 0 {
		return
	}
	switch s.Kind {
	case KindSelect:
		idx := 0
		for i, o := range s.Options {
			if o == c.values[key] {
				idx = i
				break
			}
		}
		n := len(s.Options)
		idx = ((idx+delta)%n + n) % n
		c.values[key] = s.Options[idx]
	case KindRange:
		cur, err := strconv.Atoi(c.values[key])
		if err != nil {
			cur, _ = strconv.Atoi(s.Default)
		}
		c.values[key] = strconv.Itoa(clampInt(cur+delta, s.Min, s.Max))
	}
}

// Apply sets several controls at once. Keys are applied in sorted order so
// errors are deterministic.
func (c *Controls) Apply(values map[string]string) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := c.Set(k, values[k]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controls) CustomTextVisible() bool {
	return c.values[model.FieldLabelType] == LabelCustom
}

// Collect reads every control into a fresh RenderParameters. It never
// fails; empty selects and colors fall back to their defaults.
func (c *Controls) Collect() model.RenderParameters {
	get := func(key string) string {
		v := c.values[key]
		if v != "" {
			return v
		}
		s, _ := Lookup(key)
		return s.Default
	}
	num := func(key string) int {
		s, _ := Lookup(key)
		n, err := strconv.Atoi(get(key))
		if err != nil {
			n, _ = strconv.Atoi(s.Default)
		}
		return clampInt(n, s.Min, s.Max)
	}
	return model.RenderParameters{
		Shape:           get(model.FieldShape),
		BoxColor:        get(model.FieldBoxColor),
		StrokeWidth:     num(model.FieldStrokeWidth),
		Connection:      get(model.FieldConnection),
		ConnectionColor: get(model.FieldConnColor),
		LabelType:       get(model.FieldLabelType),
		CustomText:      c.values[model.FieldCustomText],
		TextColor:       get(model.FieldTextColor),
		MaxBlobs:        num(model.FieldMaxBlobs),
		MinBlobSize:     num(model.FieldMinSize),
	}
}

func matchOption(options []string, raw string) (string, bool) {
	v := strings.TrimSpace(raw)
	for _, o := range options {
		if strings.EqualFold(o, v) {
			return o, true
		}
	}
	return "", false
}

// NormalizeColor accepts #rrggbb, rrggbb or #rgb and returns lowercase #rrggbb.
func NormalizeColor(raw string) (string, error) {
	v := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(raw), "#"))
	if len(v) == 3 {
		v = string([]byte{v[0], v[0], v[1], v[1], v[2], v[2]})
	}
	if len(v) != 6 {
		return "", fmt.Errorf("invalid color %q (want #rrggbb)", raw)
	}
	if _, err := strconv.ParseUint(v, 16, 32); err != nil {
		return "", fmt.Errorf("invalid color %q (want #rrggbb)", raw)
	}
	return "#" + v, nil
}

func clampInt(v, minV, maxV int) int {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}
