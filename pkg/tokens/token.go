// Package tokens extracts categorized design tokens (colors, typography,
// spacing, radii, shadows and named styles) from a Figma document tree.
package tokens

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Kind is the token family.
type Kind string

const (
	KindColor        Kind = "color"
	KindTypography   Kind = "typography"
	KindSpacing      Kind = "spacing"
	KindBorderRadius Kind = "borderRadius"
	KindShadow       Kind = "shadow"
	KindEffect       Kind = "effect"
)

// Valid reports whether k is a declared kind.
func (k Kind) Valid() bool {
	switch k {
	case KindColor, KindTypography, KindSpacing, KindBorderRadius, KindShadow, KindEffect:
		return true
	}
	return false
}

// Typography is the value of a typography token. Every field is always set.
type Typography struct {
	FontFamily string  `json:"fontFamily"`
	FontSize   float64 `json:"fontSize"`
	FontWeight float64 `json:"fontWeight"`
	LineHeight float64 `json:"lineHeight"`
	Align      string  `json:"align"`
}

// Spacing is the value of a spacing token, in pixels.
type Spacing struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// CSS returns the "top right bottom left" shorthand.
func (s Spacing) CSS() string {
	return px(s.Top) + " " + px(s.Right) + " " + px(s.Bottom) + " " + px(s.Left)
}

// Value holds the kind-specific payload of a token. Exactly one field is set
// for a resolved token; all are empty for an unresolved style placeholder.
type Value struct {
	Color      string      // KindColor: #RRGGBB or #RRGGBBAA
	Typography *Typography // KindTypography
	Spacing    *Spacing    // KindSpacing
	Number     *float64    // KindBorderRadius, in pixels
	Text       string      // KindShadow and KindEffect: formatted CSS-like string
}

// IsZero reports whether no payload is set.
func (v Value) IsZero() bool {
	return v.Color == "" && v.Typography == nil && v.Spacing == nil && v.Number == nil && v.Text == ""
}

// String renders the value the way a stylesheet would use it.
func (v Value) String() string {
	switch {
	case v.Color != "":
		return v.Color
	case v.Typography != nil:
		t := v.Typography
		return fmt.Sprintf("%s %s/%s %s", strconv.FormatFloat(t.FontWeight, 'f', -1, 64), px(t.FontSize), px(t.LineHeight), quoteFont(t.FontFamily))
	case v.Spacing != nil:
		return v.Spacing.CSS()
	case v.Number != nil:
		return px(*v.Number)
	default:
		return v.Text
	}
}

// DesignToken is a named, categorized design value extracted from a file.
// ID is stable across runs for the same source and unique per FileID.
type DesignToken struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Kind         Kind      `json:"kind"`
	Value        Value     `json:"-"`
	Category     string    `json:"category"`
	FileID       string    `json:"fileId"`
	NodeID       string    `json:"nodeId,omitempty"`
	StyleID      string    `json:"styleId,omitempty"`
	Description  string    `json:"description,omitempty"`
	Unresolved   bool      `json:"unresolved,omitempty"`
	LastModified time.Time `json:"lastModified"`
}

type tokenJSON DesignToken

type tokenWire struct {
	tokenJSON
	Value json.RawMessage `json:"value"`
}

// MarshalJSON writes the value in its kind-specific shape: a hex string,
// a typography or spacing object, a number, or a formatted string.
func (t DesignToken) MarshalJSON() ([]byte, error) {
	var (
		raw []byte
		err error
	)
	switch {
	case t.Value.IsZero():
		raw = []byte("null")
	case t.Kind == KindColor:
		raw, err = json.Marshal(t.Value.Color)
	case t.Kind == KindTypography:
		raw, err = json.Marshal(t.Value.Typography)
	case t.Kind == KindSpacing:
		raw, err = json.Marshal(t.Value.Spacing)
	case t.Kind == KindBorderRadius:
		raw, err = json.Marshal(t.Value.Number)
	default:
		raw, err = json.Marshal(t.Value.Text)
	}
	if err != nil {
		return nil, fmt.Errorf("marshal value of token %s: %w", t.ID, err)
	}

	return json.Marshal(tokenWire{tokenJSON: tokenJSON(t), Value: raw})
}

// UnmarshalJSON decodes the value according to the token kind.
func (t *DesignToken) UnmarshalJSON(data []byte) error {
	var w tokenWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*t = DesignToken(w.tokenJSON)
	t.Value = Value{}

	if len(w.Value) == 0 || string(w.Value) == "null" {
		return nil
	}

	var err error
	switch t.Kind {
	case KindColor:
		err = json.Unmarshal(w.Value, &t.Value.Color)
	case KindTypography:
		t.Value.Typography = new(Typography)
		err = json.Unmarshal(w.Value, t.Value.Typography)
	case KindSpacing:
		t.Value.Spacing = new(Spacing)
		err = json.Unmarshal(w.Value, t.Value.Spacing)
	case KindBorderRadius:
		t.Value.Number = new(float64)
		err = json.Unmarshal(w.Value, t.Value.Number)
	default:
		err = json.Unmarshal(w.Value, &t.Value.Text)
	}
	if err != nil {
		return fmt.Errorf("decode value of token %s (%s): %w", t.ID, t.Kind, err)
	}
	return nil
}

func px(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}

func quoteFont(family string) string {
	return "'" + family + "'"
}
