package geometry

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ParseOverride converts a loosely typed field map into an Override.
//
// Each field is validated on its own: non-numeric or non-finite multipliers,
// unknown positions and unknown field names are dropped and reported by name
// in the second result. The remaining fields are kept.
func ParseOverride(raw map[string]any) (Override, []string) {
	var (
		out     Override
		dropped []string
	)
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := raw[key]
		switch strings.TrimSpace(key) {
		case FieldWidthMultiplier:
			if out.WidthMultiplier = finiteNumber(value); out.WidthMultiplier == nil {
				dropped = append(dropped, key)
			}
		case FieldLeftOffsetMultiplier:
			if out.LeftOffsetMultiplier = finiteNumber(value); out.LeftOffsetMultiplier == nil {
				dropped = append(dropped, key)
			}
		case FieldTopOffsetMultiplier:
			if out.TopOffsetMultiplier = finiteNumber(value); out.TopOffsetMultiplier == nil {
				dropped = append(dropped, key)
			}
		case FieldPosition:
			text, ok := value.(string)
			position := Position(strings.ToLower(strings.TrimSpace(text)))
			if !ok || !ValidPosition(position) {
				dropped = append(dropped, key)
				continue
			}
			out.Position = position
		default:
			dropped = append(dropped, key)
		}
	}
	return out, dropped
}

// Sanitize drops non-finite multipliers and unknown positions from an
// already typed override, reporting the dropped field names.
func Sanitize(o Override) (Override, []string) {
	out := o.Clone()
	var dropped []string
	if out.WidthMultiplier != nil && !Finite(*out.WidthMultiplier) {
		out.WidthMultiplier = nil
		dropped = append(dropped, FieldWidthMultiplier)
	}
	if out.LeftOffsetMultiplier != nil && !Finite(*out.LeftOffsetMultiplier) {
		out.LeftOffsetMultiplier = nil
		dropped = append(dropped, FieldLeftOffsetMultiplier)
	}
	if out.TopOffsetMultiplier != nil && !Finite(*out.TopOffsetMultiplier) {
		out.TopOffsetMultiplier = nil
		dropped = append(dropped, FieldTopOffsetMultiplier)
	}
	if out.Position != "" {
		out.Position = Position(strings.ToLower(strings.TrimSpace(string(out.Position))))
		if !ValidPosition(out.Position) {
			out.Position = ""
			dropped = append(dropped, FieldPosition)
		}
	}
	return out, dropped
}

func finiteNumber(value any) *float64 {
	var number float64
	switch v := value.(type) {
	case float64:
		number = v
	case float32:
		number = float64(v)
	case int:
		number = float64(v)
	case int64:
		number = float64(v)
	case int32:
		number = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return nil
		}
		number = parsed
	default:
		return nil
	}
	if !Finite(number) {
		return nil
	}
	return &number
}

// String renders the override for diagnostics.
func (o Override) String() string {
	parts := make([]string, 0, 4)
	if o.WidthMultiplier != nil {
		parts = append(parts, fmt.Sprintf("%s=%g", FieldWidthMultiplier, *o.WidthMultiplier))
	}
	if o.LeftOffsetMultiplier != nil {
		parts = append(parts, fmt.Sprintf("%s=%g", FieldLeftOffsetMultiplier, *o.LeftOffsetMultiplier))
	}
	if o.TopOffsetMultiplier != nil {
		parts = append(parts, fmt.Sprintf("%s=%g", FieldTopOffsetMultiplier, *o.TopOffsetMultiplier))
	}
	if o.Position != "" {
		parts = append(parts, fmt.Sprintf("%s=%s", FieldPosition, o.Position))
	}
	return "{" + strings.Join(parts, " ") + "}"
}
