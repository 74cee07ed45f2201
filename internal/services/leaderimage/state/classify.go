package state

import (
	"fmt"
	"strings"
)

// Classify derives a coarse state from a diplomatic relationship signal.
//
// War always wins. Otherwise the signal's text is matched by substring so
// relationship tiers added upstream still land in one of the three buckets;
// UNFRIENDLY is checked before FRIENDLY because it contains it.
func Classify(relationship any, atWar bool) Name {
	if atWar {
		return Hostile
	}
	text := signalText(relationship)
	switch {
	case strings.Contains(text, "HOSTILE"), strings.Contains(text, "UNFRIENDLY"):
		return Hostile
	case strings.Contains(text, "FRIENDLY"), strings.Contains(text, "HELPFUL"):
		return Friendly
	default:
		return Neutral
	}
}

func signalText(relationship any) string {
	switch value := relationship.(type) {
	case nil:
		return ""
	case string:
		return value
	case fmt.Stringer:
		return value.String()
	default:
		return fmt.Sprint(value)
	}
}
