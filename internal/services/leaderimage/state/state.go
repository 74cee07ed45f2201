// Package state defines the diplomatic emotional states a leader image can be
// shown in, the filename suffix conventions for each state, and the fallback
// order used when a state has no dedicated image.
package state

import "strings"

// Name identifies one diplomatic emotional state.
type Name string

const (
	Neutral          Name = "neutral"
	Friendly         Name = "friendly"
	Hostile          Name = "hostile"
	ResponsePositive Name = "response_positive"
	ResponseNegative Name = "response_negative"
	Meeting          Name = "meeting"
	DeclaringWar     Name = "declaring_war"
	Defeated         Name = "defeated"
	AcceptingPeace   Name = "accepting_peace"
	RejectingPeace   Name = "rejecting_peace"
)

// All lists the recognized states in declaration order.
var All = []Name{
	Neutral,
	Friendly,
	Hostile,
	ResponsePositive,
	ResponseNegative,
	Meeting,
	DeclaringWar,
	Defeated,
	AcceptingPeace,
	RejectingPeace,
}

// suffixTemplates maps each state to filename suffixes in priority order.
var suffixTemplates = map[Name][]string{
	Neutral:          {},
	Friendly:         {"_happy", "_friendly", "_pleased"},
	Hostile:          {"_angry", "_hostile", "_unfriendly"},
	ResponsePositive: {"_happy", "_positive", "_pleased"},
	ResponseNegative: {"_angry", "_negative", "_displeased"},
	Meeting:          {"_meeting", "_greeting"},
	DeclaringWar:     {"_angry", "_hostile", "_war", "_declaring_war"},
	Defeated:         {"_defeated", "_sad", "_defeat"},
	AcceptingPeace:   {"_happy", "_peace", "_accepting_peace"},
	RejectingPeace:   {"_angry", "_rejecting_peace"},
}

// fallbackChains maps each state to the states tried in turn. Every chain
// ends in Neutral.
var fallbackChains = map[Name][]Name{
	Neutral:          {Neutral},
	Friendly:         {Friendly, Neutral},
	Hostile:          {Hostile, Neutral},
	ResponsePositive: {ResponsePositive, Friendly, Neutral},
	ResponseNegative: {ResponseNegative, Hostile, Neutral},
	Meeting:          {Meeting, Neutral},
	DeclaringWar:     {DeclaringWar, Hostile, Neutral},
	Defeated:         {Defeated, Hostile, Neutral},
	AcceptingPeace:   {AcceptingPeace, Friendly, Neutral},
	RejectingPeace:   {RejectingPeace, Hostile, Neutral},
}

// Parse returns the recognized state for raw, ignoring surrounding whitespace.
func Parse(raw string) (Name, bool) {
	name := Name(strings.TrimSpace(raw))
	if _, ok := fallbackChains[name]; !ok {
		return "", false
	}
	return name, true
}

// Valid reports whether n is one of the recognized states.
func (n Name) Valid() bool {
	_, ok := fallbackChains[n]
	return ok
}

// String returns the state's wire name.
func (n Name) String() string {
	return string(n)
}

// Suffixes returns a copy of the filename suffixes for n, highest priority
// first. Unrecognized states and Neutral have none.
func Suffixes(n Name) []string {
	return append([]string(nil), suffixTemplates[n]...)
}

// PrimarySuffix returns the highest-priority suffix for n.
func PrimarySuffix(n Name) (string, bool) {
	suffixes := suffixTemplates[n]
	if len(suffixes) == 0 {
		return "", false
	}
	return suffixes[0], true
}

// FallbackChain returns the ordered states to try for n. A state outside the
// recognized set gets the two-link chain [n, neutral].
func FallbackChain(n Name) []Name {
	if chain, ok := fallbackChains[n]; ok {
		return append([]Name(nil), chain...)
	}
	return []Name{n, Neutral}
}
