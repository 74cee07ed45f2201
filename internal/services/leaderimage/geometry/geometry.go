// Package geometry resolves where and how large a leader image is drawn on
// each screen surface.
//
// Resolution merges by specificity: a leader's override for the canonical
// surface, then the surface default, then a hardcoded fallback. Each field
// resolves on its own so partial overrides inherit the rest.
package geometry

import (
	"math"
	"strings"
)

// Surface names one screen that can host a leader image.
type Surface string

const (
	SetupPanels      Surface = "setup-panels"
	LeaderSelect     Surface = "leader-select"
	Diplomacy        Surface = "diplomacy"
	DiplomacyMeeting Surface = "diplomacy-meeting"
	LoadingScreen    Surface = "loading-screen"
	EndGame          Surface = "end-game"
)

// Position anchors the image inside its surface.
type Position string

const (
	PositionCenter Position = "center"
	PositionLeft   Position = "left"
	PositionRight  Position = "right"
	PositionTop    Position = "top"
	PositionBottom Position = "bottom"
)

// Override field names as they appear in registration options.
const (
	FieldWidthMultiplier      = "widthMultiplier"
	FieldLeftOffsetMultiplier = "leftOffsetMultiplier"
	FieldTopOffsetMultiplier  = "topOffsetMultiplier"
	FieldPosition             = "position"
)

// Config is a fully resolved geometry.
type Config struct {
	WidthMultiplier      float64  `json:"widthMultiplier"`
	LeftOffsetMultiplier float64  `json:"leftOffsetMultiplier"`
	TopOffsetMultiplier  float64  `json:"topOffsetMultiplier"`
	Position             Position `json:"position"`
}

// Override holds the fields a leader sets for one surface. Nil or empty
// fields inherit.
type Override struct {
	WidthMultiplier      *float64 `json:"widthMultiplier,omitempty"`
	LeftOffsetMultiplier *float64 `json:"leftOffsetMultiplier,omitempty"`
	TopOffsetMultiplier  *float64 `json:"topOffsetMultiplier,omitempty"`
	Position             Position `json:"position,omitempty"`
}

// Fallback is used for any field neither a leader nor the surface defines.
var Fallback = Config{
	WidthMultiplier:      1,
	LeftOffsetMultiplier: 0,
	TopOffsetMultiplier:  0,
	Position:             PositionCenter,
}

var surfaceAliases = map[string]Surface{
	"age-select": SetupPanels,
	"civ-select": SetupPanels,
	"game-setup": SetupPanels,
}

var surfaceDefaults = map[Surface]Override{
	SetupPanels:      {WidthMultiplier: float(0.9), LeftOffsetMultiplier: float(0.05), TopOffsetMultiplier: float(0.1), Position: PositionRight},
	LeaderSelect:     {WidthMultiplier: float(1), TopOffsetMultiplier: float(0.05), Position: PositionCenter},
	Diplomacy:        {WidthMultiplier: float(0.8), LeftOffsetMultiplier: float(0.1), Position: PositionLeft},
	DiplomacyMeeting: {WidthMultiplier: float(0.7), LeftOffsetMultiplier: float(0.15), TopOffsetMultiplier: float(0.05)},
	LoadingScreen:    {WidthMultiplier: float(1.1), LeftOffsetMultiplier: float(-0.05), Position: PositionLeft},
	EndGame:          {WidthMultiplier: float(0.85), TopOffsetMultiplier: float(0.1), Position: PositionCenter},
}

var positions = map[Position]struct{}{
	PositionCenter: {},
	PositionLeft:   {},
	PositionRight:  {},
	PositionTop:    {},
	PositionBottom: {},
}

// Canonical resolves aliases and trims whitespace. The second result reports
// whether the surface is recognized.
func Canonical(raw string) (Surface, bool) {
	name := strings.TrimSpace(raw)
	if alias, ok := surfaceAliases[name]; ok {
		return alias, true
	}
	surface := Surface(name)
	_, ok := surfaceDefaults[surface]
	return surface, ok
}

// Surfaces returns the canonical surfaces.
func Surfaces() []Surface {
	return []Surface{SetupPanels, LeaderSelect, Diplomacy, DiplomacyMeeting, LoadingScreen, EndGame}
}

// Defaults returns the resolved default geometry for a surface.
func Defaults(surface string) Config {
	return Resolve(nil, surface)
}

// Resolve merges a leader's overrides over the surface defaults for surface.
func Resolve(overrides map[Surface]Override, surface string) Config {
	canonical, _ := Canonical(surface)
	leader := overrides[canonical]
	defaults := surfaceDefaults[canonical]

	return Config{
		WidthMultiplier:      pick(leader.WidthMultiplier, defaults.WidthMultiplier, Fallback.WidthMultiplier),
		LeftOffsetMultiplier: pick(leader.LeftOffsetMultiplier, defaults.LeftOffsetMultiplier, Fallback.LeftOffsetMultiplier),
		TopOffsetMultiplier:  pick(leader.TopOffsetMultiplier, defaults.TopOffsetMultiplier, Fallback.TopOffsetMultiplier),
		Position:             pickPosition(leader.Position, defaults.Position, Fallback.Position),
	}
}

// ValidPosition reports whether p is a recognized anchor.
func ValidPosition(p Position) bool {
	_, ok := positions[p]
	return ok
}

// Finite reports whether v can be used as a multiplier.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Empty reports whether the override sets no field.
func (o Override) Empty() bool {
	return o.WidthMultiplier == nil && o.LeftOffsetMultiplier == nil && o.TopOffsetMultiplier == nil && o.Position == ""
}

// Clone returns a deep copy.
func (o Override) Clone() Override {
	return Override{
		WidthMultiplier:      cloneFloat(o.WidthMultiplier),
		LeftOffsetMultiplier: cloneFloat(o.LeftOffsetMultiplier),
		TopOffsetMultiplier:  cloneFloat(o.TopOffsetMultiplier),
		Position:             o.Position,
	}
}

func pick(leader, surface *float64, fallback float64) float64 {
	for _, v := range []*float64{leader, surface} {
		if v != nil && Finite(*v) {
			return *v
		}
	}
	return fallback
}

func pickPosition(values ...Position) Position {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return PositionCenter
}

func float(v float64) *float64 {
	return &v
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
