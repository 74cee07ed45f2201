package geometry

import (
	"math"
	"testing"
)

func TestCanonicalAliasesSetupScreens(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"age-select", "civ-select", "game-setup", " setup-panels "} {
		got, ok := Canonical(raw)
		if !ok || got != SetupPanels {
			t.Fatalf("Canonical(%q) = %q, %v; want %q, true", raw, got, ok, SetupPanels)
		}
	}
	if _, ok := Canonical("main-menu"); ok {
		t.Fatal("expected main-menu to be unrecognized")
	}
}

func TestResolvePartialOverrideInheritsDefaults(t *testing.T) {
	t.Parallel()

	overrides := map[Surface]Override{
		SetupPanels: {WidthMultiplier: float(2)},
	}
	got := Resolve(overrides, "age-select")
	want := Defaults(string(SetupPanels))
	want.WidthMultiplier = 2
	if got != want {
		t.Fatalf("geometry = %+v, want %+v", got, want)
	}
	if got.LeftOffsetMultiplier != 0.05 {
		t.Fatalf("left offset = %v, want setup-panels default 0.05", got.LeftOffsetMultiplier)
	}
}

func TestResolveFallsBackToHardcodedConstants(t *testing.T) {
	t.Parallel()

	got := Resolve(nil, "main-menu")
	if got != Fallback {
		t.Fatalf("geometry = %+v, want fallback %+v", got, Fallback)
	}

	// diplomacy-meeting sets no position, so the fallback anchor applies.
	meeting := Resolve(nil, string(DiplomacyMeeting))
	if meeting.Position != PositionCenter {
		t.Fatalf("position = %q, want %q", meeting.Position, PositionCenter)
	}
	if meeting.WidthMultiplier != 0.7 {
		t.Fatalf("width = %v, want 0.7", meeting.WidthMultiplier)
	}
}

func TestResolveIgnoresNonFiniteOverride(t *testing.T) {
	t.Parallel()

	overrides := map[Surface]Override{
		Diplomacy: {WidthMultiplier: float(math.Inf(1)), Position: PositionRight},
	}
	got := Resolve(overrides, string(Diplomacy))
	if got.WidthMultiplier != 0.8 {
		t.Fatalf("width = %v, want default 0.8", got.WidthMultiplier)
	}
	if got.Position != PositionRight {
		t.Fatalf("position = %q, want %q", got.Position, PositionRight)
	}
}

func TestParseOverrideDropsInvalidFieldsIndividually(t *testing.T) {
	t.Parallel()

	got, dropped := ParseOverride(map[string]any{
		FieldWidthMultiplier:      1.5,
		FieldLeftOffsetMultiplier: math.NaN(),
		FieldTopOffsetMultiplier:  "high",
		FieldPosition:             "Left",
		"rotation":                90,
	})
	if got.WidthMultiplier == nil || *got.WidthMultiplier != 1.5 {
		t.Fatalf("width = %v, want 1.5", got.WidthMultiplier)
	}
	if got.LeftOffsetMultiplier != nil {
		t.Fatal("expected NaN left offset to be dropped")
	}
	if got.TopOffsetMultiplier != nil {
		t.Fatal("expected non-numeric top offset to be dropped")
	}
	if got.Position != PositionLeft {
		t.Fatalf("position = %q, want %q", got.Position, PositionLeft)
	}
	want := []string{FieldLeftOffsetMultiplier, "rotation", FieldTopOffsetMultiplier}
	if len(dropped) != len(want) {
		t.Fatalf("dropped = %v, want %v", dropped, want)
	}
	for i := range want {
		if dropped[i] != want[i] {
			t.Fatalf("dropped[%d] = %q, want %q", i, dropped[i], want[i])
		}
	}
}

func TestSanitize(t *testing.T) {
	t.Parallel()

	in := Override{
		WidthMultiplier:     float(math.Inf(-1)),
		TopOffsetMultiplier: float(0.2),
		Position:            "diagonal",
	}
	got, dropped := Sanitize(in)
	if got.WidthMultiplier != nil || got.Position != "" {
		t.Fatalf("sanitized = %s, want width and position dropped", got)
	}
	if got.TopOffsetMultiplier == nil || *got.TopOffsetMultiplier != 0.2 {
		t.Fatalf("top offset = %v, want 0.2", got.TopOffsetMultiplier)
	}
	if len(dropped) != 2 {
		t.Fatalf("dropped = %v, want two fields", dropped)
	}
	if in.WidthMultiplier == nil {
		t.Fatal("sanitize must not mutate its input")
	}
}

func TestSanitizeFoldsPositionCase(t *testing.T) {
	t.Parallel()

	got, dropped := Sanitize(Override{Position: " Left "})
	if got.Position != PositionLeft {
		t.Fatalf("position = %q, want %q", got.Position, PositionLeft)
	}
	if len(dropped) != 0 {
		t.Fatalf("dropped = %v, want none", dropped)
	}
}
