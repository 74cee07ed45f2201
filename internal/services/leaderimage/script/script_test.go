package script

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/services/leaderimage"
	"github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/services/leaderimage/state"
)

func newRuntime(t *testing.T) (*leaderimage.Service, *Runtime) {
	t.Helper()
	svc := leaderimage.New(leaderimage.WithLogf(func(string, ...any) {}))
	return svc, New(context.Background(), svc)
}

func TestRegisterFromLua(t *testing.T) {
	t.Parallel()

	svc, rt := newRuntime(t)
	err := rt.RunString("register.lua", `
assert(LeaderImages.register("LEADER_YUNI", "fs://x/leader.png") == true)
assert(LeaderImages.register("LEADER_AMINA", {
  imagePath = "fs://amina/leader.png",
  autoInferPaths = false,
  diplomacyStates = { hostile = "fs://amina/angry.png" },
  displayOverrides = { ["setup-panels"] = { widthMultiplier = 2 } },
}) == true)
assert(LeaderImages.register("RANDOM", "fs://x/r.png") == false)
assert(LeaderImages.register("LEADER_X", {}) == false)
assert(LeaderImages.register("LEADER_X", "") == false)
assert(LeaderImages.register("LEADER_X", 12) == false)
assert(LeaderImages.register(nil, "fs://x/a.png") == false)
`)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := svc.Leaders(); len(got) != 2 {
		t.Fatalf("leaders = %v, want two", got)
	}
	if got, _ := svc.GetImagePath("LEADER_AMINA", state.DeclaringWar); got != "fs://amina/angry.png" {
		t.Fatalf("declaring_war = %q, want explicit hostile", got)
	}
	geo, _ := svc.GetImageDisplayConfig("LEADER_AMINA", "game-setup")
	if geo.WidthMultiplier != 2 {
		t.Fatalf("width = %v, want 2", geo.WidthMultiplier)
	}
}

func TestQueriesFromLua(t *testing.T) {
	t.Parallel()

	svc, rt := newRuntime(t)
	svc.RegisterImageLeader(context.Background(), "LEADER_YUNI", "fs://x/leader.png")
	err := rt.RunString("query.lua", `
assert(LeaderImages.is_image_leader("LEADER_YUNI"))
assert(not LeaderImages.is_image_leader("LEADER_NONE"))
assert(LeaderImages.image_path("LEADER_YUNI", "declaring_war") == "fs://x/leader_angry.png")
assert(LeaderImages.image_path("LEADER_YUNI") == "fs://x/leader.png")
assert(LeaderImages.image_path("LEADER_NONE", "hostile") == nil)

local geo = LeaderImages.display_config("LEADER_YUNI", "age-select")
assert(geo.widthMultiplier == 0.9)
assert(geo.leftOffsetMultiplier == 0.05)
assert(geo.position == "right")
assert(LeaderImages.display_config("LEADER_NONE", "diplomacy") == nil)

assert(LeaderImages.initial_state("PLAYER_RELATIONSHIP_HELPFUL", false) == "friendly")
assert(LeaderImages.initial_state("PLAYER_RELATIONSHIP_HELPFUL", true) == "hostile")
assert(LeaderImages.initial_state(nil, false) == "neutral")
`)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRunFile(t *testing.T) {
	t.Parallel()

	svc, rt := newRuntime(t)
	path := filepath.Join(t.TempDir(), "leaders.lua")
	if err := os.WriteFile(path, []byte(`LeaderImages.register("LEADER_FILE", "fs://f/leader.png")`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := rt.RunFile(path); err != nil {
		t.Fatalf("run file: %v", err)
	}
	if !svc.IsImageLeader("LEADER_FILE") {
		t.Fatal("expected LEADER_FILE registered from script file")
	}
}

func TestRunReportsScriptErrors(t *testing.T) {
	t.Parallel()

	_, rt := newRuntime(t)
	if err := rt.RunString("syntax.lua", "LeaderImages.register("); err == nil || !strings.Contains(err.Error(), "syntax.lua") {
		t.Fatalf("err = %v, want load error naming the chunk", err)
	}
	if err := rt.RunString("runtime.lua", `error("boom")`); err == nil {
		t.Fatal("expected runtime error")
	}
	if err := rt.RunFile(filepath.Join(t.TempDir(), "missing.lua")); err == nil {
		t.Fatal("expected error for missing script")
	}
}
