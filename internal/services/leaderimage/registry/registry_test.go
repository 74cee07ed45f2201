package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	apperrors "github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/platform/errors"
	"github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/services/leaderimage/geometry"
	"github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/services/leaderimage/state"
	"github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/services/leaderimage/storage"
	"github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/services/leaderimage/storage/memory"
)

type logRecorder struct {
	mu    sync.Mutex
	lines []string
}

func (l *logRecorder) Logf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func (l *logRecorder) contains(fragment string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if strings.Contains(line, fragment) {
			return true
		}
	}
	return false
}

type failingStore struct {
	getErr error
	setErr error
	sets   int
}

func (s *failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, s.getErr
}

func (s *failingStore) Set(context.Context, string, []byte) error {
	s.sets++
	return s.setErr
}

func TestRegisterRejectsMalformedInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		id   string
		raw  any
		code apperrors.Code
	}{
		{name: "empty id", id: "", raw: map[string]any{"imagePath": "x"}, code: apperrors.CodeLeaderIDEmpty},
		{name: "blank id", id: "   ", raw: "fs://x/a.png", code: apperrors.CodeLeaderIDEmpty},
		{name: "sentinel upper", id: "RANDOM", raw: map[string]any{"imagePath": "x"}, code: apperrors.CodeLeaderIDReserved},
		{name: "sentinel lower", id: "random", raw: "fs://x/a.png", code: apperrors.CodeLeaderIDReserved},
		{name: "missing image path", id: "LEADER_X", raw: map[string]any{}, code: apperrors.CodeLeaderImagePathMissing},
		{name: "non-string image path", id: "LEADER_X", raw: map[string]any{"imagePath": 3}, code: apperrors.CodeLeaderImagePathMissing},
		{name: "empty shorthand", id: "LEADER_X", raw: "", code: apperrors.CodeLeaderImagePathMissing},
		{name: "number", id: "LEADER_X", raw: 42, code: apperrors.CodeLeaderConfigInvalid},
		{name: "nil", id: "LEADER_X", raw: nil, code: apperrors.CodeLeaderConfigInvalid},
		{name: "nil options", id: "LEADER_X", raw: (*Options)(nil), code: apperrors.CodeLeaderConfigInvalid},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			store := memory.New()
			logs := &logRecorder{}
			reg := New(WithStore(store), WithLogf(logs.Logf))
			if reg.Register(context.Background(), tc.id, tc.raw) {
				t.Fatal("expected registration to be rejected")
			}
			err := reg.Put(context.Background(), tc.id, tc.raw)
			if got := apperrors.CodeOf(err); got != tc.code {
				t.Fatalf("code = %q, want %q", got, tc.code)
			}
			if len(reg.IDs()) != 0 {
				t.Fatalf("ids = %v, want none", reg.IDs())
			}
			if _, err := store.Get(context.Background(), storage.RegistryKey); !errors.Is(err, storage.ErrNotFound) {
				t.Fatalf("expected nothing persisted, got err %v", err)
			}
			if !logs.contains("rejected") {
				t.Fatal("expected rejection to be logged")
			}
		})
	}
}

func TestRegisterShorthandDefaults(t *testing.T) {
	t.Parallel()

	reg := New()
	if !reg.Register(context.Background(), " LEADER_YUNI ", "fs://x/leader.png") {
		t.Fatal("expected registration to succeed")
	}
	cfg, ok := reg.Lookup("LEADER_YUNI")
	if !ok {
		t.Fatal("expected trimmed id to be registered")
	}
	if cfg.ImagePath != "fs://x/leader.png" {
		t.Fatalf("image path = %q, want %q", cfg.ImagePath, "fs://x/leader.png")
	}
	if !cfg.AutoInferPaths {
		t.Fatal("expected autoInferPaths to default to true")
	}
	if !reg.IsRegistered("LEADER_YUNI") {
		t.Fatal("expected LEADER_YUNI to be registered")
	}
	if reg.IsRegistered("") || reg.IsRegistered("random") || reg.IsRegistered("LEADER_OTHER") {
		t.Fatal("unexpected registration reported")
	}
}

func TestRegisterDropsInvalidFieldsAndKeepsTheRest(t *testing.T) {
	t.Parallel()

	logs := &logRecorder{}
	reg := New(WithLogf(logs.Logf))
	ok := reg.Register(context.Background(), "LEADER_X", map[string]any{
		"imagePath":      "fs://x/leader.png",
		"autoInferPaths": false,
		"diplomacyStates": map[string]any{
			"hostile":     "fs://x/hostile.png",
			"celebrating": "fs://x/party.png",
			"friendly":    "",
		},
		"displayOverrides": map[string]any{
			"age-select": map[string]any{"widthMultiplier": 2.0, "topOffsetMultiplier": "tall"},
			"main-menu":  map[string]any{"widthMultiplier": 1.0},
		},
		"theme": "dark",
	})
	if !ok {
		t.Fatal("expected registration to succeed despite invalid fields")
	}

	cfg, _ := reg.Lookup("LEADER_X")
	if cfg.AutoInferPaths {
		t.Fatal("expected autoInferPaths false")
	}
	if len(cfg.DiplomacyStates) != 1 || cfg.DiplomacyStates[state.Hostile] != "fs://x/hostile.png" {
		t.Fatalf("diplomacy states = %v, want only hostile", cfg.DiplomacyStates)
	}
	override, ok := cfg.DisplayOverrides[geometry.SetupPanels]
	if !ok || override.WidthMultiplier == nil || *override.WidthMultiplier != 2 {
		t.Fatalf("setup-panels override = %v, want width 2", override)
	}
	if override.TopOffsetMultiplier != nil {
		t.Fatal("expected invalid top offset to be dropped")
	}
	if len(cfg.DisplayOverrides) != 1 {
		t.Fatalf("overrides = %v, want only setup-panels", cfg.DisplayOverrides)
	}
	for _, fragment := range []string{"celebrating", "empty path for state friendly", "main-menu", "topOffsetMultiplier", "theme"} {
		if !logs.contains(fragment) {
			t.Fatalf("expected warning mentioning %q, got %v", fragment, logs.lines)
		}
	}
}

func TestRegisterTypedOptions(t *testing.T) {
	t.Parallel()

	disabled := false
	width := 1.5
	reg := New()
	ok := reg.Register(context.Background(), "LEADER_X", Options{
		ImagePath:      "fs://x/leader.png",
		AutoInferPaths: &disabled,
		DiplomacyStates: map[string]string{
			"meeting": "fs://x/hello.png",
		},
		DisplayOverrides: map[string]geometry.Override{
			"diplomacy": {WidthMultiplier: &width, Position: "sideways"},
		},
	})
	if !ok {
		t.Fatal("expected registration to succeed")
	}
	cfg, _ := reg.Lookup("LEADER_X")
	if cfg.AutoInferPaths {
		t.Fatal("expected autoInferPaths false")
	}
	if path, ok := cfg.ExplicitPath(state.Meeting); !ok || path != "fs://x/hello.png" {
		t.Fatalf("meeting path = %q, %v", path, ok)
	}
	override := cfg.DisplayOverrides[geometry.Diplomacy]
	if override.Position != "" {
		t.Fatalf("position = %q, want dropped", override.Position)
	}
	width = 9
	if *override.WidthMultiplier != 1.5 {
		t.Fatal("registry must not alias caller-owned overrides")
	}
}

func TestReRegistrationReplacesWholeEntry(t *testing.T) {
	t.Parallel()

	reg := New()
	ctx := context.Background()
	reg.Register(ctx, "LEADER_X", map[string]any{
		"imagePath":       "fs://x/a.png",
		"diplomacyStates": map[string]any{"hostile": "fs://x/h.png"},
	})
	reg.Register(ctx, "LEADER_X", map[string]any{
		"imagePath":       "fs://x/b.png",
		"diplomacyStates": map[string]any{"friendly": "fs://x/f.png"},
	})
	cfg, _ := reg.Lookup("LEADER_X")
	if cfg.ImagePath != "fs://x/b.png" {
		t.Fatalf("image path = %q, want fs://x/b.png", cfg.ImagePath)
	}
	if _, ok := cfg.ExplicitPath(state.Hostile); ok {
		t.Fatal("explicit states must not merge across registrations")
	}
}

func TestLookupReturnsCopy(t *testing.T) {
	t.Parallel()

	reg := New()
	reg.Register(context.Background(), "LEADER_X", map[string]any{
		"imagePath":       "fs://x/a.png",
		"diplomacyStates": map[string]any{"hostile": "fs://x/h.png"},
	})
	cfg, _ := reg.Lookup("LEADER_X")
	cfg.DiplomacyStates[state.Hostile] = "tampered"
	again, _ := reg.Lookup("LEADER_X")
	if again.DiplomacyStates[state.Hostile] != "fs://x/h.png" {
		t.Fatal("lookup leaked internal map")
	}
}

func TestRegisterPersistsWholeTable(t *testing.T) {
	t.Parallel()

	store := memory.New()
	reg := New(WithStore(store))
	ctx := context.Background()
	reg.Register(ctx, "LEADER_A", "fs://x/a.png")
	reg.Register(ctx, "LEADER_B", map[string]any{
		"imagePath":      "fs://x/b.png",
		"autoInferPaths": false,
	})

	payload, err := store.Get(ctx, storage.RegistryKey)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var table map[string]map[string]any
	if err := json.Unmarshal(payload, &table); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(table) != 2 {
		t.Fatalf("persisted ids = %v, want two", table)
	}
	if table["LEADER_A"]["imagePath"] != "fs://x/a.png" {
		t.Fatalf("LEADER_A = %v", table["LEADER_A"])
	}
	if table["LEADER_B"]["autoInferPaths"] != false {
		t.Fatalf("LEADER_B = %v", table["LEADER_B"])
	}
}

func TestPersistFailureIsLoggedAndIgnored(t *testing.T) {
	t.Parallel()

	store := &failingStore{setErr: errors.New("quota exceeded")}
	logs := &logRecorder{}
	reg := New(WithStore(store), WithLogf(logs.Logf))
	if !reg.Register(context.Background(), "LEADER_X", "fs://x/a.png") {
		t.Fatal("expected registration to succeed without persistence")
	}
	if store.sets != 1 {
		t.Fatalf("sets = %d, want 1", store.sets)
	}
	if !reg.IsRegistered("LEADER_X") {
		t.Fatal("expected in-memory registration to survive persist failure")
	}
	if !logs.contains("quota exceeded") {
		t.Fatalf("expected persist failure to be logged, got %v", logs.lines)
	}
}

func TestLoadSharedMergesOnlyAbsentIDs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.New()
	shell := New(WithStore(store))
	shell.Register(ctx, "LEADER_A", "fs://shell/a.png")
	shell.Register(ctx, "LEADER_B", map[string]any{
		"imagePath": "fs://shell/b.png",
		"displayOverrides": map[string]any{
			"diplomacy": map[string]any{"widthMultiplier": 0.5},
		},
	})

	var changed []string
	match := New(WithStore(&readOnly{store}), WithChangeHook(func(id string) {
		changed = append(changed, id)
	}))
	match.Register(ctx, "LEADER_A", "fs://match/a.png")
	changed = nil

	merged, err := match.LoadShared(ctx)
	if err != nil {
		t.Fatalf("load shared: %v", err)
	}
	if merged != 1 {
		t.Fatalf("merged = %d, want 1", merged)
	}
	a, _ := match.Lookup("LEADER_A")
	if a.ImagePath != "fs://match/a.png" {
		t.Fatalf("LEADER_A = %q, local registration must win", a.ImagePath)
	}
	b, ok := match.Lookup("LEADER_B")
	if !ok {
		t.Fatal("expected LEADER_B merged from shared store")
	}
	if w := b.DisplayOverrides[geometry.Diplomacy].WidthMultiplier; w == nil || *w != 0.5 {
		t.Fatalf("LEADER_B width = %v, want 0.5", w)
	}
	if len(changed) != 1 || changed[0] != "LEADER_B" {
		t.Fatalf("changed = %v, want [LEADER_B]", changed)
	}
}

// readOnly hides writes so a test can observe what another context stored.
type readOnly struct {
	storage.SharedStore
}

func (readOnly) Set(context.Context, string, []byte) error { return nil }

func TestLoadSharedSkipsInvalidEntries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.New()
	payload := `{"LEADER_OK":{"imagePath":"fs://x/ok.png","autoInferPaths":true},"random":{"imagePath":"fs://x/r.png"},"LEADER_BAD":{"autoInferPaths":false},"LEADER_SHORT":"fs://x/s.png"}`
	if err := store.Set(ctx, storage.RegistryKey, []byte(payload)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	logs := &logRecorder{}
	reg := New(WithStore(store), WithLogf(logs.Logf))
	merged, err := reg.LoadShared(ctx)
	if err != nil {
		t.Fatalf("load shared: %v", err)
	}
	if merged != 2 {
		t.Fatalf("merged = %d, want 2 (ids %v)", merged, reg.IDs())
	}
	ids := reg.IDs()
	if ids[0] != "LEADER_OK" || ids[1] != "LEADER_SHORT" {
		t.Fatalf("ids = %v, want [LEADER_OK LEADER_SHORT]", ids)
	}
	if !logs.contains("LEADER_BAD") {
		t.Fatalf("expected skip warning for LEADER_BAD, got %v", logs.lines)
	}
}

func TestLoadSharedErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	empty := New(WithStore(memory.New()))
	if merged, err := empty.LoadShared(ctx); err != nil || merged != 0 {
		t.Fatalf("empty store = %d, %v; want 0, nil", merged, err)
	}

	unavailable := New(WithStore(&failingStore{getErr: errors.New("disk gone")}))
	_, err := unavailable.LoadShared(ctx)
	if got := apperrors.CodeOf(err); got != apperrors.CodeStoreUnavailable {
		t.Fatalf("code = %q, want %q", got, apperrors.CodeStoreUnavailable)
	}

	corruptStore := memory.New()
	if err := corruptStore.Set(ctx, storage.RegistryKey, []byte(`[1,2,3]`)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	corrupt := New(WithStore(corruptStore))
	_, err = corrupt.LoadShared(ctx)
	if got := apperrors.CodeOf(err); got != apperrors.CodeStoreCorrupt {
		t.Fatalf("code = %q, want %q", got, apperrors.CodeStoreCorrupt)
	}

	inMemory := New()
	if merged, err := inMemory.LoadShared(ctx); err != nil || merged != 0 {
		t.Fatalf("no store = %d, %v; want 0, nil", merged, err)
	}
}

func TestRoundTripThroughSharedStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.New()
	first := New(WithStore(store))
	first.Register(ctx, "LEADER_X", map[string]any{
		"imagePath":       "fs://x/leader.png",
		"autoInferPaths":  false,
		"diplomacyStates": map[string]any{"defeated": "fs://x/sad.png"},
		"displayOverrides": map[string]any{
			"setup-panels": map[string]any{"leftOffsetMultiplier": 0.2, "position": "left"},
		},
	})
	want, _ := first.Lookup("LEADER_X")

	second := New(WithStore(store))
	if _, err := second.LoadShared(ctx); err != nil {
		t.Fatalf("load shared: %v", err)
	}
	got, ok := second.Lookup("LEADER_X")
	if !ok {
		t.Fatal("expected LEADER_X after load")
	}
	if got.ImagePath != want.ImagePath || got.AutoInferPaths != want.AutoInferPaths {
		t.Fatalf("config = %+v, want %+v", got, want)
	}
	if got.DiplomacyStates[state.Defeated] != "fs://x/sad.png" {
		t.Fatalf("defeated = %q", got.DiplomacyStates[state.Defeated])
	}
	override := got.DisplayOverrides[geometry.SetupPanels]
	if override.LeftOffsetMultiplier == nil || *override.LeftOffsetMultiplier != 0.2 || override.Position != geometry.PositionLeft {
		t.Fatalf("override = %s", override)
	}
}

func TestLocalizedWarnings(t *testing.T) {
	t.Parallel()

	logs := &logRecorder{}
	reg := New(WithLocale("en-US"), WithLogf(logs.Logf))
	reg.Register(context.Background(), "RANDOM", "fs://x/r.png")
	reg.Register(context.Background(), "LEADER_X", map[string]any{
		"imagePath":       "fs://x/a.png",
		"diplomacyStates": map[string]any{"sulking": "fs://x/s.png"},
	})
	if !logs.contains(`Leader id "RANDOM" is reserved and cannot carry an image`) {
		t.Fatalf("logs = %v, want localized rejection", logs.lines)
	}
	if !logs.contains(`Ignoring unknown diplomacy state "sulking" for LEADER_X`) {
		t.Fatalf("logs = %v, want localized warning", logs.lines)
	}
}

func TestTypedAndLooseOverridesAgreeOnPositionCase(t *testing.T) {
	t.Parallel()

	reg := New(WithLogf(func(string, ...any) {}))
	ctx := context.Background()
	reg.Register(ctx, "LEADER_TYPED", Options{
		ImagePath:        "fs://x/t.png",
		DisplayOverrides: map[string]geometry.Override{"diplomacy": {Position: "Left"}},
	})
	reg.Register(ctx, "LEADER_LOOSE", map[string]any{
		"imagePath":        "fs://x/l.png",
		"displayOverrides": map[string]any{"diplomacy": map[string]any{"position": "Left"}},
	})
	for _, id := range []string{"LEADER_TYPED", "LEADER_LOOSE"} {
		cfg, _ := reg.Lookup(id)
		if got := cfg.DisplayOverrides[geometry.Diplomacy].Position; got != geometry.PositionLeft {
			t.Fatalf("%s position = %q, want %q", id, got, geometry.PositionLeft)
		}
	}
}
