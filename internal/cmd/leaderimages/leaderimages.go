// Package leaderimages parses leaderimages command flags and answers leader
// image queries against a shared registry.
package leaderimages

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/message"

	entrypoint "github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/platform/cmd"
	"github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/platform/i18n/catalog"
	"github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/services/leaderimage"
	"github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/services/leaderimage/geometry"
	"github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/services/leaderimage/manifest"
	"github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/services/leaderimage/script"
	"github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/services/leaderimage/state"
	"github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/services/leaderimage/storage"
	"github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/services/leaderimage/storage/jsonfile"
	"github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/services/leaderimage/storage/memory"
	"github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/services/leaderimage/storage/sqlite"
)

// Store kinds accepted by -store.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreJSON   = "json"
)

// Config holds leaderimages command configuration.
type Config struct {
	StoreKind string `env:"LEADERIMAGES_STORE" envDefault:"memory"`
	StorePath string `env:"LEADERIMAGES_STORE_PATH"`
	Manifests string `env:"LEADERIMAGES_MANIFESTS"`
	Scripts   string `env:"LEADERIMAGES_SCRIPTS"`
	Locale    string `env:"LEADERIMAGES_LOCALE" envDefault:"en-US"`

	Leader       string
	State        string
	Surface      string
	Relationship string
	AtWar        bool
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.StoreKind, "store", cfg.StoreKind, "Shared store kind: memory, sqlite or json")
	fs.StringVar(&cfg.StorePath, "store-path", cfg.StorePath, "Shared store file path")
	fs.StringVar(&cfg.Manifests, "manifests", cfg.Manifests, "Comma-separated INI leader manifests")
	fs.StringVar(&cfg.Scripts, "scripts", cfg.Scripts, "Comma-separated Lua mod scripts")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "Locale for state labels")
	fs.StringVar(&cfg.Leader, "leader", "", "Leader id to resolve; lists registered leaders when empty")
	fs.StringVar(&cfg.State, "state", "", "Diplomacy state to resolve")
	fs.StringVar(&cfg.Surface, "surface", string(geometry.Diplomacy), "Display surface for geometry")
	fs.StringVar(&cfg.Relationship, "relationship", "", "Raw relationship signal used when -state is empty")
	fs.BoolVar(&cfg.AtWar, "at-war", false, "Whether the leader is at war with the local player")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.StoreKind = strings.ToLower(strings.TrimSpace(cfg.StoreKind))
	switch cfg.StoreKind {
	case StoreMemory, StoreSQLite, StoreJSON:
	default:
		return Config{}, fmt.Errorf("unknown store kind %q", cfg.StoreKind)
	}
	return cfg, nil
}

// Run loads registrations and prints the answer to the configured query.
// Warnings go to errOut.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceLeaderImages, func(ctx context.Context) error {
		return run(ctx, cfg, out, log.New(errOut, "", 0))
	})
}

func run(ctx context.Context, cfg Config, out io.Writer, logger *log.Logger) error {
	store, closeStore, err := openStore(cfg.StoreKind, cfg.StorePath)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Printf("close shared store: %v", err)
		}
	}()

	svc := leaderimage.New(
		leaderimage.WithStore(store),
		leaderimage.WithLocale(cfg.Locale),
		leaderimage.WithLogf(logger.Printf),
	)
	if merged := svc.LoadShared(ctx); merged > 0 {
		logger.Printf("merged %d shared leader registrations", merged)
	}

	if manifests := splitList(cfg.Manifests); len(manifests) > 0 {
		sources := make([]any, 0, len(manifests))
		for _, path := range manifests {
			sources = append(sources, path)
		}
		result, err := manifest.Load(ctx, svc, sources[0], sources[1:]...)
		if err != nil {
			return err
		}
		logger.Printf("manifests registered %d leaders, rejected %d", len(result.Registered), len(result.Rejected))
	}
	if scripts := splitList(cfg.Scripts); len(scripts) > 0 {
		runtime := script.New(ctx, svc)
		for _, path := range scripts {
			if err := runtime.RunFile(path); err != nil {
				return err
			}
		}
	}

	printer := catalog.Default().Printer(cfg.Locale)
	if strings.TrimSpace(cfg.Leader) == "" {
		for _, id := range svc.Leaders() {
			fmt.Fprintln(out, id)
		}
		return nil
	}
	return describe(out, printer, svc, cfg)
}

func describe(out io.Writer, printer *message.Printer, svc *leaderimage.Service, cfg Config) error {
	leaderID := strings.TrimSpace(cfg.Leader)
	if !svc.IsImageLeader(leaderID) {
		_, err := fmt.Fprintf(out, "%s: not an image leader\n", leaderID)
		return err
	}

	st := state.Name(strings.TrimSpace(cfg.State))
	if st == "" && (cfg.Relationship != "" || cfg.AtWar) {
		st = svc.GetDiplomacyInitialState(cfg.Relationship, cfg.AtWar)
	}

	res, _ := svc.ExplainImagePath(leaderID, st)
	geo, _ := svc.GetImageDisplayConfig(leaderID, cfg.Surface)

	lines := []string{fmt.Sprintf("leader:   %s", leaderID)}
	if st != "" {
		label := printer.Sprintf(message.Key("state."+string(st), string(st)))
		lines = append(lines, fmt.Sprintf("state:    %s (%s)", st, label))
	}
	source := string(res.Source)
	if res.Link != "" {
		source += " via " + string(res.Link)
	}
	lines = append(lines,
		fmt.Sprintf("image:    %s [%s]", res.Path, source),
		fmt.Sprintf("geometry: %s width=%g left=%g top=%g position=%s",
			cfg.Surface, geo.WidthMultiplier, geo.LeftOffsetMultiplier, geo.TopOffsetMultiplier, geo.Position),
	)
	_, err := fmt.Fprintln(out, strings.Join(lines, "\n"))
	return err
}

func openStore(kind, path string) (storage.SharedStore, func() error, error) {
	noop := func() error { return nil }
	switch kind {
	case StoreSQLite:
		if strings.TrimSpace(path) == "" {
			path = filepath.Join("data", "leaderimages.db")
		}
		if err := ensureDir(path); err != nil {
			return nil, nil, err
		}
		store, err := sqlite.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite shared store: %w", err)
		}
		return store, store.Close, nil
	case StoreJSON:
		if strings.TrimSpace(path) == "" {
			path = filepath.Join("data", "leaderimages.json")
		}
		if err := ensureDir(path); err != nil {
			return nil, nil, err
		}
		store, err := jsonfile.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open json shared store: %w", err)
		}
		return store, noop, nil
	default:
		return memory.New(), noop, nil
	}
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
