// Package manifest loads leader image registrations from INI manifests.
//
// Each section names a leader id:
//
//	[LEADER_YUNI]
//	image = fs://yuni/leader.png
//	auto_infer = true
//	state.hostile = fs://yuni/angry.png
//	display.setup-panels.widthMultiplier = 1.2
//	display.diplomacy.position = left
package manifest

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/services/leaderimage/geometry"
	"github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/services/leaderimage/registry"
)

// Manifest key names.
const (
	KeyImage      = "image"
	KeyAutoInfer  = "auto_infer"
	StatePrefix   = "state."
	DisplayPrefix = "display."
)

// Registrar accepts registrations. *leaderimage.Service satisfies it.
type Registrar interface {
	RegisterImageLeader(ctx context.Context, leaderID string, raw any) bool
}

// Entry is one leader section translated into registration options.
type Entry struct {
	LeaderID string
	Options  map[string]any
}

// Result lists which leaders were registered or rejected, in manifest order.
type Result struct {
	Registered []string
	Rejected   []string
}

var loadOptions = ini.LoadOptions{
	Insensitive:                false,
	InsensitiveSections:        false,
	InsensitiveKeys:            false,
	IgnoreInlineComment:        false,
	SkipUnrecognizableLines:    true,
	AllowShadows:               false,
	AllowPythonMultilineValues: false,
}

// Parse reads manifests and returns their entries in order. Sources are file
// names, []byte or io.ReadCloser values as accepted by ini.LoadSources. Later
// sources override keys of earlier ones.
func Parse(source any, others ...any) ([]Entry, error) {
	file, err := ini.LoadSources(loadOptions, source, others...)
	if err != nil {
		return nil, fmt.Errorf("load leader manifest: %w", err)
	}

	var entries []Entry
	for _, section := range file.Sections() {
		if section.Name() == ini.DefaultSection {
			continue
		}
		entries = append(entries, Entry{
			LeaderID: section.Name(),
			Options:  sectionOptions(section),
		})
	}
	return entries, nil
}

// Load parses manifests and registers every entry with registrar.
func Load(ctx context.Context, registrar Registrar, source any, others ...any) (Result, error) {
	entries, err := Parse(source, others...)
	if err != nil {
		return Result{}, err
	}
	var result Result
	for _, entry := range entries {
		if registrar.RegisterImageLeader(ctx, entry.LeaderID, entry.Options) {
			result.Registered = append(result.Registered, entry.LeaderID)
		} else {
			result.Rejected = append(result.Rejected, entry.LeaderID)
		}
	}
	return result, nil
}

// sectionOptions maps manifest keys onto registration option names. Values
// that fail to parse are passed through as text so the registry reports and
// drops them.
func sectionOptions(section *ini.Section) map[string]any {
	opts := map[string]any{}
	var (
		states   map[string]any
		displays map[string]any
	)
	for _, key := range section.Keys() {
		name := strings.TrimSpace(key.Name())
		switch {
		case name == KeyImage:
			opts[registry.OptionImagePath] = key.String()
		case name == KeyAutoInfer:
			if flag, err := key.Bool(); err == nil {
				opts[registry.OptionAutoInferPaths] = flag
			} else {
				opts[registry.OptionAutoInferPaths] = key.String()
			}
		case strings.HasPrefix(name, StatePrefix):
			if states == nil {
				states = map[string]any{}
			}
			states[strings.TrimPrefix(name, StatePrefix)] = key.String()
		case strings.HasPrefix(name, DisplayPrefix):
			rest := strings.TrimPrefix(name, DisplayPrefix)
			dot := strings.LastIndex(rest, ".")
			if dot <= 0 || dot == len(rest)-1 {
				opts[name] = key.String()
				continue
			}
			surface, field := rest[:dot], rest[dot+1:]
			if displays == nil {
				displays = map[string]any{}
			}
			fields, _ := displays[surface].(map[string]any)
			if fields == nil {
				fields = map[string]any{}
				displays[surface] = fields
			}
			fields[field] = displayValue(key, field)
		default:
			opts[name] = key.String()
		}
	}
	if states != nil {
		opts[registry.OptionDiplomacyStates] = states
	}
	if displays != nil {
		opts[registry.OptionDisplayOverrides] = displays
	}
	return opts
}

func displayValue(key *ini.Key, field string) any {
	if field == geometry.FieldPosition {
		return key.String()
	}
	if number, err := key.Float64(); err == nil {
		return number
	}
	return key.String()
}
