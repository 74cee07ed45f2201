package registry

import (
	"sort"
	"strings"

	apperrors "github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/platform/errors"
	"github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/services/leaderimage/geometry"
	"github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/services/leaderimage/state"
)

// RandomLeaderID is the sentinel the game uses for "pick a leader for me".
// It never carries an image.
const RandomLeaderID = "random"

// Registration option names, shared by the object form of a registration
// and the persisted layout.
const (
	OptionImagePath        = "imagePath"
	OptionAutoInferPaths   = "autoInferPaths"
	OptionDiplomacyStates  = "diplomacyStates"
	OptionDisplayOverrides = "displayOverrides"
)

// Config is the normalized image configuration of one leader. Values handed
// out by the registry are copies.
type Config struct {
	LeaderID         string                                 `json:"-"`
	ImagePath        string                                 `json:"imagePath"`
	AutoInferPaths   bool                                   `json:"autoInferPaths"`
	DiplomacyStates  map[state.Name]string                  `json:"diplomacyStates,omitempty"`
	DisplayOverrides map[geometry.Surface]geometry.Override `json:"displayOverrides,omitempty"`
}

// Options is the typed object form of a registration.
type Options struct {
	ImagePath string
	// AutoInferPaths defaults to true when nil.
	AutoInferPaths   *bool
	DiplomacyStates  map[string]string
	DisplayOverrides map[string]geometry.Override
}

// ExplicitPath returns the configured path for s, if any.
func (c Config) ExplicitPath(s state.Name) (string, bool) {
	path, ok := c.DiplomacyStates[s]
	return path, ok && path != ""
}

// Clone returns a deep copy.
func (c Config) Clone() Config {
	out := c
	if c.DiplomacyStates != nil {
		out.DiplomacyStates = make(map[state.Name]string, len(c.DiplomacyStates))
		for name, path := range c.DiplomacyStates {
			out.DiplomacyStates[name] = path
		}
	}
	if c.DisplayOverrides != nil {
		out.DisplayOverrides = make(map[geometry.Surface]geometry.Override, len(c.DisplayOverrides))
		for surface, override := range c.DisplayOverrides {
			out.DisplayOverrides[surface] = override.Clone()
		}
	}
	return out
}

// NormalizeLeaderID trims id and rejects empty or sentinel ids.
func NormalizeLeaderID(id string) (string, *apperrors.Error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return "", apperrors.New(apperrors.CodeLeaderIDEmpty, "leader id is required")
	}
	if strings.EqualFold(trimmed, RandomLeaderID) {
		return "", apperrors.WithMetadata(apperrors.CodeLeaderIDReserved, "leader id "+trimmed+" is reserved", map[string]string{
			"LeaderID": trimmed,
		})
	}
	return trimmed, nil
}

// Normalize validates one registration.
//
// raw is a path string (shorthand for {imagePath: raw}), an Options value, or
// a loosely typed map using the registration option names. The returned
// error rejects the registration as a whole; the warnings list fields that
// were dropped from an otherwise valid registration.
func Normalize(leaderID string, raw any) (Config, []*apperrors.Error, *apperrors.Error) {
	id, idErr := NormalizeLeaderID(leaderID)
	if idErr != nil {
		return Config{}, nil, idErr
	}
	n := normalizer{leaderID: id}

	switch value := raw.(type) {
	case string:
		return n.fromPath(value)
	case Options:
		return n.fromOptions(value)
	case *Options:
		if value == nil {
			return Config{}, nil, n.invalid()
		}
		return n.fromOptions(*value)
	case map[string]any:
		return n.fromMap(value)
	default:
		return Config{}, nil, n.invalid()
	}
}

type normalizer struct {
	leaderID string
	warnings []*apperrors.Error
}

func (n *normalizer) invalid() *apperrors.Error {
	return apperrors.WithMetadata(apperrors.CodeLeaderConfigInvalid, "image config for "+n.leaderID+" must be a path or an options object", map[string]string{
		"LeaderID": n.leaderID,
	})
}

func (n *normalizer) missingPath() *apperrors.Error {
	return apperrors.WithMetadata(apperrors.CodeLeaderImagePathMissing, "image config for "+n.leaderID+" has no imagePath", map[string]string{
		"LeaderID": n.leaderID,
	})
}

func (n *normalizer) warn(code apperrors.Code, message string, metadata map[string]string) {
	metadata["LeaderID"] = n.leaderID
	n.warnings = append(n.warnings, apperrors.WithMetadata(code, n.leaderID+": "+message, metadata))
}

func (n *normalizer) base(path string) (Config, *apperrors.Error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return Config{}, n.missingPath()
	}
	return Config{
		LeaderID:       n.leaderID,
		ImagePath:      trimmed,
		AutoInferPaths: true,
	}, nil
}

func (n *normalizer) fromPath(path string) (Config, []*apperrors.Error, *apperrors.Error) {
	cfg, err := n.base(path)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, nil, nil
}

func (n *normalizer) fromOptions(opts Options) (Config, []*apperrors.Error, *apperrors.Error) {
	cfg, err := n.base(opts.ImagePath)
	if err != nil {
		return Config{}, nil, err
	}
	if opts.AutoInferPaths != nil {
		cfg.AutoInferPaths = *opts.AutoInferPaths
	}
	for _, name := range sortedKeys(opts.DiplomacyStates) {
		n.addState(&cfg, name, opts.DiplomacyStates[name])
	}
	for _, surface := range sortedKeys(opts.DisplayOverrides) {
		override, dropped := geometry.Sanitize(opts.DisplayOverrides[surface])
		n.addOverride(&cfg, surface, override, dropped)
	}
	return cfg, n.warnings, nil
}

func (n *normalizer) fromMap(raw map[string]any) (Config, []*apperrors.Error, *apperrors.Error) {
	if raw == nil {
		return Config{}, nil, n.invalid()
	}
	path, ok := raw[OptionImagePath].(string)
	if !ok {
		return Config{}, nil, n.missingPath()
	}
	cfg, err := n.base(path)
	if err != nil {
		return Config{}, nil, err
	}

	for _, key := range sortedKeys(raw) {
		value := raw[key]
		switch key {
		case OptionImagePath:
		case OptionAutoInferPaths:
			flag, ok := value.(bool)
			if !ok {
				n.warn(apperrors.CodeLeaderOptionUnknown, "autoInferPaths must be a boolean", map[string]string{"Option": key})
				continue
			}
			cfg.AutoInferPaths = flag
		case OptionDiplomacyStates:
			states, ok := value.(map[string]any)
			if !ok {
				n.warn(apperrors.CodeLeaderOptionUnknown, "diplomacyStates must be an object", map[string]string{"Option": key})
				continue
			}
			for _, name := range sortedKeys(states) {
				path, _ := states[name].(string)
				n.addState(&cfg, name, path)
			}
		case OptionDisplayOverrides:
			surfaces, ok := value.(map[string]any)
			if !ok {
				n.warn(apperrors.CodeLeaderOptionUnknown, "displayOverrides must be an object", map[string]string{"Option": key})
				continue
			}
			for _, surface := range sortedKeys(surfaces) {
				fields, ok := surfaces[surface].(map[string]any)
				if !ok {
					n.warn(apperrors.CodeLeaderOverrideInvalid, "override for "+surface+" must be an object", map[string]string{
						"Surface": surface,
						"Field":   "*",
					})
					continue
				}
				override, dropped := geometry.ParseOverride(fields)
				n.addOverride(&cfg, surface, override, dropped)
			}
		default:
			n.warn(apperrors.CodeLeaderOptionUnknown, "unknown option "+key, map[string]string{"Option": key})
		}
	}
	return cfg, n.warnings, nil
}

func (n *normalizer) addState(cfg *Config, rawName, path string) {
	name, ok := state.Parse(rawName)
	if !ok {
		n.warn(apperrors.CodeLeaderStateUnknown, "unknown diplomacy state "+rawName, map[string]string{"State": rawName})
		return
	}
	path = strings.TrimSpace(path)
	if path == "" {
		n.warn(apperrors.CodeLeaderStatePathEmpty, "empty path for state "+rawName, map[string]string{"State": rawName})
		return
	}
	if cfg.DiplomacyStates == nil {
		cfg.DiplomacyStates = map[state.Name]string{}
	}
	cfg.DiplomacyStates[name] = path
}

// addOverride stores override under its canonical surface, merging field by
// field when several aliases of one surface are given.
func (n *normalizer) addOverride(cfg *Config, rawSurface string, override geometry.Override, dropped []string) {
	surface, ok := geometry.Canonical(rawSurface)
	if !ok {
		n.warn(apperrors.CodeLeaderSurfaceUnknown, "unknown display surface "+rawSurface, map[string]string{"Surface": rawSurface})
		return
	}
	for _, field := range dropped {
		n.warn(apperrors.CodeLeaderOverrideInvalid, "invalid "+field+" on surface "+rawSurface, map[string]string{
			"Surface": rawSurface,
			"Field":   field,
		})
	}
	if override.Empty() {
		return
	}
	if cfg.DisplayOverrides == nil {
		cfg.DisplayOverrides = map[geometry.Surface]geometry.Override{}
	}
	merged := cfg.DisplayOverrides[surface]
	if override.WidthMultiplier != nil {
		merged.WidthMultiplier = override.WidthMultiplier
	}
	if override.LeftOffsetMultiplier != nil {
		merged.LeftOffsetMultiplier = override.LeftOffsetMultiplier
	}
	if override.TopOffsetMultiplier != nil {
		merged.TopOffsetMultiplier = override.TopOffsetMultiplier
	}
	if override.Position != "" {
		merged.Position = override.Position
	}
	cfg.DisplayOverrides[surface] = merged
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
