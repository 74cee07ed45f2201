// Package resolver picks the image a leader shows for a diplomatic state by
// walking the state's fallback chain.
package resolver

import (
	"github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/services/leaderimage/inference"
	"github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/services/leaderimage/registry"
	"github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/services/leaderimage/state"
)

// Inferrer derives variant paths. *inference.Engine satisfies it.
type Inferrer interface {
	Infer(leaderID, basePath string, s state.Name) (inference.InferredPathGuess, bool)
}

// Resolver resolves (leader, state) to an asset path.
type Resolver struct {
	configs  inference.ConfigSource
	inferrer Inferrer
}

// New creates a resolver. A nil inferrer disables inference.
func New(configs inference.ConfigSource, inferrer Inferrer) *Resolver {
	return &Resolver{configs: configs, inferrer: inferrer}
}

// Source names the tier a resolution came from.
type Source string

const (
	SourceExplicit Source = "explicit"
	SourceInferred Source = "inferred"
	SourceBase     Source = "base"
)

// Resolution is a resolved path with the chain link and tier that produced
// it. Link is empty for SourceBase.
type Resolution struct {
	Path   string
	Link   state.Name
	Source Source
}

// ResolvePath returns the path for leaderID in state s. An empty s returns
// the base path without consulting the chain. The second result is false
// only for unregistered leaders.
func (r *Resolver) ResolvePath(leaderID string, s state.Name) (string, bool) {
	res, ok := r.Explain(leaderID, s)
	return res.Path, ok
}

// Explain is ResolvePath with the winning link and tier.
//
// Each link tries the explicit per-state path before an inferred variant, so
// chain order decides ahead of tier.
func (r *Resolver) Explain(leaderID string, s state.Name) (Resolution, bool) {
	if r == nil || r.configs == nil {
		return Resolution{}, false
	}
	cfg, ok := r.configs.Lookup(leaderID)
	if !ok {
		return Resolution{}, false
	}
	base := Resolution{Path: cfg.ImagePath, Source: SourceBase}
	if s == "" {
		return base, true
	}

	for _, link := range state.FallbackChain(s) {
		if path, ok := cfg.ExplicitPath(link); ok {
			return Resolution{Path: path, Link: link, Source: SourceExplicit}, true
		}
		if r.inferrer == nil || !cfg.AutoInferPaths {
			continue
		}
		if guess, ok := r.inferrer.Infer(cfg.LeaderID, cfg.ImagePath, link); ok {
			return Resolution{Path: guess.String(), Link: link, Source: SourceInferred}, true
		}
	}
	return base, true
}

var _ inference.ConfigSource = (*registry.Registry)(nil)
