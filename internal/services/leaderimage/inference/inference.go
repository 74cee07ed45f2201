// Package inference derives state-specific image variants from a leader's
// base image path by filename convention.
//
// Derived paths are guesses: nothing here checks that the asset exists, and
// the renderer must cope with a guess that fails to load.
package inference

import (
	"strings"
	"sync"

	"github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/services/leaderimage/registry"
	"github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/services/leaderimage/state"
)

// InferredPathGuess is a derived asset path whose existence was not verified.
type InferredPathGuess string

// String returns the path.
func (g InferredPathGuess) String() string {
	return string(g)
}

// ConfigSource supplies leader configuration. *registry.Registry satisfies it.
type ConfigSource interface {
	Lookup(leaderID string) (registry.Config, bool)
}

// Engine memoizes inferred variants per leader, keyed by base path and state.
type Engine struct {
	source ConfigSource

	mu    sync.Mutex
	cache map[string]map[cacheKey]cacheEntry
}

type cacheKey struct {
	basePath string
	state    state.Name
}

type cacheEntry struct {
	guess InferredPathGuess
	ok    bool
}

// NewEngine creates an engine reading the auto-infer toggle from source.
// A nil source treats every leader as auto-infer enabled.
func NewEngine(source ConfigSource) *Engine {
	return &Engine{
		source: source,
		cache:  map[string]map[cacheKey]cacheEntry{},
	}
}

// Infer returns the variant of basePath for s using the first suffix of the
// state's template. It reports false when the leader disabled inference, the
// state has no suffix, or basePath has no directory and extension to split.
func (e *Engine) Infer(leaderID, basePath string, s state.Name) (InferredPathGuess, bool) {
	if e.source != nil {
		cfg, ok := e.source.Lookup(leaderID)
		if ok && !cfg.AutoInferPaths {
			return "", false
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	key := cacheKey{basePath: basePath, state: s}
	if entry, ok := e.cache[leaderID][key]; ok {
		return entry.guess, entry.ok
	}
	guess, ok := Variant(basePath, s)
	byKey := e.cache[leaderID]
	if byKey == nil {
		byKey = map[cacheKey]cacheEntry{}
		e.cache[leaderID] = byKey
	}
	byKey[key] = cacheEntry{guess: guess, ok: ok}
	return guess, ok
}

// Invalidate forgets every cached answer for leaderID.
func (e *Engine) Invalidate(leaderID string) {
	e.mu.Lock()
	delete(e.cache, leaderID)
	e.mu.Unlock()
}

// Cached reports how many answers are memoized across all leaders.
func (e *Engine) Cached() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	total := 0
	for _, byKey := range e.cache {
		total += len(byKey)
	}
	return total
}

// Variant composes directory + stem + suffix + extension without caching.
func Variant(basePath string, s state.Name) (InferredPathGuess, bool) {
	suffix, ok := state.PrimarySuffix(s)
	if !ok {
		return "", false
	}
	dir, stem, ext, ok := Split(basePath)
	if !ok {
		return "", false
	}
	return InferredPathGuess(dir + stem + suffix + ext), true
}

// Split breaks path at its last "/" and the last "." after it. dir keeps the
// trailing separator and ext keeps its leading dot.
func Split(path string) (dir, stem, ext string, ok bool) {
	slash := strings.LastIndex(path, "/")
	if slash < 0 {
		return "", "", "", false
	}
	dot := strings.LastIndex(path, ".")
	if dot <= slash {
		return "", "", "", false
	}
	return path[:slash+1], path[slash+1 : dot], path[dot:], true
}
