// Package leaderimage exposes the leader image operations that scene code
// calls: whether a leader is drawn as an image, which image to draw for a
// diplomatic state, and how to place it on a surface.
//
// Every query is total. Unknown leaders and malformed input resolve to a
// zero value with ok=false rather than an error.
package leaderimage

import (
	"context"
	"log"

	"github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/services/leaderimage/geometry"
	"github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/services/leaderimage/inference"
	"github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/services/leaderimage/registry"
	"github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/services/leaderimage/resolver"
	"github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/services/leaderimage/state"
	"github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/services/leaderimage/storage"
	"go.opentelemetry.io/otel/trace"
)

// Service wires the registry, inference cache and resolver together.
type Service struct {
	registry *registry.Registry
	engine   *inference.Engine
	resolver *resolver.Resolver
	logf     func(format string, args ...any)

	registryOpts []registry.Option
}

// Option configures a Service.
type Option func(*Service)

// WithStore persists registrations to store and loads other contexts'
// registrations from it.
func WithStore(store storage.SharedStore) Option {
	return func(s *Service) {
		s.registryOpts = append(s.registryOpts, registry.WithStore(store))
	}
}

// WithStoreKey overrides the shared-store key.
func WithStoreKey(key string) Option {
	return func(s *Service) {
		s.registryOpts = append(s.registryOpts, registry.WithStoreKey(key))
	}
}

// WithTracer sets the tracer used around shared-store I/O.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.registryOpts = append(s.registryOpts, registry.WithTracer(tracer))
	}
}

// WithLocale logs rejections and warnings in locale.
func WithLocale(locale string) Option {
	return func(s *Service) {
		s.registryOpts = append(s.registryOpts, registry.WithLocale(locale))
	}
}

// WithLogf routes warnings to logf instead of log.Printf.
func WithLogf(logf func(format string, args ...any)) Option {
	return func(s *Service) {
		if logf != nil {
			s.logf = logf
		}
	}
}

// New creates a service with an empty registry.
func New(opts ...Option) *Service {
	svc := &Service{logf: log.Printf}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	svc.registry = registry.New(append(svc.registryOpts,
		registry.WithLogf(svc.logf),
		registry.WithChangeHook(svc.invalidate),
	)...)
	svc.engine = inference.NewEngine(svc.registry)
	svc.resolver = resolver.New(svc.registry, svc.engine)
	svc.registryOpts = nil
	return svc
}

func (s *Service) invalidate(leaderID string) {
	if s.engine != nil {
		s.engine.Invalidate(leaderID)
	}
}

// LoadShared merges registrations persisted by other contexts. Failures are
// logged and the service keeps running in memory.
func (s *Service) LoadShared(ctx context.Context) int {
	merged, err := s.registry.LoadShared(ctx)
	if err != nil {
		s.logf("leader image shared registry load failed: %v", err)
	}
	return merged
}

// RegisterImageLeader stores the image configuration for leaderID. raw is a
// base path string, a registry.Options, or a map using the option names.
func (s *Service) RegisterImageLeader(ctx context.Context, leaderID string, raw any) bool {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.registry.Register(ctx, leaderID, raw)
}

// IsImageLeader reports whether leaderID is drawn as an image.
func (s *Service) IsImageLeader(leaderID string) bool {
	return s.registry.IsRegistered(leaderID)
}

// GetImagePath resolves the image for leaderID in state st. An empty state
// returns the base image.
func (s *Service) GetImagePath(leaderID string, st state.Name) (string, bool) {
	return s.resolver.ResolvePath(leaderID, st)
}

// ExplainImagePath is GetImagePath with the chain link and tier that won.
func (s *Service) ExplainImagePath(leaderID string, st state.Name) (resolver.Resolution, bool) {
	return s.resolver.Explain(leaderID, st)
}

// GetImageDisplayConfig resolves the geometry of leaderID on surface.
func (s *Service) GetImageDisplayConfig(leaderID, surface string) (geometry.Config, bool) {
	cfg, ok := s.registry.Lookup(leaderID)
	if !ok {
		return geometry.Config{}, false
	}
	return geometry.Resolve(cfg.DisplayOverrides, surface), true
}

// GetDiplomacyInitialState classifies a raw relationship signal.
func (s *Service) GetDiplomacyInitialState(relationship any, atWar bool) state.Name {
	return state.Classify(relationship, atWar)
}

// Leaders returns the registered leader ids in sorted order.
func (s *Service) Leaders() []string {
	return s.registry.IDs()
}

// Registry returns the underlying registry.
func (s *Service) Registry() *registry.Registry {
	return s.registry
}
