// Package registry holds the per-leader image configuration and keeps it in
// sync with a shared store so that separate execution contexts see the same
// registrations.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/platform/errors"
	"github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/services/leaderimage/storage"
)

const tracerName = "github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/services/leaderimage/registry"

// Registry maps leader ids to their image configuration.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Config

	store    storage.SharedStore
	key      string
	logf     func(format string, args ...any)
	locale   string
	tracer   trace.Tracer
	onChange func(leaderID string)
}

// Option configures a Registry.
type Option func(*Registry)

// WithStore persists every successful registration to store. Without a
// store the registry is purely in-memory.
func WithStore(store storage.SharedStore) Option {
	return func(r *Registry) {
		r.store = store
	}
}

// WithStoreKey overrides the shared-store key.
func WithStoreKey(key string) Option {
	return func(r *Registry) {
		if strings.TrimSpace(key) != "" {
			r.key = key
		}
	}
}

// WithLogf routes warnings to logf instead of log.Printf.
func WithLogf(logf func(format string, args ...any)) Option {
	return func(r *Registry) {
		if logf != nil {
			r.logf = logf
		}
	}
}

// WithLocale renders logged rejections and warnings from the error catalog
// for locale instead of the internal message.
func WithLocale(locale string) Option {
	return func(r *Registry) {
		r.locale = strings.TrimSpace(locale)
	}
}

// WithTracer sets the tracer used around shared-store I/O.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Registry) {
		if tracer != nil {
			r.tracer = tracer
		}
	}
}

// WithChangeHook calls fn with the leader id after every stored entry,
// whether registered locally or merged from the shared store.
func WithChangeHook(fn func(leaderID string)) Option {
	return func(r *Registry) {
		r.onChange = fn
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		entries: map[string]Config{},
		key:     storage.RegistryKey,
		logf:    log.Printf,
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Register stores the normalized configuration for leaderID and reports
// whether it was accepted. Rejections and dropped fields are logged.
func (r *Registry) Register(ctx context.Context, leaderID string, raw any) bool {
	if err := r.Put(ctx, leaderID, raw); err != nil {
		r.logf("leader image registration rejected: %s", r.describe(err))
		return false
	}
	return true
}

// Put is Register with the rejection reason. A nil error means the entry was
// stored; shared-store failures are logged and never returned.
func (r *Registry) Put(ctx context.Context, leaderID string, raw any) error {
	cfg, warnings, rejectErr := Normalize(leaderID, raw)
	if rejectErr != nil {
		return rejectErr
	}
	for _, warning := range warnings {
		r.logf("leader image option dropped: %s", r.describe(warning))
	}

	r.mu.Lock()
	r.entries[cfg.LeaderID] = cfg
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	r.notify(cfg.LeaderID)
	if err := r.persist(ctx, snapshot); err != nil {
		r.logf("leader image registry persist failed: %s", r.describe(err))
	}
	return nil
}

// IsRegistered reports whether leaderID has a configuration.
func (r *Registry) IsRegistered(leaderID string) bool {
	_, ok := r.Lookup(leaderID)
	return ok
}

// Lookup returns a copy of the configuration for leaderID.
func (r *Registry) Lookup(leaderID string) (Config, bool) {
	id, err := NormalizeLeaderID(leaderID)
	if err != nil {
		return Config{}, false
	}
	r.mu.RLock()
	cfg, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return Config{}, false
	}
	return cfg.Clone(), true
}

// IDs returns the registered leader ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// LoadShared merges entries from the shared store for ids not registered
// locally and returns how many were merged. Local registrations always win.
// Invalid entries are skipped with a warning.
func (r *Registry) LoadShared(ctx context.Context) (int, error) {
	if r.store == nil {
		return 0, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := r.tracer.Start(ctx, "leaderimage.registry.load_shared", trace.WithAttributes(
		attribute.String("store.key", r.key),
	))
	defer span.End()

	payload, err := r.store.Get(ctx, r.key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, nil
		}
		loadErr := apperrors.Wrap(apperrors.CodeStoreUnavailable, fmt.Sprintf("read %s: %v", r.key, err), err)
		r.fail(span, loadErr)
		return 0, loadErr
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		loadErr := apperrors.Wrap(apperrors.CodeStoreCorrupt, fmt.Sprintf("decode %s: %v", r.key, err), err)
		r.fail(span, loadErr)
		return 0, loadErr
	}

	merged := make([]string, 0, len(raw))
	r.mu.Lock()
	for _, id := range sortedKeys(raw) {
		entry, decodeErr := decodeEntry(raw[id])
		if decodeErr != nil {
			r.logf("leader image shared entry %s skipped: %v", id, decodeErr)
			continue
		}
		cfg, warnings, rejectErr := Normalize(id, entry)
		if rejectErr != nil {
			r.logf("leader image shared entry %s skipped: %s", id, r.describe(rejectErr))
			continue
		}
		if _, exists := r.entries[cfg.LeaderID]; exists {
			continue
		}
		for _, warning := range warnings {
			r.logf("leader image shared entry option dropped: %s", r.describe(warning))
		}
		r.entries[cfg.LeaderID] = cfg
		merged = append(merged, cfg.LeaderID)
	}
	r.mu.Unlock()

	for _, id := range merged {
		r.notify(id)
	}
	span.SetAttributes(attribute.Int("leaderimage.merged", len(merged)))
	return len(merged), nil
}

func (r *Registry) persist(ctx context.Context, snapshot map[string]Config) error {
	if r.store == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := r.tracer.Start(ctx, "leaderimage.registry.persist", trace.WithAttributes(
		attribute.String("store.key", r.key),
		attribute.Int("leaderimage.entries", len(snapshot)),
	))
	defer span.End()

	payload, err := json.Marshal(snapshot)
	if err != nil {
		persistErr := apperrors.Wrap(apperrors.CodeStoreCorrupt, fmt.Sprintf("encode %s: %v", r.key, err), err)
		r.fail(span, persistErr)
		return persistErr
	}
	if err := r.store.Set(ctx, r.key, payload); err != nil {
		persistErr := apperrors.Wrap(apperrors.CodeStoreUnavailable, fmt.Sprintf("write %s: %v", r.key, err), err)
		r.fail(span, persistErr)
		return persistErr
	}
	return nil
}

func (r *Registry) snapshotLocked() map[string]Config {
	out := make(map[string]Config, len(r.entries))
	for id, cfg := range r.entries {
		out[id] = cfg.Clone()
	}
	return out
}

func (r *Registry) notify(leaderID string) {
	if r.onChange != nil {
		r.onChange(leaderID)
	}
}

func (r *Registry) describe(err error) string {
	var appErr *apperrors.Error
	if r.locale == "" || !errors.As(err, &appErr) {
		return err.Error()
	}
	text := appErr.Localize(r.locale)
	if appErr.Cause != nil {
		text += ": " + appErr.Cause.Error()
	}
	return text
}

func (r *Registry) fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// decodeEntry turns one persisted entry into the loose form Normalize
// accepts, keeping numbers exact.
func decodeEntry(raw json.RawMessage) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}
	return value, nil
}
