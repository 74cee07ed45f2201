// Package presentation decides how a leader is drawn on a scene: through the
// host's 3D model pipeline, or as a 2D image overlay for image leaders.
package presentation

import (
	"strings"
	"sync"

	"github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/services/leaderimage/geometry"
	"github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/services/leaderimage/state"
)

// Kind identifies a provider implementation.
type Kind string

const (
	KindModel Kind = "model"
	KindImage Kind = "image"
)

// Images answers image-leader queries. *leaderimage.Service satisfies it.
type Images interface {
	IsImageLeader(leaderID string) bool
	GetImagePath(leaderID string, st state.Name) (string, bool)
	GetImageDisplayConfig(leaderID, surface string) (geometry.Config, bool)
	GetDiplomacyInitialState(relationship any, atWar bool) state.Name
}

// ModelScene is the host 3D leader pipeline.
type ModelScene interface {
	HasLiveModel(leaderID string) bool
	ShowModel(leaderID, surface string, st state.Name)
}

// ImageView is one resolved overlay frame.
type ImageView struct {
	LeaderID string
	Surface  string
	State    state.Name
	Path     string
	Geometry geometry.Config
}

// Overlay draws image views over a scene.
type Overlay interface {
	ShowImage(view ImageView)
}

// DiplomacySource reports the raw relationship between the local player and
// a leader.
type DiplomacySource interface {
	Relationship(leaderID string) (signal any, atWar bool)
}

// Provider shows a leader on a surface.
type Provider interface {
	Kind() Kind
	Show(leaderID, surface string, st state.Name) bool
}

// ModelProvider delegates to the host model pipeline.
type ModelProvider struct {
	scene ModelScene
}

// NewModelProvider wraps scene.
func NewModelProvider(scene ModelScene) *ModelProvider {
	return &ModelProvider{scene: scene}
}

// Kind returns KindModel.
func (p *ModelProvider) Kind() Kind { return KindModel }

// Show forwards to the scene.
func (p *ModelProvider) Show(leaderID, surface string, st state.Name) bool {
	if p == nil || p.scene == nil {
		return false
	}
	p.scene.ShowModel(leaderID, surface, st)
	return true
}

// ImageProvider resolves an image and geometry and hands them to an overlay.
type ImageProvider struct {
	images  Images
	overlay Overlay
}

// NewImageProvider creates an image provider.
func NewImageProvider(images Images, overlay Overlay) *ImageProvider {
	return &ImageProvider{images: images, overlay: overlay}
}

// Kind returns KindImage.
func (p *ImageProvider) Kind() Kind { return KindImage }

// View resolves the overlay frame without drawing it.
func (p *ImageProvider) View(leaderID, surface string, st state.Name) (ImageView, bool) {
	if p == nil || p.images == nil {
		return ImageView{}, false
	}
	path, ok := p.images.GetImagePath(leaderID, st)
	if !ok {
		return ImageView{}, false
	}
	geo, ok := p.images.GetImageDisplayConfig(leaderID, surface)
	if !ok {
		return ImageView{}, false
	}
	return ImageView{
		LeaderID: strings.TrimSpace(leaderID),
		Surface:  surface,
		State:    st,
		Path:     path,
		Geometry: geo,
	}, true
}

// Show resolves the frame and draws it.
func (p *ImageProvider) Show(leaderID, surface string, st state.Name) bool {
	view, ok := p.View(leaderID, surface, st)
	if !ok || p.overlay == nil {
		return false
	}
	p.overlay.ShowImage(view)
	return true
}

// Factory picks a provider per leader.
type Factory struct {
	images Images
	model  *ModelProvider
	image  *ImageProvider
}

// NewFactory creates a factory over the given collaborators.
func NewFactory(images Images, scene ModelScene, overlay Overlay) *Factory {
	return &Factory{
		images: images,
		model:  NewModelProvider(scene),
		image:  NewImageProvider(images, overlay),
	}
}

// For returns the image provider for image leaders and the model provider
// otherwise.
func (f *Factory) For(leaderID string) Provider {
	if f.images != nil && f.images.IsImageLeader(leaderID) {
		return f.image
	}
	return f.model
}

// DefaultSurface is used for state updates of a leader never displayed
// through the hook.
const DefaultSurface = string(geometry.Diplomacy)

// Hook is the scene callback point. It remembers the last surface each
// leader was shown on so later state-only updates land in the same place.
type Hook struct {
	factory   *Factory
	images    Images
	scene     ModelScene
	diplomacy DiplomacySource

	mu       sync.Mutex
	surfaces map[string]string
}

// NewHook creates a hook. diplomacy may be nil, in which case displays
// without a contextual state use the base image.
func NewHook(images Images, scene ModelScene, overlay Overlay, diplomacy DiplomacySource) *Hook {
	return &Hook{
		factory:   NewFactory(images, scene, overlay),
		images:    images,
		scene:     scene,
		diplomacy: diplomacy,
		surfaces:  map[string]string{},
	}
}

// LeaderDisplayed handles a scene displaying or refreshing a leader and
// returns the provider kind that handled it. An empty st is derived from the
// diplomacy source when one is configured.
func (h *Hook) LeaderDisplayed(leaderID, surface string, st state.Name) Kind {
	provider := h.factory.For(leaderID)
	if provider.Kind() == KindImage {
		if st == "" {
			st = h.initialState(leaderID)
		}
		h.remember(leaderID, surface)
	}
	provider.Show(leaderID, surface, st)
	return provider.Kind()
}

// StateChanged routes a state-only update. It reports whether the overlay
// handled it; leaders with a live 3D model are left to the scene.
func (h *Hook) StateChanged(leaderID string, st state.Name) bool {
	if h.scene != nil && h.scene.HasLiveModel(leaderID) {
		return false
	}
	if h.images == nil || !h.images.IsImageLeader(leaderID) {
		return false
	}
	return h.factory.image.Show(leaderID, h.lastSurface(leaderID), st)
}

func (h *Hook) initialState(leaderID string) state.Name {
	if h.diplomacy == nil {
		return ""
	}
	signal, atWar := h.diplomacy.Relationship(leaderID)
	return h.images.GetDiplomacyInitialState(signal, atWar)
}

func (h *Hook) remember(leaderID, surface string) {
	h.mu.Lock()
	h.surfaces[strings.TrimSpace(leaderID)] = surface
	h.mu.Unlock()
}

func (h *Hook) lastSurface(leaderID string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if surface, ok := h.surfaces[strings.TrimSpace(leaderID)]; ok {
		return surface
	}
	return DefaultSurface
}
