package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlayID uniquely identifies an overlay.
type OverlayID string

// Standard overlay IDs.
const (
	OverlayMesh       OverlayID = "mesh"
	OverlayWireframe  OverlayID = "wireframe"
	OverlayParticles  OverlayID = "particles"
	OverlayPostAxis   OverlayID = "post_axis"
	OverlayGripTarget OverlayID = "grip_target"
	OverlayGrid       OverlayID = "grid"
	OverlayPerf       OverlayID = "perf"
	OverlayInspector  OverlayID = "inspector"
	OverlayStats      OverlayID = "stats"
)

// OverlayDescriptor defines an overlay that can be toggled.
type OverlayDescriptor struct {
	ID          OverlayID   // Unique identifier
	Name        string      // Display name
	Description string      // What this overlay shows
	Key         int32       // Keyboard key to toggle (0 = no key)
	KeyLabel    string      // Key label for display (e.g., "S", "V")
	Category    string      // Grouping (e.g., "render", "debug", "panels")
	Exclusive   []OverlayID // Other overlays to disable when this is enabled
	Default     bool        // Enabled at startup
}

// OverlayRegistry manages overlay state and metadata.
type OverlayRegistry struct {
	descriptors []OverlayDescriptor
	byID        map[OverlayID]OverlayDescriptor
	enabled     map[OverlayID]bool
	order       []OverlayID // Maintains insertion order for display
}

// NewOverlayRegistry creates a registry with default overlays.
func NewOverlayRegistry() *OverlayRegistry {
	reg := &OverlayRegistry{
		byID:    make(map[OverlayID]OverlayDescriptor),
		enabled: make(map[OverlayID]bool),
	}
	reg.registerDefaults()
	return reg
}

// registerDefaults adds standard overlays.
func (r *OverlayRegistry) registerDefaults() {
	// Render overlays
	r.Register(OverlayDescriptor{
		ID:          OverlayMesh,
		Name:        "Tube Mesh",
		Description: "Shaded tube surface of every rope",
		Key:         rl.KeyM,
		KeyLabel:    "M",
		Category:    "render",
		Exclusive:   []OverlayID{OverlayWireframe},
		Default:     true,
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayWireframe,
		Name:        "Wireframe",
		Description: "Tube mesh edges only",
		Key:         rl.KeyW,
		KeyLabel:    "W",
		Category:    "render",
		Exclusive:   []OverlayID{OverlayMesh},
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayGrid,
		Name:        "Ground Grid",
		Description: "Reference grid on the floor",
		Key:         rl.KeyG,
		KeyLabel:    "G",
		Category:    "render",
		Default:     true,
	})

	// Debug overlays
	r.Register(OverlayDescriptor{
		ID:          OverlayParticles,
		Name:        "Particles",
		Description: "Live simulation particles",
		Key:         rl.KeyP,
		KeyLabel:    "P",
		Category:    "debug",
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayPostAxis,
		Name:        "Post Axis",
		Description: "Post axis and winding span",
		Key:         rl.KeyX,
		KeyLabel:    "X",
		Category:    "debug",
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayGripTarget,
		Name:        "Grip Target",
		Description: "Where the hand should follow the tip",
		Key:         rl.KeyT,
		KeyLabel:    "T",
		Category:    "debug",
	})

	// Panels
	r.Register(OverlayDescriptor{
		ID:          OverlayInspector,
		Name:        "Inspector",
		Description: "Components of the selected rope",
		Key:         rl.KeyI,
		KeyLabel:    "I",
		Category:    "panels",
		Default:     true,
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayStats,
		Name:        "Window Stats",
		Description: "Last telemetry window",
		Key:         rl.KeyS,
		KeyLabel:    "S",
		Category:    "panels",
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayPerf,
		Name:        "Performance",
		Description: "Per-phase step timing",
		Key:         rl.KeyF,
		KeyLabel:    "F",
		Category:    "panels",
	})
}

// Register adds an overlay to the registry.
func (r *OverlayRegistry) Register(desc OverlayDescriptor) {
	r.descriptors = append(r.descriptors, desc)
	r.byID[desc.ID] = desc
	r.order = append(r.order, desc.ID)
	r.enabled[desc.ID] = desc.Default
}

// Toggle switches an overlay on/off and handles exclusivity.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	if _, ok := r.byID[id]; !ok {
		return false
	}
	newState := !r.enabled[id]
	r.SetEnabled(id, newState)
	return newState
}

// SetEnabled explicitly sets an overlay's state.
func (r *OverlayRegistry) SetEnabled(id OverlayID, enabled bool) {
	desc, ok := r.byID[id]
	if !ok {
		return
	}

	r.enabled[id] = enabled

	// If enabling, disable exclusive overlays
	if enabled {
		for _, excl := range desc.Exclusive {
			r.enabled[excl] = false
		}
	}
}

// IsEnabled returns whether an overlay is active.
func (r *OverlayRegistry) IsEnabled(id OverlayID) bool {
	return r.enabled[id]
}

// ByCategory returns overlays filtered by category.
func (r *OverlayRegistry) ByCategory(category string) []OverlayDescriptor {
	var result []OverlayDescriptor
	for _, desc := range r.descriptors {
		if desc.Category == category {
			result = append(result, desc)
		}
	}
	return result
}

// Categories returns all unique categories in order.
func (r *OverlayRegistry) Categories() []string {
	seen := make(map[string]bool)
	var cats []string
	for _, desc := range r.descriptors {
		if !seen[desc.Category] {
			seen[desc.Category] = true
			cats = append(cats, desc.Category)
		}
	}
	return cats
}

// HandleKeys toggles every overlay whose key was pressed this frame.
func (r *OverlayRegistry) HandleKeys() {
	for _, desc := range r.descriptors {
		if desc.Key != 0 && rl.IsKeyPressed(desc.Key) {
			r.Toggle(desc.ID)
		}
	}
}
