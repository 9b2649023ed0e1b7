package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlayID uniquely identifies an overlay.
type OverlayID string

// Standard overlay IDs.
const (
	OverlayCells    OverlayID = "cells"
	OverlayECM      OverlayID = "ecm"
	OverlayECMLinks OverlayID = "ecm_links"
	OverlayCoverage OverlayID = "coverage"
	OverlayGrid     OverlayID = "grid"
	OverlayPerf     OverlayID = "perf"
)

// OverlayDescriptor defines an overlay that can be toggled.
type OverlayDescriptor struct {
	ID          OverlayID
	Name        string
	Description string
	Key         int32  // Keyboard key to toggle (0 = no key)
	KeyLabel    string // Key label for display
	Category    string // Grouping in the controls panel
	Exclusive   []OverlayID
	Default     bool // Enabled at startup
}

// OverlayRegistry manages overlay state and metadata.
type OverlayRegistry struct {
	descriptors []OverlayDescriptor
	byID        map[OverlayID]OverlayDescriptor
	enabled     map[OverlayID]bool
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
	r.Register(OverlayDescriptor{
		ID:          OverlayCells,
		Name:        "Fibroblasts",
		Description: "Cells coloured by cycle phase",
		Key:         rl.KeyF,
		KeyLabel:    "F",
		Category:    "agents",
		Default:     true,
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayECM,
		Name:        "ECM",
		Description: "Matrix deposits",
		Key:         rl.KeyE,
		KeyLabel:    "E",
		Category:    "agents",
		Default:     true,
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayECMLinks,
		Name:        "ECM Links",
		Description: "Join each deposit to the one laid before it",
		Key:         rl.KeyL,
		KeyLabel:    "L",
		Category:    "agents",
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayCoverage,
		Name:        "Coverage",
		Description: "Grid coverage with the wound mask tinted",
		Key:         rl.KeyC,
		KeyLabel:    "C",
		Category:    "analysis",
		Exclusive:   []OverlayID{OverlayGrid},
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayGrid,
		Name:        "Grid",
		Description: "Spatial hash bucket outlines",
		Key:         rl.KeyG,
		KeyLabel:    "G",
		Category:    "analysis",
		Exclusive:   []OverlayID{OverlayCoverage},
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayPerf,
		Name:        "Performance",
		Description: "Per-phase tick timing",
		Key:         rl.KeyP,
		KeyLabel:    "P",
		Category:    "debug",
	})
}

// Register adds an overlay to the registry.
func (r *OverlayRegistry) Register(desc OverlayDescriptor) {
	r.descriptors = append(r.descriptors, desc)
	r.byID[desc.ID] = desc
	r.enabled[desc.ID] = desc.Default
}

// Toggle switches an overlay on/off and handles exclusivity.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	desc, ok := r.byID[id]
	if !ok {
		return false
	}

	newState := !r.enabled[id]
	r.enabled[id] = newState

	// If enabling, disable exclusive overlays
	if newState {
		for _, excl := range desc.Exclusive {
			r.enabled[excl] = false
		}
	}

	return newState
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

// HandleKeyPress checks if a key corresponds to an overlay toggle.
// Returns the overlay ID and new state if a toggle occurred.
func (r *OverlayRegistry) HandleKeyPress(key int32) (OverlayID, bool, bool) {
	for _, desc := range r.descriptors {
		if desc.Key == key {
			newState := r.Toggle(desc.ID)
			return desc.ID, newState, true
		}
	}
	return "", false, false
}
