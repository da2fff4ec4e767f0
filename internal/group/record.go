package group

import (
	"strings"

	"github.com/tabgroupd/tabgroupd/internal/platform"
)

// PinState describes how a window is pinned inside its group.
type PinState int

const (
	// PinNone means the window is a regular, unpinned tab.
	PinNone PinState = iota
	// Pinned means the window occupies the pinned prefix of its group.
	Pinned
	// SuperPinned windows are mirrored into multiple groups by the
	// orchestration layer; the group itself treats them as pinned.
	SuperPinned
)

// String returns the string representation of the pin state.
func (p PinState) String() string {
	switch p {
	case PinNone:
		return "none"
	case Pinned:
		return "pinned"
	case SuperPinned:
		return "super-pinned"
	default:
		return "unknown"
	}
}

/// WindowRecord is the unit all grouping components operate on: one managed
// window plus its group-level bookkeeping state. Two records refer to the
// same window iff their IDs match.
type WindowRecord struct {
	ID      platform.WindowID
	PID     int
	AppID   string
	Title   string
	AppName string
	Icon    []byte

	PinState      PinState
	CustomTabName string
	// Separator marks a pseudo-window used as a visual divider between
	// tab runs. It has no real window identity and never enters the
	// focus history.
	Separator    bool
	Fullscreened bool
}

// FromPlatform builds a WindowRecord from a freshly discovered window.
func FromPlatform(w platform.Window) *WindowRecord {
	return &WindowRecord{
		ID:           w.ID,
		PID:          w.PID,
		AppID:        w.AppID,
		Title:        w.Title,
		AppName:      w.AppName,
		Fullscreened: w.Fullscreened,
	}
}

// NewSeparator creates a separator pseudo-window with the given synthetic ID.
// Separator IDs are allocated by the registry from a reserved range.
func NewSeparator(id platform.WindowID) *WindowRecord {
	return &WindowRecord{ID: id, Separator: true}
}

// IsPinned reports whether the window occupies the pinned prefix.
func (w *WindowRecord) IsPinned() bool {
	return w.PinState != PinNone
}

// DisplayTitle returns the user-facing tab title: the custom name when set,
// then the window title, then the application name.
func (w *WindowRecord) DisplayTitle() string {
	if name := strings.TrimSpace(w.CustomTabName); name != "" {
		return name
	}
	if title := strings.TrimSpace(w.Title); title != "" {
		return title
	}
	return w.AppName
}
