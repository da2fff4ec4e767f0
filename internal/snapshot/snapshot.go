// Package snapshot persists tab group layouts so they can be inspected
// or re-created after the member windows are gone.
package snapshot

import (
	"strings"
	"time"

	"github.com/tabgroupd/tabgroupd/internal/group"
	"github.com/tabgroupd/tabgroupd/internal/platform"
)

// WindowSnapshot records enough about a grouped window to re-identify a
// similar window later.
type WindowSnapshot struct {
	Window        uint32 `json:"window"`
	AppID         string `json:"app_id,omitempty"`
	Title         string `json:"title,omitempty"`
	AppName       string `json:"app_name,omitempty"`
	PinState      string `json:"pin_state,omitempty"`
	CustomTabName string `json:"custom_tab_name,omitempty"`
	Separator     bool   `json:"separator,omitempty"`
}

// GroupSnapshot is a saved tab group layout.
type GroupSnapshot struct {
	Name        string           `json:"name"`
	GroupName   string           `json:"group_name,omitempty"`
	Display     string           `json:"display,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	Frame       platform.Rect    `json:"frame"`
	ActiveIndex int              `json:"active_index"`
	Windows     []WindowSnapshot `json:"windows"`
}

// Capture builds a snapshot of the given group under the given name.
func Capture(name string, g *group.TabGroup, display string) *GroupSnapshot {
	if g == nil {
		return nil
	}

	snap := &GroupSnapshot{
		Name:        name,
		GroupName:   g.Name(),
		Display:     display,
		CreatedAt:   time.Now(),
		Frame:       g.Frame(),
		ActiveIndex: g.ActiveIndex(),
	}
	for _, w := range g.Windows() {
		ws := WindowSnapshot{
			Window:        uint32(w.ID),
			AppID:         w.AppID,
			Title:         w.Title,
			AppName:       w.AppName,
			CustomTabName: w.CustomTabName,
			Separator:     w.Separator,
		}
		if w.PinState != group.PinNone {
			ws.PinState = w.PinState.String()
		}
		snap.Windows = append(snap.Windows, ws)
	}
	return snap
}

// MatchWindows maps each non-separator entry of the snapshot to a live
// window with the same app identity, preferring an exact title match.
// Each live window is used at most once; entries with no match are
// omitted from the result.
func (s *GroupSnapshot) MatchWindows(live []platform.Window) map[int]platform.WindowID {
	matches := make(map[int]platform.WindowID)
	used := make(map[platform.WindowID]bool)

	claim := func(i int, pred func(platform.Window) bool) {
		if _, ok := matches[i]; ok {
			return
		}
		for _, w := range live {
			if used[w.ID] || !pred(w) {
				continue
			}
			matches[i] = w.ID
			used[w.ID] = true
			return
		}
	}

	sameApp := func(ws WindowSnapshot, w platform.Window) bool {
		if ws.AppID != "" && strings.EqualFold(ws.AppID, w.AppID) {
			return true
		}
		return ws.AppID == "" && ws.AppName != "" && strings.EqualFold(ws.AppName, w.AppName)
	}

	for i, ws := range s.Windows {
		if ws.Separator {
			continue
		}
		ws := ws
		claim(i, func(w platform.Window) bool {
			return sameApp(ws, w) && ws.Title != "" && ws.Title == w.Title
		})
	}
	for i, ws := range s.Windows {
		if ws.Separator {
			continue
		}
		ws := ws
		claim(i, func(w platform.Window) bool {
			return sameApp(ws, w)
		})
	}
	return matches
}
