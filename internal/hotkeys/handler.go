package hotkeys

import (
	"fmt"
	"log"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/tabgroupd/tabgroupd/internal/config"
	"github.com/tabgroupd/tabgroupd/internal/platform"
)

// Manager is the subset of daemon operations the hotkey layer drives.
type Manager interface {
	OpenSwitcher() bool
	AdvanceSwitcher()
	RetreatSwitcher()
	CycleSwitcherGroup()
	CommitSwitcher()
	DismissSwitcher()
	SwitcherActive() bool
	CycleFocusedGroup()
	EndFocusedGroupCycle()
	PrevTabInFocusedGroup()
}

// x11Accessor is an optional interface for backends that expose X11
// internals.
type x11Accessor interface {
	XUtil() *xgbutil.XUtil
}

// sessionMode tracks which modal key session holds the keyboard grab.
type sessionMode int

const (
	modeNone sessionMode = iota
	modeSwitcher
	modeGroupCycle
)

// Handler manages global keyboard shortcuts and the modal key session
// while a switcher or group cycle is open.
type Handler struct {
	xu      *xgbutil.XUtil
	root    xproto.Window
	manager Manager

	mu                 sync.Mutex
	mode               sessionMode
	grabWindow         xproto.Window
	keyHandlerAttached bool
}

var ignoreModsOnce sync.Once

// NewHandler creates a hotkey handler over the given backend and manager.
func NewHandler(backend platform.Backend, manager Manager) *Handler {
	var xu *xgbutil.XUtil
	var root xproto.Window
	if accessor, ok := backend.(x11Accessor); ok {
		xu = accessor.XUtil()
		if xu != nil {
			root = xu.RootWin()
		}
	}

	ignoreModsOnce.Do(func() {
		configureIgnoreMods(xu)
	})

	return &Handler{
		xu:      xu,
		root:    root,
		manager: manager,
	}
}

// RegisterAll binds every configured hotkey. An empty binding is skipped.
func (h *Handler) RegisterAll(keys config.Hotkeys) error {
	bindings := []struct {
		seq string
		fn  func()
	}{
		{keys.Switcher, h.onSwitcherKey},
		{keys.SwitcherBackward, h.onSwitcherBackwardKey},
		{keys.CycleGroup, h.onCycleGroupKey},
		{keys.GroupNextTab, h.onGroupNextTabKey},
		{keys.GroupPrevTab, func() { h.manager.PrevTabInFocusedGroup() }},
	}
	for _, b := range bindings {
		if b.seq == "" {
			continue
		}
		if err := h.RegisterFunc(b.seq, b.fn); err != nil {
			return fmt.Errorf("failed to register hotkey %q: %w", b.seq, err)
		}
	}
	return nil
}

// RegisterFunc registers an arbitrary hotkey callback.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.xu, h.root, keySequence, true)
}

// onSwitcherKey opens the switcher and grabs the keyboard; further
// presses while open are delivered through the grab handler instead.
func (h *Handler) onSwitcherKey() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.mode != modeNone {
		return
	}
	if !h.manager.OpenSwitcher() {
		return
	}
	if err := h.grabKeyboardLocked(modeSwitcher); err != nil {
		log.Printf("switcher keyboard grab failed: %v", err)
		h.manager.DismissSwitcher()
	}
}

func (h *Handler) onSwitcherBackwardKey() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.mode != modeNone {
		return
	}
	if !h.manager.OpenSwitcher() {
		return
	}
	h.manager.RetreatSwitcher()
	h.manager.RetreatSwitcher()
	if err := h.grabKeyboardLocked(modeSwitcher); err != nil {
		log.Printf("switcher keyboard grab failed: %v", err)
		h.manager.DismissSwitcher()
	}
}

func (h *Handler) onCycleGroupKey() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.mode == modeSwitcher {
		h.manager.CycleSwitcherGroup()
	}
}

// onGroupNextTabKey starts (or would continue) an in-group MRU cycle;
// while the cycle is open further presses arrive through the grab.
func (h *Handler) onGroupNextTabKey() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.mode != modeNone {
		return
	}
	h.manager.CycleFocusedGroup()
	if err := h.grabKeyboardLocked(modeGroupCycle); err != nil {
		// Without the grab we cannot see the modifier release; commit
		// the cycle immediately.
		h.manager.EndFocusedGroupCycle()
	}
}

// X11 keysyms used by the modal session.
const (
	keysymTab        = 0xff09
	keysymISOLeftTab = 0xfe20
	keysymReturn     = 0xff0d
	keysymKPEnter    = 0xff8d
	keysymEscape     = 0xff1b
	keysymGrave      = 0x0060
	keysymLeft       = 0xff51
	keysymRight      = 0xff53
	keysymAltL       = 0xffe9
	keysymAltR       = 0xffea
	keysymSuperL     = 0xffeb
	keysymSuperR     = 0xffec
)

// handleKeyPress processes key events while the keyboard is grabbed.
func (h *Handler) handleKeyPress(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
	keysym := keybind.KeysymGet(xu, ev.Detail, 0)

	h.mu.Lock()
	defer h.mu.Unlock()

	switch h.mode {
	case modeSwitcher:
		switch keysym {
		case keysymTab, keysymRight:
			if ev.State&xproto.ModMaskShift != 0 {
				h.manager.RetreatSwitcher()
			} else {
				h.manager.AdvanceSwitcher()
			}
		case keysymISOLeftTab, keysymLeft:
			h.manager.RetreatSwitcher()
		case keysymGrave:
			h.manager.CycleSwitcherGroup()
		case keysymReturn, keysymKPEnter:
			h.manager.CommitSwitcher()
			h.ungrabKeyboardLocked()
		case keysymEscape:
			h.manager.DismissSwitcher()
			h.ungrabKeyboardLocked()
		}
	case modeGroupCycle:
		switch keysym {
		case keysymEscape:
			h.manager.EndFocusedGroupCycle()
			h.ungrabKeyboardLocked()
		default:
			h.manager.CycleFocusedGroup()
		}
	}
}

// handleKeyRelease watches for the modifier release that commits a modal
// session.
func (h *Handler) handleKeyRelease(xu *xgbutil.XUtil, ev xevent.KeyReleaseEvent) {
	keysym := keybind.KeysymGet(xu, ev.Detail, 0)
	switch keysym {
	case keysymAltL, keysymAltR, keysymSuperL, keysymSuperR:
	default:
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	switch h.mode {
	case modeSwitcher:
		h.manager.CommitSwitcher()
		h.ungrabKeyboardLocked()
	case modeGroupCycle:
		h.manager.EndFocusedGroupCycle()
		h.ungrabKeyboardLocked()
	}
}

// grabKeyboardLocked grabs the keyboard and redirects key events to the
// dedicated grab window. Caller holds h.mu.
func (h *Handler) grabKeyboardLocked(mode sessionMode) error {
	if h.xu == nil {
		return fmt.Errorf("no X11 connection")
	}
	if err := h.ensureGrabWindowLocked(); err != nil {
		return err
	}

	grab := func() (*xproto.GrabKeyboardReply, error) {
		cookie := xproto.GrabKeyboard(
			h.xu.Conn(),
			false,                  // owner_events (report events to grab_window)
			h.root,                 // grab_window (must be viewable)
			xproto.TimeCurrentTime, // time
			xproto.GrabModeAsync,   // pointer_mode
			xproto.GrabModeAsync,   // keyboard_mode
		)
		return cookie.Reply()
	}

	reply, err := grab()
	if err != nil {
		return err
	}

	// When the session starts from a globally grabbed hotkey, the
	// keyboard may already be grabbed by this client. Ungrab and retry.
	if reply.Status == xproto.GrabStatusAlreadyGrabbed {
		xproto.UngrabKeyboard(h.xu.Conn(), xproto.TimeCurrentTime)
		reply, err = grab()
		if err != nil {
			return err
		}
	}
	if reply.Status != xproto.GrabStatusSuccess {
		return fmt.Errorf("keyboard grab failed with status %d", reply.Status)
	}

	xevent.RedirectKeyEvents(h.xu, h.grabWindow)

	if !h.keyHandlerAttached {
		xevent.KeyPressFun(h.handleKeyPress).Connect(h.xu, h.grabWindow)
		xevent.KeyReleaseFun(h.handleKeyRelease).Connect(h.xu, h.grabWindow)
		h.keyHandlerAttached = true
	}

	h.mode = mode
	return nil
}

// ungrabKeyboardLocked releases the keyboard grab. Caller holds h.mu.
func (h *Handler) ungrabKeyboardLocked() {
	if h.xu != nil {
		xproto.UngrabKeyboard(h.xu.Conn(), xproto.TimeCurrentTime)
		xevent.RedirectKeyEvents(h.xu, 0)
		if h.keyHandlerAttached && h.grabWindow != 0 {
			xevent.Detach(h.xu, h.grabWindow)
			h.keyHandlerAttached = false
		}
	}
	h.mode = modeNone
}

// ensureGrabWindowLocked lazily creates the InputOnly window used as the
// key event target while the keyboard is grabbed.
func (h *Handler) ensureGrabWindowLocked() error {
	if h.grabWindow != 0 {
		return nil
	}

	conn := h.xu.Conn()
	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return err
	}

	// InputOnly window that never draws anything; used solely as a safe
	// target for key event callbacks while the keyboard is grabbed.
	err = xproto.CreateWindowChecked(
		conn,
		0, // depth (must be 0 for InputOnly)
		wid,
		h.root,
		0, 0, // x, y
		1, 1, // width, height
		0, // border_width
		xproto.WindowClassInputOnly,
		xproto.Visualid(0), // CopyFromParent
		xproto.CwEventMask,
		[]uint32{uint32(xproto.EventMaskKeyPress | xproto.EventMaskKeyRelease)},
	).Check()
	if err != nil {
		return err
	}

	xproto.MapWindow(conn, wid)

	h.grabWindow = wid
	return nil
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	unique := make(map[uint16]struct{})
	add := func(mask uint16) {
		unique[mask] = struct{}{}
	}

	add(0)
	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		add(mask)
	}

	ignore := make([]uint16, 0, len(unique))
	for mask := range unique {
		ignore = append(ignore, mask)
	}

	xevent.IgnoreMods = ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	if xu == nil {
		return 0
	}
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
