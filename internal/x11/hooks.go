package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// KeyTransition is a key event seen through the root keyboard grab.
type KeyTransition struct {
	Keycode xproto.Keycode
	Keysym  xproto.Keysym
	State   uint16
	Down    bool
}

// PointerTransition is a pointer event in root coordinates.
type PointerTransition struct {
	X       int
	Y       int
	Button  int
	Release bool
	Lost    bool
}

var modifierMasks = []uint16{
	xproto.ModMaskShift,
	xproto.ModMaskLock,
	xproto.ModMaskControl,
	xproto.ModMask1,
	xproto.ModMask2,
	xproto.ModMask3,
	xproto.ModMask4,
	xproto.ModMask5,
}

// ModifierMasks splits a key state into its individual modifier masks.
func ModifierMasks(state uint16) []uint16 {
	var out []uint16
	for _, m := range modifierMasks {
		if state&m != 0 {
			out = append(out, m)
		}
	}
	return out
}

// GrabKeyboard installs a synchronous grab on every key of the root window.
// Each press freezes the keyboard until decide returns: consumed presses
// stay with us, the rest are replayed to the focused client. Releases are
// only observed for consumed keys since replay ends the grab.
func (c *Connection) GrabKeyboard(decide func(KeyTransition) bool) error {
	conn := c.XUtil.Conn()
	err := xproto.GrabKeyChecked(
		conn, false, c.Root,
		xproto.ModMaskAny, xproto.GrabAny,
		xproto.GrabModeAsync, xproto.GrabModeSync,
	).Check()
	if err != nil {
		return fmt.Errorf("grab keyboard: %w", err)
	}

	xevent.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		t := KeyTransition{
			Keycode: ev.Detail,
			Keysym:  keybind.KeysymGet(xu, ev.Detail, 0),
			State:   ev.State,
			Down:    true,
		}
		mode := byte(xproto.AllowReplayKeyboard)
		if decide(t) {
			mode = xproto.AllowAsyncKeyboard
		}
		xproto.AllowEvents(xu.Conn(), mode, ev.Time)
	}).Connect(c.XUtil, c.Root)

	xevent.KeyReleaseFun(func(xu *xgbutil.XUtil, ev xevent.KeyReleaseEvent) {
		decide(KeyTransition{
			Keycode: ev.Detail,
			Keysym:  keybind.KeysymGet(xu, ev.Detail, 0),
			State:   ev.State,
		})
		xproto.AllowEvents(xu.Conn(), xproto.AllowAsyncKeyboard, ev.Time)
	}).Connect(c.XUtil, c.Root)
	return nil
}

// UngrabKeyboard removes the root key grab and its handlers.
func (c *Connection) UngrabKeyboard() {
	xproto.UngrabKey(c.XUtil.Conn(), xproto.GrabAny, c.Root, xproto.ModMaskAny)
	xevent.Detach(c.XUtil, c.Root)
}

// PointerState samples the pointer position and the pressed buttons.
func (c *Connection) PointerState() (x, y int, buttons uint16, err error) {
	reply, err := xproto.QueryPointer(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return 0, 0, 0, fmt.Errorf("query pointer: %w", err)
	}
	return int(reply.RootX), int(reply.RootY), reply.Mask & buttonMasks, nil
}

const buttonMasks = xproto.KeyButMaskButton1 |
	xproto.KeyButMaskButton2 |
	xproto.KeyButMaskButton3 |
	xproto.KeyButMaskButton4 |
	xproto.KeyButMaskButton5

// ButtonChanges compares two button masks and reports each button that
// went down or up, numbered from 1.
func ButtonChanges(prev, next uint16) (down, up []int) {
	for i := 0; i < 5; i++ {
		m := uint16(xproto.KeyButMaskButton1) << i
		switch {
		case prev&m == 0 && next&m != 0:
			down = append(down, i+1)
		case prev&m != 0 && next&m == 0:
			up = append(up, i+1)
		}
	}
	return down, up
}

// GrabPointer actively grabs the pointer for win. fn receives motion and
// releases until UngrabPointer, and a Lost transition if another client
// or the server breaks the grab.
func (c *Connection) GrabPointer(win xproto.Window, fn func(PointerTransition)) error {
	mask := uint16(xproto.EventMaskButtonRelease | xproto.EventMaskPointerMotion | xproto.EventMaskLeaveWindow)
	reply, err := xproto.GrabPointer(
		c.XUtil.Conn(), false, win, mask,
		xproto.GrabModeAsync, xproto.GrabModeAsync,
		xproto.WindowNone, xproto.CursorNone, xproto.TimeCurrentTime,
	).Reply()
	if err != nil {
		return fmt.Errorf("grab pointer: %w", err)
	}
	if reply.Status != xproto.GrabStatusSuccess {
		return fmt.Errorf("grab pointer: status %d", reply.Status)
	}

	xevent.MotionNotifyFun(func(_ *xgbutil.XUtil, ev xevent.MotionNotifyEvent) {
		fn(PointerTransition{X: int(ev.RootX), Y: int(ev.RootY)})
	}).Connect(c.XUtil, win)
	xevent.ButtonReleaseFun(func(_ *xgbutil.XUtil, ev xevent.ButtonReleaseEvent) {
		fn(PointerTransition{X: int(ev.RootX), Y: int(ev.RootY), Button: int(ev.Detail), Release: true})
	}).Connect(c.XUtil, win)
	xevent.LeaveNotifyFun(func(_ *xgbutil.XUtil, ev xevent.LeaveNotifyEvent) {
		if ev.Mode == xproto.NotifyModeUngrab {
			fn(PointerTransition{X: int(ev.RootX), Y: int(ev.RootY), Lost: true})
		}
	}).Connect(c.XUtil, win)
	return nil
}

// UngrabPointer ends an active grab started on win.
func (c *Connection) UngrabPointer(win xproto.Window) {
	xevent.Detach(c.XUtil, win)
	xproto.UngrabPointer(c.XUtil.Conn(), xproto.TimeCurrentTime)
}
