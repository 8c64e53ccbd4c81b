//go:build linux

package platform

import (
	"testing"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/stretchr/testify/assert"

	"github.com/1broseidon/palettekit/internal/x11"
)

func TestKeyEventFromTransition(t *testing.T) {
	ev := keyEventFrom(x11.KeyTransition{
		Keycode: 38,
		Keysym:  0x61,
		State:   xproto.ModMaskShift | xproto.ModMaskControl,
		Down:    true,
	})
	assert.Equal(t, uint32(38), ev.Code)
	assert.Equal(t, int64(0x61), ev.KeyID)
	assert.True(t, ev.Down)
	assert.Equal(t, []int64{xproto.ModMaskShift, xproto.ModMaskControl}, ev.Modifiers)
}

func TestPointerEventFromTransition(t *testing.T) {
	assert.Equal(t, PointerEvent{Kind: PointerMove, X: 3, Y: 4},
		pointerEventFrom(x11.PointerTransition{X: 3, Y: 4}))
	assert.Equal(t, PointerEvent{Kind: PointerUp, X: 3, Y: 4, Button: 1},
		pointerEventFrom(x11.PointerTransition{X: 3, Y: 4, Button: 1, Release: true}))
	assert.Equal(t, PointerCaptureLost,
		pointerEventFrom(x11.PointerTransition{Lost: true, Release: true}).Kind)
}

func TestCursorGlyphsCoverEveryCursor(t *testing.T) {
	for c := CursorArrow; c <= CursorForbidden; c++ {
		_, ok := cursorGlyphs[c]
		assert.True(t, ok, "cursor %d has no glyph", c)
	}
}
