//go:build !linux

package daemon

import (
	"errors"

	"github.com/1broseidon/palettekit/internal/platform"
)

func openDisplay(string) (platform.Backend, error) {
	return nil, errors.New("display backend requires linux; run with --headless")
}
