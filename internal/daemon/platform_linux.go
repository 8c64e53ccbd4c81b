//go:build linux

package daemon

import "github.com/1broseidon/palettekit/internal/platform"

func openDisplay(display string) (platform.Backend, error) {
	return platform.NewLinuxBackendFromDisplay(display)
}
