//go:build tinygo || !cgo

package segfxaux

import (
	"errors"
	"image"

	"github.com/soypat/segfx"
)

func ui(content image.Image, e segfx.Effect, cfg UIConfig) error {
	return errors.New("require cgo for UI rendering")
}
