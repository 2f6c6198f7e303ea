// Package compositor provides scratch render targets for copying texture
// regions into a new image.
package compositor

import (
	"errors"
	"image"
)

// Compositor errors.
var (
	ErrInvalidSize = errors.New("invalid render target size")
	ErrNotBound    = errors.New("render target is not bound")
	ErrReleased    = errors.New("render target was released")
)

// BlitParams describes one copy from a source image into a render target.
type BlitParams struct {
	SrcRect image.Rectangle // source pixels, may extend past the source bounds
	DstRect image.Rectangle // destination pixels in the render target
	NoClip  bool            // extend the copy one pixel past DstRect on every side
}

// RenderTarget is a scratch image owned by a Compositor.
type RenderTarget interface {
	// Bind makes the target active and returns a func restoring the
	// previously active target.
	Bind() (restore func())
	Blit(src image.Image, p BlitParams) error
	ReadBack() *image.NRGBA
	Size() (width, height int)
	Release()
}

// Compositor hands out render targets and tracks the active one.
type Compositor interface {
	Acquire(width, height int) (RenderTarget, error)
	Active() RenderTarget
}
