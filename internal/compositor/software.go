package compositor

import (
	"fmt"
	"image"
	"sync"

	xdraw "golang.org/x/image/draw"
)

// Software is a CPU compositor.
type Software struct {
	mu       sync.Mutex
	active   *Target
	acquired int
	released int
}

// NewSoftware creates a software compositor with no active target.
func NewSoftware() *Software {
	return &Software{}
}

// Acquire allocates a transparent black target of the given size.
func (s *Software) Acquire(width, height int) (RenderTarget, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}

	s.mu.Lock()
	s.acquired++
	s.mu.Unlock()

	return &Target{
		owner:  s,
		pixels: image.NewNRGBA(image.Rect(0, 0, width, height)),
	}, nil
}

// Active returns the bound target, or nil.
func (s *Software) Active() RenderTarget {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil
	}
	return s.active
}

// Outstanding returns the number of acquired targets not yet released.
func (s *Software) Outstanding() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acquired - s.released
}

func (s *Software) setActive(t *Target) *Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.active
	s.active = t
	return prev
}

func (s *Software) isActive(t *Target) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active == t
}

// Target is a render target backed by an in-memory image.
type Target struct {
	owner    *Software
	pixels   *image.NRGBA
	released bool
}

// Bind makes t the active target.
func (t *Target) Bind() func() {
	prev := t.owner.setActive(t)
	return func() {
		t.owner.setActive(prev)
	}
}

// Size returns the target dimensions.
func (t *Target) Size() (width, height int) {
	b := t.pixels.Bounds()
	return b.Dx(), b.Dy()
}

// Blit copies p.SrcRect of src into p.DstRect of the target. Equal sized
// rectangles are copied texel for texel; source reads outside src are
// clamped to its edge. Writes outside the target are dropped.
func (t *Target) Blit(src image.Image, p BlitParams) error {
	if t.released {
		return ErrReleased
	}
	if !t.owner.isActive(t) {
		return ErrNotBound
	}
	if p.SrcRect.Empty() || p.DstRect.Empty() || src.Bounds().Empty() {
		return nil
	}

	srcRect, dstRect := p.SrcRect, p.DstRect
	if p.NoClip {
		srcRect = srcRect.Inset(-1)
		dstRect = dstRect.Inset(-1)
	}

	if srcRect.Dx() != dstRect.Dx() || srcRect.Dy() != dstRect.Dy() {
		clipped := srcRect.Intersect(src.Bounds())
		xdraw.ApproxBiLinear.Scale(t.pixels, dstRect, src, clipped, xdraw.Src, nil)
		return nil
	}

	nrgba, ok := src.(*image.NRGBA)
	if !ok {
		nrgba = image.NewNRGBA(src.Bounds())
		xdraw.Draw(nrgba, nrgba.Bounds(), src, src.Bounds().Min, xdraw.Src)
	}

	sb := nrgba.Bounds()
	tb := t.pixels.Bounds()
	for dy := 0; dy < dstRect.Dy(); dy++ {
		y := dstRect.Min.Y + dy
		if y < tb.Min.Y || y >= tb.Max.Y {
			continue
		}
		sy := clamp(srcRect.Min.Y+dy, sb.Min.Y, sb.Max.Y-1)
		for dx := 0; dx < dstRect.Dx(); dx++ {
			x := dstRect.Min.X + dx
			if x < tb.Min.X || x >= tb.Max.X {
				continue
			}
			sx := clamp(srcRect.Min.X+dx, sb.Min.X, sb.Max.X-1)
			si := nrgba.PixOffset(sx, sy)
			di := t.pixels.PixOffset(x, y)
			copy(t.pixels.Pix[di:di+4], nrgba.Pix[si:si+4])
		}
	}
	return nil
}

// ReadBack returns a copy of the target pixels.
func (t *Target) ReadBack() *image.NRGBA {
	out := image.NewNRGBA(t.pixels.Bounds())
	copy(out.Pix, t.pixels.Pix)
	return out
}

// Release frees the target. Releasing an active target unbinds it.
func (t *Target) Release() {
	if t.released {
		return
	}
	t.released = true

	s := t.owner
	s.mu.Lock()
	if s.active == t {
		s.active = nil
	}
	s.released++
	s.mu.Unlock()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
