package skeleton

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Scratch is a small fixed-size buffer pool for quaternion and vector
// temporaries in per-frame update loops. Callers take slots by index and must
// not hold them across frames; the pool is single-threaded like the frame
// loop that owns it.
type Scratch struct {
	Quats [8]mgl32.Quat
	Vecs  [8]mgl32.Vec3
}

// NewScratch returns a pool with all quaternion slots at identity.
func NewScratch() *Scratch {
	s := &Scratch{}
	for i := range s.Quats {
		s.Quats[i] = mgl32.QuatIdent()
	}
	return s
}

// Reset restores identity quaternions and zero vectors.
func (s *Scratch) Reset() {
	for i := range s.Quats {
		s.Quats[i] = mgl32.QuatIdent()
	}
	for i := range s.Vecs {
		s.Vecs[i] = mgl32.Vec3{}
	}
}
