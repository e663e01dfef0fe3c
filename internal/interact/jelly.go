package interact

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/normanking/avatarmotion/internal/skeleton"
)

// settleEpsilon is the displacement/velocity magnitude below which a spring
// snaps to rest.
const settleEpsilon = 0.0015

// spring is one Hookean oscillator driving a uniform scale offset on a raw
// bone. delay holds the propagation wave back before the impulse lands.
type spring struct {
	index   int
	disp    float32
	vel     float32
	delay   float32
	impulse float32
}

// jellyField owns all active springs. The field is inactive, and costs
// nothing per frame, whenever every spring has settled.
type jellyField struct {
	tension float32
	damping float32
	springs map[int]*spring
}

func newJellyField(tension, damping float32) *jellyField {
	if tension <= 0 {
		tension = 120
	}
	if damping <= 0 {
		damping = 7
	}
	return &jellyField{tension: tension, damping: damping, springs: make(map[int]*spring)}
}

func (j *jellyField) active() bool { return len(j.springs) > 0 }

func (j *jellyField) reset() {
	j.springs = make(map[int]*spring)
}

// trigger fires an impulse on a bone and propagates it down the hierarchy
// with a per-hop delay and decayed intensity, so the wobble travels as a
// visible wave instead of popping everywhere at once.
func (j *jellyField) trigger(avatar *skeleton.Avatar, bone skeleton.BoneName, intensity float32, rng *rand.Rand) {
	root, ok := avatar.RawIndex(bone)
	if !ok {
		return
	}
	type hop struct {
		index int
		depth int
	}
	queue := []hop{{index: root, depth: 0}}
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]

		decay := float32(1)
		var delay float32
		for d := 0; d < h.depth; d++ {
			decay *= 0.6 + rng.Float32()*0.05
			delay += 0.04 + rng.Float32()*0.02
		}
		amp := intensity * decay
		if amp < 0.01 {
			continue
		}
		s, ok := j.springs[h.index]
		if !ok {
			s = &spring{index: h.index}
			j.springs[h.index] = s
		}
		s.impulse += amp
		if delay > s.delay || s.delay == 0 {
			s.delay = delay
		}
		if h.depth == 0 {
			s.delay = 0
			s.vel += s.impulse
			s.impulse = 0
		}

		for _, c := range avatar.Skeleton.Children(h.index) {
			queue = append(queue, hop{index: c, depth: h.depth + 1})
		}
	}
}

// update integrates every spring one explicit Euler step and writes the
// resulting scale offsets onto raw bones. Settled springs snap their bone
// scale exactly to identity and are removed.
func (j *jellyField) update(dt float32, avatar *skeleton.Avatar) {
	for idx, s := range j.springs {
		if s.delay > 0 {
			s.delay -= dt
			if s.delay <= 0 {
				s.delay = 0
				s.vel += s.impulse
				s.impulse = 0
			}
		}
		accel := -j.tension*s.disp - j.damping*s.vel
		s.vel += accel * dt
		s.disp += s.vel * dt

		b := &avatar.Skeleton.Bones[idx]
		if s.delay == 0 && abs(s.vel) < settleEpsilon && abs(s.disp) < settleEpsilon {
			b.Scale = mgl32.Vec3{1, 1, 1}
			delete(j.springs, idx)
			continue
		}
		sc := 1 + s.disp
		b.Scale = mgl32.Vec3{sc, sc, sc}
	}
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
