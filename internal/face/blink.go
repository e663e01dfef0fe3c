package face

import "math/rand"

type blinkPhase int

const (
	blinkWaiting blinkPhase = iota
	blinkClosing
	blinkClosed
	blinkOpening
)

// blinkMachine runs the four-phase blink cycle. All durations are
// re-randomized per blink so the rhythm never looks mechanical.
type blinkMachine struct {
	phase  blinkPhase
	timer  float32
	dur    float32
	weight float32
}

// arm starts a fresh waiting countdown: usually 2.5-6s, with a 10% chance
// of a longer 3-7s stare.
func (b *blinkMachine) arm(rng *rand.Rand) {
	b.phase = blinkWaiting
	b.weight = 0
	if rng.Float32() < 0.1 {
		b.timer = 3 + rng.Float32()*4
	} else {
		b.timer = 2.5 + rng.Float32()*3.5
	}
}

// update advances the machine and returns true on the frame a blink starts.
func (b *blinkMachine) update(dt float32, rng *rand.Rand) bool {
	switch b.phase {
	case blinkWaiting:
		b.timer -= dt
		if b.timer <= 0 {
			b.phase = blinkClosing
			b.timer = 0
			b.dur = 0.06 + rng.Float32()*0.04
			return true
		}
	case blinkClosing:
		b.timer += dt
		x := b.timer / b.dur
		if x >= 1 {
			b.weight = 1
			b.phase = blinkClosed
			b.timer = 0
			b.dur = 0.02 + rng.Float32()*0.04
		} else {
			b.weight = x * x
		}
	case blinkClosed:
		b.timer += dt
		if b.timer >= b.dur {
			b.phase = blinkOpening
			b.timer = 0
			b.dur = 0.08 + rng.Float32()*0.06
		}
	case blinkOpening:
		b.timer += dt
		x := b.timer / b.dur
		if x >= 1 {
			b.weight = 0
			b.arm(rng)
			// Occasional quick double blink.
			if rng.Float32() < 0.15 {
				b.timer = 0.15 + rng.Float32()*0.1
			}
		} else {
			inv := 1 - x
			b.weight = inv * inv
		}
	}
	return false
}
