package clip

// Action is the playback state of one clip: a timeline position plus a
// weight that fades linearly toward a target over a fade duration. During a
// crossfade the outgoing and incoming action weights sum to one.
type Action struct {
	Clip *Clip
	Loop bool

	time    float32
	weight  float32
	target  float32
	fadeDur float32
	playing bool
}

// NewAction starts a stopped action at time zero and weight zero.
func NewAction(c *Clip, loop bool) *Action {
	return &Action{Clip: c, Loop: loop}
}

// Play starts the timeline from zero.
func (a *Action) Play() {
	a.time = 0
	a.playing = true
}

// Stop halts the timeline and zeroes the weight immediately.
func (a *Action) Stop() {
	a.playing = false
	a.weight = 0
	a.target = 0
}

// FadeTo moves the weight toward target over dur seconds. A zero dur
// applies the weight on the next update.
func (a *Action) FadeTo(target, dur float32) {
	if target < 0 {
		target = 0
	}
	if target > 1 {
		target = 1
	}
	a.target = target
	a.fadeDur = dur
}

// SetWeight applies a weight immediately, cancelling any fade.
func (a *Action) SetWeight(w float32) {
	a.weight = w
	a.target = w
	a.fadeDur = 0
}

// Update advances the timeline and the weight fade.
func (a *Action) Update(dt float32) {
	if a.playing && a.Clip != nil && a.Clip.Duration > 0 {
		a.time += dt
		if a.Loop {
			for a.time >= a.Clip.Duration {
				a.time -= a.Clip.Duration
			}
		} else if a.time >= a.Clip.Duration {
			a.time = a.Clip.Duration
			a.playing = false
		}
	}

	if a.weight != a.target {
		if a.fadeDur <= 0 {
			a.weight = a.target
		} else {
			step := dt / a.fadeDur
			if a.weight < a.target {
				a.weight += step
				if a.weight > a.target {
					a.weight = a.target
				}
			} else {
				a.weight -= step
				if a.weight < a.target {
					a.weight = a.target
				}
			}
		}
	}
}

// Time is the current timeline position in seconds.
func (a *Action) Time() float32 { return a.time }

// Weight is the current blend weight.
func (a *Action) Weight() float32 { return a.weight }

// Playing reports whether the timeline is advancing.
func (a *Action) Playing() bool { return a.playing }

// Finished reports a one-shot that has reached its natural end.
func (a *Action) Finished() bool {
	return !a.Loop && !a.playing && a.Clip != nil && a.time >= a.Clip.Duration
}
