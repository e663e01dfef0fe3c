// Package face blends facial expression weights and runs the autonomous
// blink and micro-expression behaviors.
package face

import (
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/normanking/avatarmotion/internal/bus"
	"github.com/normanking/avatarmotion/internal/skeleton"
)

// smoothingRate is the exponential approach rate toward expression targets.
const smoothingRate = 2.0

// dominantDeadband is the weight below which the dominant emotion label
// collapses to neutral.
const dominantDeadband = 0.25

// ChannelNames are the four expression channels, in a fixed order.
var ChannelNames = []string{"happy", "angry", "sad", "surprised"}

type channel struct {
	current   float32
	target    float32
	microAdd  float32
	microLeft float32
}

// Controller owns the expression channels, the blink state machine and the
// idle micro-expressions. Weights are written onto the bound avatar every
// frame. Not safe for concurrent use; the engine serializes access.
type Controller struct {
	logger zerolog.Logger
	events *bus.EventBus
	rng    *rand.Rand

	avatar   *skeleton.Avatar
	channels map[string]*channel
	dominant string

	blink     blinkMachine
	micro     bool
	microWait float32
}

// NewController builds a controller with all channels at zero and the blink
// countdown armed.
func NewController(events *bus.EventBus, logger zerolog.Logger) *Controller {
	c := &Controller{
		logger:   logger.With().Str("component", "face").Logger(),
		events:   events,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		channels: make(map[string]*channel, len(ChannelNames)),
		dominant: "neutral",
		micro:    true,
	}
	for _, name := range ChannelNames {
		c.channels[name] = &channel{}
	}
	c.blink.arm(c.rng)
	c.microWait = c.nextMicroWait()
	return c
}

// SetMicroExpressions enables or disables the idle micro-expression fires.
// Disabling also clears any transient currently in flight.
func (c *Controller) SetMicroExpressions(enabled bool) {
	c.micro = enabled
	if !enabled {
		for _, ch := range c.channels {
			ch.microAdd = 0
			ch.microLeft = 0
		}
	}
}

// Bind attaches an avatar; expression state carries across rebinds.
func (c *Controller) Bind(avatar *skeleton.Avatar) { c.avatar = avatar }

// Unbind detaches the avatar.
func (c *Controller) Unbind() { c.avatar = nil }

// SetEmotion sets the target weight of each named channel, clamped to
// [0,1]; unnamed channels keep their targets. The dominant label is
// recomputed on every call.
func (c *Controller) SetEmotion(weights map[string]float32) {
	for name, w := range weights {
		ch, ok := c.channels[name]
		if !ok {
			continue
		}
		if w < 0 {
			w = 0
		}
		if w > 1 {
			w = 1
		}
		ch.target = w
	}
	prev := c.dominant
	c.dominant = c.computeDominant()
	if c.dominant != prev && c.events != nil {
		c.events.Publish(bus.Event{
			Type: bus.EventTypeEmotionChanged,
			Data: map[string]any{"emotion": c.dominant},
		})
	}
}

// Dominant is the current argmax emotion label, or "neutral" inside the
// deadband.
func (c *Controller) Dominant() string { return c.dominant }

func (c *Controller) computeDominant() string {
	best := ""
	var bestW float32
	for _, name := range ChannelNames {
		if w := c.channels[name].target; w > bestW {
			best, bestW = name, w
		}
	}
	if bestW < dominantDeadband {
		return "neutral"
	}
	return best
}

// Weight reports the smoothed current weight of a channel.
func (c *Controller) Weight(name string) float32 {
	if ch, ok := c.channels[name]; ok {
		return ch.current
	}
	return 0
}

// BlinkWeight is the instantaneous eyelid closure in [0,1].
func (c *Controller) BlinkWeight() float32 { return c.blink.weight }

// Update advances smoothing, micro-expressions and the blink machine, then
// writes the resulting weights onto the avatar. Runs after the interaction
// subsystem each frame.
func (c *Controller) Update(dt float32) {
	alpha := float32(1 - math.Exp(-smoothingRate*float64(dt)))

	c.updateMicro(dt)
	for _, ch := range c.channels {
		tgt := ch.target + ch.microAdd
		if tgt > 1 {
			tgt = 1
		}
		ch.current += (tgt - ch.current) * alpha
	}

	if c.blink.update(dt, c.rng) && c.events != nil {
		c.events.Publish(bus.Event{Type: bus.EventTypeBlink})
	}

	if c.avatar != nil {
		for name, ch := range c.channels {
			c.avatar.SetFaceWeight(name, ch.current)
		}
		c.avatar.SetFaceWeight("blink", c.blink.weight)
	}
}

// updateMicro fires a small transient addition on a quiet channel every few
// seconds, purely for idle liveliness. Channels with an intentionally high
// target are never touched.
func (c *Controller) updateMicro(dt float32) {
	if !c.micro {
		return
	}
	for _, ch := range c.channels {
		if ch.microLeft > 0 {
			ch.microLeft -= dt
			if ch.microLeft <= 0 {
				ch.microLeft = 0
				ch.microAdd = 0
			}
		}
	}

	c.microWait -= dt
	if c.microWait > 0 {
		return
	}
	c.microWait = c.nextMicroWait()

	var quiet []*channel
	for _, name := range ChannelNames {
		if ch := c.channels[name]; ch.target < 0.3 {
			quiet = append(quiet, ch)
		}
	}
	if len(quiet) == 0 {
		return
	}
	ch := quiet[c.rng.Intn(len(quiet))]
	ch.microAdd = 0.05 + c.rng.Float32()*0.08
	ch.microLeft = 0.8 + c.rng.Float32()*1.2
}

func (c *Controller) nextMicroWait() float32 {
	return 3 + c.rng.Float32()*5
}
