// Package interact handles pointer-driven avatar responses: head and eye
// tracking, the jelly spring wobble and bone dragging with two-bone IK. All
// of its writes land on raw bones after the playback scheduler's frame
// update, composing on top of the animated pose.
package interact

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/normanking/avatarmotion/internal/bus"
	"github.com/normanking/avatarmotion/internal/skeleton"
)

// Config carries the interaction tunables.
type Config struct {
	DragMode           string
	AffectionThreshold float32
	JellyTension       float32
	JellyDamping       float32
}

// Subsystem owns all interaction state for one bound avatar. Not safe for
// concurrent use; the engine serializes access on the frame thread.
type Subsystem struct {
	logger zerolog.Logger
	events *bus.EventBus
	rng    *rand.Rand

	avatar  *skeleton.Avatar
	camera  Camera
	tracker headTracker
	jelly   *jellyField
	drag    *dragState
	scratch *skeleton.Scratch

	mode               DragMode
	affection          float32
	affectionThreshold float32

	pointerX, pointerY float32
	pointerIn          bool
}

// New builds the subsystem from config.
func New(cfg Config, events *bus.EventBus, logger zerolog.Logger) *Subsystem {
	thr := cfg.AffectionThreshold
	if thr <= 0 {
		thr = 20
	}
	return &Subsystem{
		logger:             logger.With().Str("component", "interact").Logger(),
		events:             events,
		rng:                rand.New(rand.NewSource(time.Now().UnixNano())),
		camera:             DefaultCamera(),
		jelly:              newJellyField(cfg.JellyTension, cfg.JellyDamping),
		scratch:            skeleton.NewScratch(),
		mode:               ParseDragMode(cfg.DragMode),
		affectionThreshold: thr,
	}
}

// Bind attaches an avatar and clears every per-avatar effect.
func (s *Subsystem) Bind(avatar *skeleton.Avatar) {
	s.avatar = avatar
	s.tracker = headTracker{}
	s.jelly.reset()
	s.drag = nil
}

// Unbind detaches the avatar.
func (s *Subsystem) Unbind() {
	s.avatar = nil
	s.jelly.reset()
	s.drag = nil
}

// SetCamera updates the viewer camera used for picking and reprojection.
func (s *Subsystem) SetCamera(cam Camera) { s.camera = cam }

// SetPointer updates the pointer in normalized device coordinates.
func (s *Subsystem) SetPointer(nx, ny float32, inViewport bool) {
	s.pointerX, s.pointerY, s.pointerIn = nx, ny, inViewport
	s.tracker.setPointer(nx, ny, inViewport)
}

// Affection is the current affection level.
func (s *Subsystem) Affection() float32 { return s.affection }

// SetAffection sets the affection level, clamped to [0,100], and reports
// the change on the bus.
func (s *Subsystem) SetAffection(v float32) {
	v = clamp(v, 0, 100)
	if v == s.affection {
		return
	}
	delta := v - s.affection
	s.affection = v
	s.publish(bus.EventTypeAffectionChanged, map[string]any{
		"value":  v,
		"delta":  delta,
		"reason": "external",
	})
}

// Poke fires a jelly impulse on a bone.
func (s *Subsystem) Poke(bone skeleton.BoneName, intensity float32) {
	if s.avatar == nil {
		return
	}
	s.jelly.trigger(s.avatar, bone, intensity, s.rng)
}

// StartDrag begins a grab at the pointer position. Hand grabs below the
// affection threshold are rejected: the avatar wobbles away and the refusal
// is reported instead of a drag starting. Returns the drag session id.
func (s *Subsystem) StartDrag(nx, ny float32) (string, bool) {
	if s.avatar == nil || s.drag != nil {
		return "", false
	}
	origin, dir := s.camera.Ray(nx, ny)
	bone, idx, ok := pickBone(s.avatar, origin, dir)
	if !ok {
		return "", false
	}
	if handBones[bone] && s.affection < s.affectionThreshold {
		s.jelly.trigger(s.avatar, bone, 0.25, s.rng)
		s.publish(bus.EventTypeTouchRejected, map[string]any{
			"bone":      string(bone),
			"affection": s.affection,
		})
		s.logger.Debug().Str("bone", string(bone)).Float32("affection", s.affection).Msg("drag rejected")
		return "", false
	}

	bonePos := s.avatar.Skeleton.WorldPosition(idx)
	side, isArm := armSides[bone]
	d := &dragState{
		id:     uuid.New(),
		bone:   bone,
		index:  idx,
		side:   side,
		isArm:  isArm,
		depth:  bonePos.Sub(s.camera.Position).Dot(s.camera.Forward),
		target: bonePos,
		weight: 1,
	}
	s.drag = d
	s.publish(bus.EventTypeDragStarted, map[string]any{
		"session": d.id.String(),
		"bone":    string(bone),
	})
	return d.id.String(), true
}

// EndDrag releases the grab; the bone blends back to the animated pose
// instead of snapping.
func (s *Subsystem) EndDrag() {
	if s.drag == nil || s.drag.releasing {
		return
	}
	s.drag.releasing = true
	s.publish(bus.EventTypeDragEnded, map[string]any{
		"session": s.drag.id.String(),
		"bone":    string(s.drag.bone),
	})
}

// Dragging reports whether a grab is currently held or blending back.
func (s *Subsystem) Dragging() bool { return s.drag != nil }

// Update applies one frame of drag, tracking and jelly, in that order. Must
// run after the playback scheduler's frame update.
func (s *Subsystem) Update(dt float32) {
	if s.avatar == nil {
		return
	}
	s.updateDrag(dt)
	s.tracker.update(dt, s.avatar, s.rng, s.scratch)
	if s.jelly.active() {
		s.jelly.update(dt, s.avatar)
	}
}

func (s *Subsystem) updateDrag(dt float32) {
	d := s.drag
	if d == nil {
		return
	}
	if d.releasing {
		d.weight -= dt / blendBackDuration
		if d.weight <= 0 {
			s.drag = nil
			return
		}
	} else if s.pointerIn {
		if p, ok := s.camera.PlanePoint(s.pointerX, s.pointerY, d.depth); ok {
			d.target = p
		}
	}

	if d.isArm && s.mode == DragModeIK {
		applyArmIK(s.avatar, d.side, d.target, d.weight, s.scratch)
	} else {
		applyDirectDrag(s.avatar, d.index, d.target, d.weight, s.scratch)
	}
}

func (s *Subsystem) publish(t bus.EventType, data map[string]any) {
	if s.events != nil {
		s.events.Publish(bus.Event{Type: t, Data: data})
	}
}
