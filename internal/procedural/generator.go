// Package procedural synthesizes analytic keyframe clips for motions with no
// authored source. Generators are deterministic for a given avatar and emit
// tracks only for bones the rig actually has.
package procedural

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/normanking/avatarmotion/internal/clip"
	"github.com/normanking/avatarmotion/internal/skeleton"
)

// Generator builds a clip for the avatar, or reports false when none of the
// bones it animates exist on the rig.
type Generator func(avatar *skeleton.Avatar) (*clip.Clip, bool)

// FallbackIdleID is the always-available zero-dependency idle used right
// after an avatar loads, before any library asset is ready.
const FallbackIdleID = "fallback_idle"

var registry = map[string]Generator{
	FallbackIdleID:  breathingIdle,
	"idle_sway":     swayIdle,
	"idle_bounce":   bounceIdle,
	"idle_droop":    droopIdle,
	"gesture_clap":  clapGesture,
	"gesture_wave":  waveGesture,
	"gesture_bow":   bowGesture,
	"dance_step":    stepDance,
	"exercise_arms": armStretch,
}

// Lookup returns the generator for a motion id.
func Lookup(id string) (Generator, bool) {
	g, ok := registry[id]
	return g, ok
}

// Generate runs the generator for id against the avatar.
func Generate(id string, avatar *skeleton.Avatar) (*clip.Clip, bool) {
	g, ok := registry[id]
	if !ok {
		return nil, false
	}
	return g(avatar)
}

// IDs lists every registered generator id.
func IDs() []string {
	out := make([]string, 0, len(registry))
	for id := range registry {
		out = append(out, id)
	}
	return out
}

// waypoint is a timed Euler-angle rotation in degrees, composed with the
// avatar's rest pose into an absolute keyframe.
type waypoint struct {
	t       float32
	x, y, z float32
}

// builder accumulates tracks, silently skipping absent bones.
type builder struct {
	avatar *skeleton.Avatar
	rest   skeleton.RestPose
	out    *clip.Clip
	added  bool
}

func newBuilder(avatar *skeleton.Avatar, name string) *builder {
	return &builder{
		avatar: avatar,
		rest:   avatar.RestPose(),
		out:    &clip.Clip{Name: name},
	}
}

func (b *builder) rotate(bone skeleton.BoneName, points ...waypoint) {
	if !b.avatar.HasBone(bone) {
		return
	}
	track := clip.RotationTrack{Bone: bone}
	for _, p := range points {
		authored := mgl32.AnglesToQuat(
			mgl32.DegToRad(p.x),
			mgl32.DegToRad(p.y),
			mgl32.DegToRad(p.z),
			mgl32.XYZ,
		)
		track.Keys = append(track.Keys, clip.RotationKey{
			Time:     p.t,
			Rotation: b.rest.Compose(bone, authored),
		})
	}
	b.out.Rotations = append(b.out.Rotations, track)
	b.added = true
}

func (b *builder) translate(bone skeleton.BoneName, points ...clip.PositionKey) {
	if !b.avatar.HasBone(bone) {
		return
	}
	b.out.Positions = append(b.out.Positions, clip.PositionTrack{Bone: bone, Keys: points})
	b.added = true
}

func (b *builder) build() (*clip.Clip, bool) {
	if !b.added {
		return nil, false
	}
	b.out.FinalizeDuration()
	return b.out, true
}
