package interact

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/normanking/avatarmotion/internal/skeleton"
)

// Head and eye angle limits in degrees. Eyes move wider and more directly
// than the head.
const (
	headYawLimit   = 20
	headPitchLimit = 15
	eyeYawLimit    = 30
	eyePitchLimit  = 22
)

// neckShare is how much of the head rotation the neck takes; the head bone
// carries the rest.
const neckShare = 0.4

// trackSmoothRate is the exponential approach rate toward the gaze target.
const trackSmoothRate = 6.0

// headTracker turns pointer position into smoothed neck/head/eye rotations,
// written onto raw bones so the normalized-to-raw pass of the rig runtime
// does not overwrite them.
type headTracker struct {
	targetYaw   float32
	targetPitch float32
	yaw         float32
	pitch       float32

	saccadeYaw   float32
	saccadePitch float32
	saccadeWait  float32
}

// setPointer updates the gaze target. An out-of-viewport pointer returns
// the gaze smoothly to neutral.
func (t *headTracker) setPointer(nx, ny float32, inViewport bool) {
	if !inViewport {
		t.targetYaw = 0
		t.targetPitch = 0
		return
	}
	t.targetYaw = clamp(nx, -1, 1) * headYawLimit
	t.targetPitch = clamp(ny, -1, 1) * headPitchLimit
}

func (t *headTracker) update(dt float32, avatar *skeleton.Avatar, rng *rand.Rand, scr *skeleton.Scratch) {
	alpha := float32(1 - math.Exp(-trackSmoothRate*float64(dt)))
	t.yaw += (t.targetYaw - t.yaw) * alpha
	t.pitch += (t.targetPitch - t.pitch) * alpha

	// Small gaze saccades keep the eyes alive even on a still pointer.
	t.saccadeWait -= dt
	if t.saccadeWait <= 0 {
		t.saccadeWait = 0.5 + rng.Float32()*2.5
		t.saccadeYaw = (rng.Float32()*2 - 1) * 2
		t.saccadePitch = (rng.Float32()*2 - 1) * 1.5
	}

	t.applyBone(avatar, skeleton.Neck, t.yaw*neckShare, t.pitch*neckShare, scr)
	t.applyBone(avatar, skeleton.Head, t.yaw*(1-neckShare), t.pitch*(1-neckShare), scr)

	eyeScale := float32(eyeYawLimit) / headYawLimit
	eyeYaw := clamp(t.yaw*eyeScale+t.saccadeYaw, -eyeYawLimit, eyeYawLimit)
	eyePitch := clamp(t.pitch*(eyePitchLimit/headPitchLimit)+t.saccadePitch, -eyePitchLimit, eyePitchLimit)
	t.applyBone(avatar, skeleton.LeftEye, eyeYaw, eyePitch, scr)
	t.applyBone(avatar, skeleton.RightEye, eyeYaw, eyePitch, scr)
}

// applyBone composes a yaw/pitch offset on top of the animated pose. The
// offset quaternion is staged in scratch slot 5.
func (t *headTracker) applyBone(avatar *skeleton.Avatar, name skeleton.BoneName, yawDeg, pitchDeg float32, scr *skeleton.Scratch) {
	b := avatar.RawBone(name)
	if b == nil {
		return
	}
	scr.Quats[5] = mgl32.AnglesToQuat(
		mgl32.DegToRad(pitchDeg),
		mgl32.DegToRad(yawDeg),
		0,
		mgl32.XYZ,
	)
	b.Rotation = b.Rotation.Mul(scr.Quats[5]).Normalize()
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
