package procedural

import (
	"github.com/normanking/avatarmotion/internal/clip"
	"github.com/normanking/avatarmotion/internal/skeleton"
)

// breathingIdle is the fallback idle: a slow chest/spine breathing sway.
func breathingIdle(avatar *skeleton.Avatar) (*clip.Clip, bool) {
	b := newBuilder(avatar, FallbackIdleID)
	b.rotate(skeleton.Spine,
		waypoint{t: 0, x: 0.5},
		waypoint{t: 2.0, x: 1.6},
		waypoint{t: 4.0, x: 0.5},
	)
	b.rotate(skeleton.Chest,
		waypoint{t: 0, x: -0.5},
		waypoint{t: 2.0, x: 1.2},
		waypoint{t: 4.0, x: -0.5},
	)
	b.rotate(skeleton.Head,
		waypoint{t: 0, x: 0},
		waypoint{t: 1.3, x: 0.8, z: 0.5},
		waypoint{t: 2.7, x: -0.4, z: -0.5},
		waypoint{t: 4.0, x: 0},
	)
	b.rotate(skeleton.LeftUpperArm,
		waypoint{t: 0, z: 0},
		waypoint{t: 2.0, z: 1.2},
		waypoint{t: 4.0, z: 0},
	)
	b.rotate(skeleton.RightUpperArm,
		waypoint{t: 0, z: 0},
		waypoint{t: 2.0, z: -1.2},
		waypoint{t: 4.0, z: 0},
	)
	return b.build()
}

// swayIdle shifts weight side to side with a small hip counter-rotation.
func swayIdle(avatar *skeleton.Avatar) (*clip.Clip, bool) {
	b := newBuilder(avatar, "idle_sway")
	b.rotate(skeleton.Hips,
		waypoint{t: 0, z: 1.5},
		waypoint{t: 2.5, z: -1.5},
		waypoint{t: 5.0, z: 1.5},
	)
	b.rotate(skeleton.Spine,
		waypoint{t: 0, z: -1.0},
		waypoint{t: 2.5, z: 1.0},
		waypoint{t: 5.0, z: -1.0},
	)
	b.rotate(skeleton.Head,
		waypoint{t: 0, z: 0.8},
		waypoint{t: 2.5, z: -0.8},
		waypoint{t: 5.0, z: 0.8},
	)
	return b.build()
}

// bounceIdle is a springy happy idle with a vertical hip bounce.
func bounceIdle(avatar *skeleton.Avatar) (*clip.Clip, bool) {
	b := newBuilder(avatar, "idle_bounce")
	hips := avatar.NormalizedBone(skeleton.Hips)
	if hips != nil {
		y := hips.RestPosition.Y()
		b.translate(skeleton.Hips,
			clip.PositionKey{Time: 0, Position: hips.RestPosition},
			clip.PositionKey{Time: 0.4, Position: setY(hips.RestPosition, y-0.015)},
			clip.PositionKey{Time: 0.8, Position: hips.RestPosition},
		)
	}
	b.rotate(skeleton.Chest,
		waypoint{t: 0, x: 0},
		waypoint{t: 0.4, x: 2.0},
		waypoint{t: 0.8, x: 0},
	)
	b.rotate(skeleton.LeftLowerArm,
		waypoint{t: 0, z: 0},
		waypoint{t: 0.4, z: 4},
		waypoint{t: 0.8, z: 0},
	)
	b.rotate(skeleton.RightLowerArm,
		waypoint{t: 0, z: 0},
		waypoint{t: 0.4, z: -4},
		waypoint{t: 0.8, z: 0},
	)
	return b.build()
}

// droopIdle slumps the shoulders and tips the head down for a sad idle.
func droopIdle(avatar *skeleton.Avatar) (*clip.Clip, bool) {
	b := newBuilder(avatar, "idle_droop")
	b.rotate(skeleton.Spine,
		waypoint{t: 0, x: 4},
		waypoint{t: 3.0, x: 5.5},
		waypoint{t: 6.0, x: 4},
	)
	b.rotate(skeleton.Head,
		waypoint{t: 0, x: 9},
		waypoint{t: 3.0, x: 11},
		waypoint{t: 6.0, x: 9},
	)
	b.rotate(skeleton.LeftShoulder,
		waypoint{t: 0, z: -4},
		waypoint{t: 6.0, z: -4},
	)
	b.rotate(skeleton.RightShoulder,
		waypoint{t: 0, z: 4},
		waypoint{t: 6.0, z: 4},
	)
	return b.build()
}

// clapGesture brings the hands together twice in front of the chest.
func clapGesture(avatar *skeleton.Avatar) (*clip.Clip, bool) {
	b := newBuilder(avatar, "gesture_clap")
	left := []waypoint{
		{t: 0, z: 0},
		{t: 0.3, x: -20, z: 48},
		{t: 0.5, x: -20, z: 58},
		{t: 0.7, x: -20, z: 48},
		{t: 0.9, x: -20, z: 58},
		{t: 1.3, z: 0},
	}
	right := make([]waypoint, len(left))
	for i, p := range left {
		right[i] = waypoint{t: p.t, x: p.x, y: -p.y, z: -p.z}
	}
	b.rotate(skeleton.LeftUpperArm, left...)
	b.rotate(skeleton.RightUpperArm, right...)
	b.rotate(skeleton.LeftLowerArm,
		waypoint{t: 0, z: 0},
		waypoint{t: 0.3, z: 55},
		waypoint{t: 0.9, z: 55},
		waypoint{t: 1.3, z: 0},
	)
	b.rotate(skeleton.RightLowerArm,
		waypoint{t: 0, z: 0},
		waypoint{t: 0.3, z: -55},
		waypoint{t: 0.9, z: -55},
		waypoint{t: 1.3, z: 0},
	)
	return b.build()
}

// waveGesture raises the right arm and waves the forearm twice.
func waveGesture(avatar *skeleton.Avatar) (*clip.Clip, bool) {
	b := newBuilder(avatar, "gesture_wave")
	b.rotate(skeleton.RightUpperArm,
		waypoint{t: 0, z: 0},
		waypoint{t: 0.35, z: -135},
		waypoint{t: 1.55, z: -135},
		waypoint{t: 1.9, z: 0},
	)
	b.rotate(skeleton.RightLowerArm,
		waypoint{t: 0, z: 0},
		waypoint{t: 0.35, z: -20},
		waypoint{t: 0.65, z: -45},
		waypoint{t: 0.95, z: -10},
		waypoint{t: 1.25, z: -45},
		waypoint{t: 1.55, z: -20},
		waypoint{t: 1.9, z: 0},
	)
	b.rotate(skeleton.RightHand,
		waypoint{t: 0},
		waypoint{t: 0.35, y: -10},
		waypoint{t: 1.55, y: -10},
		waypoint{t: 1.9},
	)
	return b.build()
}

// bowGesture is a polite bow from the hips with the head following.
func bowGesture(avatar *skeleton.Avatar) (*clip.Clip, bool) {
	b := newBuilder(avatar, "gesture_bow")
	b.rotate(skeleton.Spine,
		waypoint{t: 0, x: 0},
		waypoint{t: 0.5, x: 28},
		waypoint{t: 1.3, x: 28},
		waypoint{t: 1.9, x: 0},
	)
	b.rotate(skeleton.Head,
		waypoint{t: 0, x: 0},
		waypoint{t: 0.5, x: 12},
		waypoint{t: 1.3, x: 12},
		waypoint{t: 1.9, x: 0},
	)
	return b.build()
}

// stepDance is a simple two-beat side-step dance loop.
func stepDance(avatar *skeleton.Avatar) (*clip.Clip, bool) {
	b := newBuilder(avatar, "dance_step")
	b.rotate(skeleton.Hips,
		waypoint{t: 0, y: 8, z: 3},
		waypoint{t: 0.5, y: -8, z: -3},
		waypoint{t: 1.0, y: 8, z: 3},
	)
	b.rotate(skeleton.Chest,
		waypoint{t: 0, y: -6},
		waypoint{t: 0.5, y: 6},
		waypoint{t: 1.0, y: -6},
	)
	b.rotate(skeleton.LeftUpperArm,
		waypoint{t: 0, z: 25},
		waypoint{t: 0.5, z: 5},
		waypoint{t: 1.0, z: 25},
	)
	b.rotate(skeleton.RightUpperArm,
		waypoint{t: 0, z: -5},
		waypoint{t: 0.5, z: -25},
		waypoint{t: 1.0, z: -5},
	)
	b.rotate(skeleton.Head,
		waypoint{t: 0, z: 4},
		waypoint{t: 0.5, z: -4},
		waypoint{t: 1.0, z: 4},
	)
	return b.build()
}

// armStretch raises both arms overhead and holds, an exercise loop.
func armStretch(avatar *skeleton.Avatar) (*clip.Clip, bool) {
	b := newBuilder(avatar, "exercise_arms")
	b.rotate(skeleton.LeftUpperArm,
		waypoint{t: 0, z: 0},
		waypoint{t: 0.8, z: 160},
		waypoint{t: 2.2, z: 160},
		waypoint{t: 3.0, z: 0},
	)
	b.rotate(skeleton.RightUpperArm,
		waypoint{t: 0, z: 0},
		waypoint{t: 0.8, z: -160},
		waypoint{t: 2.2, z: -160},
		waypoint{t: 3.0, z: 0},
	)
	b.rotate(skeleton.Chest,
		waypoint{t: 0, x: 0},
		waypoint{t: 0.8, x: -4},
		waypoint{t: 2.2, x: -4},
		waypoint{t: 3.0, x: 0},
	)
	return b.build()
}

func setY(v [3]float32, y float32) [3]float32 {
	return [3]float32{v[0], y, v[2]}
}
