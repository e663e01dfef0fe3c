// Package clip holds keyframed animation data and playback actions.
package clip

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/normanking/avatarmotion/internal/skeleton"
)

// RotationKey is one timed local-rotation waypoint.
type RotationKey struct {
	Time     float32
	Rotation mgl32.Quat
}

// PositionKey is one timed local-position waypoint.
type PositionKey struct {
	Time     float32
	Position mgl32.Vec3
}

// RotationTrack animates one canonical bone's local rotation.
type RotationTrack struct {
	Bone skeleton.BoneName
	Keys []RotationKey
}

// PositionTrack animates one canonical bone's local position. In practice
// only the hips carry a position track.
type PositionTrack struct {
	Bone skeleton.BoneName
	Keys []PositionKey
}

// Clip is a named, time-bounded set of keyframe tracks. Clips are immutable
// once built; playback state lives in Action.
type Clip struct {
	Name      string
	Duration  float32
	Rotations []RotationTrack
	Positions []PositionTrack
}

// Sample interpolates the track at time t, clamping outside the key range.
func (tr *RotationTrack) Sample(t float32) mgl32.Quat {
	n := len(tr.Keys)
	if n == 0 {
		return mgl32.QuatIdent()
	}
	if t <= tr.Keys[0].Time {
		return tr.Keys[0].Rotation
	}
	if t >= tr.Keys[n-1].Time {
		return tr.Keys[n-1].Rotation
	}
	hi := sort.Search(n, func(i int) bool { return tr.Keys[i].Time > t })
	lo := hi - 1
	span := tr.Keys[hi].Time - tr.Keys[lo].Time
	if span <= 0 {
		return tr.Keys[hi].Rotation
	}
	frac := (t - tr.Keys[lo].Time) / span
	return mgl32.QuatSlerp(tr.Keys[lo].Rotation, tr.Keys[hi].Rotation, frac)
}

// Sample interpolates the position track at time t.
func (tr *PositionTrack) Sample(t float32) mgl32.Vec3 {
	n := len(tr.Keys)
	if n == 0 {
		return mgl32.Vec3{}
	}
	if t <= tr.Keys[0].Time {
		return tr.Keys[0].Position
	}
	if t >= tr.Keys[n-1].Time {
		return tr.Keys[n-1].Position
	}
	hi := sort.Search(n, func(i int) bool { return tr.Keys[i].Time > t })
	lo := hi - 1
	span := tr.Keys[hi].Time - tr.Keys[lo].Time
	if span <= 0 {
		return tr.Keys[hi].Position
	}
	frac := (t - tr.Keys[lo].Time) / span
	a, b := tr.Keys[lo].Position, tr.Keys[hi].Position
	return a.Add(b.Sub(a).Mul(frac))
}

// FinalizeDuration recomputes Duration from the last key of every track.
func (c *Clip) FinalizeDuration() {
	var max float32
	for i := range c.Rotations {
		if n := len(c.Rotations[i].Keys); n > 0 && c.Rotations[i].Keys[n-1].Time > max {
			max = c.Rotations[i].Keys[n-1].Time
		}
	}
	for i := range c.Positions {
		if n := len(c.Positions[i].Keys); n > 0 && c.Positions[i].Keys[n-1].Time > max {
			max = c.Positions[i].Keys[n-1].Time
		}
	}
	c.Duration = max
}

// TrackBones lists every canonical bone the clip animates.
func (c *Clip) TrackBones() []skeleton.BoneName {
	seen := make(map[skeleton.BoneName]struct{})
	var out []skeleton.BoneName
	for i := range c.Rotations {
		if _, ok := seen[c.Rotations[i].Bone]; !ok {
			seen[c.Rotations[i].Bone] = struct{}{}
			out = append(out, c.Rotations[i].Bone)
		}
	}
	for i := range c.Positions {
		if _, ok := seen[c.Positions[i].Bone]; !ok {
			seen[c.Positions[i].Bone] = struct{}{}
			out = append(out, c.Positions[i].Bone)
		}
	}
	return out
}
