package interact

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/normanking/avatarmotion/internal/skeleton"
)

// DragMode selects how pointer movement turns into bone rotation.
type DragMode int

const (
	// DragModeIK runs the two-bone solver on arm chains and falls back to
	// direct rotation elsewhere.
	DragModeIK DragMode = iota
	// DragModeDirect converts the world offset to a clamped rotation on
	// every bone, arms included.
	DragModeDirect
)

// ParseDragMode reads the config value; anything but "direct" means IK.
func ParseDragMode(s string) DragMode {
	if s == "direct" {
		return DragModeDirect
	}
	return DragModeIK
}

// pickRadius is the maximum ray-to-bone distance for a grab, in world units.
const pickRadius = 0.35

// directMaxAngle caps the rotation a direct drag may apply, in radians.
const directMaxAngle = float32(math.Pi / 6)

// blendBackDuration is how long a released bone takes to rejoin the
// animated pose.
const blendBackDuration = 0.4

// dragState is one active grab. weight is 1 while held and decays to 0
// during the post-release blend-back.
type dragState struct {
	id        uuid.UUID
	bone      skeleton.BoneName
	index     int
	side      skeleton.Side
	isArm     bool
	depth     float32
	target    mgl32.Vec3
	weight    float32
	releasing bool
}

// armSides maps arm-chain bones to their side.
var armSides = map[skeleton.BoneName]skeleton.Side{
	skeleton.LeftUpperArm:  skeleton.SideLeft,
	skeleton.LeftLowerArm:  skeleton.SideLeft,
	skeleton.LeftHand:      skeleton.SideLeft,
	skeleton.RightUpperArm: skeleton.SideRight,
	skeleton.RightLowerArm: skeleton.SideRight,
	skeleton.RightHand:     skeleton.SideRight,
}

// handBones gate on affection before a drag may start.
var handBones = map[skeleton.BoneName]bool{
	skeleton.LeftHand:      true,
	skeleton.RightHand:     true,
	skeleton.LeftLowerArm:  true,
	skeleton.RightLowerArm: true,
}

// pickBone finds the canonical bone nearest to the picking ray, or false
// when nothing is within grab range.
func pickBone(avatar *skeleton.Avatar, origin, dir mgl32.Vec3) (skeleton.BoneName, int, bool) {
	best := skeleton.BoneName("")
	bestIdx := -1
	bestDist := float32(pickRadius)
	for _, name := range skeleton.CanonicalBones {
		idx, ok := avatar.RawIndex(name)
		if !ok {
			continue
		}
		p := avatar.Skeleton.WorldPosition(idx)
		to := p.Sub(origin)
		t := to.Dot(dir)
		if t <= 0 {
			continue
		}
		d := to.Sub(dir.Mul(t)).Len()
		if d < bestDist {
			best, bestIdx, bestDist = name, idx, d
		}
	}
	return best, bestIdx, bestIdx >= 0
}

// solveTwoBone is the law-of-cosines solve for a two-segment chain reaching
// toward a target at dist. The distance is clamped to the reachable range
// so the angles are always finite. Returns the shoulder lift off the
// target direction, the interior elbow angle and the clamped distance.
func solveTwoBone(upper, lower, dist float32) (shoulder, elbow, clamped float32) {
	min := abs(upper-lower) + 1e-3
	max := upper + lower - 1e-3
	if max < min {
		max = min
	}
	d := clamp(dist, min, max)
	cosS := (upper*upper + d*d - lower*lower) / (2 * upper * d)
	cosE := (upper*upper + lower*lower - d*d) / (2 * upper * lower)
	shoulder = acos32(clamp(cosS, -1, 1))
	elbow = acos32(clamp(cosE, -1, 1))
	return shoulder, elbow, d
}

func acos32(v float32) float32 {
	return float32(math.Acos(float64(v)))
}

// applySwing rotates a bone by a world-space delta bringing cur onto
// desired, scaled by weight, composed on top of the animated pose. The delta
// and parent world rotation are staged in scratch slots 6 and 7.
func applySwing(skel *skeleton.Skeleton, idx int, cur, desired mgl32.Vec3, weight float32, scr *skeleton.Scratch) {
	if cur.Len() < 1e-5 || desired.Len() < 1e-5 {
		return
	}
	scr.Quats[6] = mgl32.QuatBetweenVectors(cur.Normalize(), desired.Normalize())
	if weight < 1 {
		scr.Quats[6] = mgl32.QuatSlerp(mgl32.QuatIdent(), scr.Quats[6], weight)
	}
	b := &skel.Bones[idx]
	scr.Quats[7] = mgl32.QuatIdent()
	if b.Parent >= 0 {
		scr.Quats[7] = skel.WorldRotation(b.Parent)
	}
	b.Rotation = scr.Quats[7].Inverse().Mul(scr.Quats[6]).Mul(scr.Quats[7]).Mul(b.Rotation).Normalize()
}

// applyArmIK poses one arm chain toward the target with the two-bone solve.
// Chain world positions live in scratch vector slots 0..2; slots 1 and 2 are
// refreshed after the upper swing because the elbow and hand move with it.
func applyArmIK(avatar *skeleton.Avatar, side skeleton.Side, target mgl32.Vec3, weight float32, scr *skeleton.Scratch) {
	upperName, lowerName, handName := side.ArmChain()
	ui, uok := avatar.RawIndex(upperName)
	li, lok := avatar.RawIndex(lowerName)
	hi, hok := avatar.RawIndex(handName)
	if !uok || !lok || !hok {
		return
	}
	upperLen, lowerLen, ok := avatar.BoneLengths(side)
	if !ok || upperLen < 1e-4 || lowerLen < 1e-4 {
		return
	}
	skel := avatar.Skeleton
	scr.Vecs[0] = skel.WorldPosition(ui)
	toTarget := target.Sub(scr.Vecs[0])
	if toTarget.Len() < 1e-5 {
		return
	}
	shoulder, elbow, _ := solveTwoBone(upperLen, lowerLen, toTarget.Len())
	dir := toTarget.Normalize()

	bendAxis := mgl32.Vec3{0, 1, 0}
	if side == skeleton.SideRight {
		bendAxis = mgl32.Vec3{0, -1, 0}
	}

	scr.Quats[0] = mgl32.QuatRotate(shoulder, bendAxis)
	dirUpper := scr.Quats[0].Rotate(dir)
	scr.Vecs[1] = skel.WorldPosition(li)
	applySwing(skel, ui, scr.Vecs[1].Sub(scr.Vecs[0]), dirUpper, weight, scr)

	scr.Quats[1] = mgl32.QuatRotate(-(float32(math.Pi) - elbow), bendAxis)
	dirLower := scr.Quats[1].Rotate(dirUpper)
	scr.Vecs[1] = skel.WorldPosition(li)
	scr.Vecs[2] = skel.WorldPosition(hi)
	applySwing(skel, li, scr.Vecs[2].Sub(scr.Vecs[1]), dirLower, weight, scr)
}

// applyDirectDrag swings the grabbed bone's parent so the bone moves toward
// the target, with the swing capped to a fixed maximum angle.
func applyDirectDrag(avatar *skeleton.Avatar, idx int, target mgl32.Vec3, weight float32, scr *skeleton.Scratch) {
	skel := avatar.Skeleton
	b := &skel.Bones[idx]
	if b.Parent < 0 {
		return
	}
	scr.Vecs[3] = skel.WorldPosition(b.Parent)
	cur := skel.WorldPosition(idx).Sub(scr.Vecs[3])
	desired := target.Sub(scr.Vecs[3])
	if cur.Len() < 1e-5 || desired.Len() < 1e-5 {
		return
	}
	scr.Quats[2] = mgl32.QuatBetweenVectors(cur.Normalize(), desired.Normalize())
	// Cap the swing so a far pointer cannot fold the joint.
	if dot := scr.Quats[2].W; dot < 1 {
		angle := 2 * acos32(clamp(dot, -1, 1))
		if angle > directMaxAngle {
			scr.Quats[2] = mgl32.QuatSlerp(mgl32.QuatIdent(), scr.Quats[2], directMaxAngle/angle)
		}
	}
	if weight < 1 {
		scr.Quats[2] = mgl32.QuatSlerp(mgl32.QuatIdent(), scr.Quats[2], weight)
	}
	pb := &skel.Bones[b.Parent]
	scr.Quats[3] = mgl32.QuatIdent()
	if pb.Parent >= 0 {
		scr.Quats[3] = skel.WorldRotation(pb.Parent)
	}
	pb.Rotation = scr.Quats[3].Inverse().Mul(scr.Quats[2]).Mul(scr.Quats[3]).Mul(pb.Rotation).Normalize()
}
