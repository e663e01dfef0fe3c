package skeleton

import (
	"sync"
)

// RigConvention distinguishes the two humanoid-rig coordinate conventions.
// Legacy-convention avatars face +Z and need a Y-axis flip on retargeted
// rotations; the newer convention faces -Z and needs none.
type RigConvention int

const (
	RigConventionModern RigConvention = iota
	RigConventionLegacy
)

// Avatar binds a skeleton to the humanoid rig. Two addressing spaces exist
// for the same physical skeleton: normalized bones are proportion-independent
// and are written by the playback scheduler; raw bones are the rendered nodes
// and are written only by the interaction subsystem, after playback, so its
// corrections survive the normalized->raw pass the rig runtime performs.
type Avatar struct {
	Name       string
	Convention RigConvention

	Skeleton *Skeleton

	normalized map[BoneName]int
	raw        map[BoneName]int

	restPose  RestPose
	hipHeight float32

	mu          sync.RWMutex
	faceWeights map[string]float32
}

// NewAvatar wraps a skeleton whose canonical mapping is already resolved.
// The same index table serves both addressing spaces when the rig runtime
// does not maintain a separate normalized hierarchy.
func NewAvatar(name string, skel *Skeleton, normalized, raw map[BoneName]int, conv RigConvention) *Avatar {
	a := &Avatar{
		Name:        name,
		Convention:  conv,
		Skeleton:    skel,
		normalized:  normalized,
		raw:         raw,
		restPose:    DefaultRestPose(),
		faceWeights: make(map[string]float32),
	}
	if raw == nil {
		a.raw = normalized
	}
	if i, ok := normalized[Hips]; ok {
		a.hipHeight = skel.WorldPosition(i).Y()
	}
	return a
}

// NormalizedIndex resolves a canonical bone in the normalized space.
func (a *Avatar) NormalizedIndex(name BoneName) (int, bool) {
	i, ok := a.normalized[name]
	return i, ok
}

// RawIndex resolves a canonical bone in the raw (rendered) space.
func (a *Avatar) RawIndex(name BoneName) (int, bool) {
	i, ok := a.raw[name]
	return i, ok
}

// NormalizedBone returns the bone struct for a canonical name, or nil.
func (a *Avatar) NormalizedBone(name BoneName) *Bone {
	if i, ok := a.normalized[name]; ok {
		return &a.Skeleton.Bones[i]
	}
	return nil
}

// RawBone returns the raw-space bone struct for a canonical name, or nil.
func (a *Avatar) RawBone(name BoneName) *Bone {
	if i, ok := a.raw[name]; ok {
		return &a.Skeleton.Bones[i]
	}
	return nil
}

// HasBone reports whether the rig maps the canonical name at all.
func (a *Avatar) HasBone(name BoneName) bool {
	_, ok := a.normalized[name]
	return ok
}

// HipHeight is the world-space height of the hips bone at bind time.
func (a *Avatar) HipHeight() float32 {
	return a.hipHeight
}

// RestPose returns the arms-at-sides absolute pose baseline.
func (a *Avatar) RestPose() RestPose {
	return a.restPose
}

// SetFaceWeight sets one facial expression weight, clamped to [0,1].
func (a *Avatar) SetFaceWeight(name string, w float32) {
	if w < 0 {
		w = 0
	}
	if w > 1 {
		w = 1
	}
	a.mu.Lock()
	a.faceWeights[name] = w
	a.mu.Unlock()
}

// FaceWeights returns a copy of the current facial weights.
func (a *Avatar) FaceWeights() map[string]float32 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[string]float32, len(a.faceWeights))
	for k, v := range a.faceWeights {
		out[k] = v
	}
	return out
}

// BoneLengths returns the world-space lengths of the upper and lower arm
// segments for one side, used by the two-bone IK solver. ok is false when
// any bone of the chain is missing.
func (a *Avatar) BoneLengths(side Side) (upper, lower float32, ok bool) {
	upperArm, lowerArm, hand := side.ArmChain()
	ui, uok := a.raw[upperArm]
	li, lok := a.raw[lowerArm]
	hi, hok := a.raw[hand]
	if !uok || !lok || !hok {
		return 0, 0, false
	}
	up := a.Skeleton.WorldPosition(ui)
	lo := a.Skeleton.WorldPosition(li)
	ha := a.Skeleton.WorldPosition(hi)
	return lo.Sub(up).Len(), ha.Sub(lo).Len(), true
}

// Side selects the left or right limb chain.
type Side int

const (
	SideLeft Side = iota
	SideRight
)

// ArmChain returns the canonical names of the side's arm chain.
func (s Side) ArmChain() (upperArm, lowerArm, hand BoneName) {
	if s == SideLeft {
		return LeftUpperArm, LeftLowerArm, LeftHand
	}
	return RightUpperArm, RightLowerArm, RightHand
}

// Shoulder returns the side's shoulder bone name.
func (s Side) Shoulder() BoneName {
	if s == SideLeft {
		return LeftShoulder
	}
	return RightShoulder
}

func (s Side) String() string {
	if s == SideLeft {
		return "left"
	}
	return "right"
}
