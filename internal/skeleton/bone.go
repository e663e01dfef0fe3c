// Package skeleton models the avatar's bone hierarchy and humanoid rig.
package skeleton

import (
	"github.com/go-gl/mathgl/mgl32"
)

// BoneName is a canonical humanoid body-part identifier. A loaded avatar may
// lack any of these; consumers must tolerate absence.
type BoneName string

const (
	Hips  BoneName = "hips"
	Spine BoneName = "spine"
	Chest BoneName = "chest"
	Neck  BoneName = "neck"
	Head  BoneName = "head"

	LeftEye  BoneName = "leftEye"
	RightEye BoneName = "rightEye"

	LeftShoulder  BoneName = "leftShoulder"
	LeftUpperArm  BoneName = "leftUpperArm"
	LeftLowerArm  BoneName = "leftLowerArm"
	LeftHand      BoneName = "leftHand"
	RightShoulder BoneName = "rightShoulder"
	RightUpperArm BoneName = "rightUpperArm"
	RightLowerArm BoneName = "rightLowerArm"
	RightHand     BoneName = "rightHand"

	LeftUpperLeg  BoneName = "leftUpperLeg"
	LeftLowerLeg  BoneName = "leftLowerLeg"
	LeftFoot      BoneName = "leftFoot"
	RightUpperLeg BoneName = "rightUpperLeg"
	RightLowerLeg BoneName = "rightLowerLeg"
	RightFoot     BoneName = "rightFoot"

	LeftThumbProximal  BoneName = "leftThumbProximal"
	LeftIndexProximal  BoneName = "leftIndexProximal"
	RightThumbProximal BoneName = "rightThumbProximal"
	RightIndexProximal BoneName = "rightIndexProximal"
)

// CanonicalBones lists every canonical identifier in hierarchy order.
var CanonicalBones = []BoneName{
	Hips, Spine, Chest, Neck, Head, LeftEye, RightEye,
	LeftShoulder, LeftUpperArm, LeftLowerArm, LeftHand,
	RightShoulder, RightUpperArm, RightLowerArm, RightHand,
	LeftUpperLeg, LeftLowerLeg, LeftFoot,
	RightUpperLeg, RightLowerLeg, RightFoot,
	LeftThumbProximal, LeftIndexProximal,
	RightThumbProximal, RightIndexProximal,
}

// Bone is one node in the hierarchy. Rotation and Position are local to the
// parent. RestRotation and RestPosition capture the bind-time local pose.
type Bone struct {
	Name   string
	Parent int // index into Skeleton.Bones, -1 for roots

	Rotation mgl32.Quat
	Position mgl32.Vec3
	Scale    mgl32.Vec3

	RestRotation mgl32.Quat
	RestPosition mgl32.Vec3
}

// Skeleton owns the full bone array. Components hold indexes, never copies.
type Skeleton struct {
	Bones    []Bone
	byName   map[string]int
	children [][]int
}

// NewSkeleton builds a skeleton from bones whose Parent indexes are already
// resolved. Rest pose is captured from the current local transforms.
func NewSkeleton(bones []Bone) *Skeleton {
	s := &Skeleton{
		Bones:    bones,
		byName:   make(map[string]int, len(bones)),
		children: make([][]int, len(bones)),
	}
	for i := range s.Bones {
		b := &s.Bones[i]
		if b.Scale == (mgl32.Vec3{}) {
			b.Scale = mgl32.Vec3{1, 1, 1}
		}
		if b.Rotation == (mgl32.Quat{}) {
			b.Rotation = mgl32.QuatIdent()
		}
		b.RestRotation = b.Rotation
		b.RestPosition = b.Position
		s.byName[b.Name] = i
		if b.Parent >= 0 && b.Parent < len(s.Bones) {
			s.children[b.Parent] = append(s.children[b.Parent], i)
		}
	}
	return s
}

// Index returns the bone index for a node name.
func (s *Skeleton) Index(name string) (int, bool) {
	i, ok := s.byName[name]
	return i, ok
}

// Children returns the direct child indexes of bone i.
func (s *Skeleton) Children(i int) []int {
	if i < 0 || i >= len(s.children) {
		return nil
	}
	return s.children[i]
}

// WorldRotation composes local rotations from the root down to bone i.
func (s *Skeleton) WorldRotation(i int) mgl32.Quat {
	if i < 0 || i >= len(s.Bones) {
		return mgl32.QuatIdent()
	}
	b := &s.Bones[i]
	if b.Parent < 0 {
		return b.Rotation
	}
	return s.WorldRotation(b.Parent).Mul(b.Rotation)
}

// RestWorldRotation composes bind-time rotations from the root down to bone i.
func (s *Skeleton) RestWorldRotation(i int) mgl32.Quat {
	if i < 0 || i >= len(s.Bones) {
		return mgl32.QuatIdent()
	}
	b := &s.Bones[i]
	if b.Parent < 0 {
		return b.RestRotation
	}
	return s.RestWorldRotation(b.Parent).Mul(b.RestRotation)
}

// WorldPosition walks the hierarchy applying parent rotations to local
// offsets. Scale is ignored; jelly scale offsets are visual only.
func (s *Skeleton) WorldPosition(i int) mgl32.Vec3 {
	if i < 0 || i >= len(s.Bones) {
		return mgl32.Vec3{}
	}
	b := &s.Bones[i]
	if b.Parent < 0 {
		return b.Position
	}
	parent := s.WorldPosition(b.Parent)
	return parent.Add(s.WorldRotation(b.Parent).Rotate(b.Position))
}

// ResetPose restores every bone's local transform to the bind pose.
func (s *Skeleton) ResetPose() {
	for i := range s.Bones {
		b := &s.Bones[i]
		b.Rotation = b.RestRotation
		b.Position = b.RestPosition
		b.Scale = mgl32.Vec3{1, 1, 1}
	}
}
