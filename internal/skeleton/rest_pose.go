package skeleton

import (
	"github.com/go-gl/mathgl/mgl32"
)

// RestPose holds the absolute "arms naturally at sides" rotations per arm
// bone. Avatar files ship with arms outstretched (T-pose); every procedurally
// authored or retargeted arm rotation composes with these absolute rotations
// rather than a pose-relative delta, so differently-posed source avatars do
// not compound errors.
type RestPose map[BoneName]mgl32.Quat

const armDropDegrees = 70

// DefaultRestPose drops both upper arms toward the torso around the forward
// axis. Other bones rest at identity.
func DefaultRestPose() RestPose {
	drop := mgl32.DegToRad(armDropDegrees)
	return RestPose{
		LeftUpperArm:  mgl32.QuatRotate(-drop, mgl32.Vec3{0, 0, 1}),
		RightUpperArm: mgl32.QuatRotate(drop, mgl32.Vec3{0, 0, 1}),
		LeftLowerArm:  mgl32.QuatIdent(),
		RightLowerArm: mgl32.QuatIdent(),
		LeftHand:      mgl32.QuatIdent(),
		RightHand:     mgl32.QuatIdent(),
	}
}

// Rotation returns the rest rotation for a bone, identity if unlisted.
func (rp RestPose) Rotation(name BoneName) mgl32.Quat {
	if q, ok := rp[name]; ok {
		return q
	}
	return mgl32.QuatIdent()
}

// Compose returns the absolute rotation for name given an authored rotation
// expressed on top of the rest pose.
func (rp RestPose) Compose(name BoneName, authored mgl32.Quat) mgl32.Quat {
	return rp.Rotation(name).Mul(authored).Normalize()
}
