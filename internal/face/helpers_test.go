package face

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"

	"github.com/normanking/avatarmotion/internal/skeleton"
)

func nopLogger() zerolog.Logger { return zerolog.Nop() }

func faceTestAvatar() *skeleton.Avatar {
	skel := skeleton.NewSkeleton([]skeleton.Bone{
		{Name: "Hips", Parent: -1, Rotation: mgl32.QuatIdent(), Position: mgl32.Vec3{0, 1, 0}},
		{Name: "Head", Parent: 0, Rotation: mgl32.QuatIdent(), Position: mgl32.Vec3{0, 0.6, 0}},
	})
	return skeleton.NewAvatar("face-test", skel, skeleton.MapNodeNames(skel), nil, skeleton.RigConventionModern)
}
