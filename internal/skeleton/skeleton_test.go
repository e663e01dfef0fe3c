package skeleton

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func testBones() []Bone {
	ident := mgl32.QuatIdent()
	return []Bone{
		{Name: "Hips", Parent: -1, Rotation: ident, Position: mgl32.Vec3{0, 1, 0}},
		{Name: "Spine", Parent: 0, Rotation: ident, Position: mgl32.Vec3{0, 0.15, 0}},
		{Name: "Chest", Parent: 1, Rotation: ident, Position: mgl32.Vec3{0, 0.15, 0}},
		{Name: "Neck", Parent: 2, Rotation: ident, Position: mgl32.Vec3{0, 0.2, 0}},
		{Name: "Head", Parent: 3, Rotation: ident, Position: mgl32.Vec3{0, 0.1, 0}},
		{Name: "LeftUpperArm", Parent: 2, Rotation: ident, Position: mgl32.Vec3{0.2, 0.15, 0}},
		{Name: "LeftLowerArm", Parent: 5, Rotation: ident, Position: mgl32.Vec3{0.25, 0, 0}},
		{Name: "LeftHand", Parent: 6, Rotation: ident, Position: mgl32.Vec3{0.25, 0, 0}},
		{Name: "RightUpperArm", Parent: 2, Rotation: ident, Position: mgl32.Vec3{-0.2, 0.15, 0}},
		{Name: "RightLowerArm", Parent: 8, Rotation: ident, Position: mgl32.Vec3{-0.25, 0, 0}},
		{Name: "RightHand", Parent: 9, Rotation: ident, Position: mgl32.Vec3{-0.25, 0, 0}},
	}
}

func newTestAvatar() *Avatar {
	skel := NewSkeleton(testBones())
	return NewAvatar("test", skel, MapNodeNames(skel), nil, RigConventionModern)
}

func TestMapNodeNames(t *testing.T) {
	skel := NewSkeleton(testBones())
	m := MapNodeNames(skel)

	cases := map[BoneName]int{
		Hips:         0,
		Spine:        1,
		Head:         4,
		LeftUpperArm: 5,
		RightHand:    10,
	}
	for name, want := range cases {
		got, ok := m[name]
		if !ok {
			t.Fatalf("bone %s not mapped", name)
		}
		if got != want {
			t.Errorf("bone %s mapped to %d, want %d", name, got, want)
		}
	}
}

func TestNormalizeNodeName(t *testing.T) {
	cases := map[string]string{
		"mixamorig:LeftArm": "leftarm",
		"J_Bip_L_UpperArm":  "leftupperarm",
		"J_Bip_C_Hips":      "hips",
		"Right Lower Arm":   "rightlowerarm",
	}
	for in, want := range cases {
		if got := normalizeNodeName(in); got != want {
			t.Errorf("normalizeNodeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWorldPosition(t *testing.T) {
	skel := NewSkeleton(testBones())
	head := skel.WorldPosition(4)
	wantY := float32(1 + 0.15 + 0.15 + 0.2 + 0.1)
	if math.Abs(float64(head.Y()-wantY)) > 1e-5 {
		t.Errorf("head world Y = %f, want %f", head.Y(), wantY)
	}
}

func TestHipHeight(t *testing.T) {
	a := newTestAvatar()
	if math.Abs(float64(a.HipHeight()-1)) > 1e-5 {
		t.Errorf("hip height = %f, want 1", a.HipHeight())
	}
}

func TestMissingBonesTolerated(t *testing.T) {
	// A rig with no arms still binds and answers lookups with false.
	skel := NewSkeleton(testBones()[:5])
	a := NewAvatar("armless", skel, MapNodeNames(skel), nil, RigConventionModern)

	if a.HasBone(LeftUpperArm) {
		t.Error("armless rig should not report an arm bone")
	}
	if b := a.NormalizedBone(LeftHand); b != nil {
		t.Error("missing bone lookup should be nil")
	}
	if _, _, ok := a.BoneLengths(SideLeft); ok {
		t.Error("BoneLengths should fail on a missing chain")
	}
}

func TestResetPose(t *testing.T) {
	skel := NewSkeleton(testBones())
	skel.Bones[1].Rotation = mgl32.QuatRotate(1, mgl32.Vec3{0, 0, 1})
	skel.Bones[1].Scale = mgl32.Vec3{1.2, 1.2, 1.2}

	skel.ResetPose()

	if !quatNear(skel.Bones[1].Rotation, mgl32.QuatIdent()) {
		t.Error("rotation not restored to rest")
	}
	if skel.Bones[1].Scale != (mgl32.Vec3{1, 1, 1}) {
		t.Error("scale not restored to identity")
	}
}

func TestRestPoseCompose(t *testing.T) {
	rest := DefaultRestPose()

	// Arms drop from T-pose; left and right mirror each other.
	l := rest.Rotation(LeftUpperArm)
	r := rest.Rotation(RightUpperArm)
	if quatNear(l, mgl32.QuatIdent()) || quatNear(r, mgl32.QuatIdent()) {
		t.Fatal("arm rest rotations should not be identity")
	}

	// Composing with identity yields the rest rotation itself.
	if !quatNear(rest.Compose(LeftUpperArm, mgl32.QuatIdent()), l) {
		t.Error("composing identity should return the rest rotation")
	}

	// Bones without an entry compose to the authored rotation unchanged.
	q := mgl32.QuatRotate(0.3, mgl32.Vec3{1, 0, 0})
	if !quatNear(rest.Compose(Head, q), q) {
		t.Error("head should have no rest-pose contribution")
	}
}

func TestFaceWeightsClamped(t *testing.T) {
	a := newTestAvatar()
	a.SetFaceWeight("happy", 1.7)
	a.SetFaceWeight("sad", -0.2)

	w := a.FaceWeights()
	if w["happy"] != 1 {
		t.Errorf("happy = %f, want clamped 1", w["happy"])
	}
	if w["sad"] != 0 {
		t.Errorf("sad = %f, want clamped 0", w["sad"])
	}
}

func quatNear(a, b mgl32.Quat) bool {
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}
	return math.Abs(float64(a.W-b.W)) < 1e-4 &&
		math.Abs(float64(a.V[0]-b.V[0])) < 1e-4 &&
		math.Abs(float64(a.V[1]-b.V[1])) < 1e-4 &&
		math.Abs(float64(a.V[2]-b.V[2])) < 1e-4
}
