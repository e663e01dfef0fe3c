package interact

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"

	"github.com/normanking/avatarmotion/internal/skeleton"
)

func interactAvatar() *skeleton.Avatar {
	ident := mgl32.QuatIdent()
	skel := skeleton.NewSkeleton([]skeleton.Bone{
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
	})
	return skeleton.NewAvatar("interact-test", skel, skeleton.MapNodeNames(skel), nil, skeleton.RigConventionModern)
}

func testSubsystem() *Subsystem {
	s := New(Config{}, nil, zerolog.Nop())
	s.rng = rand.New(rand.NewSource(1))
	s.Bind(interactAvatar())
	return s
}

func TestJellySettlesToExactIdentity(t *testing.T) {
	s := testSubsystem()
	s.Poke(skeleton.Chest, 0.3)
	if !s.jelly.active() {
		t.Fatal("poke should activate the jelly field")
	}

	// Integrate well past the damping time.
	moved := false
	idx, _ := s.avatar.RawIndex(skeleton.Chest)
	for i := 0; i < 2400; i++ {
		s.Update(1.0 / 120)
		if s.avatar.Skeleton.Bones[idx].Scale != (mgl32.Vec3{1, 1, 1}) {
			moved = true
		}
	}
	if !moved {
		t.Error("poke never displaced the bone scale")
	}
	if s.jelly.active() {
		t.Fatal("field should deactivate once every spring settles")
	}
	if got := s.avatar.Skeleton.Bones[idx].Scale; got != (mgl32.Vec3{1, 1, 1}) {
		t.Errorf("settled scale = %v, want exact identity", got)
	}
}

func TestJellyPropagatesToChildren(t *testing.T) {
	s := testSubsystem()
	s.Poke(skeleton.Chest, 0.5)

	chest, _ := s.avatar.RawIndex(skeleton.Chest)
	neck, _ := s.avatar.RawIndex(skeleton.Neck)
	if _, ok := s.jelly.springs[chest]; !ok {
		t.Fatal("poked bone has no spring")
	}
	child, ok := s.jelly.springs[neck]
	if !ok {
		t.Fatal("child bone did not receive the wave")
	}
	if child.delay <= 0 {
		t.Error("child impulse should be delayed")
	}
	if child.impulse >= 0.5 {
		t.Errorf("child impulse %f should be decayed", child.impulse)
	}
}

func TestTwoBoneSolveReachClamping(t *testing.T) {
	cases := []float32{0, 0.01, 0.3, 0.5, 0.49999, 1, 100}
	for _, dist := range cases {
		shoulder, elbow, clamped := solveTwoBone(0.25, 0.25, dist)
		for _, v := range []float32{shoulder, elbow, clamped} {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				t.Fatalf("dist %f produced non-finite solve", dist)
			}
		}
		if clamped < 0 || clamped > 0.5 {
			t.Errorf("dist %f clamped to %f, outside reach", dist, clamped)
		}
	}

	// The elbow value is the interior angle: pi with the arm straight at
	// full extension, near zero with it folded shut.
	_, extended, _ := solveTwoBone(0.25, 0.25, 0.499)
	if extended < math.Pi-0.2 {
		t.Errorf("near-full reach interior elbow = %f rad, want ~pi", extended)
	}
	_, folded, _ := solveTwoBone(0.25, 0.25, 0.002)
	if folded > 0.2 {
		t.Errorf("folded interior elbow = %f rad, want ~0", folded)
	}
}

func TestHeadTrackingWritesRawBones(t *testing.T) {
	s := testSubsystem()
	s.SetPointer(1, 0, true)

	for i := 0; i < 120; i++ {
		s.Update(1.0 / 60)
	}
	head := s.avatar.RawBone(skeleton.Head)
	if head.Rotation.ApproxEqual(mgl32.QuatIdent()) {
		t.Error("head should turn toward the pointer")
	}
}

func TestHeadTrackingReturnsToNeutral(t *testing.T) {
	s := testSubsystem()
	s.SetPointer(1, 1, true)
	for i := 0; i < 60; i++ {
		s.Update(1.0 / 60)
	}
	s.SetPointer(0, 0, false)

	if s.tracker.targetYaw != 0 || s.tracker.targetPitch != 0 {
		t.Error("leaving the viewport should zero the gaze target")
	}
	for i := 0; i < 600; i++ {
		s.Update(1.0 / 60)
	}
	if yaw := s.tracker.yaw; float32(math.Abs(float64(yaw))) > 0.2 {
		t.Errorf("yaw %f did not return to neutral", yaw)
	}
}

func TestAffectionGateRejectsHandDrag(t *testing.T) {
	s := testSubsystem()
	s.SetAffection(10) // below the default threshold of 20

	// Aim straight at the left hand.
	nx, ny := pointerAt(s, skeleton.LeftHand)
	if _, ok := s.StartDrag(nx, ny); ok {
		t.Fatal("hand drag should be rejected at low affection")
	}
	if s.Dragging() {
		t.Error("no drag session should exist after a reject")
	}
	if !s.jelly.active() {
		t.Error("reject should fire a jelly impulse")
	}
}

func TestAffectionGatePassesWhenFond(t *testing.T) {
	s := testSubsystem()
	s.SetAffection(80)

	nx, ny := pointerAt(s, skeleton.LeftHand)
	id, ok := s.StartDrag(nx, ny)
	if !ok {
		t.Fatal("hand drag should start at high affection")
	}
	if id == "" {
		t.Error("drag session id should not be empty")
	}
	if !s.Dragging() {
		t.Error("drag should be active")
	}
}

func TestDragBlendsBackOnRelease(t *testing.T) {
	s := testSubsystem()
	s.SetAffection(80)

	nx, ny := pointerAt(s, skeleton.LeftHand)
	if _, ok := s.StartDrag(nx, ny); !ok {
		t.Fatal("drag failed to start")
	}
	s.SetPointer(nx+0.3, ny+0.2, true)
	for i := 0; i < 30; i++ {
		s.Update(1.0 / 60)
	}
	s.EndDrag()
	if !s.Dragging() {
		t.Fatal("released drag should blend back, not vanish")
	}
	for i := 0; i < 60; i++ {
		s.Update(1.0 / 60)
	}
	if s.Dragging() {
		t.Error("blend-back should finish and clear the drag")
	}
}

func TestDragIgnoresEmptySpace(t *testing.T) {
	s := testSubsystem()
	if _, ok := s.StartDrag(1, 1); ok {
		t.Error("picking empty space should not start a drag")
	}
}

func TestIKProducesFinitePose(t *testing.T) {
	s := testSubsystem()
	s.SetAffection(80)
	nx, ny := pointerAt(s, skeleton.LeftHand)
	if _, ok := s.StartDrag(nx, ny); !ok {
		t.Fatal("drag failed to start")
	}

	// Yank the pointer far outside the reachable range.
	s.SetPointer(1, 1, true)
	for i := 0; i < 60; i++ {
		s.Update(1.0 / 60)
	}
	for i := range s.avatar.Skeleton.Bones {
		q := s.avatar.Skeleton.Bones[i].Rotation
		for _, v := range []float32{q.W, q.V[0], q.V[1], q.V[2]} {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				t.Fatalf("bone %d rotation not finite after far drag", i)
			}
		}
	}
}

func TestScratchStagesFrameTemporaries(t *testing.T) {
	s := testSubsystem()
	s.SetAffection(80)
	nx, ny := pointerAt(s, skeleton.LeftHand)
	if _, ok := s.StartDrag(nx, ny); !ok {
		t.Fatal("drag failed to start")
	}
	s.SetPointer(0.3, 0.2, true)
	s.Update(1.0 / 60)

	// The IK pass stages the shoulder world position in vector slot 0; a
	// bound rig's shoulder is never at the origin.
	if s.scratch.Vecs[0] == (mgl32.Vec3{}) {
		t.Error("arm solve did not stage chain positions in the scratch pool")
	}

	s.scratch.Reset()
	if s.scratch.Vecs[0] != (mgl32.Vec3{}) || !s.scratch.Quats[0].ApproxEqual(mgl32.QuatIdent()) {
		t.Error("reset should restore zero vectors and identity quaternions")
	}
}

// pointerAt computes the pointer coordinates whose ray passes through the
// bone's current world position.
func pointerAt(s *Subsystem, bone skeleton.BoneName) (float32, float32) {
	idx, _ := s.avatar.RawIndex(bone)
	p := s.avatar.Skeleton.WorldPosition(idx)
	to := p.Sub(s.camera.Position)
	depth := to.Dot(s.camera.Forward)
	nx := to.Dot(s.camera.Right) / (depth * s.camera.TanHalfFOV * s.camera.Aspect)
	ny := to.Dot(s.camera.Up) / (depth * s.camera.TanHalfFOV)
	return nx, ny
}
