package retarget

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/rs/zerolog"

	"github.com/normanking/avatarmotion/internal/skeleton"
)

// sourceRig builds a two-bone source chain. rest is the rest rotation of
// the animated child node (index 1).
func sourceRig(rest mgl32.Quat) *skeleton.Skeleton {
	return skeleton.NewSkeleton([]skeleton.Bone{
		{Name: "Hips", Parent: -1, Rotation: mgl32.QuatIdent(), Position: mgl32.Vec3{0, 1, 0}},
		{Name: "Spine", Parent: 0, Rotation: rest, Position: mgl32.Vec3{0, 0.2, 0}},
	})
}

func targetAvatar(conv skeleton.RigConvention) *skeleton.Avatar {
	skel := skeleton.NewSkeleton([]skeleton.Bone{
		{Name: "Hips", Parent: -1, Rotation: mgl32.QuatIdent(), Position: mgl32.Vec3{0, 1, 0}},
		{Name: "Spine", Parent: 0, Rotation: mgl32.QuatIdent(), Position: mgl32.Vec3{0, 0.2, 0}},
		{Name: "LeftUpperArm", Parent: 1, Rotation: mgl32.QuatIdent(), Position: mgl32.Vec3{0.2, 0, 0}},
	})
	return skeleton.NewAvatar("target", skel, skeleton.MapNodeNames(skel), nil, conv)
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

func TestIdentityRestRoundTrip(t *testing.T) {
	// A source rig whose rest pose is identity must pass frame rotations
	// through unchanged on a modern-convention target.
	e := NewEngine(zerolog.Nop())
	src := sourceRig(mgl32.QuatIdent())
	avatar := targetAvatar(skeleton.RigConventionModern)

	frames := []mgl32.Quat{
		mgl32.QuatIdent(),
		mgl32.QuatRotate(0.4, mgl32.Vec3{1, 0, 0}),
		mgl32.QuatRotate(-0.9, mgl32.Vec3{0, 0, 1}),
	}
	track := e.retargetRotationTrack(skeleton.Spine, []float32{0, 0.5, 1}, frames, src, 1, avatar, 0)

	if len(track.Keys) != 3 {
		t.Fatalf("got %d keys, want 3", len(track.Keys))
	}
	for i, k := range track.Keys {
		if !quatNear(k.Rotation, frames[i]) {
			t.Errorf("key %d changed under identity rest: got %v want %v", i, k.Rotation, frames[i])
		}
	}
}

func TestRestPoseConventionRemoved(t *testing.T) {
	// An animation that holds the source's own rest pose must retarget to
	// identity, whatever that rest pose is.
	e := NewEngine(zerolog.Nop())
	rest := mgl32.QuatRotate(0.7, mgl32.Vec3{0, 0, 1})
	src := sourceRig(rest)
	avatar := targetAvatar(skeleton.RigConventionModern)

	track := e.retargetRotationTrack(skeleton.Spine, []float32{0}, []mgl32.Quat{rest}, src, 1, avatar, 0)

	if !quatNear(track.Keys[0].Rotation, mgl32.QuatIdent()) {
		t.Errorf("rest-pose frame should retarget to identity, got %v", track.Keys[0].Rotation)
	}
}

func TestArmSpreadBiasOnlyUpperArms(t *testing.T) {
	e := NewEngine(zerolog.Nop())
	src := sourceRig(mgl32.QuatIdent())
	avatar := targetAvatar(skeleton.RigConventionModern)
	frame := mgl32.QuatRotate(0.3, mgl32.Vec3{1, 0, 0})

	spine := e.retargetRotationTrack(skeleton.Spine, []float32{0}, []mgl32.Quat{frame}, src, 1, avatar, 10)
	if !quatNear(spine.Keys[0].Rotation, frame) {
		t.Error("bias must not touch non-arm bones")
	}

	arm := e.retargetRotationTrack(skeleton.LeftUpperArm, []float32{0}, []mgl32.Quat{frame}, src, 1, avatar, 10)
	want := mgl32.QuatRotate(-mgl32.DegToRad(10), mgl32.Vec3{0, 0, 1}).Mul(frame).Normalize()
	if !quatNear(arm.Keys[0].Rotation, want) {
		t.Errorf("left upper arm bias: got %v want %v", arm.Keys[0].Rotation, want)
	}
}

func TestLegacyConventionFlip(t *testing.T) {
	e := NewEngine(zerolog.Nop())
	src := sourceRig(mgl32.QuatIdent())
	avatar := targetAvatar(skeleton.RigConventionLegacy)
	frame := mgl32.QuatRotate(0.5, mgl32.Vec3{1, 0, 0})

	track := e.retargetRotationTrack(skeleton.Spine, []float32{0}, []mgl32.Quat{frame}, src, 1, avatar, 0)

	flipQ := mgl32.QuatRotate(float32(math.Pi), mgl32.Vec3{0, 1, 0})
	want := flipQ.Mul(frame).Mul(flipQ).Normalize()
	if !quatNear(track.Keys[0].Rotation, want) {
		t.Errorf("legacy flip: got %v want %v", track.Keys[0].Rotation, want)
	}
	if quatNear(track.Keys[0].Rotation, frame) {
		t.Error("legacy flip should change an X-axis rotation")
	}
}

// animDoc builds an in-memory document with a two-node rig and one rotation
// channel on the Spine node, plus a second channel with a sampler index past
// the sampler list.
func animDoc(times []float32, quats []mgl32.Quat) *gltf.Document {
	var data []byte
	put := func(f float32) {
		data = binary.LittleEndian.AppendUint32(data, math.Float32bits(f))
	}
	for _, tm := range times {
		put(tm)
	}
	quatOffset := len(data)
	for _, q := range quats {
		put(q.V[0])
		put(q.V[1])
		put(q.V[2])
		put(q.W)
	}

	return &gltf.Document{
		Nodes: []*gltf.Node{
			{Name: "Hips", Children: []int{1}, Rotation: [4]float64{0, 0, 0, 1}, Translation: [3]float64{0, 1, 0}},
			{Name: "Spine", Rotation: [4]float64{0, 0, 0, 1}, Translation: [3]float64{0, 0.2, 0}},
		},
		Buffers: []*gltf.Buffer{{ByteLength: len(data), Data: data}},
		BufferViews: []*gltf.BufferView{
			{Buffer: 0, ByteOffset: 0, ByteLength: quatOffset},
			{Buffer: 0, ByteOffset: quatOffset, ByteLength: len(data) - quatOffset},
		},
		Accessors: []*gltf.Accessor{
			{BufferView: gltf.Index(0), ComponentType: gltf.ComponentFloat, Count: len(times), Type: gltf.AccessorScalar},
			{BufferView: gltf.Index(1), ComponentType: gltf.ComponentFloat, Count: len(quats), Type: gltf.AccessorVec4},
		},
		Animations: []*gltf.Animation{{
			Name: "anim",
			Channels: []*gltf.AnimationChannel{
				{Sampler: 0, Target: gltf.AnimationChannelTarget{Node: gltf.Index(1), Path: gltf.TRSRotation}},
				{Sampler: 7, Target: gltf.AnimationChannelTarget{Node: gltf.Index(1), Path: gltf.TRSRotation}},
			},
			Samplers: []*gltf.AnimationSampler{{Input: 0, Output: 1}},
		}},
	}
}

func TestRetargetDocumentAnimation(t *testing.T) {
	e := NewEngine(zerolog.Nop())
	avatar := targetAvatar(skeleton.RigConventionModern)

	frames := []mgl32.Quat{
		mgl32.QuatIdent(),
		mgl32.QuatRotate(0.6, mgl32.Vec3{1, 0, 0}),
	}
	doc := animDoc([]float32{0, 0.5}, frames)

	c, err := e.Retarget("anim", doc, avatar, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Rotations) != 1 {
		t.Fatalf("got %d rotation tracks, want 1 (bad sampler index must be skipped)", len(c.Rotations))
	}
	track := c.Rotations[0]
	if track.Bone != skeleton.Spine {
		t.Errorf("track bone = %s, want spine", track.Bone)
	}
	if len(track.Keys) != 2 {
		t.Fatalf("got %d keys, want 2", len(track.Keys))
	}
	for i, k := range track.Keys {
		if !quatNear(k.Rotation, frames[i]) {
			t.Errorf("key %d: got %v want %v", i, k.Rotation, frames[i])
		}
	}
	if c.Duration != 0.5 {
		t.Errorf("duration = %f, want 0.5", c.Duration)
	}
}

func TestLoadClipMissingFile(t *testing.T) {
	e := NewEngine(zerolog.Nop())
	avatar := targetAvatar(skeleton.RigConventionModern)

	_, err := e.LoadClip("/nonexistent/clip.glb", avatar, 0)
	if err == nil {
		t.Fatal("expected error for missing asset")
	}
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("error should be a LoadError, got %T", err)
	}
	if le.Path != "/nonexistent/clip.glb" {
		t.Errorf("LoadError path = %q", le.Path)
	}
	if le.Unwrap() == nil {
		t.Error("LoadError should wrap the underlying error")
	}
}
