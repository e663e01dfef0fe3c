// Package retarget converts foreign-rig animations into the bound avatar's
// local bone space.
package retarget

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/rs/zerolog"

	"github.com/normanking/avatarmotion/internal/clip"
	"github.com/normanking/avatarmotion/internal/skeleton"
)

// LoadError is the typed failure for asset fetch/parse problems. Callers
// catch it at the clip-resolution boundary and fall back.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load motion asset %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Engine performs rest-pose-invariant retargeting. It never mutates the
// source document.
type Engine struct {
	logger zerolog.Logger
}

// NewEngine returns a retargeting engine.
func NewEngine(logger zerolog.Logger) *Engine {
	return &Engine{logger: logger.With().Str("component", "retarget").Logger()}
}

// LoadClip opens a foreign glTF/GLB animation and retargets it onto the
// avatar. armSpreadDeg is the signed outward bias applied to the upper arms.
func (e *Engine) LoadClip(path string, avatar *skeleton.Avatar, armSpreadDeg float32) (*clip.Clip, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	c, err := e.Retarget(path, doc, avatar, armSpreadDeg)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return c, nil
}

// Retarget converts the document's first animation into a clip in the
// avatar's local bone space.
//
// Per rotation keyframe: retargeted = parentRestWorld * frame * restWorld⁻¹,
// computed against the source rig's own rest pose, which makes the result
// invariant to the source's T-pose convention. Legacy-convention targets get
// a one-time Y-axis flip. Hips position tracks scale by the hip-height
// ratio.
func (e *Engine) Retarget(name string, doc *gltf.Document, avatar *skeleton.Avatar, armSpreadDeg float32) (*clip.Clip, error) {
	if len(doc.Animations) == 0 {
		return nil, fmt.Errorf("no animations in %s", name)
	}

	src, srcMap, err := sourceSkeleton(doc)
	if err != nil {
		return nil, err
	}
	canonicalByNode := make(map[int]skeleton.BoneName, len(srcMap))
	for canonical, idx := range srcMap {
		canonicalByNode[idx] = canonical
	}

	srcHip := float32(1)
	if hi, ok := srcMap[skeleton.Hips]; ok {
		if h := src.WorldPosition(hi).Y(); h > 1e-4 {
			srcHip = h
		}
	}
	hipScale := float32(1)
	if avatar.HipHeight() > 0 {
		hipScale = avatar.HipHeight() / srcHip
	}

	anim := doc.Animations[0]
	out := &clip.Clip{Name: name}

	for _, ch := range anim.Channels {
		if ch.Target.Node == nil || ch.Sampler < 0 || ch.Sampler >= len(anim.Samplers) {
			continue
		}
		nodeIdx := int(*ch.Target.Node)
		canonical, mapped := canonicalByNode[nodeIdx]
		if !mapped {
			continue
		}
		if !avatar.HasBone(canonical) {
			continue
		}
		sampler := anim.Samplers[ch.Sampler]
		times, err := readAccessorScalar(doc, int(sampler.Input))
		if err != nil {
			return nil, fmt.Errorf("read sampler input: %w", err)
		}

		switch ch.Target.Path {
		case gltf.TRSRotation:
			quats, err := readAccessorQuat(doc, int(sampler.Output))
			if err != nil {
				return nil, fmt.Errorf("read rotation output: %w", err)
			}
			track := e.retargetRotationTrack(canonical, times, quats, src, nodeIdx, avatar, armSpreadDeg)
			if len(track.Keys) > 0 {
				out.Rotations = append(out.Rotations, track)
			}
		case gltf.TRSTranslation:
			if canonical != skeleton.Hips {
				continue
			}
			positions, err := readAccessorVec3(doc, int(sampler.Output))
			if err != nil {
				return nil, fmt.Errorf("read translation output: %w", err)
			}
			track := clip.PositionTrack{Bone: skeleton.Hips}
			n := len(times)
			if len(positions) < n {
				n = len(positions)
			}
			for i := 0; i < n; i++ {
				track.Keys = append(track.Keys, clip.PositionKey{
					Time:     times[i],
					Position: positions[i].Mul(hipScale),
				})
			}
			out.Positions = append(out.Positions, track)
		}
	}

	out.FinalizeDuration()
	if len(out.Rotations) == 0 && len(out.Positions) == 0 {
		return nil, fmt.Errorf("animation %s maps to no bones on this rig", name)
	}
	e.logger.Debug().Str("clip", name).
		Int("rotationTracks", len(out.Rotations)).
		Float32("duration", out.Duration).
		Msg("retargeted animation")
	return out, nil
}

func (e *Engine) retargetRotationTrack(
	canonical skeleton.BoneName,
	times []float32,
	quats []mgl32.Quat,
	src *skeleton.Skeleton,
	nodeIdx int,
	avatar *skeleton.Avatar,
	armSpreadDeg float32,
) clip.RotationTrack {
	restWorldInv := src.RestWorldRotation(nodeIdx).Inverse()
	parentRestWorld := mgl32.QuatIdent()
	if p := src.Bones[nodeIdx].Parent; p >= 0 {
		parentRestWorld = src.RestWorldRotation(p)
	}

	bias := mgl32.QuatIdent()
	if armSpreadDeg != 0 {
		rad := mgl32.DegToRad(armSpreadDeg)
		switch canonical {
		case skeleton.LeftUpperArm:
			bias = mgl32.QuatRotate(-rad, mgl32.Vec3{0, 0, 1})
		case skeleton.RightUpperArm:
			bias = mgl32.QuatRotate(rad, mgl32.Vec3{0, 0, 1})
		}
	}

	flip := avatar.Convention == skeleton.RigConventionLegacy
	flipQ := mgl32.QuatRotate(float32(math.Pi), mgl32.Vec3{0, 1, 0})

	track := clip.RotationTrack{Bone: canonical}
	n := len(times)
	if len(quats) < n {
		n = len(quats)
	}
	for i := 0; i < n; i++ {
		q := parentRestWorld.Mul(quats[i]).Mul(restWorldInv)
		if flip {
			q = flipQ.Mul(q).Mul(flipQ)
		}
		q = bias.Mul(q).Normalize()
		track.Keys = append(track.Keys, clip.RotationKey{Time: times[i], Rotation: q})
	}
	return track
}

// sourceSkeleton builds the source rig hierarchy plus its canonical mapping
// from the document's nodes.
func sourceSkeleton(doc *gltf.Document) (*skeleton.Skeleton, map[skeleton.BoneName]int, error) {
	if len(doc.Nodes) == 0 {
		return nil, nil, fmt.Errorf("animation document has no nodes")
	}
	parents := make([]int, len(doc.Nodes))
	for i := range parents {
		parents[i] = -1
	}
	for i, node := range doc.Nodes {
		for _, c := range node.Children {
			ci := int(c)
			if ci >= 0 && ci < len(parents) {
				parents[ci] = i
			}
		}
	}
	bones := make([]skeleton.Bone, len(doc.Nodes))
	for i, node := range doc.Nodes {
		bones[i] = skeleton.Bone{
			Name:   node.Name,
			Parent: parents[i],
			Rotation: mgl32.Quat{
				W: float32(node.Rotation[3]),
				V: mgl32.Vec3{
					float32(node.Rotation[0]),
					float32(node.Rotation[1]),
					float32(node.Rotation[2]),
				},
			}.Normalize(),
			Position: mgl32.Vec3{
				float32(node.Translation[0]),
				float32(node.Translation[1]),
				float32(node.Translation[2]),
			},
			Scale: mgl32.Vec3{1, 1, 1},
		}
	}
	skel := skeleton.NewSkeleton(bones)
	return skel, skeleton.MapNodeNames(skel), nil
}
