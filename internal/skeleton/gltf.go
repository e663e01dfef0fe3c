package skeleton

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
)

// nodeNameAliases maps normalized glTF node-name fragments to canonical
// bones. Covers VRM exports ("J_Bip_C_Hips"), plain humanoid names and
// mixamo-style prefixes; matching is done on the lowercased tail of the
// node name with separators stripped.
var nodeNameAliases = map[string]BoneName{
	"hips":   Hips,
	"pelvis": Hips,
	"spine":  Spine,
	"chest":  Chest,
	"upperchest": Chest,
	"neck": Neck,
	"head": Head,

	"lefteye":  LeftEye,
	"righteye": RightEye,

	"leftshoulder":  LeftShoulder,
	"leftupperarm":  LeftUpperArm,
	"leftarm":       LeftUpperArm,
	"leftlowerarm":  LeftLowerArm,
	"leftforearm":   LeftLowerArm,
	"lefthand":      LeftHand,
	"rightshoulder": RightShoulder,
	"rightupperarm": RightUpperArm,
	"rightarm":      RightUpperArm,
	"rightlowerarm": RightLowerArm,
	"rightforearm":  RightLowerArm,
	"righthand":     RightHand,

	"leftupperleg":  LeftUpperLeg,
	"leftupleg":     LeftUpperLeg,
	"leftlowerleg":  LeftLowerLeg,
	"leftleg":       LeftLowerLeg,
	"leftfoot":      LeftFoot,
	"rightupperleg": RightUpperLeg,
	"rightupleg":    RightUpperLeg,
	"rightlowerleg": RightLowerLeg,
	"rightleg":      RightLowerLeg,
	"rightfoot":     RightFoot,

	"leftthumbproximal":  LeftThumbProximal,
	"leftindexproximal":  LeftIndexProximal,
	"rightthumbproximal": RightThumbProximal,
	"rightindexproximal": RightIndexProximal,
}

// LoadAvatar reads a glTF/GLB avatar and binds its node hierarchy to the
// humanoid rig. Nodes that match no canonical name stay in the skeleton but
// are unaddressable through the rig.
func LoadAvatar(path string) (*Avatar, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open avatar gltf: %w", err)
	}
	return AvatarFromDocument(pathBase(path), doc)
}

// AvatarFromDocument builds the avatar from an already-parsed document.
func AvatarFromDocument(name string, doc *gltf.Document) (*Avatar, error) {
	if len(doc.Nodes) == 0 {
		return nil, fmt.Errorf("avatar gltf has no nodes")
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

	bones := make([]Bone, len(doc.Nodes))
	for i, node := range doc.Nodes {
		bones[i] = Bone{
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

	skel := NewSkeleton(bones)
	mapping := MapNodeNames(skel)
	if _, ok := mapping[Hips]; !ok {
		return nil, fmt.Errorf("avatar gltf: no hips bone resolved")
	}

	conv := RigConventionModern
	for _, ext := range doc.ExtensionsUsed {
		if ext == "VRM" {
			conv = RigConventionLegacy
		}
	}

	return NewAvatar(name, skel, mapping, nil, conv), nil
}

// MapNodeNames resolves canonical bones against a skeleton's node names.
func MapNodeNames(skel *Skeleton) map[BoneName]int {
	out := make(map[BoneName]int)
	for i := range skel.Bones {
		key := normalizeNodeName(skel.Bones[i].Name)
		if key == "" {
			continue
		}
		canonical, ok := nodeNameAliases[key]
		if !ok {
			continue
		}
		if _, taken := out[canonical]; !taken {
			out[canonical] = i
		}
	}
	return out
}

// normalizeNodeName lowercases, strips separators and drops VRM/mixamo
// rig prefixes so "J_Bip_L_UpperArm" and "mixamorig:LeftArm" both resolve.
func normalizeNodeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	if idx := strings.LastIndex(s, ":"); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.NewReplacer("_", "", "-", "", ".", "", " ", "").Replace(s)
	for _, prefix := range []string{"jbipc", "jbipl", "jbipr", "jadjl", "jadjr", "jsecl", "jsecr"} {
		if strings.HasPrefix(s, prefix) {
			side := ""
			switch prefix[4] {
			case 'l':
				side = "left"
			case 'r':
				side = "right"
			}
			return side + s[len(prefix):]
		}
	}
	return s
}

func pathBase(path string) string {
	if idx := strings.LastIndexAny(path, "/\\"); idx >= 0 {
		path = path[idx+1:]
	}
	if idx := strings.LastIndex(path, "."); idx > 0 {
		path = path[:idx]
	}
	return path
}
