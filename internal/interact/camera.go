package interact

import "github.com/go-gl/mathgl/mgl32"

// Camera is the viewer's camera state, reported over the gateway. Pointer
// coordinates are normalized device coordinates in [-1,1] on both axes.
type Camera struct {
	Position mgl32.Vec3
	Forward  mgl32.Vec3
	Right    mgl32.Vec3
	Up       mgl32.Vec3
	// TanHalfFOV and Aspect convert pointer coordinates to ray directions.
	TanHalfFOV float32
	Aspect     float32
}

// DefaultCamera faces the avatar from the front at roughly chest height.
func DefaultCamera() Camera {
	return Camera{
		Position:   mgl32.Vec3{0, 1.2, 2.5},
		Forward:    mgl32.Vec3{0, 0, -1},
		Right:      mgl32.Vec3{1, 0, 0},
		Up:         mgl32.Vec3{0, 1, 0},
		TanHalfFOV: 0.41, // ~45 degree vertical fov
		Aspect:     16.0 / 9.0,
	}
}

// Ray converts pointer coordinates to a world-space picking ray.
func (c *Camera) Ray(nx, ny float32) (origin, dir mgl32.Vec3) {
	d := c.Forward.
		Add(c.Right.Mul(nx * c.TanHalfFOV * c.Aspect)).
		Add(c.Up.Mul(ny * c.TanHalfFOV))
	return c.Position, d.Normalize()
}

// PlanePoint reprojects pointer coordinates onto the plane perpendicular to
// the camera at the given forward depth. ok is false when the ray runs
// parallel to the plane.
func (c *Camera) PlanePoint(nx, ny, depth float32) (mgl32.Vec3, bool) {
	origin, dir := c.Ray(nx, ny)
	denom := dir.Dot(c.Forward)
	if denom < 1e-5 {
		return mgl32.Vec3{}, false
	}
	t := depth / denom
	return origin.Add(dir.Mul(t)), true
}
