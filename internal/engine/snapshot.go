package engine

// PoseFrame is one streamed snapshot of the avatar state, consumed by the
// viewer gateway.
type PoseFrame struct {
	Motion  string                `json:"motion"`
	Emotion string                `json:"emotion"`
	Bones   map[string][4]float32 `json:"bones"` // x, y, z, w local rotation per bone
	Face    map[string]float32    `json:"face"`
}

// Snapshot captures the current pose for streaming. Rotations come from the
// raw bones so interaction corrections are visible to the viewer.
func (e *Engine) Snapshot() PoseFrame {
	e.mu.Lock()
	defer e.mu.Unlock()

	frame := PoseFrame{
		Motion:  e.player.CurrentMotion(),
		Emotion: e.face.Dominant(),
		Bones:   make(map[string][4]float32),
	}
	if e.avatar == nil {
		return frame
	}
	for i := range e.avatar.Skeleton.Bones {
		b := &e.avatar.Skeleton.Bones[i]
		q := b.Rotation
		frame.Bones[b.Name] = [4]float32{q.V[0], q.V[1], q.V[2], q.W}
	}
	frame.Face = e.avatar.FaceWeights()
	return frame
}
