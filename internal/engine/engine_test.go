package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/normanking/avatarmotion/internal/bus"
	"github.com/normanking/avatarmotion/internal/config"
	"github.com/normanking/avatarmotion/internal/logging"
	"github.com/normanking/avatarmotion/internal/motion"
	"github.com/normanking/avatarmotion/internal/skeleton"
)

const testManifest = `{
  "motions": [
    {"id": "idle_sway", "label": "Sway", "category": "idle", "playMode": "loop"},
    {"id": "gesture_wave", "label": "Wave", "category": "gesture", "playMode": "once"}
  ]
}`

func testEngine(t *testing.T) *Engine {
	t.Helper()
	dir := t.TempDir()
	manifest := filepath.Join(dir, "manifest.json")
	if err := os.WriteFile(manifest, []byte(testManifest), 0644); err != nil {
		t.Fatal(err)
	}

	logger, err := logging.New(&logging.Config{LogDir: filepath.Join(dir, "logs"), Console: false})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { logger.Close() })

	cfg := config.DefaultConfig()
	cfg.Motion.ManifestPath = manifest
	cfg.Player.HobbyIdleThreshold = 600 * time.Second

	catalog := motion.NewCatalog(manifest, logger.Component("catalog"))
	catalog.Load(context.Background())

	return New(cfg, catalog, bus.NewEventBus(), logger)
}

func engineAvatar() *skeleton.Avatar {
	ident := mgl32.QuatIdent()
	skel := skeleton.NewSkeleton([]skeleton.Bone{
		{Name: "Hips", Parent: -1, Rotation: ident, Position: mgl32.Vec3{0, 1, 0}},
		{Name: "Spine", Parent: 0, Rotation: ident, Position: mgl32.Vec3{0, 0.3, 0}},
		{Name: "Head", Parent: 1, Rotation: ident, Position: mgl32.Vec3{0, 0.4, 0}},
	})
	return skeleton.NewAvatar("engine-test", skel, skeleton.MapNodeNames(skel), nil, skeleton.RigConventionModern)
}

func TestEngineLifecycle(t *testing.T) {
	e := testEngine(t)
	e.BindAvatar(engineAvatar())

	if !e.PlayMotion("idle_sway") {
		t.Fatal("cataloged motion failed to play")
	}
	for i := 0; i < 60; i++ {
		e.Update(1.0 / 60)
	}

	snap := e.Snapshot()
	if snap.Motion != "idle_sway" {
		t.Errorf("snapshot motion = %s", snap.Motion)
	}
	if len(snap.Bones) != 3 {
		t.Errorf("snapshot has %d bones, want 3", len(snap.Bones))
	}

	e.UnbindAvatar()
	if e.PlayMotion("idle_sway") {
		t.Error("playback should fail after unbind")
	}
	snap = e.Snapshot()
	if len(snap.Bones) != 0 {
		t.Error("snapshot should be empty with no avatar")
	}
}

func TestEngineEmotionFlow(t *testing.T) {
	e := testEngine(t)
	e.BindAvatar(engineAvatar())

	if got := e.GetCurrentEmotion(); got != "neutral" {
		t.Errorf("initial emotion = %s, want neutral", got)
	}
	e.SetEmotion(map[string]float32{"happy": 0.8})
	if got := e.GetCurrentEmotion(); got != "happy" {
		t.Errorf("emotion = %s, want happy", got)
	}

	for i := 0; i < 120; i++ {
		e.Update(1.0 / 60)
	}
	snap := e.Snapshot()
	if snap.Face["happy"] < 0.5 {
		t.Errorf("face weight happy = %f after smoothing", snap.Face["happy"])
	}
}

func TestEngineUpdateUnboundIsSafe(t *testing.T) {
	e := testEngine(t)
	// No avatar bound: a frame tick must be a harmless no-op.
	e.Update(1.0 / 60)
	e.ResetToIdle()
	e.ResetIdleTimer()
}
