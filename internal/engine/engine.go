// Package engine ties the motion components into one frame-driven facade.
package engine

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/normanking/avatarmotion/internal/bus"
	"github.com/normanking/avatarmotion/internal/config"
	"github.com/normanking/avatarmotion/internal/face"
	"github.com/normanking/avatarmotion/internal/interact"
	"github.com/normanking/avatarmotion/internal/logging"
	"github.com/normanking/avatarmotion/internal/motion"
	"github.com/normanking/avatarmotion/internal/player"
	"github.com/normanking/avatarmotion/internal/retarget"
	"github.com/normanking/avatarmotion/internal/skeleton"
)

// Engine owns the avatar and drives the playback scheduler, interaction
// subsystem and expression controller in a fixed per-frame order. External
// callers (the gateway, the conversation layer) are serialized by a mutex
// onto the frame thread.
type Engine struct {
	mu sync.Mutex

	logger zerolog.Logger
	events *bus.EventBus
	cfg    *config.Config

	avatar   *skeleton.Avatar
	player   *player.Scheduler
	face     *face.Controller
	interact *interact.Subsystem
}

// New wires the components together from config.
func New(cfg *config.Config, catalog *motion.Catalog, events *bus.EventBus, log *logging.Logger) *Engine {
	rt := retarget.NewEngine(log.Component("retarget"))
	threshold := float32(cfg.Player.HobbyIdleThreshold.Seconds())
	fc := face.NewController(events, log.Zerolog())
	fc.SetMicroExpressions(cfg.Face.MicroExpressions)
	return &Engine{
		logger: log.Component("engine"),
		events: events,
		cfg:    cfg,
		player: player.NewScheduler(catalog, rt, events, threshold, log.Zerolog()),
		face:   fc,
		interact: interact.New(interact.Config{
			DragMode:           cfg.Interact.DragMode,
			AffectionThreshold: cfg.Interact.AffectionThreshold,
			JellyTension:       cfg.Interact.JellyTension,
			JellyDamping:       cfg.Interact.JellyDamping,
		}, events, log.Zerolog()),
	}
}

// BindAvatar attaches an avatar, tearing down any previous binding first.
// Playback restarts on the fallback idle; caches, history, springs and drag
// chains from the old avatar are gone.
func (e *Engine) BindAvatar(a *skeleton.Avatar) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.avatar != nil {
		e.unbindLocked()
	}
	e.avatar = a
	e.player.Bind(a)
	e.player.SetArmSpreadBias(e.cfg.Motion.ArmSpreadBias)
	e.interact.Bind(a)
	e.face.Bind(a)
	e.logger.Info().Str("avatar", a.Name).Int("bones", len(a.Skeleton.Bones)).Msg("avatar bound")
}

// UnbindAvatar detaches the current avatar.
func (e *Engine) UnbindAvatar() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.unbindLocked()
}

func (e *Engine) unbindLocked() {
	e.player.Unbind()
	e.interact.Unbind()
	e.face.Unbind()
	e.avatar = nil
}

// Update advances one frame: playback first, then interaction corrections
// on top of the animated pose, then facial weights.
func (e *Engine) Update(dt float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.player.Update(dt)
	e.interact.Update(dt)
	e.face.Update(dt)
}

// PlayMotion plays a cataloged motion by id.
func (e *Engine) PlayMotion(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.player.PlayMotion(id)
}

// PlayEmotionIdle switches to an idle motion fitting the emotion.
func (e *Engine) PlayEmotionIdle(emotion string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.player.SetCurrentEmotion(emotion)
	return e.player.PlayEmotionIdle(emotion)
}

// ResetToIdle walks the idle fallback chain until something plays.
func (e *Engine) ResetToIdle() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.player.ResetToIdle()
}

// ResetIdleTimer restarts the hobby countdown; call on every user input.
func (e *Engine) ResetIdleTimer() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.player.ResetIdleTimer()
}

// SetHobbyKeywords records conversation topics that bias hobby selection.
func (e *Engine) SetHobbyKeywords(kw []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.player.SetHobbyKeywords(kw)
}

// SetCurrentEmotion sets the emotion label used for hobby weighting.
func (e *Engine) SetCurrentEmotion(label string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.player.SetCurrentEmotion(label)
}

// SetArmSpreadBias changes the retarget arm-spread bias in degrees.
func (e *Engine) SetArmSpreadBias(deg float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.player.SetArmSpreadBias(deg)
}

// SetEmotion sets facial channel targets and keeps the hobby emotion label
// in step with the dominant channel.
func (e *Engine) SetEmotion(weights map[string]float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.face.SetEmotion(weights)
	e.player.SetCurrentEmotion(e.face.Dominant())
}

// GetCurrentEmotion is the dominant emotion label.
func (e *Engine) GetCurrentEmotion() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.face.Dominant()
}

// SetAffection sets the affection level gating hand interaction.
func (e *Engine) SetAffection(v float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.interact.SetAffection(v)
}

// SetPointer forwards pointer movement to head tracking and dragging.
func (e *Engine) SetPointer(nx, ny float32, inViewport bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.interact.SetPointer(nx, ny, inViewport)
}

// SetCamera updates the viewer camera.
func (e *Engine) SetCamera(cam interact.Camera) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.interact.SetCamera(cam)
}

// StartDrag begins a grab at the pointer position.
func (e *Engine) StartDrag(nx, ny float32) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.interact.StartDrag(nx, ny)
}

// EndDrag releases the current grab.
func (e *Engine) EndDrag() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.interact.EndDrag()
}

// Poke fires a jelly impulse on a bone.
func (e *Engine) Poke(bone skeleton.BoneName, intensity float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.interact.Poke(bone, intensity)
}
