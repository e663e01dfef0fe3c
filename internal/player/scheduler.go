// Package player owns the animation timeline: loop and one-shot playback
// slots, crossfading, history-based motion rotation and the idle-triggered
// hobby behavior.
package player

import (
	"math/rand"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"

	"github.com/normanking/avatarmotion/internal/bus"
	"github.com/normanking/avatarmotion/internal/clip"
	"github.com/normanking/avatarmotion/internal/motion"
	"github.com/normanking/avatarmotion/internal/procedural"
	"github.com/normanking/avatarmotion/internal/retarget"
	"github.com/normanking/avatarmotion/internal/skeleton"
)

// loopFloorWeight is where the active loop sits while a one-shot plays, low
// enough that the loop's motion does not fight the gesture.
const loopFloorWeight = 0.2

// oneShotRestoreFade is the fade used when a finished one-shot hands the
// pose back to the loop.
const oneShotRestoreFade = 0.3

// Scheduler is the per-avatar playback state machine. It is not safe for
// concurrent use; the engine serializes access on the frame thread.
type Scheduler struct {
	catalog  *motion.Catalog
	retarget *retarget.Engine
	events   *bus.EventBus
	logger   zerolog.Logger
	rng      *rand.Rand

	avatar *skeleton.Avatar
	clips  map[string]*clip.Clip

	loop      *clip.Action
	loopID    string
	loopCat   motion.Category
	loopGroup string
	oneShot   *clip.Action
	oneShotID string
	fading    []*clip.Action

	history *History
	hobby   hobbyState

	armSpreadDeg float32
	emotion      string
	keywords     []string

	pose map[skeleton.BoneName]*poseAccum
}

// NewScheduler builds a scheduler over the catalog and retargeting engine.
// hobbyThreshold is the idle time in seconds before a hobby motion fires.
func NewScheduler(catalog *motion.Catalog, eng *retarget.Engine, events *bus.EventBus, hobbyThreshold float32, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		catalog:  catalog,
		retarget: eng,
		events:   events,
		logger:   logger.With().Str("component", "player").Logger(),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		history:  NewHistory(),
		hobby:    newHobbyState(hobbyThreshold),
		pose:     make(map[skeleton.BoneName]*poseAccum),
	}
}

// Bind attaches an avatar, resets all playback state and starts the
// procedural fallback idle so the avatar is never motionless.
func (s *Scheduler) Bind(avatar *skeleton.Avatar) {
	s.Unbind()
	s.avatar = avatar
	s.clips = make(map[string]*clip.Clip)
	if c, ok := procedural.Generate(procedural.FallbackIdleID, avatar); ok {
		a := clip.NewAction(c, true)
		a.Play()
		a.SetWeight(1)
		s.loop = a
		s.loopID = procedural.FallbackIdleID
		s.loopCat = motion.CategoryIdle
	} else {
		s.logger.Warn().Str("avatar", avatar.Name).Msg("fallback idle could not be generated")
	}
}

// Unbind drops the avatar and every cache and slot that referenced it.
func (s *Scheduler) Unbind() {
	s.avatar = nil
	s.clips = nil
	s.loop = nil
	s.loopID = ""
	s.loopCat = ""
	s.loopGroup = ""
	s.oneShot = nil
	s.oneShotID = ""
	s.fading = nil
	s.history.Reset()
	s.hobby.reset()
}

// CurrentMotion is the id of the active loop motion.
func (s *Scheduler) CurrentMotion() string { return s.loopID }

// SetArmSpreadBias changes the retarget arm-spread bias in degrees. Cached
// clips were built with the old bias, so the cache is dropped.
func (s *Scheduler) SetArmSpreadBias(deg float32) {
	s.armSpreadDeg = deg
	if s.clips != nil {
		s.clips = make(map[string]*clip.Clip)
	}
}

// SetCurrentEmotion records the emotion label used by hobby weighting.
func (s *Scheduler) SetCurrentEmotion(label string) { s.emotion = label }

// SetHobbyKeywords records recently mentioned topics; hobby candidates whose
// keywords match get a selection boost.
func (s *Scheduler) SetHobbyKeywords(kw []string) {
	s.keywords = append(s.keywords[:0], kw...)
}

// ResetIdleTimer restarts the hobby countdown. Called on every user input so
// hobby playback never interrupts active conversation.
func (s *Scheduler) ResetIdleTimer() { s.hobby.elapsed = 0 }

// PlayMotion resolves a motion id, loads or builds its clip and starts
// playback. Load failures are logged and reported as false, never fatal.
func (s *Scheduler) PlayMotion(id string) bool {
	if s.avatar == nil {
		return false
	}
	def, ok := s.catalog.ByID(id)
	if !ok {
		// Uncataloged ids can still resolve straight to a generator,
		// which is how the final fallback idle is reached.
		if _, found := procedural.Lookup(id); !found {
			s.logger.Warn().Str("motion", id).Msg("unknown motion id")
			return false
		}
		def = motion.Definition{ID: id, Category: motion.CategoryIdle, Mode: motion.PlayLoop}
	}

	c, err := s.resolveClip(&def)
	if err != nil {
		s.logger.Warn().Err(err).Str("motion", def.ID).Msg("motion load failed")
		return false
	}

	s.history.Record(def.ID, def.AltGroup)
	if def.Mode == motion.PlayOnce {
		s.startOneShot(&def, c)
	} else {
		s.startLoop(&def, c)
	}
	s.publish(bus.EventTypeMotionStarted, map[string]any{
		"id":       def.ID,
		"category": string(def.Category),
	})
	return true
}

// ResetToIdle walks an ordered fallback chain of idle motions until one
// plays. The chain always terminates in the procedural fallback idle.
func (s *Scheduler) ResetToIdle() {
	for _, id := range s.idleFallbacks() {
		if s.PlayMotion(id) {
			return
		}
	}
}

func (s *Scheduler) idleFallbacks() []string {
	var ids []string
	for _, d := range s.catalog.FindByCategory(motion.CategoryIdle) {
		ids = append(ids, d.ID)
		if len(ids) == 5 {
			break
		}
	}
	return append(ids, "idle_sway", procedural.FallbackIdleID)
}

// resolveClip returns the cached clip for a definition, or builds it:
// authored assets go through the retargeting engine with a procedural
// fallback on load failure, procedural sources hit the generator registry.
func (s *Scheduler) resolveClip(def *motion.Definition) (*clip.Clip, error) {
	if c, ok := s.clips[def.ID]; ok {
		return c, nil
	}
	src := def.Source()
	if src.Kind == motion.SourceAuthored {
		c, err := s.retarget.LoadClip(src.AssetURL, s.avatar, s.armSpreadDeg)
		if err != nil {
			s.logger.Warn().Err(err).Str("asset", src.AssetURL).Msg("asset load failed, trying generator")
			if pc, ok := procedural.Generate(def.ID, s.avatar); ok {
				s.clips[def.ID] = pc
				return pc, nil
			}
			return nil, err
		}
		s.clips[def.ID] = c
		return c, nil
	}
	if c, ok := procedural.Generate(src.GeneratorID, s.avatar); ok {
		s.clips[def.ID] = c
		return c, nil
	}
	return nil, &retarget.LoadError{Path: def.ID, Err: errNoGenerator}
}

func (s *Scheduler) startLoop(def *motion.Definition, c *clip.Clip) {
	if s.loopID == def.ID && s.loop != nil && s.loop.Playing() {
		return
	}
	fade := def.Fade()
	s.retire(s.loop, fade)

	a := clip.NewAction(c, true)
	a.Play()
	if s.oneShot != nil {
		a.FadeTo(loopFloorWeight, fade)
	} else {
		a.FadeTo(1, fade)
	}
	s.loop = a
	s.loopID = def.ID
	s.loopCat = def.Category
	s.loopGroup = def.AltGroup
}

func (s *Scheduler) startOneShot(def *motion.Definition, c *clip.Clip) {
	fade := def.Fade()
	s.retire(s.oneShot, fade)

	a := clip.NewAction(c, false)
	a.Play()
	a.FadeTo(1, fade)
	s.oneShot = a
	s.oneShotID = def.ID
	if s.loop != nil {
		s.loop.FadeTo(loopFloorWeight, fade)
	}
}

// retire moves an action onto the fade-out list; it keeps contributing to
// the blend until its weight reaches zero.
func (s *Scheduler) retire(a *clip.Action, fade float32) {
	if a == nil {
		return
	}
	a.FadeTo(0, fade)
	s.fading = append(s.fading, a)
}

// Update advances every active action, handles one-shot completion, runs the
// hobby timer and writes the blended pose onto the avatar's normalized
// bones. Must run before the interaction subsystem each frame.
func (s *Scheduler) Update(dt float32) {
	if s.avatar == nil {
		return
	}
	if s.loop != nil {
		s.loop.Update(dt)
	}
	if s.oneShot != nil {
		s.oneShot.Update(dt)
		if s.oneShot.Finished() {
			s.publish(bus.EventTypeMotionFinished, map[string]any{"id": s.oneShotID})
			s.retire(s.oneShot, oneShotRestoreFade)
			s.oneShot = nil
			s.oneShotID = ""
			if s.loop != nil {
				s.loop.FadeTo(1, oneShotRestoreFade)
			}
		}
	}
	kept := s.fading[:0]
	for _, a := range s.fading {
		a.Update(dt)
		if a.Weight() > 0 {
			kept = append(kept, a)
		}
	}
	s.fading = kept

	s.updateHobby(dt)
	s.apply()
}

// poseAccum blends weighted samples for one bone. Rotations are combined by
// incremental slerp so the result is order-stable for two or three actions;
// positions by weighted average.
type poseAccum struct {
	rot    mgl32.Quat
	rotW   float32
	pos    mgl32.Vec3
	posW   float32
	hasPos bool
}

func (p *poseAccum) addRotation(q mgl32.Quat, w float32) {
	if p.rotW == 0 {
		p.rot = q
		p.rotW = w
		return
	}
	if p.rot.Dot(q) < 0 {
		q = q.Scale(-1)
	}
	p.rotW += w
	p.rot = mgl32.QuatSlerp(p.rot, q, w/p.rotW)
}

func (p *poseAccum) addPosition(v mgl32.Vec3, w float32) {
	p.pos = p.pos.Add(v.Mul(w))
	p.posW += w
	p.hasPos = true
}

func (s *Scheduler) apply() {
	for _, acc := range s.pose {
		acc.rotW = 0
		acc.pos = mgl32.Vec3{}
		acc.posW = 0
		acc.hasPos = false
	}
	s.avatar.Skeleton.ResetPose()

	actions := make([]*clip.Action, 0, 2+len(s.fading))
	if s.loop != nil {
		actions = append(actions, s.loop)
	}
	if s.oneShot != nil {
		actions = append(actions, s.oneShot)
	}
	actions = append(actions, s.fading...)

	for _, a := range actions {
		w := a.Weight()
		if w <= 0 || a.Clip == nil {
			continue
		}
		t := a.Time()
		for i := range a.Clip.Rotations {
			tr := &a.Clip.Rotations[i]
			if !s.avatar.HasBone(tr.Bone) {
				continue
			}
			s.accum(tr.Bone).addRotation(tr.Sample(t), w)
		}
		for i := range a.Clip.Positions {
			tr := &a.Clip.Positions[i]
			if !s.avatar.HasBone(tr.Bone) {
				continue
			}
			s.accum(tr.Bone).addPosition(tr.Sample(t), w)
		}
	}

	for name, acc := range s.pose {
		b := s.avatar.NormalizedBone(name)
		if b == nil {
			continue
		}
		if acc.rotW > 0 {
			b.Rotation = acc.rot.Normalize()
		}
		if acc.hasPos && acc.posW > 0 {
			b.Position = acc.pos.Mul(1 / acc.posW)
		}
	}
}

func (s *Scheduler) accum(name skeleton.BoneName) *poseAccum {
	acc, ok := s.pose[name]
	if !ok {
		acc = &poseAccum{}
		s.pose[name] = acc
	}
	return acc
}

func (s *Scheduler) publish(t bus.EventType, data map[string]any) {
	if s.events != nil {
		s.events.Publish(bus.Event{Type: t, Data: data})
	}
}
