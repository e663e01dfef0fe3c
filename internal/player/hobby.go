package player

import (
	"github.com/normanking/avatarmotion/internal/bus"
	"github.com/normanking/avatarmotion/internal/motion"
)

// hobbyState accumulates idle time and suspends the timer while a triggered
// hobby motion is playing out.
type hobbyState struct {
	threshold      float32
	elapsed        float32
	exemptLeft     float32
	waitingOneShot bool
	loopID         string
	returnTo       string
}

func newHobbyState(threshold float32) hobbyState {
	if threshold <= 0 {
		threshold = 600
	}
	return hobbyState{threshold: threshold}
}

func (h *hobbyState) reset() {
	h.elapsed = 0
	h.exemptLeft = 0
	h.waitingOneShot = false
	h.loopID = ""
	h.returnTo = ""
}

// danceShare is the per-emotion probability of picking a dance over an
// exercise when the hobby timer fires.
var danceShare = map[string]float32{
	"happy": 0.7,
	"sad":   0.4,
	"angry": 0.1,
}

// updateHobby ticks the idle timer. Time accumulates only while an idle loop
// plays with no one-shot; a fired hobby opens an exemption window during
// which the timer is frozen, then restarts from zero.
func (s *Scheduler) updateHobby(dt float32) {
	h := &s.hobby
	if h.waitingOneShot {
		if s.oneShot == nil {
			h.waitingOneShot = false
			h.elapsed = 0
		}
		return
	}
	if h.exemptLeft > 0 {
		h.exemptLeft -= dt
		if h.exemptLeft <= 0 {
			h.exemptLeft = 0
			h.elapsed = 0
			s.endHobbyLoop()
		}
		return
	}
	if s.loopCat != motion.CategoryIdle || s.oneShot != nil {
		return
	}
	h.elapsed += dt
	if h.elapsed >= h.threshold {
		s.fireHobby()
	}
}

// fireHobby picks between the dance and exercise categories by the current
// emotion's weighting, then runs the usual anti-repetition draw with a boost
// for motions matching recently mentioned topics.
func (s *Scheduler) fireHobby() {
	h := &s.hobby
	h.elapsed = 0

	share, ok := danceShare[s.emotion]
	if !ok {
		share = 0.5
	}
	primary, secondary := motion.CategoryDance, motion.CategoryExercise
	if s.rng.Float32() >= share {
		primary, secondary = secondary, primary
	}
	cands := s.catalog.FindByCategory(primary)
	if len(cands) == 0 {
		cands = s.catalog.FindByCategory(secondary)
	}
	if len(cands) == 0 {
		return
	}
	prevLoop := s.loopID
	pick, ok := s.pickWeighted(cands, "", s.keywords)
	if !ok || !s.PlayMotion(pick.ID) {
		return
	}
	s.publish(bus.EventTypeHobbyTriggered, map[string]any{
		"id":       pick.ID,
		"category": string(pick.Category),
	})
	if pick.Mode == motion.PlayOnce {
		h.waitingOneShot = true
	} else {
		h.exemptLeft = 20 + s.rng.Float32()*20
		h.loopID = pick.ID
		h.returnTo = prevLoop
	}
}

// endHobbyLoop hands playback back to the idle the hobby interrupted, so the
// timer can start accumulating again. A motion the user started during the
// exemption window is left alone.
func (s *Scheduler) endHobbyLoop() {
	h := &s.hobby
	loopID, returnTo := h.loopID, h.returnTo
	h.loopID = ""
	h.returnTo = ""
	if loopID == "" || s.loopID != loopID {
		return
	}
	if returnTo == "" || !s.PlayMotion(returnTo) {
		s.ResetToIdle()
	}
}
