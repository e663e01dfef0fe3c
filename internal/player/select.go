package player

import (
	"errors"

	"github.com/normanking/avatarmotion/internal/motion"
	"github.com/normanking/avatarmotion/internal/procedural"
)

var errNoGenerator = errors.New("no procedural generator for motion")

// moodTags maps an emotion label to the manifest mood tags it matches.
var moodTags = map[string][]string{
	"happy":     {"happy", "energetic"},
	"sad":       {"sad", "calm"},
	"angry":     {"angry", "tense"},
	"surprised": {"surprised"},
	"neutral":   {"neutral", "calm"},
}

// PlayEmotionIdle picks an idle motion fitting the emotion: the catalog's
// idle clips are filtered to the emotion's mood tags (all idles when nothing
// matches), the anti-repetition policy picks one, and a pick equal to the
// running idle is replaced by the next round-robin alternate in its group.
func (s *Scheduler) PlayEmotionIdle(emotion string) bool {
	if s.avatar == nil {
		return false
	}
	idles := s.catalog.FindByCategory(motion.CategoryIdle)
	var cands []motion.Definition
	for _, d := range idles {
		for _, tag := range moodTags[emotion] {
			if d.HasMood(tag) {
				cands = append(cands, d)
				break
			}
		}
	}
	if len(cands) == 0 {
		cands = idles
	}
	if len(cands) == 0 {
		return s.PlayMotion(procedural.FallbackIdleID)
	}

	pick, ok := s.pickWeighted(cands, s.loopGroup, nil)
	if !ok {
		return s.PlayMotion(procedural.FallbackIdleID)
	}
	if pick.ID == s.loopID {
		if alt, found := s.nextAlternate(pick); found {
			pick = alt
		}
	}
	if s.PlayMotion(pick.ID) {
		return true
	}
	s.ResetToIdle()
	return false
}

// pickWeighted is the anti-repetition draw: candidates used fewer than two
// times in the recent window are eligible (all candidates when none are),
// weight = max(1, 3-recentUse), times 1.5 for the preferred alternation
// group and times 2 for a keyword-topic match.
func (s *Scheduler) pickWeighted(cands []motion.Definition, preferredGroup string, keywords []string) (motion.Definition, bool) {
	if len(cands) == 0 {
		return motion.Definition{}, false
	}
	type scored struct {
		def motion.Definition
		w   float32
	}
	var eligible, all []scored
	for _, d := range cands {
		use := s.history.RecentUse(d.ID)
		w := float32(3 - use)
		if w < 1 {
			w = 1
		}
		if preferredGroup != "" && d.AltGroup == preferredGroup {
			w *= 1.5
		}
		for _, kw := range keywords {
			if d.HasKeyword(kw) {
				w *= 2
				break
			}
		}
		sc := scored{def: d, w: w}
		all = append(all, sc)
		if use < 2 {
			eligible = append(eligible, sc)
		}
	}
	pool := eligible
	if len(pool) == 0 {
		pool = all
	}
	var total float32
	for _, sc := range pool {
		total += sc.w
	}
	r := s.rng.Float32() * total
	for _, sc := range pool {
		r -= sc.w
		if r <= 0 {
			return sc.def, true
		}
	}
	return pool[len(pool)-1].def, true
}

// nextAlternate returns the manifest-order successor of d inside its
// alternation group, wrapping around.
func (s *Scheduler) nextAlternate(d motion.Definition) (motion.Definition, bool) {
	if d.AltGroup == "" {
		return motion.Definition{}, false
	}
	var group []motion.Definition
	for _, m := range s.catalog.All() {
		if m.AltGroup == d.AltGroup {
			group = append(group, m)
		}
	}
	if len(group) < 2 {
		return motion.Definition{}, false
	}
	for i, m := range group {
		if m.ID == d.ID {
			return group[(i+1)%len(group)], true
		}
	}
	return motion.Definition{}, false
}
