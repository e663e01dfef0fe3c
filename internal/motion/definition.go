// Package motion loads and indexes the motion catalog manifest.
package motion

// Category groups motions by intent.
type Category string

const (
	CategoryIdle     Category = "idle"
	CategoryEmotion  Category = "emotion"
	CategoryGesture  Category = "gesture"
	CategoryDance    Category = "dance"
	CategorySpecial  Category = "special"
	CategoryExercise Category = "exercise"
)

// PlayMode selects looping or one-shot playback.
type PlayMode string

const (
	PlayLoop PlayMode = "loop"
	PlayOnce PlayMode = "once"
)

// SourceKind tags where a motion's clip comes from.
type SourceKind int

const (
	// SourceAuthored resolves an asset file through the retargeting engine.
	SourceAuthored SourceKind = iota
	// SourceProcedural resolves a generator id in the procedural registry.
	SourceProcedural
)

// Source is the tagged clip origin resolved by the playback scheduler.
type Source struct {
	Kind        SourceKind
	AssetURL    string
	GeneratorID string
}

// Definition describes one motion in the catalog. Immutable after load.
type Definition struct {
	ID           string   `json:"id"`
	Label        string   `json:"label"`
	File         string   `json:"file,omitempty"`
	Format       string   `json:"format,omitempty"`
	Category     Category `json:"category"`
	Mode         PlayMode `json:"playMode"`
	FadeDuration float32  `json:"fadeDuration,omitempty"`
	MoodTags     []string `json:"moodTags,omitempty"`
	AltGroup     string   `json:"altGroup,omitempty"`
	Keywords     []string `json:"keywords,omitempty"`
}

// Source returns the tagged clip origin: authored when a file is present,
// procedural otherwise.
func (d *Definition) Source() Source {
	if d.File != "" {
		return Source{Kind: SourceAuthored, AssetURL: d.File}
	}
	return Source{Kind: SourceProcedural, GeneratorID: d.ID}
}

// Fade returns the crossfade duration, defaulted when the manifest omits it.
func (d *Definition) Fade() float32 {
	if d.FadeDuration > 0 {
		return d.FadeDuration
	}
	return 0.4
}

// HasMood reports whether the definition carries the mood tag.
func (d *Definition) HasMood(tag string) bool {
	for _, t := range d.MoodTags {
		if t == tag {
			return true
		}
	}
	return false
}

// HasKeyword reports whether the definition lists the keyword.
func (d *Definition) HasKeyword(kw string) bool {
	for _, k := range d.Keywords {
		if k == kw {
			return true
		}
	}
	return false
}
