package analysis

// Source tells whether a result came from the generative service or from
// the local heuristic generator.
type Source string

const (
	SourceService  Source = "service"
	SourceFallback Source = "fallback"
)

// Result is either Ok(data) or Fallback(data, reason). Both variants carry
// schema-valid, range-valid data.
type Result[T any] struct {
	Data   T      `json:"data"`
	Source Source `json:"source"`
	Reason string `json:"reason,omitempty"`

	// AnnotationReason is set when the canned annotation replaced the
	// vision service output. It is independent of Source.
	AnnotationReason string `json:"annotationReason,omitempty"`
}

func Ok[T any](data T) Result[T] {
	return Result[T]{Data: data, Source: SourceService}
}

func Fallback[T any](data T, reason string) Result[T] {
	return Result[T]{Data: data, Source: SourceFallback, Reason: reason}
}

func (r Result[T]) IsFallback() bool {
	return r.Source == SourceFallback
}

// AnnotationMocked reports whether the vision stage was replaced.
func (r Result[T]) AnnotationMocked() bool {
	return r.AnnotationReason != ""
}

type BeautyResult struct {
	GlowScore        float64  `json:"glowScore"`
	SkinQuality      float64  `json:"skinQuality"`
	Symmetry         float64  `json:"symmetry"`
	EyeBeauty        float64  `json:"eyeBeauty"`
	LipDefinition    float64  `json:"lipDefinition"`
	Recommendations  []string `json:"recommendations"`
	CelebrityMatches []string `json:"celebrityMatches"`
}

type OutfitResult struct {
	OutfitScore  float64  `json:"outfitScore"`
	ColorHarmony float64  `json:"colorHarmony"`
	FitStyle     float64  `json:"fitStyle"`
	EventMatch   float64  `json:"eventMatch"`
	Suggestions  []string `json:"suggestions"`
	ColorPalette []string `json:"colorPalette"`
}
