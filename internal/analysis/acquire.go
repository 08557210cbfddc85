// Package analysis turns a captured photo into a bounded beauty or outfit
// result. Only the encode stage can fail; annotation and synthesis degrade
// to canned or heuristic data.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"glowcheck/internal/knowledge"
	"glowcheck/internal/llm"
	"glowcheck/internal/model"
)

// Annotator submits an encoded image for feature annotation and returns the
// raw response body.
type Annotator interface {
	Annotate(ctx context.Context, imageBase64 string) ([]byte, error)
}

// Generator runs a role-scoped prompt against the generative service.
type Generator interface {
	Generate(ctx context.Context, req llm.GenerateRequest) (string, error)
}

var errNotConfigured = errors.New("not configured")

type Acquirer struct {
	encoder   *Encoder
	annotator Annotator
	generator Generator
	logger    *slog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

type Option func(*Acquirer)

func WithAnnotator(a Annotator) Option {
	return func(acq *Acquirer) { acq.annotator = a }
}

func WithGenerator(g Generator) Option {
	return func(acq *Acquirer) { acq.generator = g }
}

func WithLogger(l *slog.Logger) Option {
	return func(acq *Acquirer) {
		if l != nil {
			acq.logger = l
		}
	}
}

// WithSeed makes fallback scores reproducible.
func WithSeed(seed int64) Option {
	return func(acq *Acquirer) { acq.rng = rand.New(rand.NewSource(seed)) }
}

func NewAcquirer(encoder *Encoder, opts ...Option) *Acquirer {
	if encoder == nil {
		encoder = NewEncoder(nil, false)
	}
	acq := &Acquirer{
		encoder: encoder,
		logger:  slog.Default(),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(acq)
	}
	return acq
}

func (a *Acquirer) Encode(ctx context.Context, ref string) (Image, error) {
	return a.encoder.Encode(ctx, ref)
}

// AcquireBeauty encodes ref and analyses it. The error is non-nil only when
// the image could not be encoded.
func (a *Acquirer) AcquireBeauty(ctx context.Context, ref string, profile model.UserProfile) (Result[BeautyResult], error) {
	img, err := a.encoder.Encode(ctx, ref)
	if err != nil {
		return Result[BeautyResult]{}, err
	}
	return a.AnalyzeBeauty(ctx, img, profile), nil
}

func (a *Acquirer) AcquireOutfit(ctx context.Context, ref string, event string, profile model.UserProfile) (Result[OutfitResult], error) {
	img, err := a.encoder.Encode(ctx, ref)
	if err != nil {
		return Result[OutfitResult]{}, err
	}
	return a.AnalyzeOutfit(ctx, img, event, profile), nil
}

// AnalyzeBeauty runs annotation and synthesis for an already encoded image.
func (a *Acquirer) AnalyzeBeauty(ctx context.Context, img Image, profile model.UserProfile) Result[BeautyResult] {
	annotation, annotationReason := a.annotate(ctx, img)
	system, user := beautyPrompt(profile, annotation)

	var res Result[BeautyResult]
	text, err := a.generate(ctx, system, user, img)
	if err == nil {
		var parsed BeautyResult
		parsed, err = parseBeauty(text, profile)
		if err == nil {
			res = Ok(parsed)
		}
	}
	if err != nil {
		reason := fmt.Sprintf("beauty synthesis: %v", err)
		a.logger.Warn("beauty analysis using fallback", "reason", reason)
		res = Fallback(a.fallbackBeauty(profile), reason)
	}
	res.AnnotationReason = annotationReason
	return res
}

func (a *Acquirer) AnalyzeOutfit(ctx context.Context, img Image, event string, profile model.UserProfile) Result[OutfitResult] {
	annotation, annotationReason := a.annotate(ctx, img)
	system, user := outfitPrompt(event, profile, annotation)

	var res Result[OutfitResult]
	text, err := a.generate(ctx, system, user, img)
	if err == nil {
		var parsed OutfitResult
		parsed, err = parseOutfit(text, event, profile)
		if err == nil {
			res = Ok(parsed)
		}
	}
	if err != nil {
		reason := fmt.Sprintf("outfit synthesis: %v", err)
		a.logger.Warn("outfit analysis using fallback", "reason", reason, "event", event)
		res = Fallback(a.fallbackOutfit(event, profile), reason)
	}
	res.AnnotationReason = annotationReason
	return res
}

func (a *Acquirer) annotate(ctx context.Context, img Image) ([]byte, string) {
	if a.annotator == nil {
		return MockAnnotation(), "annotation: " + errNotConfigured.Error()
	}
	raw, err := a.annotator.Annotate(ctx, img.Base64)
	if err != nil {
		reason := fmt.Sprintf("annotation: %v", err)
		a.logger.Warn("image annotation using mock payload", "reason", reason)
		return MockAnnotation(), reason
	}
	return raw, ""
}

func (a *Acquirer) generate(ctx context.Context, system string, user string, img Image) (string, error) {
	if a.generator == nil {
		return "", errNotConfigured
	}
	return a.generator.Generate(ctx, llm.GenerateRequest{
		System:      system,
		Text:        user,
		ImageBase64: img.Base64,
	})
}

func (a *Acquirer) fallbackBeauty(profile model.UserProfile) BeautyResult {
	base, jitter := a.fallbackScores(4)
	return normalizeBeauty(BeautyResult{
		GlowScore:        base,
		SkinQuality:      jitter[0],
		Symmetry:         jitter[1],
		EyeBeauty:        jitter[2],
		LipDefinition:    jitter[3],
		Recommendations:  knowledge.BeautyTips(profile),
		CelebrityMatches: DefaultCelebrityMatches,
	}, profile)
}

func (a *Acquirer) fallbackOutfit(event string, profile model.UserProfile) OutfitResult {
	base, jitter := a.fallbackScores(3)
	return normalizeOutfit(OutfitResult{
		OutfitScore:  base,
		ColorHarmony: jitter[0],
		FitStyle:     jitter[1],
		EventMatch:   jitter[2],
		Suggestions:  knowledge.OutfitTips(event, profile),
		ColorPalette: DefaultColorPalette,
	}, event, profile)
}

// fallbackScores draws a base in [7, 9] and n sub-scores within ±0.25 of it,
// all at one decimal.
func (a *Acquirer) fallbackScores(n int) (float64, []float64) {
	a.rngMu.Lock()
	defer a.rngMu.Unlock()

	base := 7.0 + a.rng.Float64()*2
	subs := make([]float64, n)
	for i := range subs {
		subs[i] = round1(base + a.rng.Float64()*0.5 - 0.25)
	}
	return round1(base), subs
}
