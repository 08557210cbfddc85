package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"glowcheck/internal/knowledge"
	"glowcheck/internal/llm"
	"glowcheck/internal/model"
)

const (
	MinScore = 6.0
	MaxScore = 10.0

	maxCelebrityMatches = 2
	paletteSize         = 3
)

var ErrInvalidPayload = errors.New("invalid analysis payload")

var (
	DefaultCelebrityMatches = []string{"Emma Stone", "Zendaya"}
	DefaultColorPalette     = []string{"#2C3E50", "#E74C3C", "#F8F9FA"}
)

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Per-field defaults used when the service omits a score.
const (
	defaultGlow     = 7.8
	defaultSkin     = 7.6
	defaultSymmetry = 7.4
	defaultEyes     = 8.0
	defaultLips     = 7.2

	defaultOutfit = 7.8
	defaultColor  = 7.6
	defaultFit    = 7.4
	defaultEvent  = 8.0
)

type beautyPayload struct {
	GlowScore        *float64 `json:"glowScore"`
	SkinQuality      *float64 `json:"skinQuality"`
	Symmetry         *float64 `json:"symmetry"`
	EyeBeauty        *float64 `json:"eyeBeauty"`
	LipDefinition    *float64 `json:"lipDefinition"`
	Recommendations  []string `json:"recommendations"`
	CelebrityMatches []string `json:"celebrityMatches"`
}

type outfitPayload struct {
	OutfitScore  *float64 `json:"outfitScore"`
	ColorHarmony *float64 `json:"colorHarmony"`
	FitStyle     *float64 `json:"fitStyle"`
	EventMatch   *float64 `json:"eventMatch"`
	Suggestions  []string `json:"suggestions"`
	ColorPalette []string `json:"colorPalette"`
}

// decodePayload unmarshals the model reply. A field with the wrong JSON type
// is left nil and later defaulted; anything that is not a JSON object fails.
func decodePayload(text string, out any) error {
	payload := llm.ExtractJSONPayload(text)
	if !strings.HasPrefix(payload, "{") {
		return fmt.Errorf("%w: reply is not a JSON object", ErrInvalidPayload)
	}
	err := json.Unmarshal([]byte(payload), out)
	if err == nil {
		return nil
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
}

func parseBeauty(text string, profile model.UserProfile) (BeautyResult, error) {
	var p beautyPayload
	if err := decodePayload(text, &p); err != nil {
		return BeautyResult{}, err
	}
	return normalizeBeauty(BeautyResult{
		GlowScore:        valueOr(p.GlowScore, defaultGlow),
		SkinQuality:      valueOr(p.SkinQuality, defaultSkin),
		Symmetry:         valueOr(p.Symmetry, defaultSymmetry),
		EyeBeauty:        valueOr(p.EyeBeauty, defaultEyes),
		LipDefinition:    valueOr(p.LipDefinition, defaultLips),
		Recommendations:  p.Recommendations,
		CelebrityMatches: p.CelebrityMatches,
	}, profile), nil
}

func parseOutfit(text string, event string, profile model.UserProfile) (OutfitResult, error) {
	var p outfitPayload
	if err := decodePayload(text, &p); err != nil {
		return OutfitResult{}, err
	}
	return normalizeOutfit(OutfitResult{
		OutfitScore:  valueOr(p.OutfitScore, defaultOutfit),
		ColorHarmony: valueOr(p.ColorHarmony, defaultColor),
		FitStyle:     valueOr(p.FitStyle, defaultFit),
		EventMatch:   valueOr(p.EventMatch, defaultEvent),
		Suggestions:  p.Suggestions,
		ColorPalette: p.ColorPalette,
	}, event, profile), nil
}

func normalizeBeauty(r BeautyResult, profile model.UserProfile) BeautyResult {
	r.GlowScore = ClampScore(r.GlowScore)
	r.SkinQuality = ClampScore(r.SkinQuality)
	r.Symmetry = ClampScore(r.Symmetry)
	r.EyeBeauty = ClampScore(r.EyeBeauty)
	r.LipDefinition = ClampScore(r.LipDefinition)

	r.Recommendations = cleanList(r.Recommendations, knowledge.MaxTips)
	if len(r.Recommendations) == 0 {
		r.Recommendations = knowledge.BeautyTips(profile)
	}
	r.CelebrityMatches = cleanList(r.CelebrityMatches, maxCelebrityMatches)
	if len(r.CelebrityMatches) == 0 {
		r.CelebrityMatches = append([]string(nil), DefaultCelebrityMatches...)
	}
	return r
}

func normalizeOutfit(r OutfitResult, event string, profile model.UserProfile) OutfitResult {
	r.OutfitScore = ClampScore(r.OutfitScore)
	r.ColorHarmony = ClampScore(r.ColorHarmony)
	r.FitStyle = ClampScore(r.FitStyle)
	r.EventMatch = ClampScore(r.EventMatch)

	r.Suggestions = cleanList(r.Suggestions, knowledge.MaxTips)
	if len(r.Suggestions) == 0 {
		r.Suggestions = knowledge.OutfitTips(event, profile)
	}
	r.ColorPalette = cleanPalette(r.ColorPalette)
	return r
}

// ClampScore bounds v to [MinScore, MaxScore] at one decimal.
func ClampScore(v float64) float64 {
	if math.IsNaN(v) {
		v = MinScore
	}
	return round1(math.Max(MinScore, math.Min(MaxScore, v)))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// valueOr treats an absent or zero score as missing.
func valueOr(v *float64, fallback float64) float64 {
	if v == nil || *v == 0 {
		return fallback
	}
	return *v
}

func cleanList(items []string, limit int) []string {
	out := make([]string, 0, limit)
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
		if len(out) == limit {
			break
		}
	}
	return out
}

func cleanPalette(colors []string) []string {
	out := make([]string, 0, paletteSize)
	for _, c := range colors {
		c = strings.TrimSpace(c)
		if !hexColorPattern.MatchString(c) {
			continue
		}
		out = append(out, strings.ToUpper(c))
		if len(out) == paletteSize {
			break
		}
	}
	if len(out) == 0 {
		return append([]string(nil), DefaultColorPalette...)
	}
	return out
}
