package analysis

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"glowcheck/internal/llm"
	"glowcheck/internal/model"
)

type fakeAnnotator struct {
	raw   []byte
	err   error
	calls int
}

func (f *fakeAnnotator) Annotate(_ context.Context, imageBase64 string) ([]byte, error) {
	f.calls++
	if imageBase64 == "" {
		return nil, errors.New("empty image")
	}
	return f.raw, f.err
}

type fakeGenerator struct {
	reply string
	err   error
	block bool
	last  llm.GenerateRequest
}

func (f *fakeGenerator) Generate(ctx context.Context, req llm.GenerateRequest) (string, error) {
	f.last = req
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.reply, f.err
}

type fakeFetcher struct {
	body []byte
	mime string
	err  error
}

func (f fakeFetcher) FetchImage(context.Context, string) ([]byte, string, error) {
	return f.body, f.mime, f.err
}

var testImageRef = "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("selfie-bytes"))

func assertScore(t *testing.T, name string, v float64) {
	t.Helper()
	if v < MinScore || v > MaxScore {
		t.Fatalf("%s = %v, out of [%v, %v]", name, v, MinScore, MaxScore)
	}
	if math.Abs(math.Round(v*10)/10-v) > 1e-9 {
		t.Fatalf("%s = %v, must have one decimal", name, v)
	}
}

func assertBeautyValid(t *testing.T, r BeautyResult) {
	t.Helper()
	assertScore(t, "glowScore", r.GlowScore)
	assertScore(t, "skinQuality", r.SkinQuality)
	assertScore(t, "symmetry", r.Symmetry)
	assertScore(t, "eyeBeauty", r.EyeBeauty)
	assertScore(t, "lipDefinition", r.LipDefinition)
	if len(r.Recommendations) == 0 || len(r.Recommendations) > 4 {
		t.Fatalf("expected 1-4 recommendations, got %v", r.Recommendations)
	}
	if len(r.CelebrityMatches) > 2 {
		t.Fatalf("expected at most 2 celebrity matches, got %v", r.CelebrityMatches)
	}
}

func assertOutfitValid(t *testing.T, r OutfitResult) {
	t.Helper()
	assertScore(t, "outfitScore", r.OutfitScore)
	assertScore(t, "colorHarmony", r.ColorHarmony)
	assertScore(t, "fitStyle", r.FitStyle)
	assertScore(t, "eventMatch", r.EventMatch)
	if len(r.Suggestions) == 0 || len(r.Suggestions) > 4 {
		t.Fatalf("expected 1-4 suggestions, got %v", r.Suggestions)
	}
	if len(r.ColorPalette) == 0 || len(r.ColorPalette) > 3 {
		t.Fatalf("expected 1-3 palette colors, got %v", r.ColorPalette)
	}
}

func TestAcquireBeautyUsesServiceReply(t *testing.T) {
	gen := &fakeGenerator{reply: "```json\n{\"glowScore\": 11.3, \"skinQuality\": 5.2, \"symmetry\": 8.46, \"recommendations\": [\"a\",\"b\",\"c\",\"d\",\"e\"], \"celebrityMatches\": [\"X\",\"Y\",\"Z\"]}\n```"}
	ann := &fakeAnnotator{raw: []byte(`{"responses":[{"faceAnnotations":[{"joyLikelihood":"VERY_LIKELY"}]}]}`)}
	acq := NewAcquirer(NewEncoder(nil, false), WithAnnotator(ann), WithGenerator(gen), WithSeed(1))

	res, err := acq.AcquireBeauty(context.Background(), testImageRef, model.UserProfile{SkinType: model.SkinTypeDry})
	if err != nil {
		t.Fatalf("AcquireBeauty() error = %v", err)
	}
	if res.IsFallback() || res.AnnotationMocked() {
		t.Fatalf("expected service result, got fallback=%v mocked=%v", res.IsFallback(), res.AnnotationMocked())
	}

	d := res.Data
	if d.GlowScore != 10.0 || d.SkinQuality != 6.0 || d.Symmetry != 8.5 {
		t.Fatalf("scores not clamped and rounded: glow=%v skin=%v symmetry=%v", d.GlowScore, d.SkinQuality, d.Symmetry)
	}
	if d.EyeBeauty != defaultEyes || d.LipDefinition != defaultLips {
		t.Fatalf("missing scores should use defaults: eyes=%v lips=%v", d.EyeBeauty, d.LipDefinition)
	}
	if !slices.Equal(d.Recommendations, []string{"a", "b", "c", "d"}) {
		t.Fatalf("recommendations = %v", d.Recommendations)
	}
	if !slices.Equal(d.CelebrityMatches, []string{"X", "Y"}) {
		t.Fatalf("celebrity matches = %v", d.CelebrityMatches)
	}
	assertBeautyValid(t, d)

	if !strings.Contains(gen.last.System, "Skin Type: dry") {
		t.Fatalf("system prompt missing profile: %q", gen.last.System)
	}
	if !strings.Contains(gen.last.Text, "VERY_LIKELY") {
		t.Fatalf("prompt missing annotation: %q", gen.last.Text)
	}
	if gen.last.ImageBase64 != base64.StdEncoding.EncodeToString([]byte("selfie-bytes")) {
		t.Fatalf("unexpected image payload %q", gen.last.ImageBase64)
	}
}

func TestAcquireBeautyDoubleFailureStillResolves(t *testing.T) {
	ann := &fakeAnnotator{err: errors.New("annotation status=500")}
	gen := &fakeGenerator{reply: "this is not json"}
	acq := NewAcquirer(NewEncoder(nil, false), WithAnnotator(ann), WithGenerator(gen))

	start := time.Now()
	res, err := acq.AcquireBeauty(context.Background(), testImageRef, model.UserProfile{})
	if err != nil {
		t.Fatalf("AcquireBeauty() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed >= time.Second {
		t.Fatalf("fallback took %s", elapsed)
	}

	if !res.IsFallback() || !res.AnnotationMocked() {
		t.Fatalf("expected fallback with mocked annotation, got %+v", res)
	}
	if !strings.Contains(res.AnnotationReason, "status=500") {
		t.Fatalf("annotation reason = %q", res.AnnotationReason)
	}
	if !strings.Contains(gen.last.Text, "LEFT_EYE") {
		t.Fatalf("mock annotation should feed synthesis, prompt=%q", gen.last.Text)
	}
	assertBeautyValid(t, res.Data)
	if !slices.Equal(res.Data.CelebrityMatches, DefaultCelebrityMatches) {
		t.Fatalf("celebrity matches = %v", res.Data.CelebrityMatches)
	}
}

func TestAcquireBeautyGeneratorTimeoutIsBounded(t *testing.T) {
	gen := &fakeGenerator{block: true}
	acq := NewAcquirer(NewEncoder(nil, false), WithGenerator(gen))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	res, err := acq.AcquireBeauty(ctx, testImageRef, model.UserProfile{})
	if err != nil {
		t.Fatalf("AcquireBeauty() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed >= time.Second {
		t.Fatalf("timeout fallback took %s", elapsed)
	}
	if !res.IsFallback() {
		t.Fatalf("expected fallback after generator timeout")
	}
	assertBeautyValid(t, res.Data)
}

func TestFallbackOilySkinHasOilControlTip(t *testing.T) {
	acq := NewAcquirer(nil, WithGenerator(&fakeGenerator{err: errors.New("status=503")}))
	profile := model.UserProfile{
		SkinType: model.SkinTypeOily,
		Goals:    []string{"Improve my skin", "Better makeup skills"},
	}

	res, err := acq.AcquireBeauty(context.Background(), testImageRef, profile)
	if err != nil {
		t.Fatalf("AcquireBeauty() error = %v", err)
	}
	if !res.IsFallback() {
		t.Fatalf("expected fallback result")
	}
	if len(res.Data.Recommendations) > 4 {
		t.Fatalf("too many recommendations: %v", res.Data.Recommendations)
	}

	found := false
	for _, tip := range res.Data.Recommendations {
		if strings.Contains(strings.ToLower(tip), "oil") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an oil-control tip in %v", res.Data.Recommendations)
	}
}

func TestFallbackScoresStayNearBase(t *testing.T) {
	acq := NewAcquirer(nil, WithSeed(42))
	for i := 0; i < 200; i++ {
		r := acq.fallbackBeauty(model.UserProfile{})
		assertBeautyValid(t, r)
		if r.GlowScore < 7.0 || r.GlowScore > 9.0 {
			t.Fatalf("glow score %v outside [7, 9]", r.GlowScore)
		}
		for _, sub := range []float64{r.SkinQuality, r.Symmetry, r.EyeBeauty, r.LipDefinition} {
			if math.Abs(r.GlowScore-sub) > 0.36 {
				t.Fatalf("sub-score %v too far from glow score %v", sub, r.GlowScore)
			}
		}
	}
}

func TestAcquireOutfitNormalizesPalette(t *testing.T) {
	gen := &fakeGenerator{reply: `{"outfitScore": 8.2, "colorHarmony": "great", "suggestions": ["Roll the sleeves"], "colorPalette": ["red", "#aabbcc", "#123456", "#FFFFFF", "#000000"]}`}
	ann := &fakeAnnotator{raw: MockAnnotation()}
	acq := NewAcquirer(nil, WithAnnotator(ann), WithGenerator(gen))

	res, err := acq.AcquireOutfit(context.Background(), testImageRef, "Work meeting", model.UserProfile{})
	if err != nil {
		t.Fatalf("AcquireOutfit() error = %v", err)
	}
	if res.IsFallback() {
		t.Fatalf("unexpected fallback: %s", res.Reason)
	}
	if res.Data.OutfitScore != 8.2 || res.Data.ColorHarmony != defaultColor {
		t.Fatalf("score/harmony = %v/%v", res.Data.OutfitScore, res.Data.ColorHarmony)
	}
	if want := []string{"#AABBCC", "#123456", "#FFFFFF"}; !slices.Equal(res.Data.ColorPalette, want) {
		t.Fatalf("palette = %v, want %v", res.Data.ColorPalette, want)
	}
	if !slices.Equal(res.Data.Suggestions, []string{"Roll the sleeves"}) {
		t.Fatalf("suggestions = %v", res.Data.Suggestions)
	}
	assertOutfitValid(t, res.Data)

	if !strings.Contains(gen.last.System, "Event: Work meeting") {
		t.Fatalf("system prompt missing event: %q", gen.last.System)
	}
	if !strings.Contains(gen.last.Text, "Portrait") || strings.Contains(gen.last.Text, "LEFT_EYE") {
		t.Fatalf("outfit prompt should carry labels, not face landmarks: %q", gen.last.Text)
	}
}

func TestAcquireOutfitFallbackUsesEventRules(t *testing.T) {
	acq := NewAcquirer(nil)
	res, err := acq.AcquireOutfit(context.Background(), testImageRef, "Coffee with friends", model.UserProfile{})
	if err != nil {
		t.Fatalf("AcquireOutfit() error = %v", err)
	}
	if !res.IsFallback() || !res.AnnotationMocked() {
		t.Fatalf("expected fallback with mocked annotation, got %+v", res)
	}
	if !slices.Equal(res.Data.ColorPalette, DefaultColorPalette) {
		t.Fatalf("palette = %v", res.Data.ColorPalette)
	}
	if !strings.Contains(res.Data.Suggestions[0], "cardigan") {
		t.Fatalf("expected casual rule first, got %v", res.Data.Suggestions)
	}
	assertOutfitValid(t, res.Data)
}

func TestMissingListsUseRules(t *testing.T) {
	r, err := parseOutfit(`{"outfitScore": 9.1, "colorPalette": []}`, "date night", model.UserProfile{})
	if err != nil {
		t.Fatalf("parseOutfit() error = %v", err)
	}
	if !strings.Contains(r.Suggestions[0], "statement accessory") {
		t.Fatalf("expected date rule first, got %v", r.Suggestions)
	}
	if !slices.Equal(r.ColorPalette, DefaultColorPalette) {
		t.Fatalf("palette = %v", r.ColorPalette)
	}
}

func TestParseRejectsNonObject(t *testing.T) {
	if _, err := parseBeauty(`[1,2,3]`, model.UserProfile{}); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload for array, got %v", err)
	}
	if _, err := parseBeauty(`{"glowScore": 8,`, model.UserProfile{}); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload for truncated object, got %v", err)
	}
}

func TestClampScore(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{-3, 6.0},
		{42, 10.0},
		{7.26, 7.3},
		{math.NaN(), 6.0},
	}
	for _, tc := range cases {
		if got := ClampScore(tc.in); got != tc.want {
			t.Fatalf("ClampScore(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestEncodeFailurePropagates(t *testing.T) {
	acq := NewAcquirer(NewEncoder(fakeFetcher{err: errors.New("status=404")}, false))

	if _, err := acq.AcquireBeauty(context.Background(), "https://example.com/missing.jpg", model.UserProfile{}); !errors.Is(err, ErrImageEncode) {
		t.Fatalf("download failure: expected ErrImageEncode, got %v", err)
	}
	if _, err := acq.AcquireOutfit(context.Background(), "/tmp/outfit.jpg", "work", model.UserProfile{}); !errors.Is(err, ErrImageEncode) {
		t.Fatalf("local path: expected ErrImageEncode, got %v", err)
	}
	if _, err := acq.AcquireBeauty(context.Background(), "", model.UserProfile{}); !errors.Is(err, ErrImageEncode) {
		t.Fatalf("empty ref: expected ErrImageEncode, got %v", err)
	}
}

func TestEncoderSources(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\nrest-of-image")

	enc := NewEncoder(fakeFetcher{body: png, mime: "application/octet-stream"}, true)
	img, err := enc.Encode(context.Background(), "https://cdn.example.com/a.png")
	if err != nil {
		t.Fatalf("Encode(url) error = %v", err)
	}
	if img.MIME != "image/png" || img.Base64 != base64.StdEncoding.EncodeToString(png) {
		t.Fatalf("unexpected remote image: mime=%q", img.MIME)
	}

	path := filepath.Join(t.TempDir(), "selfie.png")
	if err := os.WriteFile(path, png, 0o644); err != nil {
		t.Fatalf("write image error = %v", err)
	}
	img, err = enc.Encode(context.Background(), path)
	if err != nil {
		t.Fatalf("Encode(path) error = %v", err)
	}
	if !bytes.Equal(img.Bytes, png) {
		t.Fatalf("local file bytes differ")
	}

	img, err = enc.Encode(context.Background(), DataURI(base64.StdEncoding.EncodeToString(png)))
	if err != nil {
		t.Fatalf("Encode(data uri) error = %v", err)
	}
	if img.MIME != "image/png" {
		t.Fatalf("data uri mime = %q, want image/png", img.MIME)
	}
}

func TestDataURI(t *testing.T) {
	cases := map[string]string{
		" abcd ":                     "data:image/jpeg;base64,abcd",
		"data:image/png;base64,abcd": "data:image/png;base64,abcd",
		"  ":                         "",
	}
	for in, want := range cases {
		if got := DataURI(in); got != want {
			t.Fatalf("DataURI(%q) = %q, want %q", in, got, want)
		}
	}
}
