package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"glowcheck/internal/analysis"
	"glowcheck/internal/model"
	"glowcheck/internal/state"
	"glowcheck/internal/stats"
)

var (
	ErrImageRequired        = errors.New("image_base64 or image_url is required")
	ErrAnalysisLimitReached = state.ErrAnalysisLimitReached
	ErrPremiumRequired      = errors.New("premium subscription required")
	ErrChallengeNotFound    = errors.New("challenge not found")
	ErrChallengeCompleted   = state.ErrChallengeCompleted
)

const defaultEvent = "Casual"

// improvementThreshold marks sub-scores worth working on.
const improvementThreshold = 7.5

type BeautyRequest struct {
	ImageBase64 string `json:"image_base64,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	FileName    string `json:"file_name,omitempty"`
}

type OutfitRequest struct {
	ImageBase64 string `json:"image_base64,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	FileName    string `json:"file_name,omitempty"`
	Event       string `json:"event"`
}

type BeautyResponse struct {
	Analysis         model.BeautyAnalysis `json:"analysis"`
	Fallback         bool                 `json:"fallback"`
	FallbackReason   string               `json:"fallback_reason,omitempty"`
	AnnotationMocked bool                 `json:"annotation_mocked"`
	GlowScore        float64              `json:"glow_score"`
	Streak           int                  `json:"streak"`
}

type OutfitResponse struct {
	Analysis         model.OutfitAnalysis `json:"analysis"`
	Suggestions      []string             `json:"suggestions"`
	ColorPalette     []string             `json:"color_palette"`
	Fallback         bool                 `json:"fallback"`
	FallbackReason   string               `json:"fallback_reason,omitempty"`
	AnnotationMocked bool                 `json:"annotation_mocked"`
	OutfitScore      float64              `json:"outfit_score"`
	Streak           int                  `json:"streak"`
}

// Uploader stores analysed photos. *llm.Client satisfies it.
type Uploader interface {
	CanUpload() bool
	UploadPhoto(ctx context.Context, imageBytes []byte, fileName string) (string, error)
}

type Service struct {
	state    *state.Store
	acquirer *analysis.Acquirer
	uploader Uploader
	logger   *slog.Logger
	sem      *semaphore.Weighted
	now      func() time.Time

	challenges []model.Challenge
}

type Option func(*Service)

func WithUploader(u Uploader) Option {
	return func(s *Service) { s.uploader = u }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxConcurrent bounds how many analyses run at once.
func WithMaxConcurrent(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func New(st *state.Store, acquirer *analysis.Acquirer, opts ...Option) *Service {
	s := &Service{
		state:      st,
		acquirer:   acquirer,
		logger:     slog.Default(),
		sem:        semaphore.NewWeighted(1),
		now:        time.Now,
		challenges: loadChallenges(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) State() *state.Store {
	return s.state
}

// AnalyzeBeauty runs the acquisition flow and records the result. It fails
// at the quota gate or the encode stage; service problems fall back.
func (s *Service) AnalyzeBeauty(ctx context.Context, req BeautyRequest) (BeautyResponse, error) {
	ref, err := imageRef(req.ImageBase64, req.ImageURL)
	if err != nil {
		return BeautyResponse{}, err
	}
	if !s.state.CanAnalyze() {
		return BeautyResponse{}, ErrAnalysisLimitReached
	}
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return BeautyResponse{}, err
	}
	defer s.sem.Release(1)

	start := s.now()
	img, err := s.acquirer.Encode(ctx, ref)
	if err != nil {
		return BeautyResponse{}, err
	}
	profile := s.state.Snapshot().Profile
	res := s.acquirer.AnalyzeBeauty(ctx, img, profile)

	record := model.BeautyAnalysis{
		ID:               uuid.NewString(),
		GlowScore:        res.Data.GlowScore,
		SkinQuality:      res.Data.SkinQuality,
		Symmetry:         res.Data.Symmetry,
		EyeBeauty:        res.Data.EyeBeauty,
		LipDefinition:    res.Data.LipDefinition,
		FaceShape:        profile.FaceShape,
		SkinTone:         profile.SkinTone,
		Recommendations:  res.Data.Recommendations,
		Improvements:     improvements(res.Data),
		CelebrityMatches: res.Data.CelebrityMatches,
		Date:             s.now().UTC().Format(time.RFC3339),
		ProcessingTimeMs: s.now().Sub(start).Milliseconds(),
	}
	if err := s.state.Dispatch(state.Batch(
		state.RequireQuota(),
		state.AddBeautyAnalysis(record),
		state.IncrementStreak(),
		state.IncrementAnalysisCount(),
	)); err != nil {
		return BeautyResponse{}, err
	}
	record.PhotoURL = s.attachPhoto(ctx, record.ID, img, req.ImageURL, req.FileName)

	s.logger.Info("beauty analysis recorded",
		"id", record.ID,
		"glow_score", record.GlowScore,
		"fallback", res.IsFallback(),
		"annotation_mocked", res.AnnotationMocked(),
		"elapsed_ms", record.ProcessingTimeMs,
	)
	snap := s.state.Snapshot()
	return BeautyResponse{
		Analysis:         record,
		Fallback:         res.IsFallback(),
		FallbackReason:   res.Reason,
		AnnotationMocked: res.AnnotationMocked(),
		GlowScore:        snap.GlowScore,
		Streak:           snap.Streak,
	}, nil
}

func (s *Service) AnalyzeOutfit(ctx context.Context, req OutfitRequest) (OutfitResponse, error) {
	ref, err := imageRef(req.ImageBase64, req.ImageURL)
	if err != nil {
		return OutfitResponse{}, err
	}
	if !s.state.CanAnalyze() {
		return OutfitResponse{}, ErrAnalysisLimitReached
	}
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return OutfitResponse{}, err
	}
	defer s.sem.Release(1)

	event := strings.TrimSpace(req.Event)
	if event == "" {
		event = defaultEvent
	}
	img, err := s.acquirer.Encode(ctx, ref)
	if err != nil {
		return OutfitResponse{}, err
	}
	profile := s.state.Snapshot().Profile
	res := s.acquirer.AnalyzeOutfit(ctx, img, event, profile)

	record := model.OutfitAnalysis{
		ID:              uuid.NewString(),
		OutfitScore:     res.Data.OutfitScore,
		ColorHarmony:    res.Data.ColorHarmony,
		FitStyle:        res.Data.FitStyle,
		EventMatch:      res.Data.EventMatch,
		Event:           event,
		Recommendations: res.Data.Suggestions,
		ColorPalette:    res.Data.ColorPalette,
		Date:            s.now().UTC().Format(time.RFC3339),
	}
	if err := s.state.Dispatch(state.Batch(
		state.RequireQuota(),
		state.AddOutfitAnalysis(record),
		state.IncrementStreak(),
		state.IncrementAnalysisCount(),
	)); err != nil {
		return OutfitResponse{}, err
	}
	record.PhotoURL = s.attachPhoto(ctx, record.ID, img, req.ImageURL, req.FileName)

	s.logger.Info("outfit analysis recorded",
		"id", record.ID,
		"outfit_score", record.OutfitScore,
		"event", event,
		"fallback", res.IsFallback(),
		"annotation_mocked", res.AnnotationMocked(),
	)
	snap := s.state.Snapshot()
	return OutfitResponse{
		Analysis:         record,
		Suggestions:      res.Data.Suggestions,
		ColorPalette:     res.Data.ColorPalette,
		Fallback:         res.IsFallback(),
		FallbackReason:   res.Reason,
		AnnotationMocked: res.AnnotationMocked(),
		OutfitScore:      snap.OutfitScore,
		Streak:           snap.Streak,
	}, nil
}

func (s *Service) BeautyHistory() []model.BeautyAnalysis {
	return s.state.Snapshot().BeautyAnalyses
}

func (s *Service) OutfitHistory() []model.OutfitAnalysis {
	return s.state.Snapshot().OutfitAnalyses
}

func (s *Service) Stats() (stats.Summary, error) {
	return stats.Summarize(s.state.Snapshot())
}

// attachPhoto resolves the photo URL for an analysis that is already
// committed and stores it on that record.
func (s *Service) attachPhoto(ctx context.Context, analysisID string, img analysis.Image, imageURL string, fileName string) string {
	url := s.photoURL(ctx, img, imageURL, fileName)
	if url == "" {
		return ""
	}
	if err := s.state.Dispatch(state.SetPhotoURL(analysisID, url)); err != nil {
		s.logger.Warn("photo url not saved", "id", analysisID, "error", err)
	}
	return url
}

// photoURL keeps web-hosted references as they are and uploads everything
// else when object storage is configured. Upload failures only cost the URL.
func (s *Service) photoURL(ctx context.Context, img analysis.Image, imageURL string, fileName string) string {
	lowered := strings.ToLower(strings.TrimSpace(imageURL))
	if strings.HasPrefix(lowered, "http://") || strings.HasPrefix(lowered, "https://") {
		return strings.TrimSpace(imageURL)
	}
	if s.uploader == nil || !s.uploader.CanUpload() {
		return ""
	}
	if strings.TrimSpace(fileName) == "" {
		fileName = "photo" + extensionFor(img.MIME)
	}
	url, err := s.uploader.UploadPhoto(ctx, img.Bytes, fileName)
	if err != nil {
		s.logger.Warn("photo upload failed", "error", err)
		return ""
	}
	return url
}

func imageRef(imageBase64 string, imageURL string) (string, error) {
	if ref := analysis.DataURI(imageBase64); ref != "" {
		return ref, nil
	}
	if ref := strings.TrimSpace(imageURL); ref != "" {
		return ref, nil
	}
	return "", ErrImageRequired
}

func improvements(r analysis.BeautyResult) []string {
	areas := []struct {
		name  string
		score float64
	}{
		{"Skin quality", r.SkinQuality},
		{"Symmetry", r.Symmetry},
		{"Eye beauty", r.EyeBeauty},
		{"Lip definition", r.LipDefinition},
	}
	var out []string
	for _, area := range areas {
		if area.score < improvementThreshold {
			out = append(out, fmt.Sprintf("%s (%.1f)", area.name, area.score))
		}
	}
	return out
}

func extensionFor(mime string) string {
	switch strings.ToLower(mime) {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}
