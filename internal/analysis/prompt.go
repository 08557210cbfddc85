package analysis

import (
	"fmt"
	"strings"

	"glowcheck/internal/model"
)

const beautySystemPrompt = `You are an expert beauty analyst. Analyze the provided selfie photo and the image annotation results to give a comprehensive beauty analysis. Consider facial features, skin quality, symmetry, and overall attractiveness.

User Profile:
- Skin Type: %s
- Age Group: %s
- Goals: %s
- Experience Level: %s

Provide scores (6-10 range, be encouraging) for:
1. Overall Glow Score
2. Skin Quality
3. Facial Symmetry
4. Eye Beauty
5. Lip Definition

Also provide 3-4 personalized, actionable recommendations based on the analysis and user profile.

Respond in JSON format:
{
  "glowScore": number,
  "skinQuality": number,
  "symmetry": number,
  "eyeBeauty": number,
  "lipDefinition": number,
  "recommendations": ["tip1", "tip2", "tip3"],
  "celebrityMatches": ["celebrity1", "celebrity2"]
}`

const outfitSystemPrompt = `You are an expert fashion stylist. Analyze the provided outfit photo and the image annotation results to give a comprehensive style analysis.

Event: %s
User Profile:
- Style Preferences: %s
- Favorite Colors: %s
- Budget: %s
- Age Group: %s

Provide scores (6-10 range, be encouraging) for:
1. Overall Outfit Score
2. Color Harmony
3. Fit & Style
4. Event Appropriateness

Also provide 3-4 actionable styling suggestions and extract 3 main colors from the outfit.

Respond in JSON format:
{
  "outfitScore": number,
  "colorHarmony": number,
  "fitStyle": number,
  "eventMatch": number,
  "suggestions": ["suggestion1", "suggestion2", "suggestion3"],
  "colorPalette": ["#color1", "#color2", "#color3"]
}`

const notSpecified = "Not specified"

func beautyPrompt(profile model.UserProfile, annotation []byte) (string, string) {
	experience := string(profile.ExperienceLevel)
	if experience == "" {
		experience = string(model.ExperienceBeginner)
	}
	system := fmt.Sprintf(beautySystemPrompt,
		orDefault(string(profile.SkinType), notSpecified),
		orDefault(profile.AgeGroup, notSpecified),
		joinOr(profile.Goals, "General beauty improvement"),
		experience,
	)
	user := "Please analyze this beauty photo. Image annotation detected: " + faceSummary(annotation)
	return system, user
}

func outfitPrompt(event string, profile model.UserProfile, annotation []byte) (string, string) {
	system := fmt.Sprintf(outfitSystemPrompt,
		orDefault(event, "casual outing"),
		joinOr(profile.StylePreferences, notSpecified),
		joinOr(profile.FavoriteColors, notSpecified),
		orDefault(profile.Budget, notSpecified),
		orDefault(profile.AgeGroup, notSpecified),
	)
	user := fmt.Sprintf("Please analyze this outfit for a %s. Image annotation detected: %s",
		orDefault(event, "casual outing"), labelSummary(annotation))
	return system, user
}

func orDefault(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}

func joinOr(values []string, fallback string) string {
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return fallback
	}
	return strings.Join(kept, ", ")
}
