// Package knowledge holds the canned beauty and styling tips used when the
// generative service gives no usable recommendations.
package knowledge

import (
	"strings"

	"glowcheck/internal/model"
)

// MaxTips caps every recommendation list handed to a user.
const MaxTips = 4

type SkinRule struct {
	SkinType model.SkinType
	Tips     []string
}

type TagRule struct {
	Tag string
	Tip string
}

type EventRule struct {
	Keywords []string
	Tips     []string
}

var SkinRules = []SkinRule{
	{
		SkinType: model.SkinTypeOily,
		Tips: []string{
			"Use a clay mask twice a week to control oil",
			"Try niacinamide serum to minimize pores",
		},
	},
	{
		SkinType: model.SkinTypeDry,
		Tips: []string{
			"Use a hydrating hyaluronic acid serum",
			"Apply a rich moisturizer morning and night",
		},
	},
	{
		SkinType: model.SkinTypeCombination,
		Tips: []string{
			"Use different products for T-zone and cheeks",
			"Try a gentle BHA exfoliant 2x per week",
		},
	},
	{
		SkinType: model.SkinTypeSensitive,
		Tips: []string{
			"Use fragrance-free, gentle products",
			"Always patch test new products",
		},
	},
}

var GoalRules = []TagRule{
	{Tag: "Improve my skin", Tip: "Add vitamin C serum to your morning routine"},
	{Tag: "Better makeup skills", Tip: "Practice blending techniques with neutral eyeshadows"},
}

var DefaultBeautyTips = []string{
	"Maintain a consistent skincare routine",
	"Stay hydrated and get enough sleep",
	"Use SPF daily to protect your skin",
}

// EventRules are checked in order; the first rule whose keyword appears in
// the event wins.
var EventRules = []EventRule{
	{
		Keywords: []string{"work", "professional"},
		Tips: []string{
			"Consider adding a blazer for a more polished look",
			"Neutral colors work best for professional settings",
		},
	},
	{
		Keywords: []string{"date", "dinner"},
		Tips: []string{
			"Add a statement accessory to elevate the look",
			"Consider shoes that are both stylish and comfortable",
		},
	},
	{
		Keywords: []string{"casual", "coffee"},
		Tips: []string{
			"Layer with a cardigan or light jacket",
			"Comfortable shoes are key for casual outings",
		},
	},
}

var StyleRules = []TagRule{
	{Tag: "Classic", Tip: "Stick to timeless pieces that never go out of style"},
	{Tag: "Trendy", Tip: "Try incorporating one trendy element into your outfit"},
}

var DefaultOutfitTips = []string{
	"Ensure your outfit fits well and is comfortable",
	"Choose colors that complement your skin tone",
	"Add one interesting detail to make the outfit memorable",
}

// BeautyTips picks tips for the profile's skin type and goals.
func BeautyTips(profile model.UserProfile) []string {
	tips := make([]string, 0, MaxTips)
	for _, rule := range SkinRules {
		if rule.SkinType == profile.SkinType {
			tips = append(tips, rule.Tips...)
			break
		}
	}
	tips = appendTagged(tips, GoalRules, profile.Goals)
	if len(tips) == 0 {
		tips = append(tips, DefaultBeautyTips...)
	}
	return capTips(tips)
}

// OutfitTips picks tips for the event keywords and the profile's style
// preferences.
func OutfitTips(event string, profile model.UserProfile) []string {
	tips := make([]string, 0, MaxTips)
	lowered := strings.ToLower(event)
	for _, rule := range EventRules {
		if containsAny(lowered, rule.Keywords) {
			tips = append(tips, rule.Tips...)
			break
		}
	}
	tips = appendTagged(tips, StyleRules, profile.StylePreferences)
	if len(tips) == 0 {
		tips = append(tips, DefaultOutfitTips...)
	}
	return capTips(tips)
}

func appendTagged(tips []string, rules []TagRule, tags []string) []string {
	for _, rule := range rules {
		for _, tag := range tags {
			if tag == rule.Tag {
				tips = append(tips, rule.Tip)
				break
			}
		}
	}
	return tips
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func capTips(tips []string) []string {
	if len(tips) > MaxTips {
		return tips[:MaxTips]
	}
	return tips
}
