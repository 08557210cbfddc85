package model

import "time"

type SkinType string

const (
	SkinTypeUnset       SkinType = ""
	SkinTypeOily        SkinType = "oily"
	SkinTypeDry         SkinType = "dry"
	SkinTypeCombination SkinType = "combination"
	SkinTypeSensitive   SkinType = "sensitive"
)

type ExperienceLevel string

const (
	ExperienceUnset        ExperienceLevel = ""
	ExperienceBeginner     ExperienceLevel = "beginner"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperiencePro          ExperienceLevel = "pro"
)

type SubscriptionTier string

const (
	TierFree    SubscriptionTier = "free"
	TierPro     SubscriptionTier = "pro"
	TierGoddess SubscriptionTier = "goddess"
)

type UserProfile struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Email            string          `json:"email,omitempty"`
	Age              int             `json:"age"`
	SkinType         SkinType        `json:"skinType"`
	SkinTone         string          `json:"skinTone"`
	FaceShape        string          `json:"faceShape"`
	AgeGroup         string          `json:"ageGroup"`
	Location         string          `json:"location"`
	StylePreferences []string        `json:"stylePreferences"`
	FavoriteColors   []string        `json:"favoriteColors"`
	Goals            []string        `json:"goals"`
	ExperienceLevel  ExperienceLevel `json:"experienceLevel"`
	Budget           string          `json:"budget,omitempty"`
	JoinDate         string          `json:"joinDate"`
	Avatar           string          `json:"avatar,omitempty"`
}

// ProfilePatch is a partial profile. Nil fields are left untouched on merge.
type ProfilePatch struct {
	ID               *string          `json:"id,omitempty"`
	Name             *string          `json:"name,omitempty"`
	Email            *string          `json:"email,omitempty"`
	Age              *int             `json:"age,omitempty"`
	SkinType         *SkinType        `json:"skinType,omitempty"`
	SkinTone         *string          `json:"skinTone,omitempty"`
	FaceShape        *string          `json:"faceShape,omitempty"`
	AgeGroup         *string          `json:"ageGroup,omitempty"`
	Location         *string          `json:"location,omitempty"`
	StylePreferences *[]string        `json:"stylePreferences,omitempty"`
	FavoriteColors   *[]string        `json:"favoriteColors,omitempty"`
	Goals            *[]string        `json:"goals,omitempty"`
	ExperienceLevel  *ExperienceLevel `json:"experienceLevel,omitempty"`
	Budget           *string          `json:"budget,omitempty"`
	JoinDate         *string          `json:"joinDate,omitempty"`
	Avatar           *string          `json:"avatar,omitempty"`
}

type BeautyAnalysis struct {
	ID               string   `json:"id"`
	GlowScore        float64  `json:"glowScore"`
	SkinQuality      float64  `json:"skinQuality"`
	Symmetry         float64  `json:"symmetry"`
	EyeBeauty        float64  `json:"eyeBeauty"`
	LipDefinition    float64  `json:"lipDefinition"`
	FaceShape        string   `json:"faceShape,omitempty"`
	SkinTone         string   `json:"skinTone,omitempty"`
	Recommendations  []string `json:"recommendations"`
	Improvements     []string `json:"improvements,omitempty"`
	CelebrityMatches []string `json:"celebrityMatches,omitempty"`
	PhotoURL         string   `json:"photoUrl,omitempty"`
	Date             string   `json:"date"`
	ProcessingTimeMs int64    `json:"processingTime"`
}

type OutfitAnalysis struct {
	ID              string   `json:"id"`
	OutfitScore     float64  `json:"outfitScore"`
	ColorHarmony    float64  `json:"colorHarmony"`
	FitStyle        float64  `json:"fitStyle"`
	EventMatch      float64  `json:"eventMatch"`
	Event           string   `json:"event"`
	Recommendations []string `json:"recommendations"`
	ColorPalette    []string `json:"colorPalette,omitempty"`
	PhotoURL        string   `json:"photoUrl,omitempty"`
	Date            string   `json:"date"`
}

type ChallengeTask struct {
	ID            string `json:"id"`
	Day           int    `json:"day"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Type          string `json:"type"`
	Points        int    `json:"points"`
	Completed     bool   `json:"completed"`
	CompletedDate string `json:"completedDate,omitempty"`
}

type ChallengeReward struct {
	Points int    `json:"points"`
	Badge  string `json:"badge"`
	Title  string `json:"title"`
}

type Challenge struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Duration     int             `json:"duration"`
	Difficulty   string          `json:"difficulty"`
	Category     string          `json:"category"`
	Premium      bool            `json:"premium"`
	Tasks        []ChallengeTask `json:"tasks"`
	Rewards      ChallengeReward `json:"rewards"`
	Participants int             `json:"participants"`
	IsActive     bool            `json:"isActive"`
	StartDate    string          `json:"startDate,omitempty"`
	Progress     float64         `json:"progress"`
}

type Achievement struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Icon         string `json:"icon"`
	Rarity       string `json:"rarity"`
	UnlockedDate string `json:"unlockedDate"`
	Points       int    `json:"points"`
}

// AppState is the persisted snapshot. Slices are newest-first for analyses.
type AppState struct {
	Name                 string           `json:"name"`
	IsProfileComplete    bool             `json:"isProfileComplete"`
	IsOnboardingComplete bool             `json:"isOnboardingComplete"`
	Profile              UserProfile      `json:"profile"`
	GlowScore            float64          `json:"glowScore"`
	OutfitScore          float64          `json:"outfitScore"`
	BeautyAnalyses       []BeautyAnalysis `json:"beautyAnalyses"`
	OutfitAnalyses       []OutfitAnalysis `json:"outfitAnalyses"`
	ActiveChallenges     []Challenge      `json:"activeChallenges"`
	CompletedChallenges  []Challenge      `json:"completedChallenges"`
	Achievements         []Achievement    `json:"achievements"`
	TotalPoints          int              `json:"totalPoints"`
	Streak               int              `json:"streak"`
	LastAnalysis         string           `json:"lastAnalysis"`
	IsPremium            bool             `json:"isPremium"`
	SubscriptionTier     SubscriptionTier `json:"subscriptionTier"`
	SubscriptionExpiry   *time.Time       `json:"subscriptionExpiry,omitempty"`
	AnalysisCount        int              `json:"analysisCount"`
	MonthlyAnalysisLimit int              `json:"monthlyAnalysisLimit"`
	HasSeenWelcome       bool             `json:"hasSeenWelcome"`
	NotificationsEnabled bool             `json:"notificationsEnabled"`
}
