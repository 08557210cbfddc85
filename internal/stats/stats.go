// Package stats summarises score history for the progress view.
package stats

import (
	"math"

	"github.com/montanaflynn/stats"

	"glowcheck/internal/model"
)

const trendSize = 10

// Series describes one score history. Trend is oldest-first.
type Series struct {
	Count  int       `json:"count"`
	Latest float64   `json:"latest"`
	Best   float64   `json:"best"`
	Mean   float64   `json:"mean"`
	Median float64   `json:"median"`
	StdDev float64   `json:"stdDev"`
	Change float64   `json:"change"`
	Label  string    `json:"label,omitempty"`
	Color  string    `json:"color,omitempty"`
	Trend  []float64 `json:"trend"`
}

type Summary struct {
	Beauty Series `json:"beauty"`
	Outfit Series `json:"outfit"`

	// Composite is the weighted glow score of the latest beauty analysis.
	Composite float64 `json:"composite"`

	Streak              int `json:"streak"`
	TotalPoints         int `json:"totalPoints"`
	AnalysisCount       int `json:"analysisCount"`
	RemainingAnalyses   int `json:"remainingAnalyses"`
	CompletedChallenges int `json:"completedChallenges"`
	Achievements        int `json:"achievements"`
}

func Summarize(st model.AppState) (Summary, error) {
	beautyScores := make([]float64, 0, len(st.BeautyAnalyses))
	for _, a := range st.BeautyAnalyses {
		beautyScores = append(beautyScores, a.GlowScore)
	}
	outfitScores := make([]float64, 0, len(st.OutfitAnalyses))
	for _, a := range st.OutfitAnalyses {
		outfitScores = append(outfitScores, a.OutfitScore)
	}

	beauty, err := Describe(beautyScores)
	if err != nil {
		return Summary{}, err
	}
	outfit, err := Describe(outfitScores)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		Beauty:              beauty,
		Outfit:              outfit,
		Streak:              st.Streak,
		TotalPoints:         st.TotalPoints,
		AnalysisCount:       st.AnalysisCount,
		RemainingAnalyses:   max(st.MonthlyAnalysisLimit-st.AnalysisCount, 0),
		CompletedChallenges: len(st.CompletedChallenges),
		Achievements:        len(st.Achievements),
	}
	if len(st.BeautyAnalyses) > 0 {
		latest := st.BeautyAnalyses[0]
		summary.Composite = WeightedGlowScore(latest.SkinQuality, latest.Symmetry, latest.EyeBeauty, latest.LipDefinition)
	}
	return summary, nil
}

// Describe summarises scores given newest-first, the order the state keeps.
func Describe(newestFirst []float64) (Series, error) {
	if len(newestFirst) == 0 {
		return Series{Trend: []float64{}}, nil
	}
	data := stats.Float64Data(newestFirst)

	mean, err := stats.Mean(data)
	if err != nil {
		return Series{}, err
	}
	median, err := stats.Median(data)
	if err != nil {
		return Series{}, err
	}
	best, err := stats.Max(data)
	if err != nil {
		return Series{}, err
	}
	stdDev, err := stats.StandardDeviation(data)
	if err != nil {
		return Series{}, err
	}

	latest := newestFirst[0]
	series := Series{
		Count:  len(newestFirst),
		Latest: latest,
		Best:   best,
		Mean:   round(mean, 1),
		Median: round(median, 1),
		StdDev: round(stdDev, 2),
		Label:  ScoreLabel(latest),
		Color:  ScoreColor(latest),
	}
	if len(newestFirst) > 1 {
		series.Change = round(latest-newestFirst[1], 1)
	}

	n := min(len(newestFirst), trendSize)
	series.Trend = make([]float64, n)
	for i := 0; i < n; i++ {
		series.Trend[n-1-i] = newestFirst[i]
	}
	return series, nil
}

func ScoreLabel(score float64) string {
	switch {
	case score >= 9:
		return "Absolutely Glowing!"
	case score >= 7.5:
		return "Looking Great!"
	case score >= 6:
		return "Good Foundation"
	default:
		return "Room to Glow!"
	}
}

func ScoreColor(score float64) string {
	switch {
	case score >= 9:
		return "#00D9FF"
	case score >= 7.5:
		return "#4ECDC4"
	case score >= 6:
		return "#FFE66D"
	default:
		return "#FF8A80"
	}
}

// WeightedGlowScore combines beauty sub-scores; skin quality weighs most.
func WeightedGlowScore(skinQuality, symmetry, eyeBeauty, lipDefinition float64) float64 {
	return round(skinQuality*0.35+symmetry*0.25+eyeBeauty*0.25+lipDefinition*0.15, 1)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
