package state

import (
	"slices"

	"glowcheck/internal/model"
)

func clone(st model.AppState) model.AppState {
	out := st
	out.Profile = cloneProfile(st.Profile)

	out.BeautyAnalyses = make([]model.BeautyAnalysis, len(st.BeautyAnalyses))
	for i, a := range st.BeautyAnalyses {
		a.Recommendations = slices.Clone(a.Recommendations)
		a.Improvements = slices.Clone(a.Improvements)
		a.CelebrityMatches = slices.Clone(a.CelebrityMatches)
		out.BeautyAnalyses[i] = a
	}
	out.OutfitAnalyses = make([]model.OutfitAnalysis, len(st.OutfitAnalyses))
	for i, a := range st.OutfitAnalyses {
		a.Recommendations = slices.Clone(a.Recommendations)
		a.ColorPalette = slices.Clone(a.ColorPalette)
		out.OutfitAnalyses[i] = a
	}

	out.ActiveChallenges = cloneChallenges(st.ActiveChallenges)
	out.CompletedChallenges = cloneChallenges(st.CompletedChallenges)
	out.Achievements = slices.Clone(st.Achievements)
	if out.Achievements == nil {
		out.Achievements = []model.Achievement{}
	}
	if st.SubscriptionExpiry != nil {
		expiry := *st.SubscriptionExpiry
		out.SubscriptionExpiry = &expiry
	}
	return out
}

func cloneProfile(p model.UserProfile) model.UserProfile {
	p.StylePreferences = cloneStrings(p.StylePreferences)
	p.FavoriteColors = cloneStrings(p.FavoriteColors)
	p.Goals = cloneStrings(p.Goals)
	return p
}

func cloneChallenges(in []model.Challenge) []model.Challenge {
	out := make([]model.Challenge, len(in))
	for i, c := range in {
		c.Tasks = slices.Clone(c.Tasks)
		out[i] = c
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return slices.Clone(in)
}
