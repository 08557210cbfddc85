package state

import (
	"errors"
	"time"

	"glowcheck/internal/model"
)

var (
	ErrChallengeNotFound    = errors.New("challenge is not active")
	ErrTaskNotFound         = errors.New("challenge task not found")
	ErrChallengeCompleted   = errors.New("challenge already completed")
	ErrAnalysisLimitReached = errors.New("monthly analysis limit reached")
)

// Batch applies actions in order as one atomic change. The first error
// aborts the whole batch.
func Batch(actions ...Action) Action {
	return func(st *model.AppState, now time.Time) error {
		for _, action := range actions {
			if err := action(st, now); err != nil {
				return err
			}
		}
		return nil
	}
}

// RequireQuota fails with ErrAnalysisLimitReached when the monthly quota is
// used up. Put it first in a Batch to gate the rest.
func RequireQuota() Action {
	return func(st *model.AppState, _ time.Time) error {
		if !CanAnalyze(*st) {
			return ErrAnalysisLimitReached
		}
		return nil
	}
}

func SetName(name string) Action {
	return func(st *model.AppState, _ time.Time) error {
		st.Name = name
		return nil
	}
}

// SetProfile shallow-merges the non-nil patch fields into the profile.
func SetProfile(patch model.ProfilePatch) Action {
	return func(st *model.AppState, _ time.Time) error {
		p := &st.Profile
		setIf(&p.ID, patch.ID)
		setIf(&p.Name, patch.Name)
		setIf(&p.Email, patch.Email)
		setIf(&p.Age, patch.Age)
		setIf(&p.SkinType, patch.SkinType)
		setIf(&p.SkinTone, patch.SkinTone)
		setIf(&p.FaceShape, patch.FaceShape)
		setIf(&p.AgeGroup, patch.AgeGroup)
		setIf(&p.Location, patch.Location)
		setIf(&p.StylePreferences, patch.StylePreferences)
		setIf(&p.FavoriteColors, patch.FavoriteColors)
		setIf(&p.Goals, patch.Goals)
		setIf(&p.ExperienceLevel, patch.ExperienceLevel)
		setIf(&p.Budget, patch.Budget)
		setIf(&p.JoinDate, patch.JoinDate)
		setIf(&p.Avatar, patch.Avatar)
		*p = cloneProfile(*p)
		return nil
	}
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func CompleteProfile() Action {
	return func(st *model.AppState, _ time.Time) error {
		st.IsProfileComplete = true
		return nil
	}
}

func CompleteOnboarding() Action {
	return func(st *model.AppState, _ time.Time) error {
		st.IsOnboardingComplete = true
		return nil
	}
}

func SetHasSeenWelcome(seen bool) Action {
	return func(st *model.AppState, _ time.Time) error {
		st.HasSeenWelcome = seen
		return nil
	}
}

func SetNotificationsEnabled(enabled bool) Action {
	return func(st *model.AppState, _ time.Time) error {
		st.NotificationsEnabled = enabled
		return nil
	}
}

// AddBeautyAnalysis prepends a and makes it the current glow score.
func AddBeautyAnalysis(a model.BeautyAnalysis) Action {
	return func(st *model.AppState, _ time.Time) error {
		st.BeautyAnalyses = append([]model.BeautyAnalysis{a}, st.BeautyAnalyses...)
		st.GlowScore = a.GlowScore
		st.LastAnalysis = a.Date
		return nil
	}
}

func AddOutfitAnalysis(a model.OutfitAnalysis) Action {
	return func(st *model.AppState, _ time.Time) error {
		st.OutfitAnalyses = append([]model.OutfitAnalysis{a}, st.OutfitAnalyses...)
		st.OutfitScore = a.OutfitScore
		st.LastAnalysis = a.Date
		return nil
	}
}

// SetPhotoURL attaches an uploaded photo to the beauty or outfit analysis
// with the given ID. Unknown IDs are ignored.
func SetPhotoURL(analysisID string, url string) Action {
	return func(st *model.AppState, _ time.Time) error {
		for i := range st.BeautyAnalyses {
			if st.BeautyAnalyses[i].ID == analysisID {
				st.BeautyAnalyses[i].PhotoURL = url
				return nil
			}
		}
		for i := range st.OutfitAnalyses {
			if st.OutfitAnalyses[i].ID == analysisID {
				st.OutfitAnalyses[i].PhotoURL = url
				return nil
			}
		}
		return nil
	}
}

func IncrementStreak() Action {
	return func(st *model.AppState, _ time.Time) error {
		st.Streak++
		return nil
	}
}

func ResetStreak() Action {
	return func(st *model.AppState, _ time.Time) error {
		st.Streak = 0
		return nil
	}
}

// SetPremium records an entitlement asserted by the caller. An empty tier
// means pro. Turning premium off restores every free-tier default.
func SetPremium(status bool, tier model.SubscriptionTier) Action {
	return func(st *model.AppState, now time.Time) error {
		if !status {
			st.IsPremium = false
			st.SubscriptionTier = model.TierFree
			st.MonthlyAnalysisLimit = FreeAnalysisLimit
			st.SubscriptionExpiry = nil
			return nil
		}
		if tier != model.TierGoddess {
			tier = model.TierPro
		}
		expiry := now.Add(subscriptionPeriod).UTC()
		st.IsPremium = true
		st.SubscriptionTier = tier
		st.MonthlyAnalysisLimit = limitFor(true, tier)
		st.SubscriptionExpiry = &expiry
		return nil
	}
}

func limitFor(premium bool, tier model.SubscriptionTier) int {
	if !premium {
		return FreeAnalysisLimit
	}
	if tier == model.TierGoddess {
		return GoddessAnalysisLimit
	}
	return ProAnalysisLimit
}

func IncrementAnalysisCount() Action {
	return func(st *model.AppState, _ time.Time) error {
		st.AnalysisCount++
		return nil
	}
}

func ResetMonthlyAnalysisCount() Action {
	return func(st *model.AppState, _ time.Time) error {
		st.AnalysisCount = 0
		return nil
	}
}

// CanAnalyze reports whether the monthly quota still has room.
func CanAnalyze(st model.AppState) bool {
	return st.AnalysisCount < st.MonthlyAnalysisLimit
}

// JoinChallenge activates c with a fresh start date. Joining a challenge
// that is already active changes nothing; a completed one cannot be rejoined.
func JoinChallenge(c model.Challenge) Action {
	return func(st *model.AppState, now time.Time) error {
		for _, done := range st.CompletedChallenges {
			if done.ID == c.ID {
				return ErrChallengeCompleted
			}
		}
		for _, active := range st.ActiveChallenges {
			if active.ID == c.ID {
				return nil
			}
		}
		c.Tasks = cloneChallenges([]model.Challenge{c})[0].Tasks
		for i := range c.Tasks {
			c.Tasks[i].Completed = false
			c.Tasks[i].CompletedDate = ""
		}
		c.IsActive = true
		c.StartDate = now.UTC().Format(time.RFC3339)
		c.Progress = 0
		st.ActiveChallenges = append(st.ActiveChallenges, c)
		return nil
	}
}

// CompleteTask marks a task done and credits its points once. A challenge
// whose tasks are all done moves to the completed list.
func CompleteTask(challengeID string, taskID string) Action {
	return func(st *model.AppState, now time.Time) error {
		idx := -1
		for i := range st.ActiveChallenges {
			if st.ActiveChallenges[i].ID == challengeID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return ErrChallengeNotFound
		}
		c := &st.ActiveChallenges[idx]

		found := false
		done := 0
		for i := range c.Tasks {
			task := &c.Tasks[i]
			if task.ID == taskID {
				found = true
				if !task.Completed {
					task.Completed = true
					task.CompletedDate = now.UTC().Format(time.RFC3339)
					st.TotalPoints += task.Points
				}
			}
			if task.Completed {
				done++
			}
		}
		if !found {
			return ErrTaskNotFound
		}
		c.Progress = float64(done) / float64(len(c.Tasks)) * 100

		if done == len(c.Tasks) {
			finished := *c
			finished.IsActive = false
			st.CompletedChallenges = append(st.CompletedChallenges, finished)
			st.ActiveChallenges = append(st.ActiveChallenges[:idx], st.ActiveChallenges[idx+1:]...)
		}
		return nil
	}
}

// AddAchievement appends a and credits its points.
func AddAchievement(a model.Achievement) Action {
	return func(st *model.AppState, _ time.Time) error {
		st.Achievements = append(st.Achievements, a)
		st.TotalPoints += a.Points
		return nil
	}
}

func (s *Store) SetName(name string) {
	s.dispatch(SetName(name))
}

func (s *Store) SetProfile(patch model.ProfilePatch) {
	s.dispatch(SetProfile(patch))
}

func (s *Store) CompleteProfile() {
	s.dispatch(CompleteProfile())
}

func (s *Store) CompleteOnboarding() {
	s.dispatch(CompleteOnboarding())
}

func (s *Store) SetHasSeenWelcome(seen bool) {
	s.dispatch(SetHasSeenWelcome(seen))
}

func (s *Store) SetNotificationsEnabled(enabled bool) {
	s.dispatch(SetNotificationsEnabled(enabled))
}

func (s *Store) AddBeautyAnalysis(a model.BeautyAnalysis) {
	s.dispatch(AddBeautyAnalysis(a))
}

func (s *Store) AddOutfitAnalysis(a model.OutfitAnalysis) {
	s.dispatch(AddOutfitAnalysis(a))
}

func (s *Store) IncrementStreak() {
	s.dispatch(IncrementStreak())
}

func (s *Store) ResetStreak() {
	s.dispatch(ResetStreak())
}

func (s *Store) IncrementAnalysisCount() {
	s.dispatch(IncrementAnalysisCount())
}

func (s *Store) ResetMonthlyAnalysisCount() {
	s.dispatch(ResetMonthlyAnalysisCount())
}

func (s *Store) AddAchievement(a model.Achievement) {
	s.dispatch(AddAchievement(a))
}

func (s *Store) SetPremium(status bool, tier model.SubscriptionTier) {
	s.dispatch(SetPremium(status, tier))
}

func (s *Store) JoinChallenge(c model.Challenge) error {
	return s.Dispatch(JoinChallenge(c))
}

func (s *Store) CompleteTask(challengeID string, taskID string) error {
	return s.Dispatch(CompleteTask(challengeID, taskID))
}

func (s *Store) CanAnalyze() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CanAnalyze(s.state)
}

// dispatch is for actions that cannot fail.
func (s *Store) dispatch(action Action) {
	_ = s.Dispatch(action)
}
