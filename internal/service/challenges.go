package service

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"glowcheck/internal/model"
	"glowcheck/internal/state"
)

var (
	//go:embed challenges.json
	challengesRawJSON []byte
)

type challengeCatalog struct {
	Challenges []model.Challenge `json:"challenges"`
}

// ChallengeView is a catalog entry annotated with the user's status.
type ChallengeView struct {
	model.Challenge
	Joined    bool `json:"joined"`
	Completed bool `json:"completed"`
	Locked    bool `json:"locked"`
}

type TaskResult struct {
	Challenge   model.Challenge    `json:"challenge"`
	Completed   bool               `json:"completed"`
	TotalPoints int                `json:"totalPoints"`
	Achievement *model.Achievement `json:"achievement,omitempty"`
}

var rarityByDifficulty = map[string]string{
	"beginner":     "common",
	"intermediate": "rare",
	"advanced":     "epic",
}

func loadChallenges() []model.Challenge {
	var catalog challengeCatalog
	if err := json.Unmarshal(challengesRawJSON, &catalog); err != nil {
		return nil
	}
	out := make([]model.Challenge, 0, len(catalog.Challenges))
	for _, c := range catalog.Challenges {
		c.ID = strings.TrimSpace(c.ID)
		if c.ID == "" || len(c.Tasks) == 0 {
			continue
		}
		sort.SliceStable(c.Tasks, func(i, j int) bool {
			return c.Tasks[i].Day < c.Tasks[j].Day
		})
		out = append(out, c)
	}
	return out
}

func (s *Service) findChallenge(id string) (model.Challenge, bool) {
	id = strings.TrimSpace(id)
	for _, c := range s.challenges {
		if c.ID == id {
			return c, true
		}
	}
	return model.Challenge{}, false
}

func (s *Service) ListChallenges() []ChallengeView {
	snap := s.state.Snapshot()
	active := make(map[string]model.Challenge, len(snap.ActiveChallenges))
	for _, c := range snap.ActiveChallenges {
		active[c.ID] = c
	}
	completed := make(map[string]model.Challenge, len(snap.CompletedChallenges))
	for _, c := range snap.CompletedChallenges {
		completed[c.ID] = c
	}

	views := make([]ChallengeView, 0, len(s.challenges))
	for _, c := range s.challenges {
		view := ChallengeView{Challenge: c, Locked: c.Premium && !snap.IsPremium}
		if joined, ok := active[c.ID]; ok {
			view.Challenge = joined
			view.Joined = true
		} else if done, ok := completed[c.ID]; ok {
			view.Challenge = done
			view.Completed = true
		}
		views = append(views, view)
	}
	return views
}

// JoinChallenge activates a catalog challenge. Premium challenges need an
// active subscription, and a completed challenge returns ErrChallengeCompleted.
func (s *Service) JoinChallenge(id string) (model.Challenge, error) {
	c, ok := s.findChallenge(id)
	if !ok {
		return model.Challenge{}, ErrChallengeNotFound
	}
	gate := func(st *model.AppState, _ time.Time) error {
		if c.Premium && !st.IsPremium {
			return ErrPremiumRequired
		}
		return nil
	}
	if err := s.state.Dispatch(state.Batch(gate, state.JoinChallenge(c))); err != nil {
		return model.Challenge{}, err
	}
	for _, joined := range s.state.Snapshot().ActiveChallenges {
		if joined.ID == c.ID {
			s.logger.Info("challenge joined", "challenge", c.ID)
			return joined, nil
		}
	}
	return model.Challenge{}, ErrChallengeNotFound
}

// CompleteTask marks a task done. Finishing the last task unlocks the
// challenge badge as an achievement.
func (s *Service) CompleteTask(challengeID string, taskID string) (TaskResult, error) {
	var (
		result   TaskResult
		unlocked *model.Achievement
	)
	unlock := func(st *model.AppState, now time.Time) error {
		for _, c := range st.CompletedChallenges {
			if c.ID != challengeID || hasAchievement(st.Achievements, c.Rewards.Badge) {
				continue
			}
			a := achievementFor(c, now)
			unlocked = &a
			return state.AddAchievement(a)(st, now)
		}
		return nil
	}

	err := s.state.Dispatch(state.Batch(state.CompleteTask(challengeID, taskID), unlock))
	if err != nil {
		if errors.Is(err, state.ErrChallengeNotFound) || errors.Is(err, state.ErrTaskNotFound) {
			return TaskResult{}, fmt.Errorf("%w: %v", ErrChallengeNotFound, err)
		}
		return TaskResult{}, err
	}

	snap := s.state.Snapshot()
	result.TotalPoints = snap.TotalPoints
	result.Achievement = unlocked
	for _, c := range snap.ActiveChallenges {
		if c.ID == challengeID {
			result.Challenge = c
			return result, nil
		}
	}
	for _, c := range snap.CompletedChallenges {
		if c.ID == challengeID {
			result.Challenge = c
			result.Completed = true
		}
	}
	if unlocked != nil {
		s.logger.Info("achievement unlocked", "challenge", challengeID, "badge", unlocked.Icon)
	}
	return result, nil
}

func (s *Service) Achievements() []model.Achievement {
	return s.state.Snapshot().Achievements
}

func hasAchievement(list []model.Achievement, badge string) bool {
	for _, a := range list {
		if a.Icon == badge {
			return true
		}
	}
	return false
}

func achievementFor(c model.Challenge, now time.Time) model.Achievement {
	rarity := rarityByDifficulty[c.Difficulty]
	if rarity == "" {
		rarity = "common"
	}
	return model.Achievement{
		ID:           uuid.NewString(),
		Title:        c.Rewards.Title,
		Description:  "Completed " + c.Title,
		Icon:         c.Rewards.Badge,
		Rarity:       rarity,
		UnlockedDate: now.UTC().Format(time.RFC3339),
		Points:       c.Rewards.Points,
	}
}
