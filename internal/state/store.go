// Package state holds the persisted application state. All mutation goes
// through Dispatch, which applies an Action to a copy, swaps it in and
// persists the full snapshot.
package state

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"glowcheck/internal/model"
	"glowcheck/internal/store"
)

// PersistKey is the fixed key the snapshot is stored under.
const PersistKey = "glow-store"

const (
	FreeAnalysisLimit    = 3
	ProAnalysisLimit     = 50
	GoddessAnalysisLimit = 999

	subscriptionPeriod = 30 * 24 * time.Hour
)

// Action computes the next state in place. Returning an error discards the
// change; nothing is persisted or published.
type Action func(st *model.AppState, now time.Time) error

type Listener func(model.AppState)

type Store struct {
	mu      sync.Mutex
	backend store.Store
	state   model.AppState
	logger  *slog.Logger
	now     func() time.Time

	onPersistError func(error)
	lastPersistErr error

	listeners  map[int]Listener
	nextListen int
}

type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now for dates written by actions.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// OnPersistError registers a hook called after a failed save. The action
// itself still succeeds.
func OnPersistError(fn func(error)) Option {
	return func(s *Store) { s.onPersistError = fn }
}

// New loads the snapshot from backend, default-filling absent fields. A
// corrupt snapshot is logged and replaced by defaults on the next action.
func New(backend store.Store, opts ...Option) (*Store, error) {
	s := &Store{
		backend:   backend,
		logger:    slog.Default(),
		now:       time.Now,
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state = Default(s.now())

	raw, ok, err := backend.Load(PersistKey)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", PersistKey, err)
	}
	if !ok {
		return s, nil
	}
	loaded := Default(s.now())
	if err := json.Unmarshal(raw, &loaded); err != nil {
		s.logger.Warn("persisted state is unreadable, starting from defaults", "key", PersistKey, "error", err)
		return s, nil
	}
	s.state = normalize(loaded)
	return s, nil
}

// Default is the state of a fresh installation.
func Default(now time.Time) model.AppState {
	return model.AppState{
		Profile: model.UserProfile{
			StylePreferences: []string{},
			FavoriteColors:   []string{},
			Goals:            []string{},
			JoinDate:         now.UTC().Format(time.RFC3339),
		},
		BeautyAnalyses:       []model.BeautyAnalysis{},
		OutfitAnalyses:       []model.OutfitAnalysis{},
		ActiveChallenges:     []model.Challenge{},
		CompletedChallenges:  []model.Challenge{},
		Achievements:         []model.Achievement{},
		SubscriptionTier:     model.TierFree,
		MonthlyAnalysisLimit: FreeAnalysisLimit,
		NotificationsEnabled: true,
	}
}

// normalize repairs snapshots written by older versions.
func normalize(st model.AppState) model.AppState {
	if st.Profile.StylePreferences == nil {
		st.Profile.StylePreferences = []string{}
	}
	if st.Profile.FavoriteColors == nil {
		st.Profile.FavoriteColors = []string{}
	}
	if st.Profile.Goals == nil {
		st.Profile.Goals = []string{}
	}
	if st.BeautyAnalyses == nil {
		st.BeautyAnalyses = []model.BeautyAnalysis{}
	}
	if st.OutfitAnalyses == nil {
		st.OutfitAnalyses = []model.OutfitAnalysis{}
	}
	if st.ActiveChallenges == nil {
		st.ActiveChallenges = []model.Challenge{}
	}
	if st.CompletedChallenges == nil {
		st.CompletedChallenges = []model.Challenge{}
	}
	if st.Achievements == nil {
		st.Achievements = []model.Achievement{}
	}
	if st.SubscriptionTier == "" {
		st.SubscriptionTier = model.TierFree
	}
	if st.MonthlyAnalysisLimit <= 0 {
		st.MonthlyAnalysisLimit = limitFor(st.IsPremium, st.SubscriptionTier)
	}
	if st.Streak < 0 {
		st.Streak = 0
	}
	return st
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() model.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.state)
}

// Dispatch applies action atomically and persists the result. Persistence
// failures are reported, never returned.
func (s *Store) Dispatch(action Action) error {
	s.mu.Lock()
	next := clone(s.state)
	if err := action(&next, s.now()); err != nil {
		s.mu.Unlock()
		return err
	}
	// Detach from slices still referenced by the action arguments.
	s.state = clone(next)
	persistErr := s.persistLocked()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	hook := s.onPersistError
	committed := clone(s.state)
	s.mu.Unlock()

	if persistErr != nil && hook != nil {
		hook(persistErr)
	}
	for _, l := range listeners {
		l(clone(committed))
	}
	return nil
}

// Subscribe registers fn to receive a snapshot after every committed action.
// The returned func removes the listener.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextListen
	s.nextListen++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// LastPersistError is the error from the most recent save, or nil if it
// succeeded.
func (s *Store) LastPersistError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPersistErr
}

func (s *Store) persistLocked() error {
	raw, err := json.Marshal(s.state)
	if err == nil {
		err = s.backend.Save(PersistKey, raw)
	}
	s.lastPersistErr = err
	if err != nil {
		s.logger.Warn("persist state failed", "key", PersistKey, "error", err)
	}
	return err
}
