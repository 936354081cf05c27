package store

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/coursemarket-client/internal/domain"
	"github.com/yungbote/coursemarket-client/internal/lifecycle"
	"github.com/yungbote/coursemarket-client/internal/platform/apierr"
)

const (
	OpFetchRewards         = "fetchRewards"
	OpFetchRecommendations = "fetchRecommendations"
	OpClaimReward          = "claimReward"
)

type RewardAPI interface {
	Rewards(ctx context.Context) ([]domain.Reward, error)
	ClaimReward(ctx context.Context, id int64) (domain.Reward, error)
	Recommendations(ctx context.Context) ([]domain.Recommendation, error)
}

type RewardsState struct {
	Rewards         []domain.Reward             `json:"rewards"`
	Recommendations []domain.Recommendation     `json:"recommendations"`
	Ops             map[string]lifecycle.Record `json:"ops"`
}

type RewardStore struct {
	base
	api RewardAPI

	rewards         []domain.Reward
	recommendations []domain.Recommendation
}

func NewRewardStore(api RewardAPI, d Deps) *RewardStore {
	d = d.withDefaults()
	s := &RewardStore{api: api}
	s.init(ContainerRewards, d)
	return s
}

func (s *RewardStore) Snapshot() RewardsState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return RewardsState{
		Rewards:         append([]domain.Reward(nil), s.rewards...),
		Recommendations: append([]domain.Recommendation(nil), s.recommendations...),
		Ops:             s.Ops(),
	}
}

func (s *RewardStore) FetchRewards(ctx context.Context) ([]domain.Reward, error) {
	return dispatch(ctx, &s.base, OpFetchRewards, s.api.Rewards, func(list []domain.Reward) {
		s.rewards = append([]domain.Reward(nil), list...)
	})
}

func (s *RewardStore) FetchRecommendations(ctx context.Context) ([]domain.Recommendation, error) {
	return dispatch(ctx, &s.base, OpFetchRecommendations, s.api.Recommendations, func(list []domain.Recommendation) {
		s.recommendations = make([]domain.Recommendation, len(list))
		for i, r := range list {
			r.Confidence = domain.ClampConfidence(r.Confidence)
			s.recommendations[i] = r
		}
	})
}

// ClaimReward replaces the claimed reward in place. A reward the container
// has not loaded is left out rather than appended.
func (s *RewardStore) ClaimReward(ctx context.Context, id int64) (domain.Reward, error) {
	if id <= 0 {
		return domain.Reward{}, s.reject(OpClaimReward, apierr.Validation("reward id is required"))
	}
	return dispatch(ctx, &s.base, OpClaimReward, func(ctx context.Context) (domain.Reward, error) {
		return s.api.ClaimReward(ctx, id)
	}, func(r domain.Reward) {
		for i := range s.rewards {
			if s.rewards[i].ID == r.ID {
				s.rewards[i] = r
				return
			}
		}
	})
}

// Merge adds rewards granted elsewhere, such as by a test submission.
func (s *RewardStore) Merge(granted []domain.Reward) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range granted {
		replaced := false
		for i := range s.rewards {
			if s.rewards[i].ID == r.ID {
				s.rewards[i] = r
				replaced = true
				break
			}
		}
		if !replaced {
			s.rewards = append(s.rewards, r)
		}
	}
}

// LoadDashboard fetches rewards and recommendations together.
func (s *RewardStore) LoadDashboard(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { _, err := s.FetchRewards(ctx); return err })
	g.Go(func() error { _, err := s.FetchRecommendations(ctx); return err })
	return g.Wait()
}

func (s *RewardStore) Reset() {
	s.mu.Lock()
	s.rewards = nil
	s.recommendations = nil
	s.mu.Unlock()
	s.tracker.Reset()
}
