package store

import (
	"context"
	"fmt"

	"github.com/yungbote/coursemarket-client/internal/clients/backend"
	"github.com/yungbote/coursemarket-client/internal/domain"
	"github.com/yungbote/coursemarket-client/internal/lifecycle"
	"github.com/yungbote/coursemarket-client/internal/platform/apierr"
)

const (
	OpFetchTest   = "fetchTest"
	OpSubmitTest  = "submitTest"
	OpTestResults = "fetchResults"
)

type TestAPI interface {
	Test(ctx context.Context, id int64) (domain.Test, error)
	SubmitTest(ctx context.Context, testID int64, answers []domain.Answer) (backend.SubmitResult, error)
	TestResults(ctx context.Context, testID int64) (domain.Submission, error)
}

type TestsState struct {
	Current    *domain.Test                `json:"current_test"`
	Submission *domain.Submission          `json:"submission"`
	Earned     []domain.Reward             `json:"earned_rewards,omitempty"`
	Ops        map[string]lifecycle.Record `json:"ops"`
}

type TestStore struct {
	base
	api TestAPI

	current    *domain.Test
	submission *domain.Submission
	earned     []domain.Reward
	onRewards  func([]domain.Reward)
}

func NewTestStore(api TestAPI, d Deps) *TestStore {
	d = d.withDefaults()
	s := &TestStore{api: api}
	s.init(ContainerTests, d)
	return s
}

// OnRewards registers fn to receive rewards granted by a submission.
func (s *TestStore) OnRewards(fn func([]domain.Reward)) { s.onRewards = fn }

func (s *TestStore) Snapshot() TestsState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := TestsState{Earned: append([]domain.Reward(nil), s.earned...), Ops: s.Ops()}
	if s.current != nil {
		t := *s.current
		t.Questions = append([]domain.Question(nil), s.current.Questions...)
		st.Current = &t
	}
	if s.submission != nil {
		sub := *s.submission
		sub.Questions = append([]domain.QuestionResult(nil), s.submission.Questions...)
		st.Submission = &sub
	}
	return st
}

func (s *TestStore) FetchTest(ctx context.Context, id int64) (domain.Test, error) {
	return dispatch(ctx, &s.base, OpFetchTest, func(ctx context.Context) (domain.Test, error) {
		return s.api.Test(ctx, id)
	}, func(t domain.Test) {
		if s.submission != nil && s.submission.TestID != t.ID {
			s.submission = nil
			s.earned = nil
		}
		s.current = &t
	})
}

// SubmitTest checks answers against the loaded test before sending. A
// submission that breaks the grading invariant is reported as a server fault.
func (s *TestStore) SubmitTest(ctx context.Context, testID int64, answers []domain.Answer) (domain.Submission, error) {
	if len(answers) == 0 {
		return domain.Submission{}, s.reject(OpSubmitTest, apierr.Validation("at least one answer is required"))
	}
	if err := s.checkAnswers(testID, answers); err != nil {
		return domain.Submission{}, s.reject(OpSubmitTest, apierr.Validation(err.Error()))
	}

	res, err := dispatch(ctx, &s.base, OpSubmitTest, func(ctx context.Context) (backend.SubmitResult, error) {
		res, err := s.api.SubmitTest(ctx, testID, answers)
		if err != nil {
			return res, err
		}
		if verr := res.Submission.Validate(); verr != nil {
			return res, apierr.Server("inconsistent grading from server", verr)
		}
		return res, nil
	}, func(res backend.SubmitResult) {
		sub := res.Submission
		s.submission = &sub
		s.earned = append([]domain.Reward(nil), res.Rewards...)
		// Only an applied submission grants rewards; a stale one belongs to
		// a session that may already be gone.
		if len(res.Rewards) > 0 && s.onRewards != nil {
			s.onRewards(res.Rewards)
		}
	})
	if err != nil {
		return domain.Submission{}, err
	}
	return res.Submission, nil
}

func (s *TestStore) checkAnswers(testID int64, answers []domain.Answer) error {
	s.mu.RLock()
	cur := s.current
	s.mu.RUnlock()
	seen := make(map[int64]bool, len(answers))
	for _, a := range answers {
		if seen[a.QuestionID] {
			return fmt.Errorf("question %d answered twice", a.QuestionID)
		}
		seen[a.QuestionID] = true
	}
	if cur == nil || cur.ID != testID {
		// Nothing loaded to check against; the backend decides.
		return nil
	}
	for _, a := range answers {
		q, ok := cur.Question(a.QuestionID)
		if !ok {
			return fmt.Errorf("question %d is not part of this test", a.QuestionID)
		}
		if err := a.Validate(q); err != nil {
			return err
		}
	}
	return nil
}

func (s *TestStore) FetchResults(ctx context.Context, testID int64) (domain.Submission, error) {
	return dispatch(ctx, &s.base, OpTestResults, func(ctx context.Context) (domain.Submission, error) {
		sub, err := s.api.TestResults(ctx, testID)
		if err != nil {
			return sub, err
		}
		if verr := sub.Validate(); verr != nil {
			return sub, apierr.Server("inconsistent grading from server", verr)
		}
		return sub, nil
	}, func(sub domain.Submission) {
		s.submission = &sub
	})
}

// Reset clears the loaded test and its submission.
func (s *TestStore) Reset() {
	s.mu.Lock()
	s.current = nil
	s.submission = nil
	s.earned = nil
	s.mu.Unlock()
	s.tracker.Reset()
}
