package store

import (
	"fmt"
	"sync"

	"github.com/yungbote/coursemarket-client/internal/domain"
)

// API is everything the containers call. *backend.Client satisfies it.
type API interface {
	AuthAPI
	CourseAPI
	PaymentAPI
	TestAPI
	RewardAPI
	ChatAPI
}

type Config struct {
	Social   SocialConfig
	Greeting string
}

type Stores struct {
	Auth     *AuthStore
	Courses  *CourseStore
	Payments *PaymentStore
	Tests    *TestStore
	Rewards  *RewardStore
	Chat     *ChatStore

	principalMu sync.Mutex
	principal   int64
}

func New(api API, cfg Config, d Deps) *Stores {
	d = d.withDefaults()
	s := &Stores{
		Auth:     NewAuthStore(api, cfg.Social, d),
		Courses:  NewCourseStore(api, d),
		Payments: NewPaymentStore(api, d),
		Tests:    NewTestStore(api, d),
		Rewards:  NewRewardStore(api, d),
		Chat:     NewChatStore(api, cfg.Greeting, d),
	}
	s.Tests.OnRewards(func(granted []domain.Reward) { s.Rewards.Merge(granted) })
	d.Session.OnChange(s.sessionChanged)
	return s
}

// sessionChanged drops the previous principal's data when the session is
// cleared or another principal signs in. Runs under the session's write lock.
func (s *Stores) sessionChanged(next domain.Session) {
	var id int64
	if next.IsAuthenticated() {
		id = next.Principal.ID
	}
	s.principalMu.Lock()
	prev := s.principal
	s.principal = id
	s.principalMu.Unlock()

	if id != 0 && (prev == 0 || prev == id) {
		return
	}
	s.resetPrincipalData()
}

func Names() []string {
	return []string{ContainerAuth, ContainerCourses, ContainerPayments, ContainerTests, ContainerRewards, ContainerChat}
}

// Snapshot returns one container's state by name.
func (s *Stores) Snapshot(name string) (any, error) {
	switch name {
	case ContainerAuth:
		return s.Auth.Snapshot(), nil
	case ContainerCourses:
		return s.Courses.Snapshot(), nil
	case ContainerPayments:
		return s.Payments.Snapshot(), nil
	case ContainerTests:
		return s.Tests.Snapshot(), nil
	case ContainerRewards:
		return s.Rewards.Snapshot(), nil
	case ContainerChat:
		return s.Chat.Snapshot(), nil
	}
	return nil, fmt.Errorf("unknown container %q", name)
}

func (s *Stores) SnapshotAll() map[string]any {
	out := make(map[string]any, 6)
	for _, name := range Names() {
		out[name], _ = s.Snapshot(name)
	}
	return out
}

// ClearError clears op's failure on the named container.
func (s *Stores) ClearError(name, op string) error {
	switch name {
	case ContainerAuth:
		s.Auth.ClearError(op)
	case ContainerCourses:
		s.Courses.ClearError(op)
	case ContainerPayments:
		s.Payments.ClearError(op)
	case ContainerTests:
		s.Tests.ClearError(op)
	case ContainerRewards:
		s.Rewards.ClearError(op)
	case ContainerChat:
		s.Chat.ClearError(op)
	default:
		return fmt.Errorf("unknown container %q", name)
	}
	return nil
}

// ResetUserData drops everything tied to the signed-in principal. The public
// catalogue and the chat log survive.
func (s *Stores) ResetUserData() {
	s.Auth.Reset()
	s.resetPrincipalData()
}

// resetPrincipalData leaves the auth records alone: they may be settling the
// exchange that changed the session.
func (s *Stores) resetPrincipalData() {
	s.Courses.Reset()
	s.Payments.Reset()
	s.Tests.Reset()
	s.Rewards.Reset()
	s.Chat.ResetAnalysis()
}
