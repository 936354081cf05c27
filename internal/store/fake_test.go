package store

import (
	"context"
	"sync"

	"github.com/yungbote/coursemarket-client/internal/clients/backend"
	"github.com/yungbote/coursemarket-client/internal/domain"
	"github.com/yungbote/coursemarket-client/internal/realtime"
)

// fakeAPI answers with whichever func is set and counts every call.
type fakeAPI struct {
	mu    sync.Mutex
	calls map[string]int

	login       func(ctx context.Context, email, password string) (backend.AuthResult, error)
	me          func(ctx context.Context) (domain.Principal, error)
	courses     func(ctx context.Context, f backend.CourseFilter) ([]domain.Course, error)
	course      func(ctx context.Context, id int64) (domain.Course, error)
	popular     func(ctx context.Context) ([]domain.Course, error)
	categories  func(ctx context.Context) ([]string, error)
	recordView  func(ctx context.Context, id int64) (*int, error)
	create      func(ctx context.Context, courseID int64, p domain.PaymentProvider, code string) (domain.Payment, error)
	confirm     func(ctx context.Context, id domain.ID, tx string) (backend.ConfirmResult, error)
	discounts   func(ctx context.Context, courseID int64) ([]domain.Discount, error)
	test        func(ctx context.Context, id int64) (domain.Test, error)
	submit      func(ctx context.Context, testID int64, answers []domain.Answer) (backend.SubmitResult, error)
	rewards     func(ctx context.Context) ([]domain.Reward, error)
	claim       func(ctx context.Context, id int64) (domain.Reward, error)
	chat        func(ctx context.Context, msg string) (backend.ChatReply, error)
	suggestions func(ctx context.Context) ([]string, error)
	analyze     func(ctx context.Context) (backend.BehaviorAnalysis, error)
}

func (f *fakeAPI) hit(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) Login(ctx context.Context, email, password string) (backend.AuthResult, error) {
	f.hit("Login")
	if f.login == nil {
		return backend.AuthResult{}, nil
	}
	return f.login(ctx, email, password)
}

func (f *fakeAPI) Register(ctx context.Context, username, email, password string) (backend.AuthResult, error) {
	f.hit("Register")
	return backend.AuthResult{User: domain.Principal{ID: 1, Username: username, Email: email}, Token: "tok"}, nil
}

func (f *fakeAPI) SocialLogin(ctx context.Context, provider domain.SocialProvider, token string) (backend.AuthResult, error) {
	f.hit("SocialLogin")
	return backend.AuthResult{User: domain.Principal{ID: 2, Username: "social"}, Token: "social-tok"}, nil
}

func (f *fakeAPI) Me(ctx context.Context) (domain.Principal, error) {
	f.hit("Me")
	if f.me == nil {
		return domain.Principal{}, nil
	}
	return f.me(ctx)
}

func (f *fakeAPI) Courses(ctx context.Context, flt backend.CourseFilter) ([]domain.Course, error) {
	f.hit("Courses")
	if f.courses == nil {
		return nil, nil
	}
	return f.courses(ctx, flt)
}

func (f *fakeAPI) Course(ctx context.Context, id int64) (domain.Course, error) {
	f.hit("Course")
	if f.course == nil {
		return domain.Course{ID: id}, nil
	}
	return f.course(ctx, id)
}

func (f *fakeAPI) PopularCourses(ctx context.Context) ([]domain.Course, error) {
	f.hit("PopularCourses")
	if f.popular == nil {
		return nil, nil
	}
	return f.popular(ctx)
}

func (f *fakeAPI) RecommendedCourses(ctx context.Context) ([]domain.Course, error) {
	f.hit("RecommendedCourses")
	return nil, nil
}

func (f *fakeAPI) PurchasedCourses(ctx context.Context) ([]domain.Course, error) {
	f.hit("PurchasedCourses")
	return nil, nil
}

func (f *fakeAPI) Categories(ctx context.Context) ([]string, error) {
	f.hit("Categories")
	if f.categories == nil {
		return []string{"programming"}, nil
	}
	return f.categories(ctx)
}

func (f *fakeAPI) Levels(ctx context.Context) ([]string, error) {
	f.hit("Levels")
	return []string{"beginner"}, nil
}

func (f *fakeAPI) RecordView(ctx context.Context, id int64) (*int, error) {
	f.hit("RecordView")
	if f.recordView == nil {
		return nil, nil
	}
	return f.recordView(ctx, id)
}

func (f *fakeAPI) CreatePayment(ctx context.Context, courseID int64, p domain.PaymentProvider, code string) (domain.Payment, error) {
	f.hit("CreatePayment")
	if f.create == nil {
		return domain.Payment{ID: "p1", CourseID: courseID, Provider: p, Status: domain.PaymentPending}, nil
	}
	return f.create(ctx, courseID, p, code)
}

func (f *fakeAPI) Payments(ctx context.Context) ([]domain.Payment, error) {
	f.hit("Payments")
	return nil, nil
}

func (f *fakeAPI) ConfirmPayment(ctx context.Context, id domain.ID, tx string) (backend.ConfirmResult, error) {
	f.hit("ConfirmPayment")
	if f.confirm == nil {
		return backend.ConfirmResult{Status: domain.PaymentCompleted, Raw: "success"}, nil
	}
	return f.confirm(ctx, id, tx)
}

func (f *fakeAPI) FailPayment(ctx context.Context, id domain.ID, msg string) (backend.ConfirmResult, error) {
	f.hit("FailPayment")
	return backend.ConfirmResult{Status: domain.PaymentFailed, Raw: "failed"}, nil
}

func (f *fakeAPI) PaymentStatus(ctx context.Context, id domain.ID) (backend.ConfirmResult, error) {
	f.hit("PaymentStatus")
	return backend.ConfirmResult{Status: domain.PaymentPending, Raw: "pending"}, nil
}

func (f *fakeAPI) Discounts(ctx context.Context, courseID int64) ([]domain.Discount, error) {
	f.hit("Discounts")
	if f.discounts == nil {
		return nil, nil
	}
	return f.discounts(ctx, courseID)
}

func (f *fakeAPI) ValidateDiscount(ctx context.Context, courseID int64, code string) (backend.DiscountCheck, error) {
	f.hit("ValidateDiscount")
	return backend.DiscountCheck{Valid: true, Code: code, Percentage: 10}, nil
}

func (f *fakeAPI) Test(ctx context.Context, id int64) (domain.Test, error) {
	f.hit("Test")
	if f.test == nil {
		return domain.Test{ID: id}, nil
	}
	return f.test(ctx, id)
}

func (f *fakeAPI) SubmitTest(ctx context.Context, testID int64, answers []domain.Answer) (backend.SubmitResult, error) {
	f.hit("SubmitTest")
	if f.submit == nil {
		return backend.SubmitResult{Submission: domain.Submission{ID: 1, TestID: testID, Status: domain.SubmissionSubmitted}}, nil
	}
	return f.submit(ctx, testID, answers)
}

func (f *fakeAPI) TestResults(ctx context.Context, testID int64) (domain.Submission, error) {
	f.hit("TestResults")
	return domain.Submission{ID: 1, TestID: testID, Status: domain.SubmissionSubmitted}, nil
}

func (f *fakeAPI) Rewards(ctx context.Context) ([]domain.Reward, error) {
	f.hit("Rewards")
	if f.rewards == nil {
		return nil, nil
	}
	return f.rewards(ctx)
}

func (f *fakeAPI) ClaimReward(ctx context.Context, id int64) (domain.Reward, error) {
	f.hit("ClaimReward")
	if f.claim == nil {
		return domain.Reward{ID: id, Status: domain.RewardClaimed}, nil
	}
	return f.claim(ctx, id)
}

func (f *fakeAPI) Recommendations(ctx context.Context) ([]domain.Recommendation, error) {
	f.hit("Recommendations")
	return []domain.Recommendation{{ID: 1, CourseID: 3, Confidence: 1.7}}, nil
}

func (f *fakeAPI) SendChatMessage(ctx context.Context, msg string) (backend.ChatReply, error) {
	f.hit("SendChatMessage")
	if f.chat == nil {
		return backend.ChatReply{Content: "echo: " + msg, Type: domain.ChatText}, nil
	}
	return f.chat(ctx, msg)
}

func (f *fakeAPI) ChatSuggestions(ctx context.Context) ([]string, error) {
	f.hit("ChatSuggestions")
	if f.suggestions == nil {
		return nil, nil
	}
	return f.suggestions(ctx)
}

func (f *fakeAPI) AnalyzeBehavior(ctx context.Context) (backend.BehaviorAnalysis, error) {
	f.hit("AnalyzeBehavior")
	if f.analyze == nil {
		return backend.BehaviorAnalysis{Interests: []string{"web"}}, nil
	}
	return f.analyze(ctx)
}

// recorder collects published messages.
type recorder struct {
	mu   sync.Mutex
	msgs []realtime.Message
}

func (r *recorder) Publish(msg realtime.Message) {
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()
}

func (r *recorder) changes(container, op string) []realtime.StateChange {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []realtime.StateChange
	for _, m := range r.msgs {
		sc, ok := m.Data.(realtime.StateChange)
		if ok && sc.Container == container && sc.Op == op {
			out = append(out, sc)
		}
	}
	return out
}
