package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yungbote/coursemarket-client/internal/clients/backend"
	"github.com/yungbote/coursemarket-client/internal/domain"
	"github.com/yungbote/coursemarket-client/internal/lifecycle"
	"github.com/yungbote/coursemarket-client/internal/platform/apierr"
)

func floatp(v float64) *float64 { return &v }

func TestCreatePaymentAppendsAndSelects(t *testing.T) {
	api := &fakeAPI{}
	s := NewPaymentStore(api, testDeps(nil))
	p, err := s.CreatePayment(context.Background(), 4, domain.ProviderClick, " SAVE10 ")
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}
	st := s.Snapshot()
	if len(st.Payments) != 1 || st.Current == nil || st.Current.ID != p.ID {
		t.Fatalf("state=%+v", st)
	}

	if _, err := s.CreatePayment(context.Background(), 4, "paypal", ""); !apierr.Is(err, apierr.KindValidation) {
		t.Fatalf("unknown provider err=%v", err)
	}
	if api.count("CreatePayment") != 1 {
		t.Fatalf("calls=%d", api.count("CreatePayment"))
	}
}

func TestConfirmMovesPendingToCompletedOnce(t *testing.T) {
	api := &fakeAPI{}
	s := NewPaymentStore(api, testDeps(nil))
	if _, err := s.CreatePayment(context.Background(), 4, domain.ProviderUzum, ""); err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}
	res, err := s.ConfirmPayment(context.Background(), "p1", "tx-1")
	if err != nil || res.Status != domain.PaymentCompleted {
		t.Fatalf("res=%+v err=%v", res, err)
	}
	p, ok := s.Payment("p1")
	if !ok || p.Status != domain.PaymentCompleted || p.TransactionID != "tx-1" {
		t.Fatalf("payment=%+v", p)
	}

	// completed is terminal
	if _, err := s.FailPayment(context.Background(), "p1", "late"); err != nil {
		t.Fatalf("FailPayment: %v", err)
	}
	if p, _ := s.Payment("p1"); p.Status != domain.PaymentCompleted {
		t.Fatalf("status=%s", p.Status)
	}
}

func TestConfirmRequiresIDs(t *testing.T) {
	api := &fakeAPI{}
	s := NewPaymentStore(api, testDeps(nil))
	if _, err := s.ConfirmPayment(context.Background(), "p1", ""); !apierr.Is(err, apierr.KindValidation) {
		t.Fatalf("err=%v", err)
	}
	if api.count("ConfirmPayment") != 0 {
		t.Fatalf("network called")
	}
}

func TestQuotePriceUsesLoadedDiscounts(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	api := &fakeAPI{discounts: func(ctx context.Context, courseID int64) ([]domain.Discount, error) {
		return []domain.Discount{
			{Code: "SAVE10", Percentage: 10},
			{Code: "OLD", Percentage: 50, ValidUntil: now.Add(-time.Hour)},
		}, nil
	}}
	d := testDeps(nil)
	d.Now = func() time.Time { return now }
	s := NewPaymentStore(api, d)
	if _, err := s.FetchDiscounts(context.Background(), 4); err != nil {
		t.Fatalf("FetchDiscounts: %v", err)
	}
	cases := []struct {
		code string
		want float64
	}{
		{"SAVE10", 90},
		{"OLD", 100},
		{"NOPE", 100},
		{"", 100},
	}
	for _, tc := range cases {
		if got, _ := s.QuotePrice(100, tc.code); got != tc.want {
			t.Fatalf("QuotePrice(%q)=%v want %v", tc.code, got, tc.want)
		}
	}
	if st := s.Snapshot(); st.DiscountCourseID != 4 || len(st.Discounts) != 2 {
		t.Fatalf("state=%+v", st)
	}
}

func loadedTest() domain.Test {
	return domain.Test{ID: 5, Questions: []domain.Question{
		{ID: 1, Type: domain.QuestionMultipleChoice, Points: 2, Choices: []domain.Choice{{ID: 10}, {ID: 11}}},
		{ID: 2, Type: domain.QuestionShortAnswer, Points: 3},
	}}
}

func TestSubmitChecksAnswersLocally(t *testing.T) {
	api := &fakeAPI{test: func(ctx context.Context, id int64) (domain.Test, error) { return loadedTest(), nil }}
	s := NewTestStore(api, testDeps(nil))
	if _, err := s.FetchTest(context.Background(), 5); err != nil {
		t.Fatalf("FetchTest: %v", err)
	}
	cases := []struct {
		name    string
		answers []domain.Answer
	}{
		{"none", nil},
		{"unknown question", []domain.Answer{{QuestionID: 99, Text: "x"}}},
		{"unknown choice", []domain.Answer{{QuestionID: 1, ChoiceIDs: []int64{12}}}},
		{"empty text", []domain.Answer{{QuestionID: 2, Text: "  "}}},
		{"duplicate", []domain.Answer{{QuestionID: 2, Text: "a"}, {QuestionID: 2, Text: "b"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.SubmitTest(context.Background(), 5, tc.answers); !apierr.Is(err, apierr.KindValidation) {
				t.Fatalf("err=%v", err)
			}
		})
	}
	if api.count("SubmitTest") != 0 {
		t.Fatalf("network called %d times", api.count("SubmitTest"))
	}
}

func TestSubmitRejectsInconsistentGrading(t *testing.T) {
	api := &fakeAPI{submit: func(ctx context.Context, testID int64, answers []domain.Answer) (backend.SubmitResult, error) {
		return backend.SubmitResult{Submission: domain.Submission{
			ID: 1, TestID: testID, Status: domain.SubmissionGraded, Score: floatp(5),
			Questions: []domain.QuestionResult{{QuestionID: 1, Score: floatp(2)}, {QuestionID: 2, Score: floatp(2)}},
		}}, nil
	}}
	s := NewTestStore(api, testDeps(nil))
	_, err := s.SubmitTest(context.Background(), 5, []domain.Answer{{QuestionID: 2, Text: "a"}})
	if !apierr.Is(err, apierr.KindServer) {
		t.Fatalf("err=%v", err)
	}
	if st := s.Snapshot(); st.Submission != nil || st.Ops[OpSubmitTest].Status != lifecycle.Failed {
		t.Fatalf("state=%+v", st)
	}
}

func TestSubmissionRewardsReachRewardStore(t *testing.T) {
	api := &fakeAPI{submit: func(ctx context.Context, testID int64, answers []domain.Answer) (backend.SubmitResult, error) {
		return backend.SubmitResult{
			Submission: domain.Submission{ID: 1, TestID: testID, Status: domain.SubmissionGraded, Score: floatp(3),
				Questions: []domain.QuestionResult{{QuestionID: 2, Score: floatp(3)}}},
			Rewards: []domain.Reward{{ID: 20, Type: domain.RewardPoints, Value: "50", Status: domain.RewardAvailable}},
		}, nil
	}}
	all := New(api, Config{}, testDeps(nil))
	if _, err := all.Tests.SubmitTest(context.Background(), 5, []domain.Answer{{QuestionID: 2, Text: "a"}}); err != nil {
		t.Fatalf("SubmitTest: %v", err)
	}
	if got := all.Rewards.Snapshot().Rewards; len(got) != 1 || got[0].ID != 20 {
		t.Fatalf("rewards=%+v", got)
	}
	if got := all.Tests.Snapshot().Earned; len(got) != 1 {
		t.Fatalf("earned=%+v", got)
	}
}

func TestClaimRewardReplacesInPlace(t *testing.T) {
	api := &fakeAPI{rewards: func(ctx context.Context) ([]domain.Reward, error) {
		return []domain.Reward{{ID: 1, Status: domain.RewardAvailable}, {ID: 2, Status: domain.RewardAvailable}}, nil
	}}
	s := NewRewardStore(api, testDeps(nil))
	if err := s.LoadDashboard(context.Background()); err != nil {
		t.Fatalf("LoadDashboard: %v", err)
	}
	if _, err := s.ClaimReward(context.Background(), 2); err != nil {
		t.Fatalf("ClaimReward: %v", err)
	}
	if _, err := s.ClaimReward(context.Background(), 9); err != nil {
		t.Fatalf("ClaimReward(9): %v", err)
	}
	st := s.Snapshot()
	if len(st.Rewards) != 2 || st.Rewards[1].Status != domain.RewardClaimed || st.Rewards[0].Status != domain.RewardAvailable {
		t.Fatalf("rewards=%+v", st.Rewards)
	}
	if len(st.Recommendations) != 1 || st.Recommendations[0].Confidence != 1 {
		t.Fatalf("recommendations=%+v", st.Recommendations)
	}
}

func TestChatStartsWithGreeting(t *testing.T) {
	s := NewChatStore(&fakeAPI{}, "", testDeps(nil))
	msgs := s.Snapshot().Messages
	if len(msgs) != 1 || msgs[0].Content != DefaultGreeting || msgs[0].Sender != domain.SenderAssistant {
		t.Fatalf("messages=%+v", msgs)
	}
	if !s.Toggle() || s.Toggle() {
		t.Fatalf("toggle should flip")
	}
}

func TestChatSendMarksDelivery(t *testing.T) {
	release := make(chan struct{})
	api := &fakeAPI{chat: func(ctx context.Context, msg string) (backend.ChatReply, error) {
		<-release
		return backend.ChatReply{Content: "echo: " + msg, Type: domain.ChatText}, nil
	}}
	s := NewChatStore(api, "hi", testDeps(nil))

	type result struct {
		reply domain.ChatMessage
		err   error
	}
	done := make(chan result, 1)
	go func() {
		reply, err := s.Send(context.Background(), "  how do I start?  ")
		done <- result{reply, err}
	}()

	// The user's line is logged as pending before the backend answers.
	deadline := time.Now().Add(time.Second)
	for {
		msgs := s.Snapshot().Messages
		if len(msgs) == 2 {
			if msgs[1].Sender != domain.SenderUser || msgs[1].Content != "how do I start?" || msgs[1].Delivery != domain.DeliveryPending {
				t.Fatalf("in-flight message=%+v", msgs[1])
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("user message never appeared: %+v", msgs)
		}
		time.Sleep(time.Millisecond)
	}
	close(release)

	res := <-done
	if res.err != nil {
		t.Fatalf("Send: %v", res.err)
	}
	reply := res.reply
	if reply.Content != "echo: how do I start?" {
		t.Fatalf("reply=%+v", reply)
	}
	msgs := s.Snapshot().Messages
	if len(msgs) != 3 || msgs[1].Delivery != domain.DeliverySent || msgs[2].Sender != domain.SenderAssistant {
		t.Fatalf("messages=%+v", msgs)
	}

	api.chat = func(ctx context.Context, msg string) (backend.ChatReply, error) {
		return backend.ChatReply{}, apierr.Transport(errors.New("dial tcp: refused"))
	}
	if _, err := s.Send(context.Background(), "again"); !apierr.Is(err, apierr.KindNetwork) {
		t.Fatalf("err=%v", err)
	}
	st := s.Snapshot()
	last := st.Messages[len(st.Messages)-1]
	if len(st.Messages) != 4 || last.Content != "again" || last.Delivery != domain.DeliveryFailed {
		t.Fatalf("messages=%+v", st.Messages)
	}
	if st.Ops[OpSendMessage].Status != lifecycle.Failed {
		t.Fatalf("record=%+v", st.Ops[OpSendMessage])
	}
}

func TestChatAnalyzeBehavior(t *testing.T) {
	api := &fakeAPI{analyze: func(ctx context.Context) (backend.BehaviorAnalysis, error) {
		return backend.BehaviorAnalysis{
			Interests:   []string{"web", "data"},
			Performance: []backend.CoursePerformance{{CourseID: "12", Score: 87.5}},
		}, nil
	}}
	all := New(api, Config{}, testDeps(nil))
	if _, err := all.Chat.AnalyzeBehavior(context.Background()); err != nil {
		t.Fatalf("AnalyzeBehavior: %v", err)
	}
	st := all.Chat.Snapshot()
	if st.Analysis == nil || len(st.Analysis.Interests) != 2 || st.Analysis.Performance[0].Score != 87.5 {
		t.Fatalf("analysis=%+v", st.Analysis)
	}
	if st.Ops[OpAnalyzeBehavior].Status != lifecycle.Succeeded {
		t.Fatalf("record=%+v", st.Ops[OpAnalyzeBehavior])
	}

	all.ResetUserData()
	if st := all.Chat.Snapshot(); st.Analysis != nil || len(st.Messages) != 1 {
		t.Fatalf("after reset analysis=%+v messages=%d", st.Analysis, len(st.Messages))
	}
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	api := &fakeAPI{}
	s := NewChatStore(api, "", testDeps(nil))
	if _, err := s.Send(context.Background(), "   "); !apierr.Is(err, apierr.KindValidation) {
		t.Fatalf("err=%v", err)
	}
	if api.count("SendChatMessage") != 0 || len(s.Snapshot().Messages) != 1 {
		t.Fatalf("empty message should not be sent or logged")
	}
}

func TestStoresSnapshotByName(t *testing.T) {
	all := New(&fakeAPI{}, Config{}, testDeps(nil))
	for _, name := range Names() {
		if _, err := all.Snapshot(name); err != nil {
			t.Fatalf("Snapshot(%s): %v", name, err)
		}
	}
	if _, err := all.Snapshot("nope"); err == nil {
		t.Fatalf("unknown container should error")
	}
	if err := all.ClearError("nope", "x"); err == nil {
		t.Fatalf("unknown container should error")
	}
}
