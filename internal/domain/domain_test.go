package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestIDAcceptsStringAndNumber(t *testing.T) {
	var v struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a":"pay_1","b":42,"c":null}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.A != "pay_1" || v.B != "42" || !v.C.Empty() {
		t.Fatalf("got %+v", v)
	}
}

func TestApplyDiscount(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	discounts := []Discount{{ID: "1", Code: "SAVE10", Percentage: 10}}

	final, applied := ApplyDiscount(100, discounts, "SAVE10", now)
	if final != 90.00 || applied == nil || applied.Code != "SAVE10" {
		t.Fatalf("final=%v applied=%v", final, applied)
	}

	final, applied = ApplyDiscount(100, discounts, "NOPE", now)
	if final != 100.00 || applied != nil {
		t.Fatalf("unknown code: final=%v applied=%v", final, applied)
	}

	final, _ = ApplyDiscount(100, discounts, "", now)
	if final != 100.00 {
		t.Fatalf("empty code: final=%v", final)
	}
}

func TestApplyDiscountRoundsAndHonoursWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	discounts := []Discount{
		{Code: "OLD", Percentage: 50, ValidUntil: now.Add(-time.Hour)},
		{Code: "SOON", Percentage: 50, ValidFrom: now.Add(time.Hour)},
		{Code: "THIRD", Percentage: 33.333},
	}
	if final, applied := ApplyDiscount(80, discounts, "OLD", now); final != 80 || applied != nil {
		t.Fatalf("expired discount applied: %v", final)
	}
	if final, applied := ApplyDiscount(80, discounts, "SOON", now); final != 80 || applied != nil {
		t.Fatalf("future discount applied: %v", final)
	}
	if final, _ := ApplyDiscount(19.99, discounts, "THIRD", now); final != 13.33 {
		t.Fatalf("final=%v", final)
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to PaymentStatus
		ok       bool
	}{
		{PaymentPending, PaymentCompleted, true},
		{PaymentPending, PaymentFailed, true},
		{PaymentCompleted, PaymentPending, false},
		{PaymentFailed, PaymentPending, false},
		{PaymentFailed, PaymentCompleted, false},
		{PaymentCompleted, PaymentFailed, false},
		{PaymentPending, PaymentPending, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.ok {
			t.Fatalf("%s->%s got=%v want=%v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestNormalizePaymentStatus(t *testing.T) {
	if st, ok := NormalizePaymentStatus("success"); !ok || st != PaymentCompleted {
		t.Fatalf("success -> %q %v", st, ok)
	}
	if _, ok := NormalizePaymentStatus("refunded"); ok {
		t.Fatalf("refunded should be unknown")
	}
}

func ptr(v float64) *float64 { return &v }

func TestSubmissionValidate(t *testing.T) {
	graded := Submission{
		ID:     1,
		Status: SubmissionGraded,
		Score:  ptr(7.5),
		Questions: []QuestionResult{
			{QuestionID: 1, Score: ptr(5)},
			{QuestionID: 2, Score: ptr(2.5)},
		},
	}
	if err := graded.Validate(); err != nil {
		t.Fatalf("graded: %v", err)
	}

	bad := graded
	bad.Score = ptr(9)
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected total mismatch")
	}

	missing := graded
	missing.Questions = []QuestionResult{{QuestionID: 1, Score: ptr(7.5)}, {QuestionID: 2}}
	if err := missing.Validate(); err == nil {
		t.Fatalf("expected missing question score")
	}

	pending := Submission{ID: 2, Status: SubmissionSubmitted, Questions: []QuestionResult{{QuestionID: 1}}}
	if err := pending.Validate(); err != nil {
		t.Fatalf("submitted: %v", err)
	}
	pending.Questions[0].Score = ptr(1)
	if err := pending.Validate(); err == nil {
		t.Fatalf("expected ungraded score rejection")
	}
}

func TestAnswerValidate(t *testing.T) {
	yes := true
	mc := Question{ID: 1, Type: QuestionMultipleChoice, Choices: []Choice{{ID: 10}, {ID: 11}}}
	tf := Question{ID: 2, Type: QuestionTrueFalse}
	sa := Question{ID: 3, Type: QuestionShortAnswer}
	pg := Question{ID: 4, Type: QuestionProgramming}

	cases := []struct {
		name string
		q    Question
		a    Answer
		ok   bool
	}{
		{"choice", mc, Answer{QuestionID: 1, ChoiceIDs: []int64{11}}, true},
		{"no choice", mc, Answer{QuestionID: 1}, false},
		{"unknown choice", mc, Answer{QuestionID: 1, ChoiceIDs: []int64{99}}, false},
		{"bool", tf, Answer{QuestionID: 2, Bool: &yes}, true},
		{"missing bool", tf, Answer{QuestionID: 2, Text: "true"}, false},
		{"text", sa, Answer{QuestionID: 3, Text: "goroutines"}, true},
		{"blank text", sa, Answer{QuestionID: 3, Text: "  "}, false},
		{"code", pg, Answer{QuestionID: 4, Code: "package main", Language: "go"}, true},
		{"wrong question", pg, Answer{QuestionID: 3, Code: "x"}, false},
	}
	for _, tc := range cases {
		err := tc.a.Validate(tc.q)
		if (err == nil) != tc.ok {
			t.Fatalf("%s: err=%v", tc.name, err)
		}
	}
}

func TestSessionIsAuthenticated(t *testing.T) {
	if (Session{Token: "t"}).IsAuthenticated() {
		t.Fatalf("token without principal")
	}
	if (Session{Principal: &Principal{ID: 1}}).IsAuthenticated() {
		t.Fatalf("principal without token")
	}
	if !(Session{Principal: &Principal{ID: 1}, Token: "t"}).IsAuthenticated() {
		t.Fatalf("expected authenticated")
	}
}

func TestClampConfidence(t *testing.T) {
	if ClampConfidence(1.7) != 1 || ClampConfidence(-0.2) != 0 || ClampConfidence(0.4) != 0.4 {
		t.Fatalf("clamp")
	}
}
