package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionShortAnswer    QuestionType = "short_answer"
	QuestionProgramming    QuestionType = "programming"
)

// ParseQuestionType also accepts the short tags older backends send.
func ParseQuestionType(raw string) (QuestionType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "multiple_choice", "multiple-choice", "mcq", "choice":
		return QuestionMultipleChoice, true
	case "true_false", "true-false", "boolean", "tf":
		return QuestionTrueFalse, true
	case "short_answer", "short-answer", "text", "open":
		return QuestionShortAnswer, true
	case "programming", "code", "coding":
		return QuestionProgramming, true
	default:
		return "", false
	}
}

type Choice struct {
	ID   int64  `json:"id"`
	Text string `json:"choice_text"`
}

type Question struct {
	ID      int64        `json:"id"`
	Type    QuestionType `json:"question_type"`
	Text    string       `json:"question_text"`
	Points  float64      `json:"points"`
	Choices []Choice     `json:"choices,omitempty"`
}

type Test struct {
	ID           int64      `json:"id"`
	CourseID     int64      `json:"course_id,omitempty"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	TestType     string     `json:"test_type,omitempty"`
	MaxScore     float64    `json:"max_score"`
	PassingScore float64    `json:"passing_score"`
	TimeLimit    *int       `json:"time_limit,omitempty"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	Questions    []Question `json:"questions"`
}

func (t Test) Question(id int64) (Question, bool) {
	for _, q := range t.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Answer carries the shape appropriate to the question type: choice ids for
// multiple choice, Bool for true/false, Text for short answers and Code (plus
// an optional Language) for programming questions.
type Answer struct {
	QuestionID int64   `json:"question_id"`
	ChoiceIDs  []int64 `json:"selected_choices,omitempty"`
	Bool       *bool   `json:"boolean_answer,omitempty"`
	Text       string  `json:"answer_text,omitempty"`
	Code       string  `json:"code,omitempty"`
	Language   string  `json:"language,omitempty"`
}

func (a Answer) Validate(q Question) error {
	if a.QuestionID != q.ID {
		return fmt.Errorf("answer for question %d given to question %d", a.QuestionID, q.ID)
	}
	switch q.Type {
	case QuestionMultipleChoice:
		if len(a.ChoiceIDs) == 0 {
			return fmt.Errorf("question %d: select at least one choice", q.ID)
		}
		valid := make(map[int64]bool, len(q.Choices))
		for _, c := range q.Choices {
			valid[c.ID] = true
		}
		for _, id := range a.ChoiceIDs {
			if !valid[id] {
				return fmt.Errorf("question %d: unknown choice %d", q.ID, id)
			}
		}
	case QuestionTrueFalse:
		if a.Bool == nil {
			return fmt.Errorf("question %d: answer true or false", q.ID)
		}
	case QuestionShortAnswer:
		if strings.TrimSpace(a.Text) == "" {
			return fmt.Errorf("question %d: answer is empty", q.ID)
		}
	case QuestionProgramming:
		if strings.TrimSpace(a.Code) == "" {
			return fmt.Errorf("question %d: code is empty", q.ID)
		}
	default:
		return fmt.Errorf("question %d: unsupported type %q", q.ID, q.Type)
	}
	return nil
}

type SubmissionStatus string

const (
	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionGraded    SubmissionStatus = "graded"
)

type QuestionResult struct {
	QuestionID int64    `json:"question_id"`
	AnswerText string   `json:"answer_text,omitempty"`
	Score      *float64 `json:"score"`
	AIFeedback *string  `json:"ai_feedback,omitempty"`
}

type Submission struct {
	ID          int64            `json:"id"`
	TestID      int64            `json:"test_id"`
	Status      SubmissionStatus `json:"status"`
	Score       *float64         `json:"score"`
	SubmittedAt time.Time        `json:"submitted_at"`
	GradedAt    *time.Time       `json:"graded_at,omitempty"`
	AIFeedback  *string          `json:"ai_feedback,omitempty"`
	Questions   []QuestionResult `json:"question_submissions"`
}

const scoreTolerance = 0.005

// Validate enforces the grading invariant: a graded submission scores every
// question and its total is their sum; before grading no score is present.
func (s Submission) Validate() error {
	switch s.Status {
	case SubmissionGraded:
		if s.Score == nil {
			return fmt.Errorf("graded submission %d has no total score", s.ID)
		}
		var sum float64
		for _, q := range s.Questions {
			if q.Score == nil {
				return fmt.Errorf("graded submission %d: question %d has no score", s.ID, q.QuestionID)
			}
			sum += *q.Score
		}
		if math.Abs(sum-*s.Score) > scoreTolerance {
			return fmt.Errorf("graded submission %d: total %.2f does not match question sum %.2f", s.ID, *s.Score, sum)
		}
	case SubmissionSubmitted:
		if s.Score != nil {
			return fmt.Errorf("ungraded submission %d carries a total score", s.ID)
		}
		for _, q := range s.Questions {
			if q.Score != nil {
				return fmt.Errorf("ungraded submission %d: question %d carries a score", s.ID, q.QuestionID)
			}
		}
	default:
		return fmt.Errorf("submission %d: unknown status %q", s.ID, s.Status)
	}
	return nil
}
