package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/coursemarket-client/internal/domain"
)

// number accepts JSON numbers and numeric strings; decimal fields arrive as
// strings ("99.00") from the backend serializers.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("number %q: %w", s, err)
		}
		*n = number(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = number(f)
	return nil
}

func (n *number) ptr() *float64 {
	if n == nil {
		return nil
	}
	v := float64(*n)
	return &v
}

// text accepts strings, numbers and booleans and keeps their literal form.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = text(s)
		return nil
	}
	*t = text(b)
	return nil
}

// list decodes either a bare array or a paginated {"results": [...]} page.
type list[T any] []T

func (l *list[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*l = nil
		return nil
	}
	if b[0] == '{' {
		var page struct {
			Results []T `json:"results"`
		}
		if err := json.Unmarshal(b, &page); err != nil {
			return err
		}
		*l = page.Results
		return nil
	}
	var items []T
	if err := json.Unmarshal(b, &items); err != nil {
		return err
	}
	*l = items
	return nil
}

// ref decodes either a bare id or an embedded object carrying one.
type ref struct {
	ID int64
}

func (r *ref) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		r.ID = 0
		return nil
	}
	if b[0] == '{' {
		var obj struct {
			ID number `json:"id"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		r.ID = int64(obj.ID)
		return nil
	}
	var n number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	r.ID = int64(n)
	return nil
}

// ---- auth ----

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type socialToken struct {
	Token string `json:"token"`
}

// AuthResult is what every credential exchange yields.
type AuthResult struct {
	User  domain.Principal
	Token string
}

type authResponse struct {
	User   domain.Principal `json:"user"`
	Token  string           `json:"token"`
	Access string           `json:"access"`
	Key    string           `json:"key"`
}

func (r authResponse) result() (AuthResult, error) {
	tok := strings.TrimSpace(r.Token)
	if tok == "" {
		tok = strings.TrimSpace(r.Access)
	}
	if tok == "" {
		tok = strings.TrimSpace(r.Key)
	}
	if tok == "" {
		return AuthResult{}, fmt.Errorf("auth response carries no token")
	}
	if r.User.ID == 0 && r.User.Username == "" && r.User.Email == "" {
		return AuthResult{}, fmt.Errorf("auth response carries no user")
	}
	return AuthResult{User: r.User, Token: tok}, nil
}

// ---- courses ----

type courseWire struct {
	ID               int64                    `json:"id"`
	Title            string                   `json:"title"`
	Description      string                   `json:"description"`
	Thumbnail        string                   `json:"thumbnail"`
	Price            number                   `json:"price"`
	Instructor       domain.InstructorSummary `json:"instructor"`
	Category         text                     `json:"category"`
	Level            text                     `json:"level"`
	Duration         text                     `json:"duration"`
	Rating           number                   `json:"rating"`
	EnrolledStudents number                   `json:"enrolled_students"`
	IsEnrolled       bool                     `json:"is_enrolled"`
	ViewCount        number                   `json:"view_count"`
	Objectives       string                   `json:"objectives"`
	Requirements     string                   `json:"requirements"`
	Syllabus         []domain.SyllabusItem    `json:"syllabus"`
}

func (w courseWire) toDomain() domain.Course {
	return domain.Course{
		ID:               w.ID,
		Title:            w.Title,
		Description:      w.Description,
		Thumbnail:        w.Thumbnail,
		Price:            float64(w.Price),
		Instructor:       w.Instructor,
		Category:         string(w.Category),
		Level:            string(w.Level),
		Duration:         string(w.Duration),
		Rating:           float64(w.Rating),
		EnrolledStudents: int(w.EnrolledStudents),
		IsEnrolled:       w.IsEnrolled,
		ViewCount:        int(w.ViewCount),
		Objectives:       w.Objectives,
		Requirements:     w.Requirements,
		Syllabus:         w.Syllabus,
	}
}

func coursesToDomain(in []courseWire) []domain.Course {
	out := make([]domain.Course, 0, len(in))
	for _, w := range in {
		out = append(out, w.toDomain())
	}
	return out
}

type viewResponse struct {
	ViewCount *number `json:"view_count"`
}

// ---- payments ----

type createPaymentRequest struct {
	CourseID     int64  `json:"course_id"`
	Provider     string `json:"provider"`
	DiscountCode string `json:"discount_code,omitempty"`
}

type paymentWire struct {
	ID              domain.ID  `json:"id"`
	PaymentID       domain.ID  `json:"payment_id"`
	Course          ref        `json:"course"`
	CourseID        number     `json:"course_id"`
	Amount          number     `json:"amount"`
	Currency        string     `json:"currency"`
	Provider        string     `json:"provider"`
	Status          string     `json:"status"`
	TransactionID   text       `json:"transaction_id"`
	PaymentURL      string     `json:"payment_url"`
	DiscountApplied number     `json:"discount_applied"`
	BonusPoints     number     `json:"bonus_points"`
	CreatedAt       *time.Time `json:"created_at"`
}

// toDomain fills what the create response leaves out from the request that
// produced it.
func (w paymentWire) toDomain(courseID int64, provider domain.PaymentProvider) (domain.Payment, error) {
	id := w.ID
	if id.Empty() {
		id = w.PaymentID
	}
	if id.Empty() {
		return domain.Payment{}, fmt.Errorf("payment without id")
	}
	if w.Course.ID != 0 {
		courseID = w.Course.ID
	} else if w.CourseID != 0 {
		courseID = int64(w.CourseID)
	}
	if p, ok := domain.ParseProvider(w.Provider); ok {
		provider = p
	}
	status, ok := domain.NormalizePaymentStatus(w.Status)
	if !ok {
		return domain.Payment{}, fmt.Errorf("payment %s: unknown status %q", id, w.Status)
	}
	return domain.Payment{
		ID:              id,
		CourseID:        courseID,
		Amount:          float64(w.Amount),
		Currency:        w.Currency,
		Provider:        provider,
		Status:          status,
		TransactionID:   string(w.TransactionID),
		PaymentURL:      strings.TrimSpace(w.PaymentURL),
		DiscountApplied: float64(w.DiscountApplied),
		BonusPoints:     int(w.BonusPoints),
		CreatedAt:       w.CreatedAt,
	}, nil
}

type discountWire struct {
	ID                 domain.ID  `json:"id"`
	Code               string     `json:"code"`
	Percentage         number     `json:"percentage"`
	DiscountPercentage number     `json:"discount_percentage"`
	ValidFrom          *time.Time `json:"valid_from"`
	ValidUntil         *time.Time `json:"valid_until"`
	IsActive           *bool      `json:"is_active"`
}

func (w discountWire) toDomain() domain.Discount {
	pct := float64(w.Percentage)
	if pct == 0 {
		pct = float64(w.DiscountPercentage)
	}
	d := domain.Discount{ID: w.ID, Code: strings.TrimSpace(w.Code), Percentage: pct}
	if w.ValidFrom != nil {
		d.ValidFrom = *w.ValidFrom
	}
	if w.ValidUntil != nil {
		d.ValidUntil = *w.ValidUntil
	}
	return d
}

// discountsToDomain drops discounts the backend flags as inactive.
func discountsToDomain(in []discountWire) []domain.Discount {
	out := make([]domain.Discount, 0, len(in))
	for _, w := range in {
		if w.IsActive != nil && !*w.IsActive {
			continue
		}
		out = append(out, w.toDomain())
	}
	return out
}

type confirmRequest struct {
	TransactionID string `json:"transaction_id"`
}

type failRequest struct {
	ErrorMessage string `json:"error_message"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ConfirmResult is the backend's verdict on a payment. Status is empty when
// the backend answered with a spelling outside the known set; Raw keeps it.
type ConfirmResult struct {
	Status  domain.PaymentStatus
	Raw     string
	Message string
}

func (r statusResponse) result() ConfirmResult {
	st, _ := domain.NormalizePaymentStatus(r.Status)
	if strings.TrimSpace(r.Status) == "" {
		st = ""
	}
	return ConfirmResult{Status: st, Raw: r.Status, Message: r.Message}
}

type validateDiscountRequest struct {
	Code string `json:"code"`
}

type validateDiscountResponse struct {
	Valid              *bool   `json:"valid"`
	IsValid            *bool   `json:"is_valid"`
	Code               string  `json:"code"`
	Percentage         number  `json:"percentage"`
	DiscountPercentage number  `json:"discount_percentage"`
	FinalPrice         *number `json:"final_price"`
	Message            string  `json:"message"`
}

// DiscountCheck is the backend's answer to a discount code lookup.
type DiscountCheck struct {
	Valid      bool
	Code       string
	Percentage float64
	FinalPrice *float64
	Message    string
}

func (r validateDiscountResponse) result(code string) DiscountCheck {
	pct := float64(r.Percentage)
	if pct == 0 {
		pct = float64(r.DiscountPercentage)
	}
	valid := pct > 0
	if r.Valid != nil {
		valid = *r.Valid
	} else if r.IsValid != nil {
		valid = *r.IsValid
	}
	if strings.TrimSpace(r.Code) != "" {
		code = strings.TrimSpace(r.Code)
	}
	return DiscountCheck{
		Valid:      valid,
		Code:       code,
		Percentage: pct,
		FinalPrice: r.FinalPrice.ptr(),
		Message:    r.Message,
	}
}

// ---- tests ----

type questionWire struct {
	ID           int64           `json:"id"`
	QuestionType string          `json:"question_type"`
	QuestionText string          `json:"question_text"`
	Points       number          `json:"points"`
	Choices      []domain.Choice `json:"choices"`
}

type testWire struct {
	ID           int64          `json:"id"`
	Course       ref            `json:"course"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	TestType     string         `json:"test_type"`
	MaxScore     number         `json:"max_score"`
	PassingScore number         `json:"passing_score"`
	TimeLimit    *int           `json:"time_limit"`
	DueDate      *time.Time     `json:"due_date"`
	Questions    []questionWire `json:"questions"`
}

func (w testWire) toDomain() (domain.Test, error) {
	t := domain.Test{
		ID:           w.ID,
		CourseID:     w.Course.ID,
		Title:        w.Title,
		Description:  w.Description,
		TestType:     w.TestType,
		MaxScore:     float64(w.MaxScore),
		PassingScore: float64(w.PassingScore),
		TimeLimit:    w.TimeLimit,
		DueDate:      w.DueDate,
		Questions:    make([]domain.Question, 0, len(w.Questions)),
	}
	for _, q := range w.Questions {
		qt, ok := domain.ParseQuestionType(q.QuestionType)
		if !ok {
			return domain.Test{}, fmt.Errorf("test %d: question %d has unknown type %q", w.ID, q.ID, q.QuestionType)
		}
		t.Questions = append(t.Questions, domain.Question{
			ID:      q.ID,
			Type:    qt,
			Text:    q.QuestionText,
			Points:  float64(q.Points),
			Choices: q.Choices,
		})
	}
	return t, nil
}

type submitRequest struct {
	TestID              int64           `json:"test_id"`
	QuestionSubmissions []domain.Answer `json:"question_submissions"`
}

type questionSubmissionWire struct {
	Question   ref     `json:"question"`
	QuestionID number  `json:"question_id"`
	AnswerText string  `json:"answer_text"`
	Score      *number `json:"score"`
	AIFeedback *string `json:"ai_feedback"`
}

type submissionWire struct {
	ID                  int64                    `json:"id"`
	Test                ref                      `json:"test"`
	TestID              number                   `json:"test_id"`
	Score               *number                  `json:"score"`
	Status              string                   `json:"status"`
	SubmittedAt         time.Time                `json:"submitted_at"`
	GradedAt            *time.Time               `json:"graded_at"`
	AIFeedback          *string                  `json:"ai_feedback"`
	QuestionSubmissions []questionSubmissionWire `json:"question_submissions"`
}

func (w submissionWire) toDomain() domain.Submission {
	testID := w.Test.ID
	if testID == 0 {
		testID = int64(w.TestID)
	}
	s := domain.Submission{
		ID:          w.ID,
		TestID:      testID,
		Status:      domain.SubmissionStatus(strings.ToLower(strings.TrimSpace(w.Status))),
		Score:       w.Score.ptr(),
		SubmittedAt: w.SubmittedAt,
		GradedAt:    w.GradedAt,
		AIFeedback:  w.AIFeedback,
		Questions:   make([]domain.QuestionResult, 0, len(w.QuestionSubmissions)),
	}
	for _, q := range w.QuestionSubmissions {
		qid := q.Question.ID
		if qid == 0 {
			qid = int64(q.QuestionID)
		}
		s.Questions = append(s.Questions, domain.QuestionResult{
			QuestionID: qid,
			AnswerText: q.AnswerText,
			Score:      q.Score.ptr(),
			AIFeedback: q.AIFeedback,
		})
	}
	return s
}

type submitResponse struct {
	Submission submissionWire   `json:"submission"`
	Rewards    list[rewardWire] `json:"rewards"`
}

// SubmitResult is a submission together with whatever it earned.
type SubmitResult struct {
	Submission domain.Submission
	Rewards    []domain.Reward
}

// ---- rewards ----

type rewardWire struct {
	ID          int64      `json:"id"`
	RewardType  string     `json:"reward_type"`
	RewardValue text       `json:"reward_value"`
	Status      string     `json:"status"`
	AwardedAt   time.Time  `json:"awarded_at"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

func (w rewardWire) toDomain() (domain.Reward, error) {
	rt, ok := domain.ParseRewardType(w.RewardType)
	if !ok {
		return domain.Reward{}, fmt.Errorf("reward %d: unknown type %q", w.ID, w.RewardType)
	}
	status := domain.RewardStatus(strings.ToLower(strings.TrimSpace(w.Status)))
	if status == "" {
		status = domain.RewardAvailable
	}
	return domain.Reward{
		ID:        w.ID,
		Type:      rt,
		Value:     string(w.RewardValue),
		Status:    status,
		AwardedAt: w.AwardedAt,
		ExpiresAt: w.ExpiresAt,
	}, nil
}

func rewardsToDomain(in []rewardWire) ([]domain.Reward, error) {
	out := make([]domain.Reward, 0, len(in))
	for _, w := range in {
		r, err := w.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

type recommendationWire struct {
	ID              int64  `json:"id"`
	CourseID        number `json:"course_id"`
	Course          ref    `json:"course"`
	ExerciseID      *int64 `json:"exercise_id"`
	CourseTitle     string `json:"course_title"`
	DifficultyLevel string `json:"difficulty_level"`
	Reason          string `json:"reason"`
	ConfidenceScore number `json:"confidence_score"`
}

func (w recommendationWire) toDomain() domain.Recommendation {
	courseID := int64(w.CourseID)
	if courseID == 0 {
		courseID = w.Course.ID
	}
	return domain.Recommendation{
		ID:          w.ID,
		CourseID:    courseID,
		ExerciseID:  w.ExerciseID,
		CourseTitle: w.CourseTitle,
		Difficulty:  w.DifficultyLevel,
		Reason:      w.Reason,
		Confidence:  domain.ClampConfidence(float64(w.ConfidenceScore)),
	}
}

// ---- chatbot ----

type chatRequest struct {
	Message string `json:"message"`
}

type chatMetadataWire struct {
	Solution      string  `json:"solution"`
	CourseID      text    `json:"course_id"`
	CourseIDCamel text    `json:"courseId"`
	Confidence    *number `json:"confidence"`
}

type chatReplyWire struct {
	ID                   domain.ID         `json:"id"`
	Message              string            `json:"message"`
	Response             string            `json:"response"`
	Type                 string            `json:"type"`
	Timestamp            *time.Time        `json:"timestamp"`
	Metadata             *chatMetadataWire `json:"metadata"`
	TroubleshootingSteps []string          `json:"troubleshooting_steps"`
}

// ChatReply is one assistant turn.
type ChatReply struct {
	ID        domain.ID
	Content   string
	Type      domain.ChatMessageType
	Timestamp *time.Time
	Metadata  *domain.ChatMetadata
}

func (w chatReplyWire) result() (ChatReply, error) {
	content := strings.TrimSpace(w.Message)
	if content == "" {
		content = strings.TrimSpace(w.Response)
	}
	if content == "" {
		return ChatReply{}, fmt.Errorf("chat reply without content")
	}
	r := ChatReply{
		ID:        w.ID,
		Content:   content,
		Type:      domain.ParseChatMessageType(w.Type),
		Timestamp: w.Timestamp,
	}
	md := &domain.ChatMetadata{}
	if w.Metadata != nil {
		md.Solution = strings.TrimSpace(w.Metadata.Solution)
		md.CourseID = string(w.Metadata.CourseID)
		if md.CourseID == "" {
			md.CourseID = string(w.Metadata.CourseIDCamel)
		}
		if c := w.Metadata.Confidence.ptr(); c != nil {
			v := domain.ClampConfidence(*c)
			md.Confidence = &v
		}
	}
	if md.Solution == "" && len(w.TroubleshootingSteps) > 0 {
		md.Solution = strings.Join(w.TroubleshootingSteps, "\n")
	}
	if *md != (domain.ChatMetadata{}) {
		r.Metadata = md
	}
	return r, nil
}

// suggestionWire accepts plain strings or message-shaped objects.
type suggestionWire string

func (s *suggestionWire) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var obj struct {
			Content string `json:"content"`
			Text    string `json:"text"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		for _, v := range []string{obj.Content, obj.Text, obj.Message} {
			if strings.TrimSpace(v) != "" {
				*s = suggestionWire(strings.TrimSpace(v))
				return nil
			}
		}
		*s = ""
		return nil
	}
	var t text
	if err := json.Unmarshal(b, &t); err != nil {
		return err
	}
	*s = suggestionWire(strings.TrimSpace(string(t)))
	return nil
}

type behaviorWire struct {
	Interests   []string `json:"interests"`
	Performance []struct {
		CourseID      text   `json:"courseId"`
		CourseIDSnake text   `json:"course_id"`
		Score         number `json:"score"`
	} `json:"performance"`
}

// BehaviorAnalysis is the assistant's read of the learner's interests and
// per-course scores.
type BehaviorAnalysis struct {
	Interests   []string            `json:"interests"`
	Performance []CoursePerformance `json:"performance"`
}

type CoursePerformance struct {
	CourseID string  `json:"course_id"`
	Score    float64 `json:"score"`
}

func (w behaviorWire) result() BehaviorAnalysis {
	out := BehaviorAnalysis{Interests: []string{}, Performance: []CoursePerformance{}}
	for _, s := range w.Interests {
		if s = strings.TrimSpace(s); s != "" {
			out.Interests = append(out.Interests, s)
		}
	}
	for _, p := range w.Performance {
		id := string(p.CourseID)
		if id == "" {
			id = string(p.CourseIDSnake)
		}
		out.Performance = append(out.Performance, CoursePerformance{CourseID: id, Score: float64(p.Score)})
	}
	return out
}
