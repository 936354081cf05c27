package backend

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/yungbote/coursemarket-client/internal/domain"
	"github.com/yungbote/coursemarket-client/internal/platform/apierr"
)

func malformed(err error) error {
	return apierr.Server("malformed response from server", err)
}

// ---- auth ----

func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	var resp authResponse
	if err := c.post(ctx, "/auth/login/", credentials{Email: email, Password: password}, &resp); err != nil {
		return AuthResult{}, err
	}
	res, err := resp.result()
	if err != nil {
		return AuthResult{}, malformed(err)
	}
	return res, nil
}

func (c *Client) Register(ctx context.Context, username, email, password string) (AuthResult, error) {
	var resp authResponse
	if err := c.post(ctx, "/auth/register/", registration{Username: username, Email: email, Password: password}, &resp); err != nil {
		return AuthResult{}, err
	}
	res, err := resp.result()
	if err != nil {
		return AuthResult{}, malformed(err)
	}
	return res, nil
}

// SocialLogin exchanges a token issued by a third-party identity provider.
func (c *Client) SocialLogin(ctx context.Context, provider domain.SocialProvider, token string) (AuthResult, error) {
	var resp authResponse
	path := fmt.Sprintf("/auth/%s/", provider)
	if err := c.post(ctx, path, socialToken{Token: token}, &resp); err != nil {
		return AuthResult{}, err
	}
	res, err := resp.result()
	if err != nil {
		return AuthResult{}, malformed(err)
	}
	return res, nil
}

func (c *Client) Me(ctx context.Context) (domain.Principal, error) {
	var p domain.Principal
	if err := c.get(ctx, "/auth/me/", nil, &p); err != nil {
		return domain.Principal{}, err
	}
	return p, nil
}

// ---- courses ----

// CourseFilter narrows a catalog listing. Zero values are omitted.
type CourseFilter struct {
	Category string `json:"category,omitempty"`
	Level    string `json:"level,omitempty"`
	Search   string `json:"search,omitempty"`
}

func (f CourseFilter) values() url.Values {
	v := url.Values{}
	if s := strings.TrimSpace(f.Category); s != "" {
		v.Set("category", s)
	}
	if s := strings.TrimSpace(f.Level); s != "" {
		v.Set("level", s)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		v.Set("search", s)
	}
	return v
}

func (c *Client) courseList(ctx context.Context, path string, query url.Values) ([]domain.Course, error) {
	var resp list[courseWire]
	if err := c.get(ctx, path, query, &resp); err != nil {
		return nil, err
	}
	return coursesToDomain(resp), nil
}

func (c *Client) Courses(ctx context.Context, f CourseFilter) ([]domain.Course, error) {
	return c.courseList(ctx, "/courses/", f.values())
}

func (c *Client) Course(ctx context.Context, id int64) (domain.Course, error) {
	var w courseWire
	if err := c.get(ctx, fmt.Sprintf("/courses/%d/", id), nil, &w); err != nil {
		return domain.Course{}, err
	}
	return w.toDomain(), nil
}

func (c *Client) PopularCourses(ctx context.Context) ([]domain.Course, error) {
	return c.courseList(ctx, "/courses/popular/", nil)
}

func (c *Client) RecommendedCourses(ctx context.Context) ([]domain.Course, error) {
	return c.courseList(ctx, "/courses/recommended/", nil)
}

func (c *Client) PurchasedCourses(ctx context.Context) ([]domain.Course, error) {
	return c.courseList(ctx, "/courses/purchased/", nil)
}

func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var resp list[text]
	if err := c.get(ctx, "/courses/categories/", nil, &resp); err != nil {
		return nil, err
	}
	return texts(resp), nil
}

func (c *Client) Levels(ctx context.Context) ([]string, error) {
	var resp list[text]
	if err := c.get(ctx, "/courses/levels/", nil, &resp); err != nil {
		return nil, err
	}
	return texts(resp), nil
}

// RecordView bumps the view counter. The returned count is nil when the
// backend does not echo it.
func (c *Client) RecordView(ctx context.Context, id int64) (*int, error) {
	var resp viewResponse
	if err := c.post(ctx, fmt.Sprintf("/courses/%d/view/", id), nil, &resp); err != nil {
		return nil, err
	}
	if resp.ViewCount == nil {
		return nil, nil
	}
	n := int(*resp.ViewCount)
	return &n, nil
}

func texts(in []text) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		if s := strings.TrimSpace(string(t)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ---- payments ----

func (c *Client) CreatePayment(ctx context.Context, courseID int64, provider domain.PaymentProvider, discountCode string) (domain.Payment, error) {
	req := createPaymentRequest{
		CourseID:     courseID,
		Provider:     string(provider),
		DiscountCode: strings.TrimSpace(discountCode),
	}
	var w paymentWire
	if err := c.post(ctx, "/payments/", req, &w); err != nil {
		return domain.Payment{}, err
	}
	p, err := w.toDomain(courseID, provider)
	if err != nil {
		return domain.Payment{}, malformed(err)
	}
	return p, nil
}

func (c *Client) Payments(ctx context.Context) ([]domain.Payment, error) {
	var resp list[paymentWire]
	if err := c.get(ctx, "/payments/", nil, &resp); err != nil {
		return nil, err
	}
	out := make([]domain.Payment, 0, len(resp))
	for _, w := range resp {
		p, err := w.toDomain(0, "")
		if err != nil {
			return nil, malformed(err)
		}
		out = append(out, p)
	}
	return out, nil
}

func (c *Client) ConfirmPayment(ctx context.Context, paymentID domain.ID, transactionID string) (ConfirmResult, error) {
	var resp statusResponse
	path := "/payments/" + url.PathEscape(paymentID.String()) + "/confirm/"
	if err := c.post(ctx, path, confirmRequest{TransactionID: transactionID}, &resp); err != nil {
		return ConfirmResult{}, err
	}
	return resp.result(), nil
}

func (c *Client) FailPayment(ctx context.Context, paymentID domain.ID, message string) (ConfirmResult, error) {
	var resp statusResponse
	path := "/payments/" + url.PathEscape(paymentID.String()) + "/fail/"
	if err := c.post(ctx, path, failRequest{ErrorMessage: message}, &resp); err != nil {
		return ConfirmResult{}, err
	}
	return resp.result(), nil
}

func (c *Client) PaymentStatus(ctx context.Context, paymentID domain.ID) (ConfirmResult, error) {
	var resp statusResponse
	path := "/payments/" + url.PathEscape(paymentID.String()) + "/status/"
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return ConfirmResult{}, err
	}
	return resp.result(), nil
}

func (c *Client) Discounts(ctx context.Context, courseID int64) ([]domain.Discount, error) {
	var resp list[discountWire]
	if err := c.get(ctx, fmt.Sprintf("/courses/%d/discounts/", courseID), nil, &resp); err != nil {
		return nil, err
	}
	return discountsToDomain(resp), nil
}

func (c *Client) ValidateDiscount(ctx context.Context, courseID int64, code string) (DiscountCheck, error) {
	var resp validateDiscountResponse
	code = strings.TrimSpace(code)
	if err := c.post(ctx, fmt.Sprintf("/courses/%d/validate-discount/", courseID), validateDiscountRequest{Code: code}, &resp); err != nil {
		return DiscountCheck{}, err
	}
	return resp.result(code), nil
}

// ---- tests ----

func (c *Client) Test(ctx context.Context, id int64) (domain.Test, error) {
	var w testWire
	if err := c.get(ctx, fmt.Sprintf("/tests/%d/", id), nil, &w); err != nil {
		return domain.Test{}, err
	}
	t, err := w.toDomain()
	if err != nil {
		return domain.Test{}, malformed(err)
	}
	return t, nil
}

func (c *Client) SubmitTest(ctx context.Context, testID int64, answers []domain.Answer) (SubmitResult, error) {
	var resp submitResponse
	req := submitRequest{TestID: testID, QuestionSubmissions: answers}
	if err := c.post(ctx, fmt.Sprintf("/tests/%d/submit/", testID), req, &resp); err != nil {
		return SubmitResult{}, err
	}
	rewards, err := rewardsToDomain(resp.Rewards)
	if err != nil {
		return SubmitResult{}, malformed(err)
	}
	sub := resp.Submission.toDomain()
	if sub.TestID == 0 {
		sub.TestID = testID
	}
	return SubmitResult{Submission: sub, Rewards: rewards}, nil
}

func (c *Client) TestResults(ctx context.Context, testID int64) (domain.Submission, error) {
	var w submissionWire
	if err := c.get(ctx, fmt.Sprintf("/tests/%d/results/", testID), nil, &w); err != nil {
		return domain.Submission{}, err
	}
	sub := w.toDomain()
	if sub.TestID == 0 {
		sub.TestID = testID
	}
	return sub, nil
}

// ---- rewards ----

func (c *Client) Rewards(ctx context.Context) ([]domain.Reward, error) {
	var resp list[rewardWire]
	if err := c.get(ctx, "/rewards/", nil, &resp); err != nil {
		return nil, err
	}
	out, err := rewardsToDomain(resp)
	if err != nil {
		return nil, malformed(err)
	}
	return out, nil
}

func (c *Client) ClaimReward(ctx context.Context, id int64) (domain.Reward, error) {
	var w rewardWire
	if err := c.post(ctx, fmt.Sprintf("/rewards/%d/claim/", id), nil, &w); err != nil {
		return domain.Reward{}, err
	}
	if w.ID == 0 {
		w.ID = id
	}
	r, err := w.toDomain()
	if err != nil {
		return domain.Reward{}, malformed(err)
	}
	return r, nil
}

func (c *Client) Recommendations(ctx context.Context) ([]domain.Recommendation, error) {
	var resp list[recommendationWire]
	if err := c.get(ctx, "/recommendations/", nil, &resp); err != nil {
		return nil, err
	}
	out := make([]domain.Recommendation, 0, len(resp))
	for _, w := range resp {
		out = append(out, w.toDomain())
	}
	return out, nil
}

// ---- chatbot ----

func (c *Client) SendChatMessage(ctx context.Context, message string) (ChatReply, error) {
	var w chatReplyWire
	if err := c.post(ctx, "/chatbot/message/", chatRequest{Message: message}, &w); err != nil {
		return ChatReply{}, err
	}
	r, err := w.result()
	if err != nil {
		return ChatReply{}, malformed(err)
	}
	return r, nil
}

func (c *Client) AnalyzeBehavior(ctx context.Context) (BehaviorAnalysis, error) {
	var w behaviorWire
	if err := c.get(ctx, "/chatbot/analyze/", nil, &w); err != nil {
		return BehaviorAnalysis{}, err
	}
	return w.result(), nil
}

func (c *Client) ChatSuggestions(ctx context.Context) ([]string, error) {
	var resp list[suggestionWire]
	if err := c.get(ctx, "/chatbot/suggestions/", nil, &resp); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(resp))
	for _, s := range resp {
		if s != "" {
			out = append(out, string(s))
		}
	}
	return out, nil
}
