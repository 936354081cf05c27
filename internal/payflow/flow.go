// Package payflow runs the provider specific step that follows a created
// payment: a full-page redirect for click, a popup for payme and an
// immediate confirm for uzum.
package payflow

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/yungbote/coursemarket-client/internal/clients/backend"
	"github.com/yungbote/coursemarket-client/internal/domain"
	"github.com/yungbote/coursemarket-client/internal/platform/apierr"
	"github.com/yungbote/coursemarket-client/internal/platform/logger"
)

const (
	PopupName          = "Payme"
	DefaultPopupWidth  = 450
	DefaultPopupHeight = 600
)

type Navigator interface {
	Redirect(url string)
	OpenPopup(name, url string, width, height int)
	Navigate(path string)
}

// Payments is the slice of the payment container the flow drives.
type Payments interface {
	CreatePayment(ctx context.Context, courseID int64, provider domain.PaymentProvider, discountCode string) (domain.Payment, error)
	ConfirmPayment(ctx context.Context, id domain.ID, transactionID string) (backend.ConfirmResult, error)
}

type Step string

const (
	StepRedirected Step = "redirected"
	StepPopup      Step = "popup"
	StepCompleted  Step = "completed"
	// StepUnconfirmed: the confirm call answered with something other than
	// completed.
	StepUnconfirmed Step = "unconfirmed"
)

type Outcome struct {
	Payment domain.Payment       `json:"payment"`
	Step    Step                 `json:"step"`
	Status  domain.PaymentStatus `json:"status"`
	Message string               `json:"message,omitempty"`
}

type Options struct {
	PopupWidth  int
	PopupHeight int
	Logger      *logger.Logger
}

type Flow struct {
	payments Payments
	nav      Navigator
	width    int
	height   int
	log      *logger.Logger
}

func New(payments Payments, nav Navigator, opts Options) *Flow {
	if opts.PopupWidth <= 0 {
		opts.PopupWidth = DefaultPopupWidth
	}
	if opts.PopupHeight <= 0 {
		opts.PopupHeight = DefaultPopupHeight
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	return &Flow{
		payments: payments,
		nav:      nav,
		width:    opts.PopupWidth,
		height:   opts.PopupHeight,
		log:      opts.Logger.With("component", "PaymentFlow"),
	}
}

// Start creates the payment and performs exactly one provider follow-up.
// onSuccess runs once, and only when an uzum confirm reports completed.
func (f *Flow) Start(ctx context.Context, courseID int64, provider domain.PaymentProvider, discountCode string, onSuccess func(domain.Payment)) (Outcome, error) {
	p, err := f.payments.CreatePayment(ctx, courseID, provider, discountCode)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Payment: p, Status: p.Status}

	switch p.Provider {
	case domain.ProviderClick:
		if strings.TrimSpace(p.PaymentURL) == "" {
			return out, apierr.Server("payment has no redirect url", nil)
		}
		f.nav.Redirect(p.PaymentURL)
		out.Step = StepRedirected
	case domain.ProviderPayme:
		if strings.TrimSpace(p.PaymentURL) == "" {
			return out, apierr.Server("payment has no widget url", nil)
		}
		f.nav.OpenPopup(PopupName, p.PaymentURL, f.width, f.height)
		out.Step = StepPopup
	case domain.ProviderUzum:
		res, err := f.payments.ConfirmPayment(ctx, p.ID, p.TransactionID)
		if err != nil {
			return out, err
		}
		out.Message = res.Message
		if res.Status != "" {
			out.Status = res.Status
		}
		if res.Status != domain.PaymentCompleted {
			f.log.Info("uzum payment not completed", "payment_id", p.ID, "status", res.Raw)
			out.Step = StepUnconfirmed
			return out, nil
		}
		out.Step = StepCompleted
		out.Payment.Status = domain.PaymentCompleted
		if onSuccess != nil {
			onSuccess(out.Payment)
		}
	default:
		return out, apierr.Server(fmt.Sprintf("unsupported provider %q", p.Provider), nil)
	}
	return out, nil
}

type CallbackResult struct {
	Status  domain.PaymentStatus `json:"status"`
	Message string               `json:"message"`
	Next    string               `json:"next,omitempty"`
}

// HandleCallback confirms a payment from the provider's return URL. On
// completion it navigates to the purchased course, or to the catalogue when
// no course id came back.
func (f *Flow) HandleCallback(ctx context.Context, params url.Values) (CallbackResult, error) {
	paymentID := strings.TrimSpace(params.Get("payment_id"))
	txID := strings.TrimSpace(params.Get("transaction_id"))
	if paymentID == "" || txID == "" {
		return CallbackResult{Status: domain.PaymentFailed, Message: "Invalid payment callback parameters"},
			apierr.Validation("Invalid payment callback parameters")
	}

	res, err := f.payments.ConfirmPayment(ctx, domain.ID(paymentID), txID)
	if err != nil {
		return CallbackResult{Status: domain.PaymentFailed, Message: "Failed to confirm payment"}, err
	}
	if res.Status != domain.PaymentCompleted {
		msg := strings.TrimSpace(res.Message)
		if msg == "" {
			msg = "Payment failed"
		}
		return CallbackResult{Status: domain.PaymentFailed, Message: msg}, nil
	}

	next := "/courses"
	if raw := strings.TrimSpace(params.Get("course_id")); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			next = "/courses/" + strconv.FormatInt(id, 10)
		}
	}
	f.nav.Navigate(next)
	return CallbackResult{Status: domain.PaymentCompleted, Message: "Payment completed successfully", Next: next}, nil
}
