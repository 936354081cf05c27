package domain

import (
	"strings"
	"time"
)

type PaymentProvider string

const (
	ProviderClick PaymentProvider = "click"
	ProviderPayme PaymentProvider = "payme"
	ProviderUzum  PaymentProvider = "uzum"
)

func ParseProvider(raw string) (PaymentProvider, bool) {
	switch PaymentProvider(strings.ToLower(strings.TrimSpace(raw))) {
	case ProviderClick:
		return ProviderClick, true
	case ProviderPayme:
		return ProviderPayme, true
	case ProviderUzum:
		return ProviderUzum, true
	default:
		return "", false
	}
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// NormalizePaymentStatus maps the backend's spellings onto the closed set.
// Confirm endpoints answer "success" for a completed payment.
func NormalizePaymentStatus(raw string) (PaymentStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending", "":
		return PaymentPending, true
	case "completed", "success", "succeeded":
		return PaymentCompleted, true
	case "failed", "error":
		return PaymentFailed, true
	default:
		return "", false
	}
}

// CanTransition reports whether a payment may move from one status to another.
// The only moves are pending to completed and pending to failed.
func CanTransition(from, to PaymentStatus) bool {
	return from == PaymentPending && (to == PaymentCompleted || to == PaymentFailed)
}

type Payment struct {
	ID              ID              `json:"id"`
	CourseID        int64           `json:"course_id"`
	Amount          float64         `json:"amount"`
	Currency        string          `json:"currency"`
	Provider        PaymentProvider `json:"provider"`
	Status          PaymentStatus   `json:"status"`
	TransactionID   string          `json:"transaction_id,omitempty"`
	PaymentURL      string          `json:"payment_url,omitempty"`
	DiscountApplied float64         `json:"discount_applied,omitempty"`
	BonusPoints     int             `json:"bonus_points,omitempty"`
	CreatedAt       *time.Time      `json:"created_at,omitempty"`
}

type Discount struct {
	ID         ID        `json:"id"`
	Code       string    `json:"code"`
	Percentage float64   `json:"percentage"`
	ValidFrom  time.Time `json:"valid_from,omitempty"`
	ValidUntil time.Time `json:"valid_until,omitempty"`
}

// Active treats a zero bound as open.
func (d Discount) Active(now time.Time) bool {
	if !d.ValidFrom.IsZero() && now.Before(d.ValidFrom) {
		return false
	}
	if !d.ValidUntil.IsZero() && !now.Before(d.ValidUntil) {
		return false
	}
	return d.Percentage > 0 && d.Percentage <= 100
}

// ApplyDiscount prices a course after the discount with the given code. An
// unknown, inactive or empty code leaves the price unchanged and returns nil.
func ApplyDiscount(price float64, discounts []Discount, code string, now time.Time) (float64, *Discount) {
	code = strings.TrimSpace(code)
	if code == "" {
		return RoundCents(price), nil
	}
	for i := range discounts {
		d := discounts[i]
		if d.Code != code || !d.Active(now) {
			continue
		}
		return RoundCents(price * (1 - d.Percentage/100)), &d
	}
	return RoundCents(price), nil
}
