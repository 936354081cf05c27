package store

import (
	"context"
	"strings"

	"github.com/yungbote/coursemarket-client/internal/clients/backend"
	"github.com/yungbote/coursemarket-client/internal/domain"
	"github.com/yungbote/coursemarket-client/internal/lifecycle"
	"github.com/yungbote/coursemarket-client/internal/platform/apierr"
)

const (
	OpCreatePayment    = "createPayment"
	OpFetchPayments    = "fetchPayments"
	OpFetchDiscounts   = "fetchDiscounts"
	OpValidateDiscount = "validateDiscount"
	OpConfirmPayment   = "confirmPayment"
	OpFailPayment      = "failPayment"
	OpPaymentStatus    = "fetchPaymentStatus"
)

type PaymentAPI interface {
	CreatePayment(ctx context.Context, courseID int64, provider domain.PaymentProvider, discountCode string) (domain.Payment, error)
	Payments(ctx context.Context) ([]domain.Payment, error)
	ConfirmPayment(ctx context.Context, paymentID domain.ID, transactionID string) (backend.ConfirmResult, error)
	FailPayment(ctx context.Context, paymentID domain.ID, message string) (backend.ConfirmResult, error)
	PaymentStatus(ctx context.Context, paymentID domain.ID) (backend.ConfirmResult, error)
	Discounts(ctx context.Context, courseID int64) ([]domain.Discount, error)
	ValidateDiscount(ctx context.Context, courseID int64, code string) (backend.DiscountCheck, error)
}

type PaymentsState struct {
	Payments         []domain.Payment            `json:"payments"`
	Current          *domain.Payment             `json:"current_payment"`
	Discounts        []domain.Discount           `json:"discounts"`
	DiscountCourseID int64                       `json:"discount_course_id,omitempty"`
	LastCheck        *backend.DiscountCheck      `json:"last_discount_check,omitempty"`
	Ops              map[string]lifecycle.Record `json:"ops"`
}

type PaymentStore struct {
	base
	api PaymentAPI

	payments       []domain.Payment
	current        *domain.Payment
	discounts      []domain.Discount
	discountCourse int64
	lastCheck      *backend.DiscountCheck
}

func NewPaymentStore(api PaymentAPI, d Deps) *PaymentStore {
	d = d.withDefaults()
	s := &PaymentStore{api: api}
	s.init(ContainerPayments, d)
	return s
}

func (s *PaymentStore) Snapshot() PaymentsState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := PaymentsState{
		Payments:         append([]domain.Payment(nil), s.payments...),
		Discounts:        append([]domain.Discount(nil), s.discounts...),
		DiscountCourseID: s.discountCourse,
		Ops:              s.Ops(),
	}
	if s.current != nil {
		p := *s.current
		st.Current = &p
	}
	if s.lastCheck != nil {
		c := *s.lastCheck
		st.LastCheck = &c
	}
	return st
}

// Payment looks up a known payment by id.
func (s *PaymentStore) Payment(id domain.ID) (domain.Payment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current != nil && s.current.ID == id {
		return *s.current, true
	}
	for _, p := range s.payments {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Payment{}, false
}

// CreatePayment starts a checkout. The new payment is appended and becomes
// current.
func (s *PaymentStore) CreatePayment(ctx context.Context, courseID int64, provider domain.PaymentProvider, discountCode string) (domain.Payment, error) {
	if courseID <= 0 {
		return domain.Payment{}, s.reject(OpCreatePayment, apierr.Validation("course is required"))
	}
	if _, ok := domain.ParseProvider(string(provider)); !ok {
		return domain.Payment{}, s.reject(OpCreatePayment, apierr.Validation("unsupported payment provider"))
	}
	code := strings.TrimSpace(discountCode)
	return dispatch(ctx, &s.base, OpCreatePayment, func(ctx context.Context) (domain.Payment, error) {
		return s.api.CreatePayment(ctx, courseID, provider, code)
	}, func(p domain.Payment) {
		s.payments = append(s.payments, p)
		cp := p
		s.current = &cp
	})
}

func (s *PaymentStore) FetchPayments(ctx context.Context) ([]domain.Payment, error) {
	return dispatch(ctx, &s.base, OpFetchPayments, s.api.Payments, func(list []domain.Payment) {
		s.payments = append([]domain.Payment(nil), list...)
		if s.current == nil {
			return
		}
		for _, p := range s.payments {
			if p.ID == s.current.ID {
				cp := p
				s.current = &cp
			}
		}
	})
}

func (s *PaymentStore) FetchDiscounts(ctx context.Context, courseID int64) ([]domain.Discount, error) {
	return dispatch(ctx, &s.base, OpFetchDiscounts, func(ctx context.Context) ([]domain.Discount, error) {
		return s.api.Discounts(ctx, courseID)
	}, func(list []domain.Discount) {
		s.discounts = append([]domain.Discount(nil), list...)
		s.discountCourse = courseID
	})
}

func (s *PaymentStore) ValidateDiscount(ctx context.Context, courseID int64, code string) (backend.DiscountCheck, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return backend.DiscountCheck{}, s.reject(OpValidateDiscount, apierr.Validation("discount code is required"))
	}
	return dispatch(ctx, &s.base, OpValidateDiscount, func(ctx context.Context) (backend.DiscountCheck, error) {
		return s.api.ValidateDiscount(ctx, courseID, code)
	}, func(c backend.DiscountCheck) {
		s.lastCheck = &c
	})
}

// QuotePrice applies the loaded discounts to price. Nothing is fetched.
func (s *PaymentStore) QuotePrice(price float64, code string) (float64, *domain.Discount) {
	s.mu.RLock()
	discounts := append([]domain.Discount(nil), s.discounts...)
	s.mu.RUnlock()
	return domain.ApplyDiscount(price, discounts, code, s.now())
}

// ConfirmPayment reports a provider transaction to the backend. The local
// payment moves to whatever status the backend settles on, if that move is
// legal.
func (s *PaymentStore) ConfirmPayment(ctx context.Context, id domain.ID, transactionID string) (backend.ConfirmResult, error) {
	if id.Empty() || strings.TrimSpace(transactionID) == "" {
		return backend.ConfirmResult{}, s.reject(OpConfirmPayment, apierr.Validation("payment and transaction ids are required"))
	}
	return dispatch(ctx, &s.base, OpConfirmPayment, func(ctx context.Context) (backend.ConfirmResult, error) {
		return s.api.ConfirmPayment(ctx, id, transactionID)
	}, func(r backend.ConfirmResult) {
		s.transition(id, r.Status, transactionID)
	})
}

func (s *PaymentStore) FailPayment(ctx context.Context, id domain.ID, message string) (backend.ConfirmResult, error) {
	if id.Empty() {
		return backend.ConfirmResult{}, s.reject(OpFailPayment, apierr.Validation("payment id is required"))
	}
	return dispatch(ctx, &s.base, OpFailPayment, func(ctx context.Context) (backend.ConfirmResult, error) {
		return s.api.FailPayment(ctx, id, message)
	}, func(r backend.ConfirmResult) {
		st := r.Status
		if st == "" {
			st = domain.PaymentFailed
		}
		s.transition(id, st, "")
	})
}

func (s *PaymentStore) FetchPaymentStatus(ctx context.Context, id domain.ID) (backend.ConfirmResult, error) {
	if id.Empty() {
		return backend.ConfirmResult{}, s.reject(OpPaymentStatus, apierr.Validation("payment id is required"))
	}
	return dispatch(ctx, &s.base, OpPaymentStatus, func(ctx context.Context) (backend.ConfirmResult, error) {
		return s.api.PaymentStatus(ctx, id)
	}, func(r backend.ConfirmResult) {
		s.transition(id, r.Status, "")
	})
}

// transition moves payment id to next when that is a legal step. Caller
// holds mu.
func (s *PaymentStore) transition(id domain.ID, next domain.PaymentStatus, transactionID string) {
	if next == "" {
		return
	}
	apply := func(p *domain.Payment) {
		if !domain.CanTransition(p.Status, next) {
			if p.Status != next {
				s.log.Warn("ignoring payment status change", "payment_id", id, "from", p.Status, "to", next)
			}
			return
		}
		p.Status = next
		if transactionID != "" {
			p.TransactionID = transactionID
		}
	}
	for i := range s.payments {
		if s.payments[i].ID == id {
			apply(&s.payments[i])
		}
	}
	if s.current != nil && s.current.ID == id {
		apply(s.current)
	}
}

// Reset drops payment history and every operation record.
func (s *PaymentStore) Reset() {
	s.mu.Lock()
	s.payments = nil
	s.current = nil
	s.lastCheck = nil
	s.mu.Unlock()
	s.tracker.Reset()
}
