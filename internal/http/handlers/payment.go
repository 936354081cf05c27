package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursemarket-client/internal/domain"
	"github.com/yungbote/coursemarket-client/internal/http/response"
	"github.com/yungbote/coursemarket-client/internal/payflow"
	"github.com/yungbote/coursemarket-client/internal/store"
)

type PaymentHandler struct {
	payments *store.PaymentStore
	flow     *payflow.Flow
	nav      payflow.Navigator
}

func NewPaymentHandler(payments *store.PaymentStore, flow *payflow.Flow, nav payflow.Navigator) *PaymentHandler {
	return &PaymentHandler{payments: payments, flow: flow, nav: nav}
}

// POST /payments
func (h *PaymentHandler) Create(c *gin.Context) {
	var req struct {
		CourseID     int64  `json:"course_id"`
		Provider     string `json:"provider"`
		DiscountCode string `json:"discount_code"`
	}
	if !bindJSON(c, &req) {
		return
	}
	provider, ok := domain.ParseProvider(req.Provider)
	if !ok {
		response.RespondError(c, http.StatusBadRequest, "invalid_provider", fmt.Errorf("unsupported payment provider %q", req.Provider))
		return
	}
	out, err := h.flow.Start(c.Request.Context(), req.CourseID, provider, req.DiscountCode, func(p domain.Payment) {
		h.nav.Navigate("/courses/" + strconv.FormatInt(p.CourseID, 10))
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /payments
func (h *PaymentHandler) List(c *gin.Context) {
	list, err := h.payments.FetchPayments(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"payments": list})
}

// GET /payments/:id/status
func (h *PaymentHandler) Status(c *gin.Context) {
	res, err := h.payments.FetchPaymentStatus(c.Request.Context(), domain.ID(c.Param("id")))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"status": res.Status, "raw": res.Raw, "message": res.Message})
}

// GET /payments/discounts/:courseId
func (h *PaymentHandler) Discounts(c *gin.Context) {
	id, ok := int64Param(c, "courseId")
	if !ok {
		return
	}
	list, err := h.payments.FetchDiscounts(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"discounts": list})
}

// POST /payments/discounts/:courseId/validate
func (h *PaymentHandler) ValidateDiscount(c *gin.Context) {
	id, ok := int64Param(c, "courseId")
	if !ok {
		return
	}
	var req struct {
		Code string `json:"code"`
	}
	if !bindJSON(c, &req) {
		return
	}
	check, err := h.payments.ValidateDiscount(c.Request.Context(), id, req.Code)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, check)
}

// POST /payments/quote
func (h *PaymentHandler) Quote(c *gin.Context) {
	var req struct {
		Price float64 `json:"price"`
		Code  string  `json:"code"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if req.Price < 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_price", fmt.Errorf("price must not be negative"))
		return
	}
	price, d := h.payments.QuotePrice(req.Price, req.Code)
	response.RespondOK(c, gin.H{"price": price, "discount": d})
}

// GET /payment/success?payment_id=&transaction_id=&course_id=
func (h *PaymentHandler) Callback(c *gin.Context) {
	res, err := h.flow.HandleCallback(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		c.JSON(response.StatusFor(err), gin.H{
			"error":  response.APIError{Message: res.Message, Code: "payment_callback_failed"},
			"status": res.Status,
		})
		return
	}
	response.RespondOK(c, res)
}
