package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursemarket-client/internal/domain"
	"github.com/yungbote/coursemarket-client/internal/http/response"
	"github.com/yungbote/coursemarket-client/internal/store"
)

type TestHandler struct {
	tests *store.TestStore
}

func NewTestHandler(tests *store.TestStore) *TestHandler {
	return &TestHandler{tests: tests}
}

// GET /tests/:id
func (h *TestHandler) Get(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	t, err := h.tests.FetchTest(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"test": t})
}

// POST /tests/:id/submit
func (h *TestHandler) Submit(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var req struct {
		Answers []domain.Answer `json:"answers"`
	}
	if !bindJSON(c, &req) {
		return
	}
	sub, err := h.tests.SubmitTest(c.Request.Context(), id, req.Answers)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"submission": sub, "rewards": h.tests.Snapshot().Earned})
}

// GET /tests/:id/results
func (h *TestHandler) Results(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	sub, err := h.tests.FetchResults(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"submission": sub})
}
