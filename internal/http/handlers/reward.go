package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursemarket-client/internal/http/response"
	"github.com/yungbote/coursemarket-client/internal/store"
)

type RewardHandler struct {
	rewards *store.RewardStore
}

func NewRewardHandler(rewards *store.RewardStore) *RewardHandler {
	return &RewardHandler{rewards: rewards}
}

// GET /rewards
//
// Loads rewards and recommendations together, as the dashboard shows both.
func (h *RewardHandler) Dashboard(c *gin.Context) {
	if err := h.rewards.LoadDashboard(c.Request.Context()); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, h.rewards.Snapshot())
}

// POST /rewards/:id/claim
func (h *RewardHandler) Claim(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	r, err := h.rewards.ClaimReward(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"reward": r})
}
