package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursemarket-client/internal/http/response"
	"github.com/yungbote/coursemarket-client/internal/store"
)

// StateHandler exposes container snapshots to the view.
type StateHandler struct {
	stores *store.Stores
}

func NewStateHandler(stores *store.Stores) *StateHandler {
	return &StateHandler{stores: stores}
}

// GET /state
func (h *StateHandler) All(c *gin.Context) {
	response.RespondOK(c, h.stores.SnapshotAll())
}

// GET /state/:container
func (h *StateHandler) One(c *gin.Context) {
	snap, err := h.stores.Snapshot(c.Param("container"))
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "unknown_container", err)
		return
	}
	response.RespondOK(c, snap)
}

// DELETE /state/:container/errors/:op
func (h *StateHandler) ClearError(c *gin.Context) {
	if err := h.stores.ClearError(c.Param("container"), c.Param("op")); err != nil {
		response.RespondError(c, http.StatusNotFound, "unknown_container", err)
		return
	}
	c.Status(http.StatusNoContent)
}
