package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursemarket-client/internal/platform/logger"
	"github.com/yungbote/coursemarket-client/internal/realtime"
)

type RealtimeHandler struct {
	Log *logger.Logger
	Hub *realtime.Hub
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.Hub) *RealtimeHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &RealtimeHandler{Log: log.With("handler", "RealtimeHandler"), Hub: hub}
}

// GET /events?channels=state,navigation
//
// Without a channels parameter the stream carries both channels.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	channels := []string{realtime.ChannelState, realtime.ChannelNavigation}
	if raw := strings.TrimSpace(c.Query("channels")); raw != "" {
		channels = channels[:0]
		for _, ch := range strings.Split(raw, ",") {
			if ch = strings.TrimSpace(ch); ch != "" {
				channels = append(channels, ch)
			}
		}
	}

	client := h.Hub.NewClient()
	for _, ch := range channels {
		h.Hub.Subscribe(client, ch)
	}
	h.Log.Info("SSE stream open", "client_id", client.ID.String(), "channels", channels)

	h.Hub.ServeHTTP(c.Writer, c.Request, client)
	h.Hub.CloseClient(client)
}
