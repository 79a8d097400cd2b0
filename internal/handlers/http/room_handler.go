package http

import (
	"net/http"
	"time"

	"veristream/internal/core/domain"
	"veristream/internal/core/ports"
	"veristream/pkg/utils"

	"github.com/gin-gonic/gin"
)

// RoomHandler serves the synchronous REST surface next to the WebSocket
// endpoints: room status and gateway health.
type RoomHandler struct {
	registry ports.RoomRegistry
	scorer   ports.Scorer
}

func NewRoomHandler(registry ports.RoomRegistry, scorer ports.Scorer) *RoomHandler {
	return &RoomHandler{
		registry: registry,
		scorer:   scorer,
	}
}

func (h *RoomHandler) SetupRoutes(api *gin.RouterGroup) {
	api.GET("/room/:meetingId", h.GetRoomInfo)
	api.GET("/health", h.Health)
}

// GetRoomInfo reports whether a meeting exists and how full it is. An
// unknown meeting is a normal answer, not an error.
func (h *RoomHandler) GetRoomInfo(c *gin.Context) {
	meetingID := domain.MeetingID(c.Param("meetingId"))
	info := h.registry.RoomInfo(c.Request.Context(), meetingID)
	c.JSON(http.StatusOK, info)
}

func (h *RoomHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"model":     h.scorer.Name(),
		"timestamp": utils.FormatTimestamp(time.Now()),
	})
}
