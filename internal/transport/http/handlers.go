// Package http holds the read-only REST surface over the relay state plus
// a plain HTTP entry point for signaling messages.
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dkeye/p2pcall/internal/app/orch"
	"github.com/dkeye/p2pcall/internal/core"
	"github.com/dkeye/p2pcall/internal/domain"
	"github.com/gin-gonic/gin"
)

type MessageRequest struct {
	Transaction string       `json:"transaction" binding:"required"`
	Body        core.Payload `json:"body" binding:"required"`
	Jsep        core.Payload `json:"jsep"`
}

type MessageResponse struct {
	Transaction string `json:"transaction"`
	Status      string `json:"status"`
}

type API struct {
	Orch *orch.Orchestrator
}

func (a *API) Register(g *gin.RouterGroup) {
	g.GET("/rooms", a.handleRooms)
	g.GET("/rooms/:id", a.handleRoom)
	g.GET("/sessions/:handle", a.handleSession)
	g.POST("/sessions/:handle/message", a.handleMessage)
	g.GET("/stats", a.handleStats)
}

func (a *API) handleRooms(c *gin.Context) {
	c.JSON(http.StatusOK, a.Orch.ListRooms())
}

func (a *API) handleRoom(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}
	info, ok := a.Orch.Rooms.Get(domain.RoomID(id))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	c.JSON(http.StatusOK, info)
}

func (a *API) handleSession(c *gin.Context) {
	info, err := a.Orch.QuerySession(core.Handle(c.Param("handle")))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, info)
}

// handleMessage queues a message on behalf of an existing handle. The
// outcome is still delivered over that handle's connection.
func (a *API) handleMessage(c *gin.Context) {
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid message"})
		return
	}
	handle := core.Handle(c.Param("handle"))
	if err := a.Orch.HandleMessage(c.Request.Context(), handle, req.Transaction, req.Body, req.Jsep); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, MessageResponse{Transaction: req.Transaction, Status: "queued"})
}

func (a *API) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, a.Orch.Stats())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrQueueFull):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrDispatcherClosed):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
