package handler

import (
	"context"

	"legal-indexer-be/internal/entity"
	"legal-indexer-be/internal/pkg/logger"
	"legal-indexer-be/internal/service"
	internalWS "legal-indexer-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// JobStreamHandler pushes job snapshots over a websocket until the job is terminal.
type JobStreamHandler struct {
	jobService service.IJobService
	hub        *internalWS.Hub
	logger     logger.ILogger
}

func NewJobStreamHandler(jobService service.IJobService, hub *internalWS.Hub, log logger.ILogger) *JobStreamHandler {
	return &JobStreamHandler{
		jobService: jobService,
		hub:        hub,
		logger:     log,
	}
}

func (h *JobStreamHandler) RegisterRoutes(r fiber.Router) {
	g := r.Group("/job/v1")
	g.Get("/:id/stream", h.Upgrade, websocket.New(h.Stream))
}

// Upgrade rejects plain HTTP and unknown job ids before the handshake.
func (h *JobStreamHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	if _, err := h.jobService.GetJob(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.Next()
}

func (h *JobStreamHandler) Stream(conn *websocket.Conn) {
	jobId := conn.Params("id")
	h.logger.Debug("JobStreamHandler", "Job stream opened", map[string]interface{}{"job_id": jobId})

	h.hub.Serve(conn, jobId, func() (*entity.Job, error) {
		return h.jobService.GetJob(context.Background(), jobId)
	})
}
