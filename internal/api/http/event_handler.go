package http

import (
	"context"
	"log/slog"
	"net/http"

	"video-dispatcher/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// maxBatchBytes caps the size of an accepted notification body.
const maxBatchBytes = 4 << 20

// EventHandler accepts bucket notification batches over HTTP.
type EventHandler struct {
	dispatcher domain.Dispatcher
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewEventHandler creates a handler that dispatches every accepted batch.
func NewEventHandler(dispatcher domain.Dispatcher, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		dispatcher: dispatcher,
		logger:     logger.With("component", "event-handler"),
		tracer:     otel.Tracer("video-dispatcher-api"),
	}
}

// SetupRouter builds the gin engine: /health and /metrics are open, /events
// is guarded by the webhook token when one is configured.
func SetupRouter(h *EventHandler, authToken string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), instrument(h.tracer))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	events := r.Group("/events")
	events.Use(AuthMiddleware(authToken))
	{
		events.POST("", h.handleEvents)
	}
	return r
}

// handleEvents decodes one notification batch and dispatches it synchronously.
// A failed batch answers 500 so the sender redelivers it.
func (h *EventHandler) handleEvents(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.Events")
	defer span.End()

	body, err := readBody(c)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to read request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	batch, err := domain.ParseBatch(body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to decode notification batch")
		h.logger.Warn("rejected malformed notification batch", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// The batch runs to completion even if the sender hangs up.
	result := h.dispatcher.DispatchBatch(context.WithoutCancel(ctx), batch)
	resp := newBatchResponse(result)

	if result.Failed() {
		span.SetStatus(codes.Error, "Batch failed")
		c.JSON(http.StatusInternalServerError, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func readBody(c *gin.Context) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBatchBytes)
	return c.GetRawData()
}
