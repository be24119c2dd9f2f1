package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/project-guardian/guardian/internal/deception"
	"github.com/project-guardian/guardian/internal/intake/model"
	"github.com/project-guardian/guardian/internal/intake/service"
)

// ingestSvc is the interface expected by EventHandler, satisfied by
// *service.IngestService.
type ingestSvc interface {
	Ingest(ctx context.Context, req *model.EventRequest) (*service.Summary, error)
	ReceiveBeacon(ctx context.Context, beacon *model.USBBeacon) error
}

// EventHandler handles HTTP requests from honeypot sensors.
type EventHandler struct {
	svc    ingestSvc
	logger *zap.Logger
}

// NewEventHandler creates an EventHandler.
func NewEventHandler(svc ingestSvc, logger *zap.Logger) *EventHandler {
	return &EventHandler{svc: svc, logger: logger}
}

// Register mounts the sensor-facing routes on the given router group.
func (h *EventHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/honeypot/events", h.ReceiveEvent)
	rg.POST("/usb/beacon", h.ReceiveBeacon)
}

// ReceiveEvent handles POST /honeypot/events.
func (h *EventHandler) ReceiveEvent(c *gin.Context) {
	var req model.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.svc.Ingest(c.Request.Context(), &req)
	if err != nil {
		var valErr *model.ErrValidation
		if errors.As(err, &valErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": valErr.Msg})
			return
		}
		h.logger.Error("ingest", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "event processing failed"})
		return
	}

	recordEventMetrics(&req, summary)
	c.JSON(http.StatusOK, summary)
}

func recordEventMetrics(req *model.EventRequest, summary *service.Summary) {
	RecordEvent(req.HoneypotKind)

	indicators := summary.IdentifiedTTP
	if len(indicators) == 1 && indicators[0] == "LLM_Generated" {
		indicators = nil
	}
	if md, ok := summary.DisinformationPayload.TargetContext["scanner_metadata"].(map[string]any); ok {
		if level, ok := md["threat_level"].(string); ok {
			RecordVerdict(level, indicators)
		}
	}

	outcome := "generated"
	if summary.DisinformationPayload.Content == deception.FallbackContent {
		outcome = "fallback"
	}
	RecordGeneration(outcome)
}

// ReceiveBeacon handles POST /usb/beacon.
func (h *EventHandler) ReceiveBeacon(c *gin.Context) {
	var beacon model.USBBeacon
	if err := c.ShouldBindJSON(&beacon); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.svc.ReceiveBeacon(c.Request.Context(), &beacon); err != nil {
		h.logger.Error("store usb beacon", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "beacon storage failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "USB beacon recorded.",
	})
}
