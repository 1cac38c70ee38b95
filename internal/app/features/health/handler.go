// internal/app/features/health/handler.go
package health

import (
	"context"
	"net/http"

	"github.com/dalemusser/taskhub/internal/app/system/apiresp"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// InFlightCounter reports how many event handlers are still running.
type InFlightCounter interface {
	InFlight() int64
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client *mongo.Client
	Events InFlightCounter
	Log    *zap.Logger
}

// NewHandler constructs a health Handler. events may be nil.
func NewHandler(client *mongo.Client, events InFlightCounter, logger *zap.Logger) *Handler {
	return &Handler{
		Client: client,
		Events: events,
		Log:    logger,
	}
}

type healthResponse struct {
	Status         string `json:"status"`
	Database       string `json:"database"`
	EventsInFlight int64  `json:"events_in_flight"`
	Message        string `json:"message,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "events_in_flight":0 }
//
// On DB failure: 503 and
//
//	{ "status":"error", "database":"disconnected", "message":"Database unavailable", "error":"…"}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
	}
	if h.Events != nil {
		resp.EventsInFlight = h.Events.InFlight()
	}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		apiresp.WriteJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	apiresp.WriteJSON(w, http.StatusOK, resp)
}
