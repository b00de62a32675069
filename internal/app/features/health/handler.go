package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/vidcollab/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Checker reports the state of an optional dependency.
// *eventbus.Publisher satisfies it.
type Checker interface {
	Healthy() bool
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client *mongo.Client
	Broker Checker // nil when no broker is configured
	Log    *zap.Logger
}

// NewHandler constructs a health Handler with the Mongo client and logger.
func NewHandler(client *mongo.Client, broker Checker, logger *zap.Logger) *Handler {
	return &Handler{
		Client: client,
		Broker: broker,
		Log:    logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Broker   string `json:"broker"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "broker":"connected" }
//
// A lost broker degrades notifications only, so it still answers 200 with
// status "degraded". On DB failure: 503 and
//
//	{ "status":"error", "database":"disconnected", "message":"Database unavailable", "error":"…"}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
		Broker:   "disabled",
	}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	if h.Broker != nil {
		if h.Broker.Healthy() {
			resp.Broker = "connected"
		} else {
			h.Log.Warn("health-check: broker connection closed")
			resp.Status = "degraded"
			resp.Broker = "disconnected"
		}
	}

	_ = json.NewEncoder(w).Encode(resp)
}
