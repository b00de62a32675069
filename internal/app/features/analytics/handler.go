// internal/app/features/analytics/handler.go
package analytics

import (
	"context"
	"net/http"
	"strconv"

	uierrors "github.com/dalemusser/vidcollab/internal/app/features/errors"
	"github.com/dalemusser/vidcollab/internal/app/features/shared/api"
	"github.com/dalemusser/vidcollab/internal/app/store/audit"
	"github.com/dalemusser/vidcollab/internal/app/store/queries/analyticsqueries"
	"github.com/dalemusser/vidcollab/internal/app/system/apperr"
	"github.com/dalemusser/vidcollab/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	defaultPeriodDays = 30
	maxPeriodDays     = 365
	maxActivity       = 500
)

// Handler serves the creator and editor dashboards.
type Handler struct {
	DB     *mongo.Database
	Audit  *audit.Store
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		Audit:  audit.New(db),
		ErrLog: errLog,
		Log:    logger,
	}
}

// intParam reads a positive integer query parameter bounded by max.
func intParam(r *http.Request, op, name string, def, max int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > max {
		return 0, apperr.Validation(op, name+" must be between 1 and "+strconv.Itoa(max))
	}
	return n, nil
}

// ServeCreator handles GET /api/analytics/creator/{email}?period=30.
func (h *Handler) ServeCreator(w http.ResponseWriter, r *http.Request) {
	const op = "analytics.Creator"
	creator, err := api.Self(r, op, "email")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	period, err := intParam(r, op, "period", defaultPeriodDays, maxPeriodDays)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	rep, err := analyticsqueries.Creator(ctx, h.DB, creator, period)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	api.OK(w, rep)
}

// ServeEditor handles GET /api/analytics/editor/{email}?period=30.
func (h *Handler) ServeEditor(w http.ResponseWriter, r *http.Request) {
	const op = "analytics.Editor"
	editor, err := api.Self(r, op, "email")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	period, err := intParam(r, op, "period", defaultPeriodDays, maxPeriodDays)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	rep, err := analyticsqueries.Editor(ctx, h.DB, editor, period)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	api.OK(w, rep)
}

// ServeActivity handles GET /api/analytics/creator/{email}/activity. It
// returns the creator's audit trail, newest first, optionally narrowed by
// category and limited in size.
func (h *Handler) ServeActivity(w http.ResponseWriter, r *http.Request) {
	const op = "analytics.Activity"
	creator, err := api.Self(r, op, "email")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	limit, err := intParam(r, op, "limit", 100, maxActivity)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	category := r.URL.Query().Get("category")
	switch category {
	case "", audit.CategoryTeam, audit.CategoryVideo, audit.CategoryChannel:
	default:
		h.ErrLog.Write(w, r, apperr.Validation(op, "unknown category "+category))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	events, err := h.Audit.Query(ctx, audit.QueryFilter{
		CreatorEmail: creator,
		Category:     category,
		Limit:        int64(limit),
	})
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	api.OK(w, map[string]any{"events": events})
}
