package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"command-center-go/internal/dashboard"
	"command-center-go/internal/export"
	"command-center-go/internal/logger"
	"command-center-go/internal/triage"
	"command-center-go/internal/types"
)

// Dashboard is the part of *dashboard.Service the handlers need.
type Dashboard interface {
	Refresh(ctx context.Context, driverFilter string) (bool, error)
	View(ctx context.Context, sel triage.Selection) (dashboard.View, error)
	Detail(ctx context.Context, id string) (dashboard.Detail, bool, error)
	Resolve(ctx context.Context, id string) (bool, error)
}

type handler struct {
	dash Dashboard
	log  *logger.Logger
}

// NewRouter wires the JSON endpoints used by the command center UI.
// gatherer may be nil to skip /metrics.
func NewRouter(dash Dashboard, log *logger.Logger, gatherer prometheus.Gatherer) http.Handler {
	h := &handler{dash: dash, log: log.Component("api")}
	mux := http.NewServeMux()

	// health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	})

	mux.HandleFunc("GET /api/dashboard", h.dashboard)
	mux.HandleFunc("POST /api/refresh", h.refresh)
	mux.HandleFunc("GET /api/queries/{id}", h.detail)
	mux.HandleFunc("POST /api/queries/{id}/resolve", h.resolve)
	mux.HandleFunc("GET /api/export.xlsx", h.exportXLSX)

	if gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return h.withRequestLog(mux)
}

func (h *handler) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := logger.RequestID(r)
		// handlers read the id back from the request
		r.Header.Set(logger.RequestIDHeader, reqID)
		w.Header().Set(logger.RequestIDHeader, reqID)
		start := time.Now()
		next.ServeHTTP(w, r)
		h.log.WithRequest(r, reqID).WithField("duration_ms", time.Since(start).Milliseconds()).Debug("request served")
	})
}

func (h *handler) reqLog(r *http.Request, handler string) *logrus.Entry {
	return h.log.WithRequest(r, logger.RequestID(r)).WithField("handler", handler)
}

// selection reads the filter query parameters shared by dashboard and export.
func selection(r *http.Request) (triage.Selection, error) {
	q := r.URL.Query()
	view, err := triage.ParseView(q.Get("view"))
	if err != nil {
		return triage.Selection{}, err
	}
	risk, err := triage.ParseRisk(q.Get("risk"))
	if err != nil {
		return triage.Selection{}, err
	}
	sel := triage.Selection{
		Language: q.Get("language"),
		Risk:     risk,
		Intent:   q.Get("intent"),
		View:     view,
	}
	if s := q.Get("minRiskScore"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 || n > 100 {
			return triage.Selection{}, fmt.Errorf("minRiskScore must be an integer within 0..100")
		}
		sel.MinRiskScore = n
	}
	return sel, nil
}

func (h *handler) dashboard(w http.ResponseWriter, r *http.Request) {
	log := h.reqLog(r, "dashboard")
	sel, err := selection(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	v, err := h.dash.View(r.Context(), sel)
	if err != nil {
		log.WithField("error", err.Error()).Error("view failed")
		writeError(w, http.StatusServiceUnavailable, "dashboard unavailable")
		return
	}
	writeData(w, http.StatusOK, v)
}

func (h *handler) refresh(w http.ResponseWriter, r *http.Request) {
	log := h.reqLog(r, "refresh")
	driverID := r.URL.Query().Get("driverId")
	log = log.WithField("driver_id", driverID)
	log.Info("refresh requested")

	applied, err := h.dash.Refresh(r.Context(), driverID)
	if err != nil && !applied {
		if errors.Is(err, dashboard.ErrStopped) {
			writeError(w, http.StatusServiceUnavailable, "dashboard unavailable")
			return
		}
		// superseded by a newer refresh; its outcome is what the store holds
		log.WithField("error", err.Error()).Info("superseded refresh failed")
		h.dashboard(w, r)
		return
	}
	if err != nil {
		log.WithField("error", err.Error()).Warn("refresh failed")
		v, verr := h.dash.View(r.Context(), triage.Selection{})
		msg := err.Error()
		if verr == nil && v.Error != "" {
			msg = v.Error
		}
		writeError(w, http.StatusBadGateway, msg)
		return
	}
	h.dashboard(w, r)
}

func (h *handler) detail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	d, ok, err := h.dash.Detail(r.Context(), id)
	if err != nil {
		h.reqLog(r, "detail").WithField("error", err.Error()).Error("detail failed")
		writeError(w, http.StatusServiceUnavailable, "dashboard unavailable")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("query %s not found", id))
		return
	}
	writeData(w, http.StatusOK, d)
}

func (h *handler) resolve(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	log := h.reqLog(r, "resolve").WithField("query_id", id)
	removed, err := h.dash.Resolve(r.Context(), id)
	if err != nil {
		log.WithField("error", err.Error()).Error("resolve failed")
		writeError(w, http.StatusServiceUnavailable, "dashboard unavailable")
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, fmt.Sprintf("query %s not found", id))
		return
	}
	log.Info("query resolved by agent")
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) exportXLSX(w http.ResponseWriter, r *http.Request) {
	log := h.reqLog(r, "export")
	sel, err := selection(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	v, err := h.dash.View(r.Context(), sel)
	if err != nil {
		log.WithField("error", err.Error()).Error("view failed")
		writeError(w, http.StatusServiceUnavailable, "dashboard unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="agent-queue.xlsx"`)
	if err := export.WriteXLSX(w, v.Queries, v.Summary); err != nil {
		log.WithField("error", err.Error()).Error("failed to write workbook")
	}
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.Envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, types.NewErrorBody(message))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
