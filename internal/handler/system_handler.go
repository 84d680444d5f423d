package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"clinic-booking/internal/lib/sl"
)

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger(r, "handler.healthz").Warn("database ping failed", sl.Err(err))
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, healthResponse{Status: "degraded", Database: "unavailable"})
		return
	}
	render.JSON(w, r, healthResponse{Status: "ok", Database: "ok"})
}

func (h *Handler) initDatabase(w http.ResponseWriter, r *http.Request) {
	const op = "handler.initDatabase"

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := h.db.Migrate(r.Context()); err != nil {
		h.logger(r, op).Error("schema migration failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("error: could not create the schema\n"))
		return
	}
	h.logger(r, op).Info("schema migrated")
	_, _ = w.Write([]byte("tables appointments, users and sessions are ready\n"))
}
