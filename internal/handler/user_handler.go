package handler

import (
	"net/http"

	"clinic-booking/internal/lib/sl"
	"clinic-booking/internal/model"
	"clinic-booking/internal/session"
)

type usersPage struct {
	Pending []model.User
	Active  []model.User
	Self    int64
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	const op = "handler.listUsers"

	pending, err := h.accounts.Pending(r.Context())
	if err == nil {
		var active []model.User
		if active, err = h.accounts.Active(r.Context()); err == nil {
			self, _ := session.FromContext(r.Context()).UserID()
			h.render(w, r, http.StatusOK, "admin_usuarios.html", usersPage{Pending: pending, Active: active, Self: self})
			return
		}
	}
	h.logger(r, op).Error("failed to list users", sl.Err(err))
	h.renderError(w, r, http.StatusInternalServerError, msgUnavailable)
}

func (h *Handler) approveUser(w http.ResponseWriter, r *http.Request) {
	const op = "handler.approveUser"

	id, _ := pathID(r)
	if err := h.accounts.Approve(r.Context(), id); err != nil {
		h.fail(w, r, op, err, "/admin/usuarios")
		return
	}
	flash(r, session.Success, "user approved")
	redirect(w, r, "/admin/usuarios")
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	const op = "handler.deleteUser"

	actor, _ := session.FromContext(r.Context()).UserID()
	id, _ := pathID(r)
	if err := h.accounts.Delete(r.Context(), actor, id); err != nil {
		h.fail(w, r, op, err, "/admin/usuarios")
		return
	}
	flash(r, session.Info, "user deleted")
	redirect(w, r, "/admin/usuarios")
}
