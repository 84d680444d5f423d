package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"clinic-booking/internal/account"
	"clinic-booking/internal/metrics"
	"clinic-booking/internal/model"
	"clinic-booking/internal/session"
)

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	const op = "handler.register"

	_, err := h.accounts.Register(r.Context(), account.RegisterInput{
		Username: r.PostFormValue("username"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	})
	if err != nil {
		var invalid *account.ValidationError
		outcome := metrics.OutcomeError
		switch {
		case errors.As(err, &invalid):
			outcome = metrics.OutcomeInvalid
		case errors.Is(err, model.ErrDuplicateUser):
			outcome = metrics.OutcomeRejected
		}
		h.metrics.Registrations.WithLabelValues(outcome).Inc()
		h.fail(w, r, op, err, "/register")
		return
	}

	h.metrics.Registrations.WithLabelValues(metrics.OutcomeOK).Inc()
	flash(r, session.Success, "registration complete, wait for administrator approval before signing in")
	redirect(w, r, "/login")
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	const op = "handler.login"

	u, err := h.accounts.Authenticate(r.Context(), r.PostFormValue("email"), r.PostFormValue("password"))
	if err != nil {
		outcome := metrics.OutcomeError
		switch {
		case errors.Is(err, account.ErrBadCredentials):
			outcome = metrics.OutcomeRejected
		case errors.Is(err, account.ErrNotApproved):
			outcome = metrics.OutcomeNotAllowed
		}
		h.metrics.Logins.WithLabelValues(outcome).Inc()
		h.fail(w, r, op, err, "/login")
		return
	}

	h.metrics.Logins.WithLabelValues(metrics.OutcomeOK).Inc()
	session.FromContext(r.Context()).Login(u.ID, u.Username)
	h.logger(r, op).Info("user logged in", slog.Int64("user_id", u.ID))
	redirect(w, r, "/admin/agendamentos")
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	s.Clear()
	s.AddFlash(session.Info, "you have been signed out")
	redirect(w, r, "/login")
}
