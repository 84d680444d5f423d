package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi"

	"clinic-booking/internal/booking"
	"clinic-booking/internal/lib/sl"
	"clinic-booking/internal/metrics"
	"clinic-booking/internal/model"
	"clinic-booking/internal/session"
)

type bookingPage struct {
	Treatments []string
}

type confirmationPage struct {
	Name      string
	Treatment string
	Date      string
	Time      string
}

type editPage struct {
	Appointment *model.Appointment
	Treatments  []string
}

func (h *Handler) bookingForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "agendamento.html", bookingPage{Treatments: model.Treatments})
}

func bookingRequest(r *http.Request) booking.Request {
	return booking.Request{
		Name:      r.PostFormValue("nome"),
		Email:     r.PostFormValue("email"),
		Telephone: r.PostFormValue("telefone"),
		Treatment: r.PostFormValue("tratamento"),
		BodyPart:  r.PostFormValue("parte_corpo"),
		Date:      r.PostFormValue("data"),
		Time:      r.PostFormValue("horario"),
	}
}

func editRequest(r *http.Request) booking.EditRequest {
	return booking.EditRequest{
		Name:      r.PostFormValue("nome"),
		Email:     r.PostFormValue("email"),
		Telephone: r.PostFormValue("telefone"),
		Treatment: r.PostFormValue("tratamento"),
		Date:      r.PostFormValue("data"),
		Time:      r.PostFormValue("horario"),
	}
}

func (h *Handler) book(w http.ResponseWriter, r *http.Request) {
	const op = "handler.book"

	a, err := h.bookings.Book(r.Context(), bookingRequest(r))
	if err != nil {
		h.countBooking(err)
		h.fail(w, r, op, err, "/agendamento")
		return
	}
	h.countBooking(nil)
	redirect(w, r, confirmationURL(a))
}

func (h *Handler) countBooking(err error) {
	var (
		invalid *booking.ValidationError
		outcome = metrics.OutcomeOK
	)
	switch {
	case err == nil:
	case errors.As(err, &invalid):
		outcome = metrics.OutcomeInvalid
	case errors.Is(err, model.ErrSlotTaken):
		outcome = metrics.OutcomeSlotTaken
	default:
		outcome = metrics.OutcomeError
	}
	h.metrics.Bookings.WithLabelValues(outcome).Inc()
}

// confirmationURL keeps the parameter order stable and encodes spaces as
// %20 rather than '+'.
func confirmationURL(a *model.Appointment) string {
	var b strings.Builder
	b.WriteString("/confirmacao?")
	for i, kv := range [][2]string{
		{"nome", a.Name},
		{"tratamento", a.Treatment},
		{"data", a.Date},
		{"horario", a.Time},
	} {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(kv[0])
		b.WriteByte('=')
		b.WriteString(queryEscape(kv[1]))
	}
	return b.String()
}

func queryEscape(s string) string {
	s = url.QueryEscape(s)
	s = strings.ReplaceAll(s, "+", "%20")
	return strings.ReplaceAll(s, "%3A", ":")
}

func (h *Handler) confirmation(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.render(w, r, http.StatusOK, "confirmacao.html", confirmationPage{
		Name:      q.Get("nome"),
		Treatment: q.Get("tratamento"),
		Date:      booking.FormatDate(q.Get("data")),
		Time:      q.Get("horario"),
	})
}

func (h *Handler) listAppointments(w http.ResponseWriter, r *http.Request) {
	const op = "handler.listAppointments"

	list, err := h.bookings.List(r.Context())
	if err != nil {
		h.logger(r, op).Error("failed to list appointments", sl.Err(err))
		h.renderError(w, r, http.StatusInternalServerError, msgUnavailable)
		return
	}
	h.render(w, r, http.StatusOK, "admin.html", list)
}

func (h *Handler) editForm(w http.ResponseWriter, r *http.Request) {
	const op = "handler.editForm"

	id, _ := pathID(r)
	a, err := h.bookings.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, op, err, "/admin/agendamentos")
		return
	}
	h.render(w, r, http.StatusOK, "edit_agendamento.html", editPage{Appointment: a, Treatments: model.Treatments})
}

func (h *Handler) editAppointment(w http.ResponseWriter, r *http.Request) {
	const op = "handler.editAppointment"

	id, raw := pathID(r)
	err := h.bookings.Edit(r.Context(), id, editRequest(r))
	switch {
	case err == nil:
		flash(r, session.Success, "appointment updated")
		redirect(w, r, "/admin/agendamentos")
	case errors.Is(err, model.ErrNotFound):
		h.fail(w, r, op, err, "/admin/agendamentos")
	default:
		h.fail(w, r, op, err, "/admin/edit/"+raw)
	}
}

func (h *Handler) deleteAppointment(w http.ResponseWriter, r *http.Request) {
	const op = "handler.deleteAppointment"

	id, _ := pathID(r)
	if err := h.bookings.Delete(r.Context(), id); err != nil {
		h.fail(w, r, op, err, "/admin/agendamentos")
		return
	}
	flash(r, session.Info, "appointment deleted")
	redirect(w, r, "/admin/agendamentos")
}

// pathID reads the {id} parameter. Routes constrain it to digits, so the
// only parse failure is overflow, which maps to an id that cannot exist.
func pathID(r *http.Request) (int64, string) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, raw
	}
	return id, raw
}
