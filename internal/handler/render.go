package handler

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"

	"clinic-booking/internal/account"
	"clinic-booking/internal/booking"
	"clinic-booking/internal/lib/sl"
	"clinic-booking/internal/model"
	"clinic-booking/internal/session"
)

//go:embed templates/*.html static/*
var assets embed.FS

const (
	msgUnavailable = "connection error, please try again later"
	msgDuplicate   = "email or username already registered"
	msgNotFound    = "appointment not found"
)

// view is what every page template receives.
type view struct {
	Flashes  []session.Flash
	LoggedIn bool
	Username string
	Data     any
}

func parsePages() (map[string]*template.Template, error) {
	files, err := fs.Glob(assets, "templates/*.html")
	if err != nil {
		return nil, err
	}
	pages := make(map[string]*template.Template, len(files))
	for _, f := range files {
		name := path.Base(f)
		if name == "base.html" {
			continue
		}
		t, err := template.New(name).ParseFS(assets, "templates/base.html", f)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

// render executes a page into a buffer first so a template error never
// leaves a half-written response. Pending flashes are consumed here.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	t, ok := h.pages[name]
	if !ok {
		h.log.Error("unknown template", "name", name)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	v := view{Data: data}
	if s := session.FromContext(r.Context()); s != nil {
		v.Flashes = s.PopFlashes()
		v.LoggedIn = s.Authenticated()
		v.Username = s.Username()
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", v); err != nil {
		h.log.Error("failed to render page", "name", name, sl.Err(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) page(name string, data any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.render(w, r, http.StatusOK, name, data)
	}
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	h.render(w, r, status, "error.html", msg)
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusInternalServerError, msgUnavailable)
}

func flash(r *http.Request, category, msg string) {
	if s := session.FromContext(r.Context()); s != nil {
		s.AddFlash(category, msg)
	}
}

func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusFound)
}

// fail turns a service error into flashes and a redirect back to to.
// Unexpected errors are logged and shown as a connection problem.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error, to string) {
	var (
		bookingInvalid *booking.ValidationError
		accountInvalid *account.ValidationError
		slotTaken      *booking.SlotTakenError
	)
	switch {
	case errors.As(err, &bookingInvalid):
		for _, m := range bookingInvalid.Messages {
			flash(r, session.Danger, m)
		}
	case errors.As(err, &accountInvalid):
		for _, m := range accountInvalid.Messages {
			flash(r, session.Danger, m)
		}
	case errors.As(err, &slotTaken):
		flash(r, session.Danger, slotTaken.Error())
	case errors.Is(err, model.ErrDuplicateUser):
		flash(r, session.Danger, msgDuplicate)
	case errors.Is(err, account.ErrBadCredentials):
		flash(r, session.Danger, account.ErrBadCredentials.Error())
	case errors.Is(err, account.ErrNotApproved):
		flash(r, session.Warning, account.ErrNotApproved.Error())
	case errors.Is(err, account.ErrSelfDelete):
		flash(r, session.Danger, account.ErrSelfDelete.Error())
	case errors.Is(err, model.ErrNotFound):
		flash(r, session.Danger, msgNotFound)
	default:
		h.logger(r, op).Error("request failed", sl.Err(err))
		flash(r, session.Danger, msgUnavailable)
	}
	redirect(w, r, to)
}
