// Package handler is the HTTP surface: routing, form parsing, page rendering
// and the redirect-plus-flash responses the site uses for every outcome.
package handler

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clinic-booking/internal/account"
	"clinic-booking/internal/booking"
	"clinic-booking/internal/metrics"
	mw "clinic-booking/internal/middleware"
	"clinic-booking/internal/model"
	"clinic-booking/internal/session"
)

type Bookings interface {
	Book(ctx context.Context, req booking.Request) (*model.Appointment, error)
	List(ctx context.Context) ([]model.Appointment, error)
	Get(ctx context.Context, id int64) (*model.Appointment, error)
	Edit(ctx context.Context, id int64, req booking.EditRequest) error
	Delete(ctx context.Context, id int64) error
}

type Accounts interface {
	Register(ctx context.Context, in account.RegisterInput) (*model.User, error)
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
	Approve(ctx context.Context, id int64) error
	Delete(ctx context.Context, actorID, id int64) error
	Pending(ctx context.Context) ([]model.User, error)
	Active(ctx context.Context) ([]model.User, error)
}

type Database interface {
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
}

// Deps is everything the router needs. Limiter may be nil to disable
// per-IP throttling.
type Deps struct {
	Log      *slog.Logger
	Bookings Bookings
	Accounts Accounts
	DB       Database
	Sessions *session.Manager
	Limiter  *mw.RateLimiter
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	// InitDBEndpoint mounts GET /init-db. Off by default: schema changes
	// normally run at startup or out-of-band.
	InitDBEndpoint bool

	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Only safe behind a proxy that overwrites those headers.
	TrustProxy bool
}

type Handler struct {
	log      *slog.Logger
	bookings Bookings
	accounts Accounts
	db       Database
	sessions *session.Manager
	limiter  *mw.RateLimiter
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	initDB   bool
	proxied  bool
	pages    map[string]*template.Template
	static   fs.FS
}

func New(d Deps) (*Handler, error) {
	const op = "handler.New"

	pages, err := parsePages()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	static, err := fs.Sub(assets, "static")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Handler{
		log:      d.Log,
		bookings: d.Bookings,
		accounts: d.Accounts,
		db:       d.DB,
		sessions: d.Sessions,
		limiter:  d.Limiter,
		metrics:  d.Metrics,
		gatherer: d.Gatherer,
		initDB:   d.InitDBEndpoint,
		proxied:  d.TrustProxy,
		pages:    pages,
		static:   static,
	}, nil
}

// Routes builds the router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if h.proxied {
		r.Use(middleware.RealIP)
	}
	r.Use(
		mw.Logger(h.log),
		mw.Recover(h.log, http.HandlerFunc(h.internalError)),
		mw.Metrics(h.metrics),
	)

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(h.static))))
	r.Get("/healthz", h.healthz)
	r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	if h.initDB {
		r.Get("/init-db", h.initDatabase)
	}

	r.Group(func(r chi.Router) {
		r.Use(h.sessions.LoadAndSave)

		limited := r
		if h.limiter != nil {
			limited = r.With(mw.RateLimit(h.limiter, h.log, h.metrics))
		}

		r.Get("/", h.page("index.html", nil))
		r.Get("/servicos", h.page("servicos.html", model.Treatments))
		r.Get("/contato", h.page("contato.html", nil))
		r.Get("/agendamento", h.bookingForm)
		limited.Post("/agendamento", h.book)
		r.Get("/confirmacao", h.confirmation)

		r.Get("/register", h.page("register.html", nil))
		limited.Post("/register", h.register)
		r.Get("/login", h.page("login.html", nil))
		limited.Post("/login", h.login)

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireSession)

			r.Get("/logout", h.logout)
			r.Route("/admin", func(r chi.Router) {
				r.Get("/agendamentos", h.listAppointments)
				r.Get("/edit/{id:[0-9]+}", h.editForm)
				r.Post("/edit/{id:[0-9]+}", h.editAppointment)
				r.Post("/delete/{id:[0-9]+}", h.deleteAppointment)

				r.Get("/usuarios", h.listUsers)
				r.Post("/approve_user/{id:[0-9]+}", h.approveUser)
				r.Post("/delete_user/{id:[0-9]+}", h.deleteUser)
			})
		})
	})

	return r
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}
