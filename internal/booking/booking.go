// Package booking takes appointment requests and keeps the slot rule: at
// most one appointment per (date, time). The rule itself is enforced by the
// repository in a single atomic insert; this package validates input and
// turns a conflict into a message the client can show.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator"

	"clinic-booking/internal/lib/validate"
	"clinic-booking/internal/model"
)

const (
	isoDate     = "2006-01-02"
	displayDate = "02/01/2006"
)

type Repository interface {
	CreateAppointment(ctx context.Context, a *model.Appointment) error
	ListAppointments(ctx context.Context) ([]model.Appointment, error)
	GetAppointment(ctx context.Context, id int64) (*model.Appointment, error)
	UpdateAppointment(ctx context.Context, a *model.Appointment) error
	DeleteAppointment(ctx context.Context, id int64) error
}

// Request is a public booking submission.
type Request struct {
	Name      string `form:"nome" validate:"required,max=100"`
	Email     string `form:"email" validate:"required,max=100"`
	Telephone string `form:"telefone" validate:"max=20"`
	Treatment string `form:"tratamento" validate:"required,max=100"`
	BodyPart  string `form:"parte_corpo" validate:"max=100"`
	Date      string `form:"data" validate:"required,isodate"`
	Time      string `form:"horario" validate:"required,clock"`
}

type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string { return strings.Join(e.Messages, ", ") }

// SlotTakenError reports a booking that lost the slot. Date is ISO and Time
// is HH:MM.
type SlotTakenError struct {
	Date string
	Time string
}

func (e *SlotTakenError) Error() string {
	return fmt.Sprintf("the slot at %s on %s is already taken", e.Time, FormatDate(e.Date))
}

func (e *SlotTakenError) Unwrap() error { return model.ErrSlotTaken }

// FormatDate renders an ISO date as DD/MM/YYYY. It returns "invalid date"
// when iso does not parse.
func FormatDate(iso string) string {
	t, err := time.Parse(isoDate, iso)
	if err != nil {
		return "invalid date"
	}
	return t.Format(displayDate)
}

type Service struct {
	log      *slog.Logger
	repo     Repository
	validate *validator.Validate
}

func New(log *slog.Logger, repo Repository) *Service {
	return &Service{log: log, repo: repo, validate: validate.New()}
}

// Book validates req and stores it iff its slot is free. Concurrent calls for
// the same slot yield exactly one success; the rest get *SlotTakenError.
func (s *Service) Book(ctx context.Context, req Request) (*model.Appointment, error) {
	const op = "booking.Book"

	req.trim()
	if err := s.validate.Struct(req); err != nil {
		return nil, &ValidationError{Messages: validate.Messages(err)}
	}
	clock, _ := validate.ParseClock(req.Time)

	a := &model.Appointment{
		Name:      req.Name,
		Email:     req.Email,
		Telephone: req.Telephone,
		Treatment: req.Treatment,
		BodyPart:  req.BodyPart,
		Date:      req.Date,
		Time:      clock,
	}
	if err := s.repo.CreateAppointment(ctx, a); err != nil {
		if errors.Is(err, model.ErrSlotTaken) {
			return nil, &SlotTakenError{Date: a.Date, Time: a.Time}
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a.DateDisplay = FormatDate(a.Date)

	s.log.Info("appointment booked",
		slog.Int64("id", a.ID),
		slog.String("date", a.Date),
		slog.String("time", a.Time),
	)
	return a, nil
}

func (r *Request) trim() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Telephone = strings.TrimSpace(r.Telephone)
	r.Treatment = strings.TrimSpace(r.Treatment)
	r.BodyPart = strings.TrimSpace(r.BodyPart)
	r.Date = strings.TrimSpace(r.Date)
	r.Time = strings.TrimSpace(r.Time)
}
