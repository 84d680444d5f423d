package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"clinic-booking/internal/lib/validate"
	"clinic-booking/internal/model"
)

// EditRequest carries the fields an administrator may change. The body part
// and creation time of an appointment are fixed once booked.
type EditRequest struct {
	Name      string `form:"nome" validate:"required,max=100"`
	Email     string `form:"email" validate:"required,max=100"`
	Telephone string `form:"telefone" validate:"max=20"`
	Treatment string `form:"tratamento" validate:"required,max=100"`
	Date      string `form:"data" validate:"required,isodate"`
	Time      string `form:"horario" validate:"required,clock"`
}

// List returns every appointment, newest date first and earliest time first
// within a day.
func (s *Service) List(ctx context.Context) ([]model.Appointment, error) {
	const op = "booking.List"
	out, err := s.repo.ListAppointments(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*model.Appointment, error) {
	const op = "booking.Get"
	a, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}

// Edit rewrites an appointment. Moving it onto an occupied slot fails with
// *SlotTakenError just like a new booking would.
func (s *Service) Edit(ctx context.Context, id int64, req EditRequest) error {
	const op = "booking.Edit"

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Telephone = strings.TrimSpace(req.Telephone)
	req.Treatment = strings.TrimSpace(req.Treatment)
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	if err := s.validate.Struct(req); err != nil {
		return &ValidationError{Messages: validate.Messages(err)}
	}
	clock, _ := validate.ParseClock(req.Time)

	a := &model.Appointment{
		ID:        id,
		Name:      req.Name,
		Email:     req.Email,
		Telephone: req.Telephone,
		Treatment: req.Treatment,
		Date:      req.Date,
		Time:      clock,
	}
	if err := s.repo.UpdateAppointment(ctx, a); err != nil {
		if errors.Is(err, model.ErrSlotTaken) {
			return &SlotTakenError{Date: a.Date, Time: a.Time}
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("appointment updated", slog.Int64("id", id))
	return nil
}

// Delete is idempotent.
func (s *Service) Delete(ctx context.Context, id int64) error {
	const op = "booking.Delete"
	if err := s.repo.DeleteAppointment(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("appointment deleted", slog.Int64("id", id))
	return nil
}
