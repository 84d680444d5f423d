package store

import (
	"context"
	"fmt"

	"clinic-booking/internal/model"
)

const appointmentColumns = `id, name, email, COALESCE(telephone, ''), treatment, COALESCE(body_part, ''),
	to_char(date, 'YYYY-MM-DD'), to_char(time, 'HH24:MI'), to_char(date, 'DD/MM/YYYY'), created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row scanner, a *model.Appointment) error {
	return row.Scan(&a.ID, &a.Name, &a.Email, &a.Telephone, &a.Treatment, &a.BodyPart,
		&a.Date, &a.Time, &a.DateDisplay, &a.CreatedAt)
}

// CreateAppointment inserts the booking in one statement. The unique slot
// constraint rejects a second booking for the same date and time, so there
// is no separate read before the write.
func (s *Store) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO appointments (name, email, telephone, treatment, body_part, date, time)
		 VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), $6::date, $7::time)
		 RETURNING id, created_at`,
		a.Name, a.Email, a.Telephone, a.Treatment, a.BodyPart, a.Date, a.Time,
	).Scan(&a.ID, &a.CreatedAt)
	return classify("store.CreateAppointment", err)
}

func (s *Store) ListAppointments(ctx context.Context) ([]model.Appointment, error) {
	const op = "store.ListAppointments"
	rows, err := s.pool.Query(ctx,
		`SELECT `+appointmentColumns+`
		 FROM appointments
		 ORDER BY date DESC, time ASC`,
	)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		var a model.Appointment
		if err := scanAppointment(rows, &a); err != nil {
			return nil, classify(op, err)
		}
		out = append(out, a)
	}
	return out, classify(op, rows.Err())
}

func (s *Store) GetAppointment(ctx context.Context, id int64) (*model.Appointment, error) {
	a := &model.Appointment{}
	row := s.pool.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	if err := scanAppointment(row, a); err != nil {
		return nil, classify("store.GetAppointment", err)
	}
	return a, nil
}

// UpdateAppointment rewrites the editable fields. body_part and created_at
// are left untouched.
func (s *Store) UpdateAppointment(ctx context.Context, a *model.Appointment) error {
	const op = "store.UpdateAppointment"
	tag, err := s.pool.Exec(ctx,
		`UPDATE appointments
		 SET name=$1, email=$2, telephone=NULLIF($3, ''), treatment=$4, date=$5::date, time=$6::time
		 WHERE id=$7`,
		a.Name, a.Email, a.Telephone, a.Treatment, a.Date, a.Time, a.ID,
	)
	if err != nil {
		return classify(op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, model.ErrNotFound)
	}
	return nil
}

// DeleteAppointment is idempotent: deleting a missing id is not an error.
func (s *Store) DeleteAppointment(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	return classify("store.DeleteAppointment", err)
}
