package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/recall-agent/recall/internal/core"
)

type AppointmentsRepo struct {
	db *sql.DB
}

func NewAppointmentsRepo(db *sql.DB) *AppointmentsRepo {
	return &AppointmentsRepo{db: db}
}

func (r *AppointmentsRepo) Book(ctx context.Context, appt core.Appointment) (string, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO appointments (id, user_email, user_name, date, time, service_type, provider, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, appt.UserEmail, appt.UserName, appt.Date, appt.Time, appt.ServiceType, appt.Provider, core.AppointmentBooked,
	)
	if err != nil {
		return "", fmt.Errorf("book appointment: %w", err)
	}
	return id, nil
}

func (r *AppointmentsRepo) Cancel(ctx context.Context, userEmail, appointmentID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE appointments SET status = ? WHERE id = ? AND user_email = ? AND status = ?`,
		core.AppointmentCancelled, appointmentID, userEmail, core.AppointmentBooked,
	)
	if err != nil {
		return fmt.Errorf("cancel appointment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("no booked appointment %s for %s", appointmentID, userEmail)
	}
	return nil
}

func (r *AppointmentsRepo) Reschedule(ctx context.Context, userEmail, appointmentID, date, timeOfDay string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE appointments SET date = ?, time = ? WHERE id = ? AND user_email = ? AND status = ?`,
		date, timeOfDay, appointmentID, userEmail, core.AppointmentBooked,
	)
	if err != nil {
		return fmt.Errorf("reschedule appointment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("no booked appointment %s for %s", appointmentID, userEmail)
	}
	return nil
}

func (r *AppointmentsRepo) UserAppointments(ctx context.Context, userEmail, statusFilter string, limit int) ([]core.Appointment, error) {
	query := `SELECT id, user_email, user_name, date, time, service_type, provider, status, created_at
		FROM appointments WHERE user_email = ?`
	args := []any{userEmail}

	if statusFilter != "" {
		query += ` AND status = ?`
		args = append(args, statusFilter)
	}

	query += ` ORDER BY date ASC, time ASC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var appts []core.Appointment
	for rows.Next() {
		var a core.Appointment
		if err := rows.Scan(&a.ID, &a.UserEmail, &a.UserName, &a.Date, &a.Time,
			&a.ServiceType, &a.Provider, &a.Status, &a.CreatedAt); err != nil {
			return nil, err
		}
		appts = append(appts, a)
	}
	return appts, rows.Err()
}

func (r *AppointmentsRepo) SlotTaken(ctx context.Context, date, timeOfDay, provider string) (bool, error) {
	query := `SELECT COUNT(*) FROM appointments WHERE date = ? AND time = ? AND status = ?`
	args := []any{date, timeOfDay, core.AppointmentBooked}

	if provider != "" {
		query += ` AND provider = ?`
		args = append(args, provider)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("check slot: %w", err)
	}
	return count > 0, nil
}
