package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recall-agent/recall/internal/core"
)

type stubAppointments struct {
	booked    []core.Appointment
	cancelled []string
	taken     bool
	appts     []core.Appointment
	err       error
}

func (s *stubAppointments) Book(_ context.Context, appt core.Appointment) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.booked = append(s.booked, appt)
	return "7c2f1a9e-0000-0000-0000-000000000000", nil
}

func (s *stubAppointments) Cancel(_ context.Context, _, id string) error {
	if s.err != nil {
		return s.err
	}
	s.cancelled = append(s.cancelled, id)
	return nil
}

func (s *stubAppointments) Reschedule(_ context.Context, _, _, _, _ string) error {
	return s.err
}

func (s *stubAppointments) UserAppointments(_ context.Context, _, _ string, _ int) ([]core.Appointment, error) {
	return s.appts, s.err
}

func (s *stubAppointments) SlotTaken(_ context.Context, _, _, _ string) (bool, error) {
	return s.taken, nil
}

func TestBookAppointment(t *testing.T) {
	repo := &stubAppointments{}
	tool := NewAppointmentManagement(repo)

	out, err := tool.Manage(context.Background(), json.RawMessage(`{
		"operation": "book", "user_email": "a@b.com", "user_name": "Alice",
		"date": "2026-09-01", "time": "10:00", "service_type": "consultation"
	}`))
	require.NoError(t, err)

	assert.Contains(t, out, "Appointment booked successfully!")
	assert.Contains(t, out, "Confirmation ID: 7c2f1a9e")
	require.Len(t, repo.booked, 1)
	assert.Equal(t, "consultation", repo.booked[0].ServiceType)
}

func TestBookRejectsTakenSlot(t *testing.T) {
	tool := NewAppointmentManagement(&stubAppointments{taken: true})

	out, err := tool.Manage(context.Background(), json.RawMessage(`{
		"operation": "book", "user_email": "a@b.com", "user_name": "Alice",
		"date": "2026-09-01", "time": "10:00", "service_type": "consultation"
	}`))
	require.NoError(t, err)
	assert.Contains(t, out, "is not available")
}

func TestBookMissingFields(t *testing.T) {
	tool := NewAppointmentManagement(&stubAppointments{})

	out, err := tool.Manage(context.Background(), json.RawMessage(`{
		"operation": "book", "user_email": "a@b.com"
	}`))
	require.NoError(t, err)
	assert.Equal(t, "To book your appointment, I need: name, date, time, service type", out)
}

func TestCancelUnknownAppointment(t *testing.T) {
	tool := NewAppointmentManagement(&stubAppointments{err: errors.New("not found")})

	out, err := tool.Manage(context.Background(), json.RawMessage(`{
		"operation": "cancel", "user_email": "a@b.com", "appointment_id": "deadbeef-1234"
	}`))
	require.NoError(t, err)
	assert.Contains(t, out, "Could not cancel appointment deadbeef")
}

func TestViewAppointments(t *testing.T) {
	tool := NewAppointmentManagement(&stubAppointments{appts: []core.Appointment{
		{ID: "7c2f1a9e-x", Date: "2026-09-01", Time: "10:00", ServiceType: "consultation", Provider: "Dr. Lee", Status: "booked"},
	}})

	out, err := tool.Manage(context.Background(), json.RawMessage(`{
		"operation": "view", "user_email": "a@b.com"
	}`))
	require.NoError(t, err)
	assert.Contains(t, out, "YOUR APPOINTMENTS:")
	assert.Contains(t, out, "1. 2026-09-01 at 10:00")
	assert.Contains(t, out, "Provider: Dr. Lee")
}

func TestUnknownOperation(t *testing.T) {
	tool := NewAppointmentManagement(&stubAppointments{})

	out, err := tool.Manage(context.Background(), json.RawMessage(`{
		"operation": "teleport", "user_email": "a@b.com"
	}`))
	require.NoError(t, err)
	assert.Contains(t, out, "Unknown operation: teleport")
}
