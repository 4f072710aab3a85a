package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/recall-agent/recall/internal/core"
)

const appointmentSchema = `
{
  "type": "object",
  "properties": {
    "operation": { "type": "string", "enum": ["book", "cancel", "reschedule", "view"], "description": "Operation type" },
    "user_email": { "type": "string", "description": "User's email address" },
    "user_name": { "type": "string", "description": "User's name (required for booking)" },
    "date": { "type": "string", "description": "Date in YYYY-MM-DD format (required for booking/rescheduling)" },
    "time": { "type": "string", "description": "Time in HH:MM format (required for booking/rescheduling)" },
    "service_type": { "type": "string", "description": "Type of service (required for booking)" },
    "provider": { "type": "string", "description": "Provider name (optional)" },
    "appointment_id": { "type": "string", "description": "Appointment ID (required for cancel/reschedule)" },
    "status_filter": { "type": "string", "description": "Status filter for viewing appointments (optional)" }
  },
  "required": ["operation", "user_email"]
}
`

type appointmentInput struct {
	Operation     string `json:"operation"`
	UserEmail     string `json:"user_email"`
	UserName      string `json:"user_name"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	ServiceType   string `json:"service_type"`
	Provider      string `json:"provider"`
	AppointmentID string `json:"appointment_id"`
	StatusFilter  string `json:"status_filter"`
}

// requiredFields names what each operation needs beyond user_email, in the
// wording shown to the model when something is missing.
var requiredFields = map[string][]struct{ field, label string }{
	"book": {
		{"user_name", "name"},
		{"date", "date"},
		{"time", "time"},
		{"service_type", "service type"},
	},
	"cancel": {
		{"appointment_id", "appointment ID"},
	},
	"reschedule": {
		{"appointment_id", "appointment ID"},
		{"date", "new date"},
		{"time", "new time"},
	},
	"view": {},
}

// AppointmentManagement books, cancels, reschedules, and lists
// appointments. Validation errors come back as tool output so the model can
// ask the user for the missing pieces.
type AppointmentManagement struct {
	repo core.AppointmentRepository
}

func NewAppointmentManagement(repo core.AppointmentRepository) *AppointmentManagement {
	return &AppointmentManagement{repo: repo}
}

func (a *AppointmentManagement) Manage(ctx context.Context, args json.RawMessage) (string, error) {
	var input appointmentInput
	if err := json.Unmarshal(args, &input); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}

	if input.UserEmail == "" {
		return "To manage appointments, I need the user's email address.", nil
	}

	required, ok := requiredFields[input.Operation]
	if !ok {
		return fmt.Sprintf("Unknown operation: %s. Supported operations: book, cancel, reschedule, view", input.Operation), nil
	}
	if missing := missingFields(input, required); len(missing) > 0 {
		return fmt.Sprintf("To %s your appointment, I need: %s", input.Operation, strings.Join(missing, ", ")), nil
	}

	switch input.Operation {
	case "book":
		return a.book(ctx, input)
	case "cancel":
		return a.cancel(ctx, input)
	case "reschedule":
		return a.reschedule(ctx, input)
	default:
		return a.view(ctx, input)
	}
}

func missingFields(input appointmentInput, required []struct{ field, label string }) []string {
	values := map[string]string{
		"user_name":      input.UserName,
		"date":           input.Date,
		"time":           input.Time,
		"service_type":   input.ServiceType,
		"appointment_id": input.AppointmentID,
	}

	var missing []string
	for _, r := range required {
		if values[r.field] == "" {
			missing = append(missing, r.label)
		}
	}
	return missing
}

func (a *AppointmentManagement) book(ctx context.Context, input appointmentInput) (string, error) {
	taken, err := a.repo.SlotTaken(ctx, input.Date, input.Time, input.Provider)
	if err != nil {
		return "", fmt.Errorf("check availability: %w", err)
	}
	if taken {
		return fmt.Sprintf("Unfortunately, %s at %s is not available. Please choose a different time.", input.Date, input.Time), nil
	}

	id, err := a.repo.Book(ctx, core.Appointment{
		UserEmail:   input.UserEmail,
		UserName:    input.UserName,
		Date:        input.Date,
		Time:        input.Time,
		ServiceType: input.ServiceType,
		Provider:    input.Provider,
	})
	if err != nil {
		return "", fmt.Errorf("book appointment: %w", err)
	}

	providerInfo := ""
	if input.Provider != "" {
		providerInfo = " with " + input.Provider
	}
	return fmt.Sprintf("Appointment booked successfully!\n\nDetails:\n- Date: %s\n- Time: %s\n- Service: %s%s\n- Confirmation ID: %s",
		input.Date, input.Time, input.ServiceType, providerInfo, shortID(id)), nil
}

func (a *AppointmentManagement) cancel(ctx context.Context, input appointmentInput) (string, error) {
	if err := a.repo.Cancel(ctx, input.UserEmail, input.AppointmentID); err != nil {
		return fmt.Sprintf("Could not cancel appointment %s. Please check the ID and try again.", shortID(input.AppointmentID)), nil
	}
	return fmt.Sprintf("Appointment %s has been cancelled successfully.", shortID(input.AppointmentID)), nil
}

func (a *AppointmentManagement) reschedule(ctx context.Context, input appointmentInput) (string, error) {
	taken, err := a.repo.SlotTaken(ctx, input.Date, input.Time, input.Provider)
	if err != nil {
		return "", fmt.Errorf("check availability: %w", err)
	}
	if taken {
		return fmt.Sprintf("Unfortunately, %s at %s is not available. Please choose a different time.", input.Date, input.Time), nil
	}

	if err := a.repo.Reschedule(ctx, input.UserEmail, input.AppointmentID, input.Date, input.Time); err != nil {
		return fmt.Sprintf("Could not reschedule appointment %s. Please check the ID and try again.", shortID(input.AppointmentID)), nil
	}
	return fmt.Sprintf("Appointment %s has been rescheduled to %s at %s.", shortID(input.AppointmentID), input.Date, input.Time), nil
}

func (a *AppointmentManagement) view(ctx context.Context, input appointmentInput) (string, error) {
	appts, err := a.repo.UserAppointments(ctx, input.UserEmail, input.StatusFilter, 10)
	if err != nil {
		return "", fmt.Errorf("list appointments: %w", err)
	}
	if len(appts) == 0 {
		statusDesc := ""
		if input.StatusFilter != "" {
			statusDesc = " " + input.StatusFilter
		}
		return fmt.Sprintf("No%s appointments found for your account.", statusDesc), nil
	}

	var b strings.Builder
	b.WriteString("YOUR APPOINTMENTS:")
	for i, appt := range appts {
		fmt.Fprintf(&b, "\n\n%d. %s at %s\n   Service: %s\n   Provider: %s\n   Status: %s\n   ID: %s",
			i+1, appt.Date, appt.Time, appt.ServiceType, appt.Provider, appt.Status, shortID(appt.ID))
	}
	return b.String(), nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (a *AppointmentManagement) GetDefinitions() map[string]Definition {
	return map[string]Definition{
		"appointment_management": {
			Description: "Manage appointments: book new appointments, cancel existing ones, reschedule, and view user appointments. Always provide user_email.",
			Schema:      appointmentSchema,
			Handler:     a.Manage,
		},
	}
}
