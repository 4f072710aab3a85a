package core

import (
	"context"
	"time"
)

// Product is a catalog entry served by the product search tool.
type Product struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Price        float64 `json:"price"`
	Description  string  `json:"description"`
	Availability string  `json:"availability"`
	Quantity     int     `json:"quantity"`
}

// ProductFilter narrows a catalog search. Zero-valued fields are ignored.
type ProductFilter struct {
	Text         string
	Category     string
	MinPrice     float64
	MaxPrice     float64
	HasMinPrice  bool
	HasMaxPrice  bool
	Availability string
}

type ProductRepository interface {
	Search(ctx context.Context, filter ProductFilter, limit int) ([]Product, error)
}

// Appointment is one scheduled slot for a user.
type Appointment struct {
	ID          string    `json:"id"`
	UserEmail   string    `json:"user_email"`
	UserName    string    `json:"user_name"`
	Date        string    `json:"date"` // YYYY-MM-DD
	Time        string    `json:"time"` // HH:MM
	ServiceType string    `json:"service_type"`
	Provider    string    `json:"provider"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

const (
	AppointmentBooked    = "booked"
	AppointmentCancelled = "cancelled"
)

type AppointmentRepository interface {
	Book(ctx context.Context, appt Appointment) (string, error)
	Cancel(ctx context.Context, userEmail, appointmentID string) error
	Reschedule(ctx context.Context, userEmail, appointmentID, date, timeOfDay string) error
	UserAppointments(ctx context.Context, userEmail, statusFilter string, limit int) ([]Appointment, error)
	SlotTaken(ctx context.Context, date, timeOfDay, provider string) (bool, error)
}
