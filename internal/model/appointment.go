package model

import (
	"time"

	"github.com/deppfellow/vacq/internal/validation"
)

// MaxAppointmentsPerUser caps bookings for callers without the admin role.
const MaxAppointmentsPerUser = 3

// Appointment is one vaccination booking at a hospital.
type Appointment struct {
	ID         string    `json:"id" db:"id"`
	ApptDate   time.Time `json:"apptDate" db:"appt_date"`
	User       string    `json:"user" db:"user_id"`
	HospitalID string    `json:"hospitalId" db:"hospital_id"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`

	// Hospital is populated by appointment listings and lookups.
	Hospital *HospitalSummary `json:"hospital,omitempty" db:"-"`
}

// HospitalSummary is the part of a hospital shown next to an appointment.
type HospitalSummary struct {
	ID       string `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Province string `json:"province" db:"province"`
	Tel      string `json:"tel" db:"tel"`
}

// ----------------------------------------------------------------------------
// Requests
// ----------------------------------------------------------------------------

// ListAppointmentsRequest lists appointments, optionally of one hospital.
type ListAppointmentsRequest struct {
	HospitalID string `param:"hospitalId" json:"-" validate:"omitempty,uuid"`
}

func (r *ListAppointmentsRequest) Validate() error {
	return validation.Struct(r)
}

// AppointmentIDRequest addresses a single appointment.
type AppointmentIDRequest struct {
	ID string `param:"id" json:"-" validate:"required,uuid"`
}

func (r *AppointmentIDRequest) Validate() error {
	return validation.Struct(r)
}

// CreateAppointmentRequest books an appointment at the hospital in the path.
// When NotifyEmail is set a confirmation is mailed in the background.
type CreateAppointmentRequest struct {
	HospitalID  string    `param:"hospitalId" json:"-" validate:"required,uuid"`
	ApptDate    time.Time `json:"apptDate" validate:"required"`
	NotifyEmail string    `json:"notifyEmail" validate:"omitempty,email"`
}

func (r *CreateAppointmentRequest) Validate() error {
	return validation.Struct(r)
}

func (r *CreateAppointmentRequest) Sanitize(clean func(string) string) {
	r.NotifyEmail = clean(r.NotifyEmail)
}

// UpdateAppointmentRequest reschedules an appointment.
type UpdateAppointmentRequest struct {
	ID       string     `param:"id" json:"-" validate:"required,uuid"`
	ApptDate *time.Time `json:"apptDate" validate:"required"`
}

func (r *UpdateAppointmentRequest) Validate() error {
	return validation.Struct(r)
}

// Actor is the authenticated caller of a request.
type Actor struct {
	UserID string
	Admin  bool
}

// Owns reports whether the actor booked the appointment.
func (a Actor) Owns(appt *Appointment) bool {
	return a.UserID != "" && appt.User == a.UserID
}

// CanManage reports whether the actor may change the appointment.
func (a Actor) CanManage(appt *Appointment) bool {
	return a.Admin || a.Owns(appt)
}
