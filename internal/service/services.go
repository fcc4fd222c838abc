// Package service contains the business logic.
//
// It sits between the handler and repository layers.
// It receives validated data from the handler, performs
// business operations, and calls repository methods to interact
// with the data.
package service

import (
	"context"

	"github.com/deppfellow/vacq/internal/lib/job"
	"github.com/deppfellow/vacq/internal/model"
	"github.com/deppfellow/vacq/internal/query"
	"github.com/deppfellow/vacq/internal/repository"
	"github.com/deppfellow/vacq/internal/server"
)

// HospitalRepository persists hospitals.
type HospitalRepository interface {
	List(ctx context.Context, spec *query.Spec) ([]model.Hospital, int, error)
	GetByID(ctx context.Context, id string) (*model.Hospital, error)
	Create(ctx context.Context, h *model.Hospital) (*model.Hospital, error)
	Update(ctx context.Context, id string, apply func(*model.Hospital) error) (*model.Hospital, error)
	Delete(ctx context.Context, id string) error
}

// AppointmentRepository persists appointments.
type AppointmentRepository interface {
	List(ctx context.Context, f repository.AppointmentFilter) ([]model.Appointment, error)
	GetByID(ctx context.Context, id string) (*model.Appointment, error)
	Create(ctx context.Context, a *model.Appointment, maxPerUser int) (*model.Appointment, error)
	Update(ctx context.Context, id string, apply func(*model.Appointment) error) (*model.Appointment, error)
	Delete(ctx context.Context, id string, check func(*model.Appointment) error) error
}

// VacCenterRepository reads vaccine centers.
type VacCenterRepository interface {
	List(ctx context.Context) ([]model.VaccineCenter, error)
}

// ConfirmationQueue schedules appointment confirmation emails.
type ConfirmationQueue interface {
	EnqueueAppointmentConfirmation(ctx context.Context, p job.AppointmentConfirmationPayload) error
}

// Stores groups the persistence dependencies of the services.
type Stores struct {
	Hospitals    HospitalRepository
	Appointments AppointmentRepository
	VacCenters   VacCenterRepository
}

// StoresFrom exposes the database repositories as Stores.
func StoresFrom(repos *repository.Repositories) Stores {
	return Stores{
		Hospitals:    repos.Hospitals,
		Appointments: repos.Appointments,
		VacCenters:   repos.VacCenters,
	}
}

type Services struct {
	Auth         *AuthService
	Job          *job.JobService
	Hospitals    *HospitalService
	Appointments *AppointmentService
	VacCenters   *VacCenterService
}

// NewServices wires every service. Confirmation emails are only offered when
// the server has a job service.
func NewServices(s *server.Server, stores Stores) (*Services, error) {
	var queue ConfirmationQueue
	if s.Job != nil {
		queue = s.Job
	}

	return &Services{
		Auth:         NewAuthService(s),
		Job:          s.Job,
		Hospitals:    NewHospitalService(s, stores.Hospitals),
		Appointments: NewAppointmentService(s, stores.Appointments, stores.Hospitals, queue),
		VacCenters:   NewVacCenterService(s, stores.VacCenters),
	}, nil
}
