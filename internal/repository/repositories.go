package repository

import (
	"github.com/deppfellow/vacq/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Hospitals    *HospitalRepository
	Appointments *AppointmentRepository
	VacCenters   *VacCenterRepository
}

// NewRepositories builds every repository on the shared pool.
func NewRepositories(s *server.Server) *Repositories {
	pool := s.DB.Pool

	return &Repositories{
		Hospitals:    NewHospitalRepository(pool),
		Appointments: NewAppointmentRepository(pool),
		VacCenters:   NewVacCenterRepository(pool),
	}
}
