package handler

import (
	"github.com/deppfellow/vacq/internal/server"
	"github.com/deppfellow/vacq/internal/service"
)

// Handlers groups all HTTP handlers so router setup passes one value around.
type Handlers struct {
	Health       *HealthHandler
	OpenAPI      *OpenAPIHandler
	Hospitals    *HospitalHandler
	Appointments *AppointmentHandler
	VacCenters   *VacCenterHandler
}

// NewHandlers constructs the handler container.
func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(s),
		OpenAPI:      NewOpenAPIHandler(s),
		Hospitals:    NewHospitalHandler(s, services.Hospitals),
		Appointments: NewAppointmentHandler(s, services.Appointments),
		VacCenters:   NewVacCenterHandler(s, services.VacCenters),
	}
}
