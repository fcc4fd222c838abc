package handler

import (
	"github.com/deppfellow/vacq/internal/model"
	"github.com/deppfellow/vacq/internal/server"
	"github.com/deppfellow/vacq/internal/service"
	"github.com/labstack/echo/v4"
)

// AppointmentHandler serves the appointment routes. Every route runs behind
// RequireAuth, so the caller identity is always present.
type AppointmentHandler struct {
	Handler
	appointments *service.AppointmentService
}

func NewAppointmentHandler(s *server.Server, appointments *service.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{
		Handler:      NewHandler(s),
		appointments: appointments,
	}
}

// ListAppointments serves GET /appointments and
// GET /hospitals/:hospitalId/appointments.
func (h *AppointmentHandler) ListAppointments(c echo.Context, req *model.ListAppointmentsRequest) (AppointmentListResponse, error) {
	appts, err := h.appointments.List(c.Request().Context(), h.actor(c), req.HospitalID)
	if err != nil {
		return AppointmentListResponse{}, err
	}

	return AppointmentListResponse{
		Success: true,
		Count:   len(appts),
		Data:    appts,
	}, nil
}

func (h *AppointmentHandler) GetAppointment(c echo.Context, req *model.AppointmentIDRequest) (DataResponse[*model.Appointment], error) {
	appt, err := h.appointments.Get(c.Request().Context(), h.actor(c), req.ID)
	if err != nil {
		return DataResponse[*model.Appointment]{}, err
	}
	return ok(appt), nil
}

func (h *AppointmentHandler) CreateAppointment(c echo.Context, req *model.CreateAppointmentRequest) (DataResponse[*model.Appointment], error) {
	appt, err := h.appointments.Create(c.Request().Context(), h.actor(c), req)
	if err != nil {
		return DataResponse[*model.Appointment]{}, err
	}
	return ok(appt), nil
}

func (h *AppointmentHandler) UpdateAppointment(c echo.Context, req *model.UpdateAppointmentRequest) (DataResponse[*model.Appointment], error) {
	appt, err := h.appointments.Update(c.Request().Context(), h.actor(c), req)
	if err != nil {
		return DataResponse[*model.Appointment]{}, err
	}
	return ok(appt), nil
}

func (h *AppointmentHandler) DeleteAppointment(c echo.Context, req *model.AppointmentIDRequest) (DataResponse[empty], error) {
	if err := h.appointments.Delete(c.Request().Context(), h.actor(c), req.ID); err != nil {
		return DataResponse[empty]{}, err
	}
	return ok(empty{}), nil
}
