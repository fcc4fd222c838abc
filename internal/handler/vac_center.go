package handler

import (
	"github.com/deppfellow/vacq/internal/model"
	"github.com/deppfellow/vacq/internal/server"
	"github.com/deppfellow/vacq/internal/service"
	"github.com/labstack/echo/v4"
)

type VacCenterHandler struct {
	Handler
	vacCenters *service.VacCenterService
}

func NewVacCenterHandler(s *server.Server, vacCenters *service.VacCenterService) *VacCenterHandler {
	return &VacCenterHandler{
		Handler:    NewHandler(s),
		vacCenters: vacCenters,
	}
}

// ListVacCenters responds with the bare array of centers, no envelope.
func (h *VacCenterHandler) ListVacCenters(c echo.Context, _ *model.EmptyRequest) ([]model.VaccineCenter, error) {
	return h.vacCenters.List(c.Request().Context())
}
