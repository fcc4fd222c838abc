package handler

import (
	"github.com/deppfellow/vacq/internal/model"
	"github.com/deppfellow/vacq/internal/server"
	"github.com/deppfellow/vacq/internal/service"
	"github.com/labstack/echo/v4"
)

type HospitalHandler struct {
	Handler
	hospitals *service.HospitalService
}

func NewHospitalHandler(s *server.Server, hospitals *service.HospitalService) *HospitalHandler {
	return &HospitalHandler{
		Handler:   NewHandler(s),
		hospitals: hospitals,
	}
}

// ListHospitals serves GET /hospitals. Filters, select, sort, page and
// limit are read from the raw query string.
func (h *HospitalHandler) ListHospitals(c echo.Context, _ *model.EmptyRequest) (HospitalListResponse, error) {
	page, err := h.hospitals.List(c.Request().Context(), c.QueryParams())
	if err != nil {
		return HospitalListResponse{}, err
	}

	return HospitalListResponse{
		Success:    true,
		Count:      page.Count,
		Pagination: page.Pagination,
		Data:       page.Data,
	}, nil
}

func (h *HospitalHandler) GetHospital(c echo.Context, req *model.HospitalIDRequest) (DataResponse[*model.Hospital], error) {
	hospital, err := h.hospitals.Get(c.Request().Context(), req.ID)
	if err != nil {
		return DataResponse[*model.Hospital]{}, err
	}
	return ok(hospital), nil
}

func (h *HospitalHandler) CreateHospital(c echo.Context, req *model.CreateHospitalRequest) (DataResponse[*model.Hospital], error) {
	hospital, err := h.hospitals.Create(c.Request().Context(), req)
	if err != nil {
		return DataResponse[*model.Hospital]{}, err
	}
	return ok(hospital), nil
}

func (h *HospitalHandler) UpdateHospital(c echo.Context, req *model.UpdateHospitalRequest) (DataResponse[*model.Hospital], error) {
	hospital, err := h.hospitals.Update(c.Request().Context(), req)
	if err != nil {
		return DataResponse[*model.Hospital]{}, err
	}
	return ok(hospital), nil
}

func (h *HospitalHandler) DeleteHospital(c echo.Context, req *model.HospitalIDRequest) (DataResponse[empty], error) {
	if err := h.hospitals.Delete(c.Request().Context(), req.ID); err != nil {
		return DataResponse[empty]{}, err
	}
	return ok(empty{}), nil
}
