package service

import (
	"context"
	"errors"
	"net/url"

	"github.com/deppfellow/vacq/internal/errs"
	"github.com/deppfellow/vacq/internal/model"
	"github.com/deppfellow/vacq/internal/query"
	"github.com/deppfellow/vacq/internal/repository"
	"github.com/deppfellow/vacq/internal/server"
	"github.com/deppfellow/vacq/internal/validation"
)

type HospitalService struct {
	server *server.Server
	repo   HospitalRepository
}

func NewHospitalService(s *server.Server, repo HospitalRepository) *HospitalService {
	return &HospitalService{
		server: s,
		repo:   repo,
	}
}

// HospitalPage is one page of a hospital listing. Count is the number of
// documents in Data; Pagination is derived from the filtered total.
type HospitalPage struct {
	Count      int
	Total      int
	Pagination query.Pagination
	Data       []map[string]any
}

// List filters, sorts, projects and paginates hospitals from raw query
// parameters.
func (s *HospitalService) List(ctx context.Context, params url.Values) (*HospitalPage, error) {
	spec, err := query.Parse(params, model.HospitalSchema)
	if err != nil {
		return nil, err
	}

	hospitals, total, err := s.repo.List(ctx, spec)
	if err != nil {
		return nil, err
	}

	data := make([]map[string]any, 0, len(hospitals))
	for i := range hospitals {
		data = append(data, spec.Projection.Apply(hospitals[i].Document()))
	}

	return &HospitalPage{
		Count:      len(data),
		Total:      total,
		Pagination: spec.Pagination(total),
		Data:       data,
	}, nil
}

func (s *HospitalService) Get(ctx context.Context, id string) (*model.Hospital, error) {
	h, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, hospitalError(err)
	}
	return h, nil
}

func (s *HospitalService) Create(ctx context.Context, req *model.CreateHospitalRequest) (*model.Hospital, error) {
	h, err := s.repo.Create(ctx, req.Hospital())
	if err != nil {
		return nil, err
	}

	s.server.Logger.Info().
		Str("hospital_id", h.ID).
		Str("name", h.Name).
		Msg("hospital created")

	return h, nil
}

// Update applies the present fields of req and re-validates the merged
// record before it is written.
func (s *HospitalService) Update(ctx context.Context, req *model.UpdateHospitalRequest) (*model.Hospital, error) {
	h, err := s.repo.Update(ctx, req.ID, func(h *model.Hospital) error {
		req.ApplyTo(h)
		if err := h.Validate(); err != nil {
			return validation.ToHTTPError(err)
		}
		return nil
	})
	if err != nil {
		return nil, hospitalError(err)
	}
	return h, nil
}

// Delete removes the hospital together with its appointments.
func (s *HospitalService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return hospitalError(err)
	}

	s.server.Logger.Info().
		Str("hospital_id", id).
		Msg("hospital deleted")

	return nil
}

func hospitalError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return errs.NewNotFoundError("Hospital not found", true, nil)
	}
	return err
}
