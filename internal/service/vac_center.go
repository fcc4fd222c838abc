package service

import (
	"context"

	"github.com/deppfellow/vacq/internal/errs"
	"github.com/deppfellow/vacq/internal/model"
	"github.com/deppfellow/vacq/internal/server"
)

type VacCenterService struct {
	server *server.Server
	repo   VacCenterRepository
}

func NewVacCenterService(s *server.Server, repo VacCenterRepository) *VacCenterService {
	return &VacCenterService{
		server: s,
		repo:   repo,
	}
}

// List returns every vaccine center. Any failure is logged and reported as
// an opaque 500.
func (s *VacCenterService) List(ctx context.Context) ([]model.VaccineCenter, error) {
	centers, err := s.repo.List(ctx)
	if err != nil {
		s.server.Logger.Error().Err(err).Msg("failed to list vaccine centers")
		return nil, errs.NewInternalServerError()
	}

	if centers == nil {
		centers = []model.VaccineCenter{}
	}
	return centers, nil
}
