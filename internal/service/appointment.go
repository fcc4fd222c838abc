package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/deppfellow/vacq/internal/errs"
	"github.com/deppfellow/vacq/internal/lib/job"
	"github.com/deppfellow/vacq/internal/model"
	"github.com/deppfellow/vacq/internal/repository"
	"github.com/deppfellow/vacq/internal/server"
)

type AppointmentService struct {
	server    *server.Server
	repo      AppointmentRepository
	hospitals HospitalRepository
	queue     ConfirmationQueue
}

// NewAppointmentService builds the service. queue may be nil, in which case
// confirmation emails are skipped.
func NewAppointmentService(s *server.Server, repo AppointmentRepository, hospitals HospitalRepository, queue ConfirmationQueue) *AppointmentService {
	return &AppointmentService{
		server:    s,
		repo:      repo,
		hospitals: hospitals,
		queue:     queue,
	}
}

// List returns the appointments the actor may see: all of them for admins,
// their own otherwise. A non-empty hospitalID narrows to one hospital.
func (s *AppointmentService) List(ctx context.Context, actor model.Actor, hospitalID string) ([]model.Appointment, error) {
	filter := repository.AppointmentFilter{HospitalID: hospitalID}
	if !actor.Admin {
		filter.UserID = actor.UserID
	}

	appts, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if appts == nil {
		appts = []model.Appointment{}
	}
	return appts, nil
}

func (s *AppointmentService) Get(ctx context.Context, actor model.Actor, id string) (*model.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, appointmentError(err, id)
	}

	if !actor.CanManage(a) {
		return nil, forbidden(actor, "view")
	}
	return a, nil
}

// Create books an appointment at an existing hospital. Callers without the
// admin role hold at most model.MaxAppointmentsPerUser bookings.
func (s *AppointmentService) Create(ctx context.Context, actor model.Actor, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	hospital, err := s.hospitals.GetByID(ctx, req.HospitalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errs.NewNotFoundError(fmt.Sprintf("No hospital with the id of %s", req.HospitalID), true, nil)
		}
		return nil, err
	}

	limit := model.MaxAppointmentsPerUser
	if actor.Admin {
		limit = 0
	}

	a, err := s.repo.Create(ctx, &model.Appointment{
		ApptDate:   req.ApptDate,
		User:       actor.UserID,
		HospitalID: hospital.ID,
	}, limit)
	if err != nil {
		if errors.Is(err, repository.ErrLimitReached) {
			return nil, errs.NewBadRequestError(
				fmt.Sprintf("The user with ID %s has already made %d appointments", actor.UserID, model.MaxAppointmentsPerUser),
				true, nil, nil, nil,
			)
		}
		return nil, err
	}

	a.Hospital = &model.HospitalSummary{
		ID:       hospital.ID,
		Name:     hospital.Name,
		Province: hospital.Province,
		Tel:      hospital.Tel,
	}

	if req.NotifyEmail != "" {
		s.notify(ctx, req.NotifyEmail, a)
	}

	return a, nil
}

// notify queues a confirmation email. Failures are logged only: the booking
// itself already succeeded.
func (s *AppointmentService) notify(ctx context.Context, to string, a *model.Appointment) {
	logger := s.server.Logger.With().Str("appointment_id", a.ID).Logger()

	if s.queue == nil {
		logger.Warn().Msg("job queue unavailable, confirmation email skipped")
		return
	}

	err := s.queue.EnqueueAppointmentConfirmation(ctx, job.AppointmentConfirmationPayload{
		To:            to,
		AppointmentID: a.ID,
		HospitalName:  a.Hospital.Name,
		HospitalTel:   a.Hospital.Tel,
		ApptDate:      a.ApptDate,
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to enqueue confirmation email")
	}
}

// Update reschedules an appointment owned by the actor (or any, for admins).
func (s *AppointmentService) Update(ctx context.Context, actor model.Actor, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	a, err := s.repo.Update(ctx, req.ID, func(a *model.Appointment) error {
		if !actor.CanManage(a) {
			return forbidden(actor, "update")
		}
		a.ApptDate = *req.ApptDate
		return nil
	})
	if err != nil {
		return nil, appointmentError(err, req.ID)
	}
	return a, nil
}

// Delete cancels an appointment owned by the actor (or any, for admins).
func (s *AppointmentService) Delete(ctx context.Context, actor model.Actor, id string) error {
	err := s.repo.Delete(ctx, id, func(a *model.Appointment) error {
		if !actor.CanManage(a) {
			return forbidden(actor, "delete")
		}
		return nil
	})
	if err != nil {
		return appointmentError(err, id)
	}
	return nil
}

func appointmentError(err error, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return errs.NewNotFoundError(fmt.Sprintf("No appointment with the id of %s", id), true, nil)
	}
	return err
}

func forbidden(actor model.Actor, verb string) error {
	return errs.NewForbiddenError(fmt.Sprintf("User %s is not authorized to %s this appointment", actor.UserID, verb), true)
}
