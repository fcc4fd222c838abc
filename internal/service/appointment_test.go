package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/deppfellow/vacq/internal/lib/job"
	"github.com/deppfellow/vacq/internal/model"
	"github.com/deppfellow/vacq/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	mu       sync.Mutex
	payloads []job.AppointmentConfirmationPayload
	err      error
}

func (q *fakeQueue) EnqueueAppointmentConfirmation(_ context.Context, p job.AppointmentConfirmationPayload) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.payloads = append(q.payloads, p)
	return nil
}

type appointmentFixture struct {
	store     *testutil.Store
	queue     *fakeQueue
	svc       *AppointmentService
	hospitals *HospitalService
	hospital  *model.Hospital
}

func newAppointmentFixture(t *testing.T) *appointmentFixture {
	t.Helper()

	store := testutil.NewStore()
	srv := testutil.NewServer(nil)
	queue := &fakeQueue{}

	hospitals := NewHospitalService(srv, store.Hospitals)
	h, err := hospitals.Create(context.Background(), createRequest("Chulalongkorn", "Central"))
	require.NoError(t, err)

	return &appointmentFixture{
		store:     store,
		queue:     queue,
		svc:       NewAppointmentService(srv, store.Appointments, store.Hospitals, queue),
		hospitals: hospitals,
		hospital:  h,
	}
}

func (f *appointmentFixture) book(t *testing.T, actor model.Actor, day int) *model.Appointment {
	t.Helper()
	a, err := f.svc.Create(context.Background(), actor, &model.CreateAppointmentRequest{
		HospitalID: f.hospital.ID,
		ApptDate:   time.Date(2025, 3, day, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return a
}

var (
	alice = model.Actor{UserID: "user_alice"}
	bob   = model.Actor{UserID: "user_bob"}
	admin = model.Actor{UserID: "user_admin", Admin: true}
)

func TestAppointmentService_CreatePopulatesHospital(t *testing.T) {
	f := newAppointmentFixture(t)

	a := f.book(t, alice, 1)

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, alice.UserID, a.User)
	assert.Equal(t, f.hospital.ID, a.HospitalID)
	require.NotNil(t, a.Hospital)
	assert.Equal(t, model.HospitalSummary{
		ID:       f.hospital.ID,
		Name:     f.hospital.Name,
		Province: f.hospital.Province,
		Tel:      f.hospital.Tel,
	}, *a.Hospital)
	assert.Empty(t, f.queue.payloads)
}

func TestAppointmentService_CreateUnknownHospital(t *testing.T) {
	f := newAppointmentFixture(t)
	missing := "9b2f3c44-1d7e-4a0c-8f61-0c9a1a6b2e55"

	_, err := f.svc.Create(context.Background(), alice, &model.CreateAppointmentRequest{
		HospitalID: missing,
		ApptDate:   time.Now(),
	})

	httpErr := requireHTTPError(t, err, http.StatusNotFound)
	assert.Equal(t, "No hospital with the id of "+missing, httpErr.Message)
	assert.Zero(t, f.store.Appointments.Len())
}

func TestAppointmentService_CreateEnforcesLimit(t *testing.T) {
	f := newAppointmentFixture(t)
	for day := 1; day <= model.MaxAppointmentsPerUser; day++ {
		f.book(t, alice, day)
	}

	_, err := f.svc.Create(context.Background(), alice, &model.CreateAppointmentRequest{
		HospitalID: f.hospital.ID,
		ApptDate:   time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC),
	})

	httpErr := requireHTTPError(t, err, http.StatusBadRequest)
	assert.Equal(t, "The user with ID user_alice has already made 3 appointments", httpErr.Message)
	assert.Equal(t, model.MaxAppointmentsPerUser, f.store.Appointments.Len())

	// Another user is unaffected.
	f.book(t, bob, 1)
}

func TestAppointmentService_AdminIsNotLimited(t *testing.T) {
	f := newAppointmentFixture(t)

	for day := 1; day <= model.MaxAppointmentsPerUser+2; day++ {
		f.book(t, admin, day)
	}

	assert.Equal(t, model.MaxAppointmentsPerUser+2, f.store.Appointments.Len())
}

func TestAppointmentService_CreateLimitUnderConcurrency(t *testing.T) {
	f := newAppointmentFixture(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for day := 1; day <= 10; day++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Create(context.Background(), alice, &model.CreateAppointmentRequest{
				HospitalID: f.hospital.ID,
				ApptDate:   time.Date(2025, 5, day, 9, 0, 0, 0, time.UTC),
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, model.MaxAppointmentsPerUser, succeeded)
	assert.Equal(t, model.MaxAppointmentsPerUser, f.store.Appointments.Len())
}

func TestAppointmentService_CreateQueuesConfirmation(t *testing.T) {
	f := newAppointmentFixture(t)
	when := time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

	a, err := f.svc.Create(context.Background(), alice, &model.CreateAppointmentRequest{
		HospitalID:  f.hospital.ID,
		ApptDate:    when,
		NotifyEmail: "alice@example.com",
	})
	require.NoError(t, err)

	require.Len(t, f.queue.payloads, 1)
	assert.Equal(t, job.AppointmentConfirmationPayload{
		To:            "alice@example.com",
		AppointmentID: a.ID,
		HospitalName:  f.hospital.Name,
		HospitalTel:   f.hospital.Tel,
		ApptDate:      when,
	}, f.queue.payloads[0])
}

func TestAppointmentService_QueueFailureKeepsBooking(t *testing.T) {
	f := newAppointmentFixture(t)
	f.queue.err = errors.New("redis down")

	_, err := f.svc.Create(context.Background(), alice, &model.CreateAppointmentRequest{
		HospitalID:  f.hospital.ID,
		ApptDate:    time.Now(),
		NotifyEmail: "alice@example.com",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, f.store.Appointments.Len())
}

func TestAppointmentService_ListScopesToOwner(t *testing.T) {
	f := newAppointmentFixture(t)
	other, err := f.hospitals.Create(context.Background(), createRequest("Ramathibodi", "Central"))
	require.NoError(t, err)

	f.book(t, alice, 2)
	f.book(t, alice, 1)
	f.book(t, bob, 3)
	_, err = f.svc.Create(context.Background(), bob, &model.CreateAppointmentRequest{
		HospitalID: other.ID,
		ApptDate:   time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	mine, err := f.svc.List(context.Background(), alice, "")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, a := range mine {
		assert.Equal(t, alice.UserID, a.User)
		require.NotNil(t, a.Hospital)
	}
	assert.True(t, mine[0].ApptDate.Before(mine[1].ApptDate))

	all, err := f.svc.List(context.Background(), admin, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	atOther, err := f.svc.List(context.Background(), admin, other.ID)
	require.NoError(t, err)
	require.Len(t, atOther, 1)
	assert.Equal(t, other.ID, atOther[0].HospitalID)

	none, err := f.svc.List(context.Background(), model.Actor{UserID: "user_nobody"}, "")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestAppointmentService_Get(t *testing.T) {
	f := newAppointmentFixture(t)
	a := f.book(t, alice, 1)

	got, err := f.svc.Get(context.Background(), alice, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	_, err = f.svc.Get(context.Background(), admin, a.ID)
	require.NoError(t, err)

	_, err = f.svc.Get(context.Background(), bob, a.ID)
	requireHTTPError(t, err, http.StatusForbidden)

	_, err = f.svc.Get(context.Background(), alice, "missing")
	httpErr := requireHTTPError(t, err, http.StatusNotFound)
	assert.Equal(t, "No appointment with the id of missing", httpErr.Message)
}

func TestAppointmentService_UpdateOwnership(t *testing.T) {
	f := newAppointmentFixture(t)
	a := f.book(t, alice, 1)
	moved := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	_, err := f.svc.Update(context.Background(), bob, &model.UpdateAppointmentRequest{ID: a.ID, ApptDate: &moved})
	httpErr := requireHTTPError(t, err, http.StatusForbidden)
	assert.Equal(t, "User user_bob is not authorized to update this appointment", httpErr.Message)

	unchanged, err := f.svc.Get(context.Background(), alice, a.ID)
	require.NoError(t, err)
	assert.True(t, unchanged.ApptDate.Equal(a.ApptDate))

	updated, err := f.svc.Update(context.Background(), alice, &model.UpdateAppointmentRequest{ID: a.ID, ApptDate: &moved})
	require.NoError(t, err)
	assert.True(t, updated.ApptDate.Equal(moved))
	require.NotNil(t, updated.Hospital)

	again := moved.Add(time.Hour)
	_, err = f.svc.Update(context.Background(), admin, &model.UpdateAppointmentRequest{ID: a.ID, ApptDate: &again})
	require.NoError(t, err)

	_, err = f.svc.Update(context.Background(), alice, &model.UpdateAppointmentRequest{ID: "missing", ApptDate: &moved})
	requireHTTPError(t, err, http.StatusNotFound)
}

func TestAppointmentService_DeleteOwnership(t *testing.T) {
	f := newAppointmentFixture(t)
	a := f.book(t, alice, 1)
	b := f.book(t, bob, 1)

	err := f.svc.Delete(context.Background(), bob, a.ID)
	httpErr := requireHTTPError(t, err, http.StatusForbidden)
	assert.Equal(t, "User user_bob is not authorized to delete this appointment", httpErr.Message)
	assert.Equal(t, 2, f.store.Appointments.Len())

	require.NoError(t, f.svc.Delete(context.Background(), alice, a.ID))
	require.NoError(t, f.svc.Delete(context.Background(), admin, b.ID))
	assert.Zero(t, f.store.Appointments.Len())

	requireHTTPError(t, f.svc.Delete(context.Background(), alice, a.ID), http.StatusNotFound)
}

func TestAppointmentService_CancelFreesQuota(t *testing.T) {
	f := newAppointmentFixture(t)
	var first *model.Appointment
	for day := 1; day <= model.MaxAppointmentsPerUser; day++ {
		a := f.book(t, alice, day)
		if first == nil {
			first = a
		}
	}

	require.NoError(t, f.svc.Delete(context.Background(), alice, first.ID))
	f.book(t, alice, 20)
}
