// Package testutil provides in-memory stand-ins for the database
// repositories and a ready-made server container for tests.
package testutil

import (
	"context"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/deppfellow/vacq/internal/model"
	"github.com/deppfellow/vacq/internal/query"
	"github.com/deppfellow/vacq/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Store keeps hospitals, appointments and vaccine centers in memory and
// evaluates listings with the same query.Spec the SQL repository compiles.
type Store struct {
	Hospitals    *HospitalStore
	Appointments *AppointmentStore
	VacCenters   *VacCenterStore
}

type memDB struct {
	mu        sync.Mutex
	hospitals map[string]model.Hospital
	appts     map[string]model.Appointment
	centers   []model.VaccineCenter
	clock     time.Time
}

// now returns a strictly increasing timestamp so creation order is stable.
func (db *memDB) now() time.Time {
	db.clock = db.clock.Add(time.Millisecond)
	return db.clock
}

func NewStore() *Store {
	db := &memDB{
		hospitals: map[string]model.Hospital{},
		appts:     map[string]model.Appointment{},
		clock:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	return &Store{
		Hospitals:    &HospitalStore{db: db},
		Appointments: &AppointmentStore{db: db},
		VacCenters:   &VacCenterStore{db: db},
	}
}

// ----------------------------------------------------------------------------
// Hospitals
// ----------------------------------------------------------------------------

type HospitalStore struct {
	db *memDB
}

func (s *HospitalStore) List(_ context.Context, spec *query.Spec) ([]model.Hospital, int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	type entry struct {
		h   model.Hospital
		doc map[string]any
	}

	var matched []entry
	for _, h := range s.db.hospitals {
		doc := h.Document()
		if spec.Matches(doc) {
			matched = append(matched, entry{h: h, doc: doc})
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return spec.Less(matched[i].doc, matched[j].doc)
	})

	total := len(matched)
	start := min(spec.Offset(), total)
	end := start + min(spec.Limit, total-start)

	page := make([]model.Hospital, 0, end-start)
	for _, e := range matched[start:end] {
		h := e.h
		h.Appointments = s.db.appointmentsOf(h.ID)
		page = append(page, h)
	}

	return page, total, nil
}

func (db *memDB) appointmentsOf(hospitalID string) []model.Appointment {
	out := []model.Appointment{}
	for _, a := range db.appts {
		if a.HospitalID == hospitalID {
			a.Hospital = nil
			out = append(out, a)
		}
	}
	sortAppointments(out)
	return out
}

func sortAppointments(appts []model.Appointment) {
	sort.Slice(appts, func(i, j int) bool {
		if !appts[i].ApptDate.Equal(appts[j].ApptDate) {
			return appts[i].ApptDate.Before(appts[j].ApptDate)
		}
		return appts[i].ID < appts[j].ID
	})
}

func (s *HospitalStore) GetByID(_ context.Context, id string) (*model.Hospital, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	h, ok := s.db.hospitals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &h, nil
}

// Create enforces the unique name constraint the way Postgres reports it.
func (s *HospitalStore) Create(_ context.Context, h *model.Hospital) (*model.Hospital, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if err := s.db.checkUniqueName("", h.Name); err != nil {
		return nil, err
	}

	created := *h
	created.ID = uuid.NewString()
	created.CreatedAt = s.db.now()
	created.UpdatedAt = created.CreatedAt
	created.Appointments = nil

	s.db.hospitals[created.ID] = created
	return &created, nil
}

func (db *memDB) checkUniqueName(id, name string) error {
	for _, other := range db.hospitals {
		if other.ID != id && other.Name == name {
			return &pgconn.PgError{
				Code:           "23505",
				Message:        "duplicate key value violates unique constraint",
				TableName:      "hospitals",
				ConstraintName: "hospitals_name_key",
			}
		}
	}
	return nil
}

func (s *HospitalStore) Update(_ context.Context, id string, apply func(*model.Hospital) error) (*model.Hospital, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	current, ok := s.db.hospitals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	updated := current
	if err := apply(&updated); err != nil {
		return nil, err
	}

	if !reflect.DeepEqual(updated, current) {
		if err := s.db.checkUniqueName(id, updated.Name); err != nil {
			return nil, err
		}
		updated.UpdatedAt = s.db.now()
		s.db.hospitals[id] = updated
	}

	return &updated, nil
}

func (s *HospitalStore) Delete(_ context.Context, id string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.hospitals[id]; !ok {
		return repository.ErrNotFound
	}

	for apptID, a := range s.db.appts {
		if a.HospitalID == id {
			delete(s.db.appts, apptID)
		}
	}
	delete(s.db.hospitals, id)
	return nil
}

// Len reports how many hospitals are stored.
func (s *HospitalStore) Len() int {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return len(s.db.hospitals)
}

// ----------------------------------------------------------------------------
// Appointments
// ----------------------------------------------------------------------------

type AppointmentStore struct {
	db *memDB
}

func (db *memDB) withHospital(a model.Appointment) model.Appointment {
	if h, ok := db.hospitals[a.HospitalID]; ok {
		a.Hospital = &model.HospitalSummary{ID: h.ID, Name: h.Name, Province: h.Province, Tel: h.Tel}
	}
	return a
}

func (s *AppointmentStore) List(_ context.Context, f repository.AppointmentFilter) ([]model.Appointment, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	out := []model.Appointment{}
	for _, a := range s.db.appts {
		if f.UserID != "" && a.User != f.UserID {
			continue
		}
		if f.HospitalID != "" && a.HospitalID != f.HospitalID {
			continue
		}
		out = append(out, s.db.withHospital(a))
	}
	sortAppointments(out)
	return out, nil
}

func (s *AppointmentStore) GetByID(_ context.Context, id string) (*model.Appointment, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	a, ok := s.db.appts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	a = s.db.withHospital(a)
	return &a, nil
}

// Create mirrors the foreign key and the per-user cap of the SQL repository.
func (s *AppointmentStore) Create(_ context.Context, a *model.Appointment, maxPerUser int) (*model.Appointment, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.hospitals[a.HospitalID]; !ok {
		return nil, &pgconn.PgError{
			Code:           "23503",
			Message:        "insert or update on table violates foreign key constraint",
			TableName:      "appointments",
			ConstraintName: "appointments_hospital_id_fkey",
		}
	}

	if maxPerUser > 0 {
		count := 0
		for _, other := range s.db.appts {
			if other.User == a.User {
				count++
			}
		}
		if count >= maxPerUser {
			return nil, repository.ErrLimitReached
		}
	}

	created := *a
	created.ID = uuid.NewString()
	created.CreatedAt = s.db.now()
	created.Hospital = nil

	s.db.appts[created.ID] = created
	return &created, nil
}

func (s *AppointmentStore) Update(_ context.Context, id string, apply func(*model.Appointment) error) (*model.Appointment, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	current, ok := s.db.appts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	updated := s.db.withHospital(current)
	if err := apply(&updated); err != nil {
		return nil, err
	}

	stored := updated
	stored.Hospital = nil
	s.db.appts[id] = stored

	return &updated, nil
}

func (s *AppointmentStore) Delete(_ context.Context, id string, check func(*model.Appointment) error) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	current, ok := s.db.appts[id]
	if !ok {
		return repository.ErrNotFound
	}

	current = s.db.withHospital(current)
	if err := check(&current); err != nil {
		return err
	}

	delete(s.db.appts, id)
	return nil
}

// Len reports how many appointments are stored.
func (s *AppointmentStore) Len() int {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return len(s.db.appts)
}

// ----------------------------------------------------------------------------
// Vaccine centers
// ----------------------------------------------------------------------------

type VacCenterStore struct {
	db *memDB

	// Err, when set, is returned by List.
	Err error
}

func (s *VacCenterStore) List(_ context.Context) ([]model.VaccineCenter, error) {
	if s.Err != nil {
		return nil, s.Err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	return append([]model.VaccineCenter{}, s.db.centers...), nil
}

// Add seeds vaccine centers.
func (s *VacCenterStore) Add(centers ...model.VaccineCenter) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.centers = append(s.db.centers, centers...)
}
